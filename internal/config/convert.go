package config

import (
	"github.com/danmuck/fastdissect/internal/display"
	"github.com/danmuck/fastdissect/internal/fast/dissect"
)

// DissectConfig maps the file settings onto a dissect.Config. Sinks are left
// for the caller to attach.
func (c DissectorConfig) DissectConfig() dissect.Config {
	out := dissect.DefaultConfig()
	out.Preamble = c.PreambleBytes
	out.ResetPerPacket = c.ResetPerPacket
	if c.MaxSequenceLength > 0 {
		out.MaxSequenceLength = c.MaxSequenceLength
	}
	return out
}

func (c DissectorConfig) DisplayOptions() display.Options {
	opts := display.DefaultOptions()
	opts.Scientific = c.DecimalStyle != DecimalPlain
	opts.ShowEmpty = c.ShowEmpty
	opts.ShowDictionary = c.ShowDictionaries
	opts.ShowKey = c.ShowKeys
	opts.ShowOperator = c.ShowOperators
	opts.ShowMandatory = c.ShowMandatory
	return opts
}
