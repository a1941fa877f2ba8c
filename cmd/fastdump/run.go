package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/fastdissect/internal/config"
	"github.com/danmuck/fastdissect/internal/display"
	"github.com/danmuck/fastdissect/internal/fast/dictionary"
	"github.com/danmuck/fastdissect/internal/fast/dissect"
	"github.com/danmuck/fastdissect/internal/fast/template"
	"github.com/danmuck/fastdissect/internal/observability"
	"github.com/rs/zerolog/log"
)

const maxLine = 1 << 20

type stats struct {
	Packets  int
	Messages int
	Errors   int
}

// run decodes every packet line of in and renders the messages to out.
//
// A line is a hex encoded packet, optionally prefixed with "<session>:" to
// decode it against that session's dictionaries. Blank lines and lines
// starting with '#' are skipped.
func run(cfg config.DissectorConfig, in io.Reader, out io.Writer, metrics *observability.Metrics) (stats, error) {
	var st stats
	errLog, err := observability.OpenErrorLog(cfg.ErrorLog)
	if err != nil {
		return st, err
	}
	defer errLog.Close()

	set, err := template.LoadFiles(cfg.Templates...)
	if err != nil {
		for _, e := range unwrapJoined(err) {
			errLog.Static(e)
		}
		if set == nil || set.Len() == 0 {
			return st, fmt.Errorf("no usable templates: %w", err)
		}
	}
	log.Info().Int("templates", set.Len()).Msg("templates loaded")

	var renderer display.Renderer
	switch cfg.Output {
	case config.OutputJSON:
		renderer = display.NewJSON(out, cfg.DisplayOptions())
	default:
		renderer = display.NewText(out, cfg.DisplayOptions())
	}

	registry := dictionary.NewRegistry()
	dissectors := make(map[string]*dissect.Dissector)
	session := func(key string) (*dissect.Dissector, error) {
		if d, ok := dissectors[key]; ok {
			return d, nil
		}
		dc := cfg.DissectConfig()
		dc.Errors = errLog
		dc.Metrics = metrics
		d, err := dissect.New(set, registry.Session(key), dc)
		if err != nil {
			return nil, err
		}
		dissectors[key] = d
		return d, nil
	}

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, pkt, err := parseLine(line, cfg.Session)
		if err != nil {
			metrics.Packet("invalid")
			log.Warn().Int("line", lineNo).Err(err).Msg("skipping packet")
			continue
		}
		d, err := session(key)
		if err != nil {
			return st, err
		}
		st.Packets++
		msgs, derr := d.Dissect(pkt)
		st.Messages += len(msgs)
		st.Errors += countErrors(msgs, derr)
		if derr != nil {
			metrics.Packet("error")
			log.Debug().Int("line", lineNo).Str("session", key).Err(derr).Msg("packet incomplete")
		} else {
			metrics.Packet("ok")
		}
		if err := renderer.Render(msgs); err != nil {
			return st, fmt.Errorf("render line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return st, fmt.Errorf("read input: %w", err)
	}
	return st, nil
}

// parseLine splits an optional session prefix from the hex packet. Spaces
// inside the hex are ignored.
func parseLine(line, defaultSession string) (string, []byte, error) {
	key := defaultSession
	if i := strings.IndexByte(line, ':'); i >= 0 {
		key = strings.TrimSpace(line[:i])
		line = line[i+1:]
		if key == "" {
			key = defaultSession
		}
	}
	raw := strings.Join(strings.Fields(line), "")
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	pkt, err := hex.DecodeString(raw)
	if err != nil {
		return "", nil, fmt.Errorf("decode hex: %w", err)
	}
	if len(pkt) == 0 {
		return "", nil, errors.New("empty packet")
	}
	return key, pkt, nil
}

// countErrors counts field errors plus the packet error when no field
// carries it.
func countErrors(msgs []*dissect.Message, derr error) int {
	n := 0
	for _, m := range msgs {
		n += len(m.Errors())
	}
	if derr != nil && (len(msgs) == 0 || len(msgs[len(msgs)-1].Fields) == 0) {
		n++
	}
	return n
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
