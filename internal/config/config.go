package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	ErrNoTemplates           = errors.New("config: at least one template file required")
	ErrUnknownImplementation = errors.New("config: unknown implementation")
	ErrUnknownOutput         = errors.New("config: unknown output format")
	ErrUnknownDecimalStyle   = errors.New("config: unknown decimal style")
	ErrInvalidPreamble       = errors.New("config: invalid preamble_bytes")
)

// Implementation selects a vendor flavour of FAST. Vendor flavours prefix
// every packet with a fixed header and reset dictionaries between packets.
type Implementation string

const (
	ImplementationFAST Implementation = "fast"
	ImplementationCME  Implementation = "cme"
	ImplementationUMDF Implementation = "umdf"
	ImplementationMOEX Implementation = "moex"
)

var preambles = map[Implementation]int{
	ImplementationFAST: 0,
	ImplementationCME:  5,
	ImplementationUMDF: 10,
	ImplementationMOEX: 4,
}

// Preamble is the header length of the implementation.
func (i Implementation) Preamble() (int, bool) {
	n, ok := preambles[i]
	return n, ok
}

// ResetsPerPacket reports whether the implementation clears dictionaries
// after every packet.
func (i Implementation) ResetsPerPacket() bool {
	return i != ImplementationFAST
}

const (
	OutputText = "text"
	OutputJSON = "json"

	DecimalPlain      = "decimal"
	DecimalScientific = "scientific"
)

// DissectorConfig configures fastdump.
type DissectorConfig struct {
	Templates         []string
	Implementation    Implementation
	PreambleBytes     int
	ResetPerPacket    bool
	MaxSequenceLength uint32
	Session           string
	ErrorLog          string
	Output            string
	DecimalStyle      string
	ShowEmpty         bool
	ShowDictionaries  bool
	ShowKeys          bool
	ShowOperators     bool
	ShowMandatory     bool
	MetricsAddr       string
}

func DefaultDissectorConfig() DissectorConfig {
	return DissectorConfig{
		Implementation:    ImplementationFAST,
		MaxSequenceLength: 1 << 16,
		Session:           "default",
		Output:            OutputText,
		DecimalStyle:      DecimalScientific,
		ShowEmpty:         true,
	}
}

type fileConfig struct {
	Templates         []string `toml:"templates"`
	Implementation    string   `toml:"implementation"`
	PreambleBytes     int      `toml:"preamble_bytes"`
	ResetPerPacket    bool     `toml:"reset_per_packet"`
	MaxSequenceLength uint32   `toml:"max_sequence_length"`
	Session           string   `toml:"session"`
	ErrorLog          string   `toml:"error_log"`
	Output            string   `toml:"output"`
	DecimalStyle      string   `toml:"decimal_style"`
	ShowEmpty         bool     `toml:"show_empty"`
	ShowDictionaries  bool     `toml:"show_dictionaries"`
	ShowKeys          bool     `toml:"show_keys"`
	ShowOperators     bool     `toml:"show_operators"`
	ShowMandatory     bool     `toml:"show_mandatory"`
	MetricsAddr       string   `toml:"metrics_addr"`
}

// LoadDissectorConfig decodes the file at path and validates the result.
func LoadDissectorConfig(path string) (DissectorConfig, error) {
	cfg, err := DecodeDissectorConfig(path)
	if err != nil {
		return DissectorConfig{}, err
	}
	if err := ValidateDissectorConfig(cfg); err != nil {
		return DissectorConfig{}, err
	}
	return cfg, nil
}

// DecodeDissectorConfig overlays the keys set in the TOML file at path on
// DefaultDissectorConfig. Choosing a vendor implementation sets its preamble
// and per-packet reset unless the file sets those keys explicitly.
func DecodeDissectorConfig(path string) (DissectorConfig, error) {
	cfg := DefaultDissectorConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return DissectorConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return DissectorConfig{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("templates") {
		cfg.Templates = normalizePaths(raw.Templates)
	}
	if meta.IsDefined("implementation") {
		impl := Implementation(strings.ToLower(strings.TrimSpace(raw.Implementation)))
		n, ok := impl.Preamble()
		if !ok {
			return DissectorConfig{}, fmt.Errorf("%w: %q", ErrUnknownImplementation, raw.Implementation)
		}
		cfg.Implementation = impl
		cfg.PreambleBytes = n
		cfg.ResetPerPacket = impl.ResetsPerPacket()
	}
	if meta.IsDefined("preamble_bytes") {
		cfg.PreambleBytes = raw.PreambleBytes
	}
	if meta.IsDefined("reset_per_packet") {
		cfg.ResetPerPacket = raw.ResetPerPacket
	}
	if meta.IsDefined("max_sequence_length") {
		cfg.MaxSequenceLength = raw.MaxSequenceLength
	}
	if meta.IsDefined("session") {
		cfg.Session = strings.TrimSpace(raw.Session)
	}
	if meta.IsDefined("error_log") {
		cfg.ErrorLog = strings.TrimSpace(raw.ErrorLog)
	}
	if meta.IsDefined("output") {
		cfg.Output = strings.ToLower(strings.TrimSpace(raw.Output))
	}
	if meta.IsDefined("decimal_style") {
		cfg.DecimalStyle = strings.ToLower(strings.TrimSpace(raw.DecimalStyle))
	}
	if meta.IsDefined("show_empty") {
		cfg.ShowEmpty = raw.ShowEmpty
	}
	if meta.IsDefined("show_dictionaries") {
		cfg.ShowDictionaries = raw.ShowDictionaries
	}
	if meta.IsDefined("show_keys") {
		cfg.ShowKeys = raw.ShowKeys
	}
	if meta.IsDefined("show_operators") {
		cfg.ShowOperators = raw.ShowOperators
	}
	if meta.IsDefined("show_mandatory") {
		cfg.ShowMandatory = raw.ShowMandatory
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	return cfg, nil
}

func ValidateDissectorConfig(cfg DissectorConfig) error {
	if len(cfg.Templates) == 0 {
		return ErrNoTemplates
	}
	if _, ok := cfg.Implementation.Preamble(); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownImplementation, cfg.Implementation)
	}
	if cfg.PreambleBytes < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPreamble, cfg.PreambleBytes)
	}
	switch cfg.Output {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutput, cfg.Output)
	}
	switch cfg.DecimalStyle {
	case DecimalPlain, DecimalScientific:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDecimalStyle, cfg.DecimalStyle)
	}
	if strings.TrimSpace(cfg.Session) == "" {
		return fmt.Errorf("config missing session")
	}
	return nil
}

func normalizePaths(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		v := strings.TrimSpace(p)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
