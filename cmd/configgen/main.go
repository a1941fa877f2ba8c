package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/fastdissect/internal/config"
	"github.com/danmuck/fastdissect/internal/fast/template"
	"github.com/danmuck/fastdissect/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	kind := flag.String("kind", "dissector", "config kind: dissector|templates|packets")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	logging.ConfigureRuntime()

	if *validate {
		path := *input
		if path == "" {
			p, err := defaultPath(*kind)
			if err != nil {
				fatal(err)
			}
			path = p
		}
		if err := validateFile(*kind, path); err != nil {
			fatal(err)
		}
		log.Info().Str("kind", *kind).Str("path", path).Msg("validated config")
		return
	}

	target := *output
	if target == "" {
		p, err := defaultPath(*kind)
		if err != nil {
			fatal(err)
		}
		target = p
	}

	write := func() error { return config.WriteTemplate(target, *kind, *force) }
	if *kind == "packets" {
		write = func() error { return writePackets(target, *force) }
	}
	if err := write(); err != nil {
		fatal(err)
	}
	log.Info().Str("kind", *kind).Str("path", target).Msg("wrote config template")
}

func defaultPath(kind string) (string, error) {
	switch kind {
	case "dissector", "fastdump":
		return "cmd/fastdump/config.toml", nil
	case "templates":
		return "cmd/fastdump/templates.yaml", nil
	case "packets":
		return "cmd/fastdump/packets.hex", nil
	default:
		return "", fmt.Errorf("unknown kind: %s", kind)
	}
}

// validateFile loads path the way fastdump would. Template files are
// checked for static errors as well as syntax.
func validateFile(kind, path string) error {
	switch kind {
	case "dissector", "fastdump":
		_, err := config.LoadDissectorConfig(path)
		return err
	case "templates":
		set, err := template.LoadFile(path)
		if err != nil {
			return err
		}
		log.Debug().Uints32("ids", set.IDs()).Msg("templates ok")
		return nil
	default:
		return fmt.Errorf("unknown kind: %s", kind)
	}
}

func fatal(err error) {
	log.Error().Err(err).Msg("configgen failed")
	os.Exit(1)
}
