package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/danmuck/fastdissect/internal/config"
	"github.com/danmuck/fastdissect/internal/logging"
	"github.com/danmuck/fastdissect/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "fastdump TOML config")
	templates := flag.String("templates", "", "comma separated template files (overrides config)")
	input := flag.String("input", "-", "packet file, one hex packet per line (- for stdin)")
	output := flag.String("output", "", "output format: text|json (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "serve prometheus metrics on this address")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg, err := resolveConfig(*configPath, *templates, *output, *metricsAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fastdump: %v\n", err)
		os.Exit(2)
	}

	in := io.Reader(os.Stdin)
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fastdump: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	metrics := observability.DefaultMetrics()
	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           observability.MetricsHandler(log.Logger, prometheus.DefaultGatherer),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server stopped")
			}
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	stats, err := run(cfg, in, os.Stdout, metrics)
	if err != nil {
		log.Error().Err(err).Msg("fastdump failed")
		os.Exit(1)
	}
	log.Info().
		Int("packets", stats.Packets).
		Int("messages", stats.Messages).
		Int("errors", stats.Errors).
		Msg("done")
}

// resolveConfig loads the config file when given, then applies flag
// overrides.
func resolveConfig(path, templates, output, metricsAddr string) (config.DissectorConfig, error) {
	cfg := config.DefaultDissectorConfig()
	if path != "" {
		loaded, err := config.DecodeDissectorConfig(path)
		if err != nil {
			return config.DissectorConfig{}, err
		}
		cfg = loaded
	}
	if templates != "" {
		cfg.Templates = nil
		for _, p := range strings.Split(templates, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Templates = append(cfg.Templates, p)
			}
		}
	}
	if output != "" {
		cfg.Output = strings.ToLower(output)
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	return cfg, config.ValidateDissectorConfig(cfg)
}
