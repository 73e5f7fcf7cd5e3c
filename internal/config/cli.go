package config

import (
	"flag"
	"fmt"
	"io"
)

// CLIFlags holds command-line overrides. Nil fields were not set and leave
// the loaded value untouched.
type CLIFlags struct {
	ConfigPath *string
	Archive    *string
	Docs       *string
	Port       *string
	LogLevel   *string
	DSN        *string
	NatsURL    *string
	NoEnrich   *bool
}

// ParseFlags parses subcommand arguments into CLIFlags. Positional arguments
// after the flags are returned unchanged.
func ParseFlags(args []string) (CLIFlags, error) {
	flags, _, err := ParseFlagsArgs(args)
	return flags, err
}

// ParseFlagsArgs is ParseFlags that also returns the remaining positional
// arguments.
func ParseFlagsArgs(args []string) (CLIFlags, []string, error) {
	fs := flag.NewFlagSet("subete", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configPath, archive, docs, port, logLevel, dsn, natsURL string
		noEnrich                                                bool
	)
	fs.StringVar(&configPath, "config", "", "path to YAML config")
	fs.StringVar(&configPath, "c", "", "shorthand for --config")
	fs.StringVar(&archive, "archive", "", "sample-programs repository (path or URL)")
	fs.StringVar(&docs, "docs", "", "sample-programs-website repository (path or URL)")
	fs.StringVar(&port, "port", "", "HTTP port")
	fs.StringVar(&port, "p", "", "shorthand for --port")
	fs.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&dsn, "dsn", "", "PostgreSQL DSN")
	fs.StringVar(&natsURL, "nats-url", "", "NATS server URL")
	fs.BoolVar(&noEnrich, "no-enrich", false, "skip authorship enrichment")

	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, nil, fmt.Errorf("parse flags: %w", err)
	}

	var out CLIFlags
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config", "c":
			out.ConfigPath = &configPath
		case "archive":
			out.Archive = &archive
		case "docs":
			out.Docs = &docs
		case "port", "p":
			out.Port = &port
		case "log-level":
			out.LogLevel = &logLevel
		case "dsn":
			out.DSN = &dsn
		case "nats-url":
			out.NatsURL = &natsURL
		case "no-enrich":
			out.NoEnrich = &noEnrich
		}
	})
	return out, fs.Args(), nil
}

// LoadWithCLI loads defaults < YAML < ENV < CLI and validates the result.
// It also returns the YAML path that was used.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if flags.ConfigPath != nil {
		path = *flags.ConfigPath
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		return nil, path, fmt.Errorf("config yaml: %w", err)
	}
	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, path, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, path, nil
}

func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.Archive != nil {
		cfg.Sources.Archive = *flags.Archive
	}
	if flags.Docs != nil {
		cfg.Sources.Docs = *flags.Docs
	}
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.DSN != nil {
		cfg.Postgres.DSN = *flags.DSN
	}
	if flags.NatsURL != nil {
		cfg.NATS.URL = *flags.NatsURL
	}
	if flags.NoEnrich != nil && *flags.NoEnrich {
		cfg.Enrich.Enabled = false
	}
}
