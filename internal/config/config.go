// Package config provides hierarchical configuration loading for subete.
// Precedence: defaults < YAML file < environment variables.
package config

import (
	"time"

	"github.com/Strob0t/subete/internal/domain"
)

// Config holds all runtime configuration for the subete tools.
type Config struct {
	Sources  Sources     `yaml:"sources"`
	URLs     domain.URLs `yaml:"urls"`
	Logging  Logging     `yaml:"logging"`
	Git      Git         `yaml:"git"`
	Enrich   Enrich      `yaml:"enrich"`
	Cache    Cache       `yaml:"cache"`
	NATS     NATS        `yaml:"nats"`
	Postgres Postgres    `yaml:"postgres"`
	Server   Server      `yaml:"server"`
	MCP      MCP         `yaml:"mcp"`
	OTEL     OTEL        `yaml:"otel"`
}

// Sources locates the code archive and the documentation website. Archive
// and Docs are either local working trees or clone URLs.
type Sources struct {
	Opener        string `yaml:"opener"`         // vcs opener name (default: "local")
	Archive       string `yaml:"archive"`        // sample-programs repository
	ArchiveSubdir string `yaml:"archive_subdir"` // language tree inside Archive (default: "archive")
	TestConfig    string `yaml:"test_config"`    // project test config inside Archive (default: ".glotter.yml")
	Docs          string `yaml:"docs"`           // sample-programs-website repository
	DocsSubdir    string `yaml:"docs_subdir"`    // documentation tree inside Docs (default: "sources")
	CloneDir      string `yaml:"clone_dir"`      // parent dir for temporary clones; empty uses os.TempDir
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Format  string `yaml:"format"` // "json" | "text" | "auto" (default: "auto")
}

// Git holds git subprocess limits.
type Git struct {
	MaxConcurrent  int           `yaml:"max_concurrent"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// Enrich controls the documentation and authorship pass.
type Enrich struct {
	Enabled bool `yaml:"enabled"`
	Workers int  `yaml:"workers"`
}

// Cache configures the blame cache. L2 is used only when NATS is configured.
type Cache struct {
	Enabled     bool          `yaml:"enabled"`
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"`
	L2Bucket    string        `yaml:"l2_bucket"`
	L2TTL       time.Duration `yaml:"l2_ttl"`
}

// NATS holds NATS JetStream configuration. An empty URL disables NATS.
type NATS struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Postgres holds PostgreSQL connection configuration. An empty DSN
// disables snapshot export.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// MCP holds MCP server identity.
type MCP struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// OTEL holds OpenTelemetry export configuration.
type OTEL struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// Defaults returns a Config pointing at the public Sample Programs repositories.
func Defaults() Config {
	return Config{
		Sources: Sources{
			Opener:        "local",
			Archive:       "https://github.com/TheRenegadeCoder/sample-programs.git",
			ArchiveSubdir: "archive",
			TestConfig:    ".glotter.yml",
			Docs:          "https://github.com/TheRenegadeCoder/sample-programs-website.git",
			DocsSubdir:    "sources",
		},
		URLs: domain.DefaultURLs(),
		Logging: Logging{
			Level:   "info",
			Service: "subete",
			Format:  "auto",
		},
		Git: Git{
			MaxConcurrent:  5,
			CommandTimeout: 2 * time.Minute,
		},
		Enrich: Enrich{
			Enabled: true,
			Workers: 8,
		},
		Cache: Cache{
			Enabled:     true,
			L1MaxSizeMB: 64,
			L2Bucket:    "SUBETE_BLAME",
			L2TTL:       24 * time.Hour,
		},
		NATS: NATS{
			Subject: "subete.repo.ingested",
		},
		Postgres: Postgres{
			MaxConns:        5,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
		},
		Server: Server{
			Port: "8080",
		},
		MCP: MCP{
			Name:    "subete",
			Version: "0.1.0",
		},
		OTEL: OTEL{
			Endpoint:    "localhost:4317",
			Insecure:    true,
			ServiceName: "subete",
			SampleRate:  1.0,
		},
	}
}
