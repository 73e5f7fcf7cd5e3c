package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "subete.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	// Sources
	setString(&cfg.Sources.Opener, "SUBETE_OPENER")
	setString(&cfg.Sources.Archive, "SUBETE_ARCHIVE")
	setString(&cfg.Sources.ArchiveSubdir, "SUBETE_ARCHIVE_SUBDIR")
	setString(&cfg.Sources.TestConfig, "SUBETE_TEST_CONFIG")
	setString(&cfg.Sources.Docs, "SUBETE_DOCS")
	setString(&cfg.Sources.DocsSubdir, "SUBETE_DOCS_SUBDIR")
	setString(&cfg.Sources.CloneDir, "SUBETE_CLONE_DIR")

	// URLs
	setString(&cfg.URLs.DocsBase, "SUBETE_DOCS_BASE_URL")
	setString(&cfg.URLs.IssueQueryBase, "SUBETE_ISSUE_QUERY_URL")
	setString(&cfg.URLs.ArchiveBlobBase, "SUBETE_ARCHIVE_BLOB_URL")

	setString(&cfg.Logging.Level, "SUBETE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SUBETE_LOG_SERVICE")
	setString(&cfg.Logging.Format, "SUBETE_LOG_FORMAT")

	setInt(&cfg.Git.MaxConcurrent, "SUBETE_GIT_MAX_CONCURRENT")
	setDuration(&cfg.Git.CommandTimeout, "SUBETE_GIT_TIMEOUT")

	setBool(&cfg.Enrich.Enabled, "SUBETE_ENRICH")
	setInt(&cfg.Enrich.Workers, "SUBETE_ENRICH_WORKERS")

	// Cache
	setBool(&cfg.Cache.Enabled, "SUBETE_CACHE")
	setInt64(&cfg.Cache.L1MaxSizeMB, "SUBETE_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "SUBETE_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "SUBETE_CACHE_L2_TTL")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Subject, "SUBETE_NATS_SUBJECT")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "SUBETE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "SUBETE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "SUBETE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "SUBETE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "SUBETE_PG_HEALTH_CHECK")

	setString(&cfg.Server.Port, "SUBETE_PORT")
	setString(&cfg.Server.CORSOrigin, "SUBETE_CORS_ORIGIN")

	setString(&cfg.MCP.Name, "SUBETE_MCP_NAME")
	setString(&cfg.MCP.Version, "SUBETE_MCP_VERSION")

	// OpenTelemetry
	setBool(&cfg.OTEL.Enabled, "SUBETE_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "SUBETE_OTEL_INSECURE")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setFloat64(&cfg.OTEL.SampleRate, "SUBETE_OTEL_SAMPLE_RATE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Sources.Archive == "" {
		return errors.New("sources.archive is required")
	}
	if cfg.Sources.Docs == "" {
		return errors.New("sources.docs is required")
	}
	if cfg.Sources.Opener == "" {
		return errors.New("sources.opener is required")
	}
	if cfg.URLs.DocsBase == "" {
		return errors.New("urls.docs_base is required")
	}
	switch cfg.Logging.Format {
	case "json", "text", "auto":
	default:
		return fmt.Errorf("logging.format must be json, text or auto, got %q", cfg.Logging.Format)
	}
	if cfg.Git.MaxConcurrent < 1 {
		return errors.New("git.max_concurrent must be >= 1")
	}
	if cfg.Enrich.Workers < 1 {
		return errors.New("enrich.workers must be >= 1")
	}
	if cfg.Cache.Enabled && cfg.Cache.L1MaxSizeMB < 1 {
		return errors.New("cache.l1_max_size_mb must be >= 1")
	}
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN != "" && cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.OTEL.SampleRate < 0 || cfg.OTEL.SampleRate > 1 {
		return errors.New("otel.sample_rate must be between 0 and 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
