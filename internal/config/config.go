// Package config loads the layoutstate runtime configuration: a YAML file
// with ${VAR} expansion, optional .env files, normalized enumerations,
// per-domain defaults and validation.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
)

// CurrentVersion is the configuration format version.
const CurrentVersion = "1"

// Config is the complete runtime configuration.
type Config struct {
	Version     string            `yaml:"version"`
	Document    DocumentConfig    `yaml:"document"`
	History     HistoryConfig     `yaml:"history"`
	Readiness   ReadinessConfig   `yaml:"readiness"`
	Logging     LoggingConfig     `yaml:"logging"`
	Hydration   HydrationConfig   `yaml:"hydration"`
	Persistence PersistenceConfig `yaml:"persistence"`
	NATS        NATSConfig        `yaml:"nats"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// DocumentConfig identifies the layout document.
type DocumentConfig struct {
	ID string `yaml:"id"`
}

// HistoryConfig bounds the undo log.
type HistoryConfig struct {
	Capacity int `yaml:"capacity"`
}

// ReadinessConfig bounds waits for dependencies.
type ReadinessConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// HydrationConfig points at the initial payload.
type HydrationConfig struct {
	Path     string        `yaml:"path"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
}

// PersistenceConfig controls the history journal and autosave.
type PersistenceConfig struct {
	JournalPath      string        `yaml:"journal_path"`
	JournalState     bool          `yaml:"journal_state"`
	AutosavePath     string        `yaml:"autosave_path"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
}

// NATSConfig controls publishing of state changes.
type NATSConfig struct {
	Enabled        bool          `yaml:"enabled"`
	URL            string        `yaml:"url"`
	Subject        string        `yaml:"subject"`
	KVBucket       string        `yaml:"kv_bucket"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	Retry          RetryConfig   `yaml:"retry"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	_ = NewDefaultApplier().ApplyDefaults(cfg)
	return cfg
}

// Load reads the configuration at path. An empty path yields Default().
// .env files in the working directory are loaded first and ${VAR}
// references in the file are expanded.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", path).
				WithContext("reason", "config_not_found").
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read configuration").
			WithContext("path", path).
			Build()
	}
	return Parse(data)
}

// Parse decodes, normalizes, defaults and validates a YAML configuration.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse configuration").
			WithContext("reason", "malformed_config").
			Build()
	}
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Version != CurrentVersion {
		return nil, ferrors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("reason", "unsupported_version").
			Build()
	}

	Normalize(cfg)
	if err := NewDefaultApplier().ApplyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes an example configuration to path.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			WithContext("reason", "config_exists").
			Build()
	}
	example := Default()
	example.Hydration.Path = "./layout.yaml"
	example.Persistence.JournalPath = "./layoutstate-journal.db"
	example.Persistence.AutosavePath = "./layoutstate-autosave.json"
	example.NATS.URL = "${NATS_URL}"

	data, err := yaml.Marshal(example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode example configuration").Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write configuration").
			WithContext("path", path).
			Build()
	}
	return nil
}
