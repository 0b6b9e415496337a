package config

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/layoutstate/internal/history"
	"git.home.luguber.info/inful/layoutstate/internal/readiness"
	"git.home.luguber.info/inful/layoutstate/internal/store"
)

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all domains.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier returns the applier for every domain.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&DocumentDefaultApplier{},
			&HistoryDefaultApplier{},
			&LoggingDefaultApplier{},
			&HydrationDefaultApplier{},
			&PersistenceDefaultApplier{},
			&NATSDefaultApplier{},
			&MetricsDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// GetApplierByDomain returns a specific domain applier (useful for testing).
func (c *CompositeDefaultApplier) GetApplierByDomain(domain string) DefaultApplier {
	for _, applier := range c.appliers {
		if applier.Domain() == domain {
			return applier
		}
	}
	return nil
}

// DocumentDefaultApplier names the document.
type DocumentDefaultApplier struct{}

func (DocumentDefaultApplier) Domain() string { return "document" }

func (DocumentDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Document.ID == "" {
		cfg.Document.ID = store.DefaultDocument
	}
	return nil
}

// HistoryDefaultApplier sizes the undo log and readiness waits.
type HistoryDefaultApplier struct{}

func (HistoryDefaultApplier) Domain() string { return "history" }

func (HistoryDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.History.Capacity == 0 {
		cfg.History.Capacity = history.DefaultCapacity
	}
	if cfg.Readiness.Timeout == 0 {
		cfg.Readiness.Timeout = readiness.DefaultTimeout
	}
	return nil
}

// LoggingDefaultApplier picks text output at info level.
type LoggingDefaultApplier struct{}

func (LoggingDefaultApplier) Domain() string { return "logging" }

func (LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}

// HydrationDefaultApplier sets the watcher debounce.
type HydrationDefaultApplier struct{}

func (HydrationDefaultApplier) Domain() string { return "hydration" }

func (HydrationDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Hydration.Debounce == 0 {
		cfg.Hydration.Debounce = 250 * time.Millisecond
	}
	return nil
}

// PersistenceDefaultApplier sets the autosave cadence.
type PersistenceDefaultApplier struct{}

func (PersistenceDefaultApplier) Domain() string { return "persistence" }

func (PersistenceDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Persistence.AutosaveInterval == 0 {
		cfg.Persistence.AutosaveInterval = 30 * time.Second
	}
	return nil
}

// NATSDefaultApplier fills connection and naming defaults.
type NATSDefaultApplier struct{}

func (NATSDefaultApplier) Domain() string { return "nats" }

func (NATSDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://127.0.0.1:4222"
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = "layoutstate.state"
	}
	if cfg.NATS.KVBucket == "" {
		cfg.NATS.KVBucket = "layoutstate"
	}
	if cfg.NATS.ConnectTimeout == 0 {
		cfg.NATS.ConnectTimeout = 5 * time.Second
	}
	if cfg.NATS.Retry.Backoff == "" {
		cfg.NATS.Retry.Backoff = RetryBackoffExponential
	}
	if cfg.NATS.Retry.Initial == 0 {
		cfg.NATS.Retry.Initial = 200 * time.Millisecond
	}
	if cfg.NATS.Retry.Max == 0 {
		cfg.NATS.Retry.Max = 5 * time.Second
	}
	if cfg.NATS.Retry.MaxRetries == 0 {
		cfg.NATS.Retry.MaxRetries = 3
	}
	return nil
}

// MetricsDefaultApplier sets the listen address.
type MetricsDefaultApplier struct{}

func (MetricsDefaultApplier) Domain() string { return "metrics" }

func (MetricsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9464"
	}
	return nil
}
