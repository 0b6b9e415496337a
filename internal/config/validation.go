package config

import (
	"strings"

	"git.home.luguber.info/inful/layoutstate/internal/foundation"
	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
)

// Normalize case-folds enumerations and trims identifiers.
func Normalize(cfg *Config) {
	if cfg.Logging.Level != "" {
		cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	}
	if cfg.Logging.Format != "" {
		cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	}
	cfg.Document.ID = strings.TrimSpace(cfg.Document.ID)
	if cfg.NATS.Retry.Backoff != "" {
		cfg.NATS.Retry.Backoff = NormalizeRetryBackoffMode(string(cfg.NATS.Retry.Backoff))
	}
	cfg.NATS.Subject = strings.Trim(strings.TrimSpace(cfg.NATS.Subject), ".")
}

var configValidators = foundation.NewValidatorChain[*Config](
	func(c *Config) foundation.ValidationResult {
		return foundation.Required[string]("document.id")(c.Document.ID)
	},
	func(c *Config) foundation.ValidationResult {
		return foundation.AtLeast("history.capacity", 2)(c.History.Capacity)
	},
	func(c *Config) foundation.ValidationResult {
		return foundation.Positive[int64]("readiness.timeout")(int64(c.Readiness.Timeout))
	},
	func(c *Config) foundation.ValidationResult {
		return foundation.Positive[int64]("persistence.autosave_interval")(int64(c.Persistence.AutosaveInterval))
	},
	func(c *Config) foundation.ValidationResult {
		if !c.Hydration.Watch || c.Hydration.Path != "" {
			return foundation.Valid()
		}
		return foundation.Invalid(foundation.NewValidationError("hydration.path", "required", "hydration.watch needs hydration.path"))
	},
	func(c *Config) foundation.ValidationResult {
		if !c.NATS.Enabled {
			return foundation.Valid()
		}
		return foundation.Required[string]("nats.url")(c.NATS.URL).
			Combine(foundation.Required[string]("nats.subject")(c.NATS.Subject))
	},
	func(c *Config) foundation.ValidationResult {
		return foundation.AtLeast("nats.retry.max_retries", 0)(c.NATS.Retry.MaxRetries)
	},
	func(c *Config) foundation.ValidationResult {
		if strings.ContainsAny(c.NATS.Subject, " *>") {
			return foundation.Invalid(foundation.NewValidationError("nats.subject", "invalid", "subject must not contain spaces or wildcards"))
		}
		return foundation.Valid()
	},
)

// Validate checks cross-field constraints. Failures are config errors listing
// every invalid field.
func Validate(cfg *Config) error {
	res := configValidators.Validate(cfg)
	if err := res.ToError(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "configuration validation failed").
			WithContext("reason", "invalid_config").
			Build()
	}
	return nil
}
