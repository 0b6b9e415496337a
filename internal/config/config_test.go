package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "default", cfg.Document.ID)
	assert.Equal(t, 100, cfg.History.Capacity)
	assert.Equal(t, 5*time.Second, cfg.Readiness.Timeout)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
	assert.Equal(t, 30*time.Second, cfg.Persistence.AutosaveInterval)
	assert.Equal(t, "layoutstate.state", cfg.NATS.Subject)
	assert.Equal(t, RetryBackoffExponential, cfg.NATS.Retry.Backoff)
	assert.Equal(t, 3, cfg.NATS.Retry.MaxRetries)
	assert.NoError(t, Validate(cfg))
}

func TestParse(t *testing.T) {
	t.Setenv("LAYOUT_DOC", "landing")
	cfg, err := Parse([]byte(`
version: "1"
document:
  id: ${LAYOUT_DOC}
history:
  capacity: 25
readiness:
  timeout: 2s
logging:
  level: WARNING
  format: " JSON "
hydration:
  path: ./layout.yaml
  watch: true
persistence:
  autosave_interval: 1m
nats:
  enabled: true
  subject: "layouts.state."
  retry:
    backoff: Fixed
    max_retries: 5
`))
	require.NoError(t, err)
	assert.Equal(t, "landing", cfg.Document.ID)
	assert.Equal(t, 25, cfg.History.Capacity)
	assert.Equal(t, 2*time.Second, cfg.Readiness.Timeout)
	assert.Equal(t, LogLevelWarn, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, time.Minute, cfg.Persistence.AutosaveInterval)
	assert.Equal(t, "layouts.state", cfg.NATS.Subject)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, RetryBackoffFixed, cfg.NATS.Retry.Backoff)
	assert.Equal(t, 5, cfg.NATS.Retry.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.NATS.Retry.Initial)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		reason string
	}{
		{"unknown field", "bogus: 1", "malformed_config"},
		{"wrong version", `version: "9"`, "unsupported_version"},
		{"tiny history", "history:\n  capacity: 1", "invalid_config"},
		{"watch without path", "hydration:\n  watch: true", "invalid_config"},
		{"wildcard subject", "nats:\n  subject: a.*", "invalid_config"},
		{"negative retries", "nats:\n  retry:\n    max_retries: -1", "invalid_config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
			assert.Equal(t, tt.reason, ferrors.ReasonCode(err))
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Document.ID)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, "config_not_found", ferrors.ReasonCode(err))
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LAYOUTSTATE_TEST_DOC", "")
	require.NoError(t, os.Unsetenv("LAYOUTSTATE_TEST_DOC"))
	require.NoError(t, os.WriteFile(".env", []byte("LAYOUTSTATE_TEST_DOC=from-env\n"), 0o600))
	require.NoError(t, os.WriteFile("cfg.yaml", []byte("document:\n  id: ${LAYOUTSTATE_TEST_DOC}\n"), 0o600))

	cfg, err := Load("cfg.yaml")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Document.ID)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layoutstate.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err)
	assert.Equal(t, "config_exists", ferrors.ReasonCode(err))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./layout.yaml", cfg.Hydration.Path)
}

func TestNormalizers(t *testing.T) {
	assert.Equal(t, LogLevelDebug, NormalizeLogLevel(" Debug"))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("verbose"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat("xml"))
	assert.Equal(t, "WARN", LogLevelWarn.Slog().String())
}

func TestGetApplierByDomain(t *testing.T) {
	a := NewDefaultApplier()
	assert.NotNil(t, a.GetApplierByDomain("nats"))
	assert.Nil(t, a.GetApplierByDomain("bogus"))
}
