package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmvc/domain/dataset"
	"rmvc/internal/errors"
)

var configEnv = []string{
	"RMVC_CONFIG", "RMVC_ORIENTATION", "RMVC_MIN_CRITERION_SIZE", "RMVC_WORKERS",
	"RMVC_PRECISION", "RMVC_SHEET", "RMVC_ACCEPT_MARKERS", "RMVC_MALFORMED_WARN_AT",
	"PORT", "GIN_MODE", "RMVC_HISTORY_LIMIT", "RMVC_MAX_UPLOAD_BYTES",
	"SHUTDOWN_TIMEOUT", "LOG_LEVEL", "LOG_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "rows", cfg.Analysis.Orientation)
	assert.Equal(t, 1, cfg.Analysis.MinCriterionSize)
	assert.Equal(t, 1, cfg.Analysis.Workers)
	assert.Equal(t, 4, cfg.Analysis.Precision)
	assert.False(t, cfg.Ingest.AcceptMarkers, "non-numeric cells are absent unless markers are enabled")
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, 100, cfg.Server.HistoryLimit)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RMVC_ORIENTATION", "columns")
	t.Setenv("RMVC_MIN_CRITERION_SIZE", "0")
	t.Setenv("RMVC_WORKERS", "8")
	t.Setenv("RMVC_ACCEPT_MARKERS", "true")
	t.Setenv("RMVC_MALFORMED_WARN_AT", "0.5")
	t.Setenv("PORT", "9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("RMVC_PRECISION", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "columns", cfg.Analysis.Orientation)
	assert.Equal(t, 0, cfg.Analysis.MinCriterionSize)
	assert.Equal(t, 8, cfg.Analysis.Workers)
	assert.Equal(t, 4, cfg.Analysis.Precision, "unparseable values fall back")
	assert.True(t, cfg.Ingest.AcceptMarkers)
	assert.Equal(t, 0.5, cfg.Ingest.MalformedWarnAt)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)

	opts := cfg.Analysis.BuildOptions()
	assert.Equal(t, dataset.RowsAreCriteria, opts.Orientation)
	assert.Equal(t, 0, opts.MinCriterionSize)
}

func TestLoadTOMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "rmvc.toml")
	content := `
[analysis]
orientation = "columns"
workers = 4
precision = 6

[server]
port = "7000"
history_limit = 5

[logging]
level = "WARN"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("RMVC_CONFIG", path)
	t.Setenv("RMVC_WORKERS", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "columns", cfg.Analysis.Orientation)
	assert.Equal(t, 2, cfg.Analysis.Workers, "env wins over the file")
	assert.Equal(t, 6, cfg.Analysis.Precision)
	assert.Equal(t, 1, cfg.Analysis.MinCriterionSize, "unset keys keep defaults")
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.HistoryLimit)
	assert.Equal(t, "WARN", cfg.Logging.Level)
}

func TestLoadRejectsUnknownTOMLKeys(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "rmvc.toml")
	require.NoError(t, os.WriteFile(path, []byte("[analysis]\nworkerz = 3\n"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeIOError, errors.GetCode(err))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"orientation", "RMVC_ORIENTATION", "diagonal"},
		{"workers", "RMVC_WORKERS", "0"},
		{"precision", "RMVC_PRECISION", "40"},
		{"negative min size", "RMVC_MIN_CRITERION_SIZE", "-1"},
		{"gin mode", "GIN_MODE", "turbo"},
		{"log level", "LOG_LEVEL", "LOUD"},
		{"warn ratio", "RMVC_MALFORMED_WARN_AT", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
