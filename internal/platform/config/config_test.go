package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every lookup location at a fresh temp dir so the
// developer's own config and environment never leak into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, key := range []string{
		"TOBETUTOR_VALIDATOR_MODE",
		"TOBETUTOR_VALIDATOR_URL",
		"TOBETUTOR_VALIDATOR_TIMEOUT",
		"TOBETUTOR_SERVER_ADDR",
		"TOBETUTOR_DATA_DIR",
		"TOBETUTOR_ARCHIVE_ENABLED",
		"TOBETUTOR_LOG_LEVEL",
		"TOBETUTOR_LOG_FILE",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return dir
}

func TestNewDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := New(Options{EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, ModeHTTP, cfg.Validator.Mode)
	assert.Equal(t, "http://127.0.0.1:5000/validate", cfg.Validator.URL)
	assert.Equal(t, 10*time.Second, cfg.Validator.Timeout)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, filepath.Join(dir, "data", "tobetutor"), cfg.Data.Dir)
	assert.Equal(t, filepath.Join(cfg.Data.Dir, "tobetutor.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(cfg.Data.Dir, "tobetutor.log"), cfg.Log.File)
	assert.Empty(t, cfg.SourceFile)
}

func TestNewReadsFileEnvAndOverrides(t *testing.T) {
	dir := isolate(t)
	cfgDir := filepath.Join(dir, "config", "tobetutor")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(`
validator:
  url: http://validator.local/validate
  timeout: 3s
archive:
  enabled: false
log:
  level: debug
`), 0o644))
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("TOBETUTOR_SERVER_ADDR=:9999\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("TOBETUTOR_SERVER_ADDR") })

	cfg, err := New(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "http://validator.local/validate", cfg.Validator.URL)
	assert.Equal(t, 3*time.Second, cfg.Validator.Timeout)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, filepath.Join(cfgDir, "config.yaml"), cfg.SourceFile)

	cfg, err = New(Options{EnvFile: envFile, ValidatorURL: "http://other/validate", Offline: true})
	require.NoError(t, err)
	assert.Equal(t, "http://other/validate", cfg.Validator.URL)
	assert.Equal(t, ModeLocal, cfg.Validator.Mode)
}

func TestNewRejectsInvalidValues(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("validator:\n  mode: carrier-pigeon\n"), 0o644))

	_, err := New(Options{ConfigFile: file, EnvFile: filepath.Join(dir, "missing.env")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validator.mode")

	_, err = New(Options{ConfigFile: filepath.Join(dir, "nope.yaml"), EnvFile: filepath.Join(dir, "missing.env")})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		Validator: ValidatorConfig{Mode: ModeHTTP, URL: "http://x/validate", Timeout: time.Second},
		Data:      DataConfig{Dir: "/tmp/x"},
	}
	require.NoError(t, base.Validate())

	noURL := base
	noURL.Validator.URL = " "
	assert.Error(t, noURL.Validate())

	local := noURL
	local.Validator.Mode = ModeLocal
	assert.NoError(t, local.Validate())

	noTimeout := base
	noTimeout.Validator.Timeout = 0
	assert.Error(t, noTimeout.Validate())
}
