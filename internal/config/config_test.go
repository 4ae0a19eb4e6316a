package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"API_URL", "DEBUG", "ENVIRONMENT", "LISTEN_ADDR", "DATABASE_URL",
	"CORS_ORIGINS", "CACHE_DIR", "CURRICULUM_PATH", "USER_ID", "RETENTION_DAYS",
}

// clearEnv unsets every config key for the test and restores it afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{EnvDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000", cfg.APIURL)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "127.0.0.1:8000", cfg.ListenAddr)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "default_user", cfg.UserID)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.False(t, cfg.Debug)
	assert.False(t, strings.HasPrefix(cfg.CacheDir, "~"))
	assert.Equal(t, filepath.Join(cfg.CacheDir, "progress.db"), cfg.DatabaseURL)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("USER_ID", "alice")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("RETENTION_DAYS", "7")
	t.Setenv("DEBUG", "true")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/progress")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load(Options{EnvDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.UserID)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 7, cfg.RetentionDays)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "postgres://u:p@db:5432/progress", cfg.DatabaseURL)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_DotEnvPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "test")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte("USER_ID=from-env-file\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("USER_ID=from-dotenv\nAPI_URL=http://dotenv.test:9000\n"), 0644))

	cfg, err := Load(Options{EnvDir: dir})
	require.NoError(t, err)

	assert.Equal(t, "from-env-file", cfg.UserID)
	assert.Equal(t, "http://dotenv.test:9000", cfg.APIURL)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "aitracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user_id: from-file\nretention_days: 14\n"), 0644))

	cfg, err := Load(Options{EnvDir: dir, ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.UserID)
	assert.Equal(t, 14, cfg.RetentionDays)

	_, err = Load(Options{EnvDir: dir, ConfigFile: filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"retention", "RETENTION_DAYS", "0"},
		{"environment", "ENVIRONMENT", "moon"},
		{"api url", "API_URL", "not a url"},
		{"listen addr", "LISTEN_ADDR", "nowhere"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load(Options{EnvDir: t.TempDir()})
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&Config{Environment: "production", Debug: true}, &buf).Debug("hello", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	NewLogger(&Config{Environment: "development"}, &buf).Debug("hidden")
	assert.Empty(t, buf.String())

	NewLogger(&Config{Environment: "development"}, &buf).Info("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}
