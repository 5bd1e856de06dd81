package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "appforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
history:
  backend: redis
  redis_addr: localhost:6379
provider:
  timeout: 45s
  models:
    grok: grok-beta
workspace:
  idle_timeout: 10m
`), 0o600))

	t.Setenv("APPFORGE_CONFIG_PATH", path)
	t.Setenv("APPFORGE_SERVER_PORT", "9100")
	t.Setenv("APPFORGE_PROVIDER_RPS", "0.5")
	t.Setenv("APPFORGE_AUTH_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, HistoryRedis, cfg.History.Backend)
	require.Equal(t, 45*time.Second, cfg.Provider.Timeout)
	require.Equal(t, "grok-beta", cfg.Provider.Models.Grok)
	require.Equal(t, 10*time.Minute, cfg.Workspace.IdleTimeout)
	require.InDelta(t, 0.5, cfg.Provider.RequestsPerSecond, 1e-9)
	require.False(t, cfg.Auth.Enabled)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APPFORGE_DB_PATH=from-dotenv.db\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("APPFORGE_DB_PATH") })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-dotenv.db", cfg.DB.Path)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := map[string]string{
		"APPFORGE_SERVER_PORT":            "eighty",
		"APPFORGE_PROVIDER_TIMEOUT":       "soon",
		"APPFORGE_AUTH_ENABLED":           "maybe",
		"APPFORGE_WORKSPACE_IDLE_TIMEOUT": "-",
		"APPFORGE_PROVIDER_RPS":           "fast",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.ErrorContains(t, err, key)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"bad transport", func(c *Config) { c.Server.Transport = "grpc" }, "invalid transport"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"redis without addr", func(c *Config) { c.History.Backend = HistoryRedis }, "redis address"},
		{"unknown backend", func(c *Config) { c.History.Backend = "s3" }, "invalid history backend"},
		{"no db", func(c *Config) { c.DB.Path = "" }, "db path"},
		{"zero timeout", func(c *Config) { c.Provider.Timeout = 0 }, "provider timeout"},
		{"bad schedule", func(c *Config) { c.Workspace.PruneSchedule = "every so often" }, "invalid prune schedule"},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}
