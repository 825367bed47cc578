package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "day.csv", cfg.Data.DailyFile)
	assert.Equal(t, "hour.csv", cfg.Data.HourlyFile)
	assert.True(t, cfg.Data.Watch)
	assert.NoError(t, cfg.validate())
}

func TestConfigPaths(t *testing.T) {
	cfg := Default()
	cfg.Data.Dir = filepath.Join("srv", "data")

	assert.Equal(t, filepath.Join("srv", "data", "day.csv"), cfg.DailyPath())
	assert.Equal(t, filepath.Join("srv", "data", "hour.csv"), cfg.HourlyPath())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid default",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "invalid server port",
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero read timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantErr: "read timeout must be positive",
		},
		{
			name:    "missing data dir",
			mutate:  func(c *Config) { c.Data.Dir = "" },
			wantErr: "data directory must be set",
		},
		{
			name:    "missing daily file",
			mutate:  func(c *Config) { c.Data.DailyFile = "" },
			wantErr: "daily and hourly file names must be set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateNormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "syslog"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/bikepulse.log", cfg.Logging.FilePath)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9090
  read_timeout: 20s
data:
  dir: testdata
  daily_file: daily.csv
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg := *Default()
	require.NoError(t, loadFromFile(path, &cfg))

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 20*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "testdata", cfg.Data.Dir)
	assert.Equal(t, "daily.csv", cfg.Data.DailyFile)
	// keys absent from the file keep their defaults
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "hour.csv", cfg.Data.HourlyFile)
}

func TestLoadFromFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0644))

	cfg := *Default()
	assert.Error(t, loadFromFile(path, &cfg))
}

func TestApplyEnvPrecedence(t *testing.T) {
	// the file layer has already set values that differ from the defaults
	cfg := *Default()
	cfg.Server.Port = 9000
	cfg.Server.IdleTimeout = 2 * time.Minute
	cfg.Security.RateLimit.RPS = 25
	cfg.Data.Dir = "filedata"

	// env as envconfig produces it: default tags everywhere except the
	// variables that were actually set
	env := *Default()
	env.Server.Port = 8081
	env.Logging.Level = "debug"

	applyEnv(&cfg, &env)

	// explicitly set env values win
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// file values for defaulted env fields survive
	assert.Equal(t, 2*time.Minute, cfg.Server.IdleTimeout)
	assert.Equal(t, float64(25), cfg.Security.RateLimit.RPS)
	assert.Equal(t, "filedata", cfg.Data.Dir)
}

func TestLoadFileValuesWinOverEnvDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  idle_timeout: 2m
security:
  enable_cors: false
  rate_limit:
    rps: 25
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	t.Setenv("BIKEPULSE_SERVER_PORT", "9091")

	cfg, err := Load()
	require.NoError(t, err)

	// env var explicitly set
	assert.Equal(t, 9091, cfg.Server.Port)
	// file values for env-defaulted fields are not clobbered
	assert.Equal(t, 2*time.Minute, cfg.Server.IdleTimeout)
	assert.False(t, cfg.Security.EnableCORS)
	assert.Equal(t, float64(25), cfg.Security.RateLimit.RPS)
	// untouched fields keep their defaults
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}
