package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"LOG_LEVEL", "HORIZON_PORT", "DEV_MODE", "SIM_WORKERS", "SIM_MAX_CELLS",
		"PATHS_BACKEND", "PATHS_DIR", "S3_BUCKET", "S3_PREFIX", "S3_ENDPOINT", "S3_REGION",
		"S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
		"REFRESH_SCHEDULE", "REFRESH_ASSETS", "REFRESH_SIMULATIONS", "REFRESH_HORIZON_MONTHS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("HORIZON_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, 0, cfg.MaxCells)
	assert.Equal(t, BackendFile, cfg.Paths.Backend)
	assert.Equal(t, filepath.Join(dir, "simulated_paths"), cfg.Paths.Dir)
	assert.False(t, cfg.Refresh.Enabled())
	assert.Equal(t, filepath.Join(dir, "history.db"), cfg.HistoryDBPath())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("HORIZON_DATA_DIR", t.TempDir())
	t.Setenv("HORIZON_PORT", "9100")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("SIM_WORKERS", "6")
	t.Setenv("SIM_MAX_CELLS", "1000000")
	t.Setenv("PATHS_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "sims")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("REFRESH_SCHEDULE", "0 3 * * SUN")
	t.Setenv("REFRESH_ASSETS", "IWDA.L, AGG")
	t.Setenv("REFRESH_SIMULATIONS", "500")
	t.Setenv("REFRESH_HORIZON_MONTHS", "120")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, 1000000, cfg.MaxCells)
	assert.Equal(t, BackendS3, cfg.Paths.Backend)
	assert.Equal(t, "sims", cfg.Paths.Bucket)
	assert.Equal(t, "simulated_paths", cfg.Paths.Prefix)
	assert.Equal(t, "http://localhost:9000", cfg.Paths.Endpoint)
	assert.True(t, cfg.Refresh.Enabled())
	assert.Equal(t, []string{"IWDA.L", "AGG"}, cfg.Refresh.Assets)
	assert.Equal(t, 500, cfg.Refresh.NumSimulations)
	assert.Equal(t, 120, cfg.Refresh.HorizonMonths)
}

func validConfig() *Config {
	return &Config{
		DataDir:  "/tmp/horizon",
		LogLevel: "info",
		Port:     8080,
		Paths:    &PathsConfig{Backend: BackendFile, Dir: "/tmp/horizon/paths"},
		Refresh:  &RefreshConfig{},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"negative workers", func(c *Config) { c.Workers = -1 }, true},
		{"negative max cells", func(c *Config) { c.MaxCells = -1 }, true},
		{"bad port", func(c *Config) { c.Port = 0 }, true},
		{"unknown backend", func(c *Config) { c.Paths.Backend = "ftp" }, true},
		{"file backend without dir", func(c *Config) { c.Paths.Dir = "" }, true},
		{"s3 without bucket", func(c *Config) { c.Paths.Backend = BackendS3 }, true},
		{"s3 with bucket", func(c *Config) {
			c.Paths.Backend = BackendS3
			c.Paths.Bucket = "sims"
		}, false},
		{"s3 with half the credentials", func(c *Config) {
			c.Paths.Backend = BackendS3
			c.Paths.Bucket = "sims"
			c.Paths.AccessKeyID = "key"
		}, true},
		{"invalid schedule", func(c *Config) {
			c.Refresh = &RefreshConfig{Schedule: "every tuesday", NumSimulations: 10, HorizonMonths: 12}
		}, true},
		{"schedule without parameters", func(c *Config) {
			c.Refresh = &RefreshConfig{Schedule: "@daily"}
		}, true},
		{"valid schedule", func(c *Config) {
			c.Refresh = &RefreshConfig{Schedule: "@daily", NumSimulations: 10, HorizonMonths: 12}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
