// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aristath/horizon/internal/utils"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Path store backends
const (
	BackendFile = "file"
	BackendS3   = "s3"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the history database (always absolute)
	LogLevel string
	Port     int
	DevMode  bool
	Workers  int // Simulation worker pool size, 0 = one per logical CPU
	MaxCells int // Largest run in simulations x months x assets, 0 = engine default
	Paths    *PathsConfig
	Refresh  *RefreshConfig
}

// PathsConfig selects where simulated path arrays are written
type PathsConfig struct {
	Backend         string // "file" or "s3"
	Dir             string // Root directory of the file backend
	Bucket          string
	Prefix          string
	Endpoint        string // Custom S3 endpoint (MinIO, R2); empty uses AWS
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// RefreshConfig describes the optional scheduled re-simulation
type RefreshConfig struct {
	Schedule       string // cron expression, empty disables the refresh
	Assets         []string
	NumSimulations int
	HorizonMonths  int
}

// Enabled reports whether a refresh schedule is configured
func (r *RefreshConfig) Enabled() bool {
	return r != nil && r.Schedule != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("HORIZON_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("HORIZON_PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		Workers:  getEnvAsInt("SIM_WORKERS", 0),
		MaxCells: getEnvAsInt("SIM_MAX_CELLS", 0),
		Paths:    loadPathsConfig(absDataDir),
		Refresh:  loadRefreshConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects inconsistent settings
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HORIZON_PORT %d", c.Port)
	}
	if c.Workers < 0 {
		return fmt.Errorf("SIM_WORKERS must not be negative, got %d", c.Workers)
	}
	if c.MaxCells < 0 {
		return fmt.Errorf("SIM_MAX_CELLS must not be negative, got %d", c.MaxCells)
	}

	if c.Paths == nil {
		return fmt.Errorf("path store configuration missing")
	}
	switch c.Paths.Backend {
	case BackendFile:
		if c.Paths.Dir == "" {
			return fmt.Errorf("PATHS_DIR is required for the file backend")
		}
	case BackendS3:
		if c.Paths.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 backend")
		}
		if (c.Paths.AccessKeyID == "") != (c.Paths.SecretAccessKey == "") {
			return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
		}
	default:
		return fmt.Errorf("unknown PATHS_BACKEND %q (want %q or %q)", c.Paths.Backend, BackendFile, BackendS3)
	}

	if c.Refresh.Enabled() {
		if _, err := cron.ParseStandard(c.Refresh.Schedule); err != nil {
			return fmt.Errorf("invalid REFRESH_SCHEDULE %q: %w", c.Refresh.Schedule, err)
		}
		if c.Refresh.NumSimulations <= 0 || c.Refresh.HorizonMonths <= 0 {
			return fmt.Errorf("REFRESH_SIMULATIONS and REFRESH_HORIZON_MONTHS must be positive when REFRESH_SCHEDULE is set")
		}
	}

	return nil
}

// HistoryDBPath returns the location of the history database
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func loadPathsConfig(dataDir string) *PathsConfig {
	return &PathsConfig{
		Backend:         getEnv("PATHS_BACKEND", BackendFile),
		Dir:             getEnv("PATHS_DIR", filepath.Join(dataDir, "simulated_paths")),
		Bucket:          getEnv("S3_BUCKET", ""),
		Prefix:          getEnv("S3_PREFIX", "simulated_paths"),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		Region:          getEnv("S3_REGION", "auto"),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
	}
}

func loadRefreshConfig() *RefreshConfig {
	return &RefreshConfig{
		Schedule:       getEnv("REFRESH_SCHEDULE", ""),
		Assets:         utils.ParseAssetList(getEnv("REFRESH_ASSETS", "")),
		NumSimulations: getEnvAsInt("REFRESH_SIMULATIONS", 10000),
		HorizonMonths:  getEnvAsInt("REFRESH_HORIZON_MONTHS", 900),
	}
}
