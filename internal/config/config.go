// internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	Tenancy struct {
		// DataDir holds the per-organization database files and,
		// when MasterURL is empty, the master.db registry file.
		DataDir string `json:"data_dir"`
		// MasterURL is a postgres DSN for the master registry.
		// Empty means a sqlite master file under DataDir.
		MasterURL string `json:"master_url"`
	} `json:"tenancy"`
	JWT struct {
		Secret       string        `json:"secret"`
		ExpiryPeriod time.Duration `json:"expiry_period"`
	} `json:"jwt"`
	Server struct {
		Port         string        `json:"port"`
		ReadTimeout  time.Duration `json:"read_timeout"`
		WriteTimeout time.Duration `json:"write_timeout"`
	}
	Sendgrid struct {
		APIKey string `json:"api_key"`
		From   string `json:"from"`
	} `json:"sendgrid"`
	BaseURL string `json:"base_url"`
}

func Load() *Config {
	cfg := &Config{}

	// Tenancy configuration
	cfg.Tenancy.DataDir = getEnv("OMNI_DATA_DIR", filepath.Join(".", "data"))
	cfg.Tenancy.MasterURL = getEnv("DATABASE_URL", "")

	// JWT configuration
	cfg.JWT.Secret = getEnv("JWT_SECRET", "your-secret-key")
	cfg.JWT.ExpiryPeriod = time.Hour * 24

	// Sendgrid configuration
	cfg.Sendgrid.APIKey = getEnv("SENDGRID_API_KEY", "")
	cfg.Sendgrid.From = getEnv("SENDGRID_FROM", "")

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.ReadTimeout = time.Second * 15
	cfg.Server.WriteTimeout = time.Second * 15

	cfg.BaseURL = getEnv("BASE_URL", "http://localhost:8080")

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
