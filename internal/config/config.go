package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	StageProd = "prod"
	StageDev  = "dev"
)

type Config struct {
	Stage string

	// Matchmaking tier
	DirectoryURL string
	DirectoryKey string

	// Edgegap provisioning
	EdgegapURL string
	EdgegapKey string
	AppName    string
	AppVersion string

	// Dedicated server
	DatabaseURL string
	LogLevel    string
}

// Load reads the process configuration. Outside prod the .env file is
// loaded first; its absence is fine, plain env vars win either way.
func Load(logger zerolog.Logger) (*Config, error) {
	if os.Getenv("STAGE") != StageProd {
		if err := godotenv.Load(); err != nil {
			logger.Debug().Msg(".env file not found, using environment variables or defaults")
		}
	}

	cfg := &Config{
		Stage:        getEnv("STAGE", StageDev),
		DirectoryURL: getEnv("DIRECTORY_URL", "http://localhost:8090"),
		DirectoryKey: getEnv("DIRECTORY_API_KEY", ""),
		EdgegapURL:   getEnv("EDGEGAP_API_URL", "https://api.edgegap.com/v1"),
		EdgegapKey:   getEnv("EDGEGAP_API_KEY", ""),
		AppName:      getEnv("EDGEGAP_APP_NAME", "vidar-game"),
		AppVersion:   getEnv("EDGEGAP_APP_VERSION", "v1"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	if cfg.Stage != StageProd && cfg.Stage != StageDev {
		return nil, fmt.Errorf("stage must be either %s or %s, got %q", StageDev, StageProd, cfg.Stage)
	}

	logger.Info().
		Str("stage", cfg.Stage).
		Str("directory_url", cfg.DirectoryURL).
		Str("edgegap_url", cfg.EdgegapURL).
		Str("app_name", cfg.AppName).
		Str("app_version", cfg.AppVersion).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
