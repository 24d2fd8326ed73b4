package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	ServerAddress string `json:"serverAddress"`
	DatabasePath  string `json:"databasePath"`
	DatabaseURL   string `json:"databaseUrl"`
	DataDir       string `json:"dataDir"`
	Auth          Auth   `json:"auth"`
}

// Auth configuration
type Auth struct {
	Enabled         bool   `json:"enabled"`
	JWTSecret       string `json:"jwtSecret"`
	TokenTTLMinutes int    `json:"tokenTtlMinutes"`
	DefaultUsername string `json:"defaultUsername"`
}

// UsePostgres returns true if PostgreSQL should be used
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// TokenTTL returns the access token lifetime
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		ServerAddress: ":8000",
		DatabasePath:  "library.db",
		DataDir:       "./data",
		Auth: Auth{
			Enabled:         true,
			JWTSecret:       "CHANGE_THIS_TO_A_SECURE_SECRET_AT_LEAST_32_CHARS",
			TokenTTLMinutes: 60 * 24,
			DefaultUsername: "default",
		},
	}
}

// Load loads configuration from file or environment
func Load() (*Config, error) {
	// .env is optional; real environment wins over it.
	_ = godotenv.Load()

	cfg := defaultConfig()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.ServerAddress = addr
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}

	if enabled := os.Getenv("AUTH_ENABLED"); enabled != "" {
		cfg.Auth.Enabled = enabled == "true" || enabled == "1"
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if ttl := os.Getenv("TOKEN_TTL_MINUTES"); ttl != "" {
		if minutes, err := strconv.Atoi(ttl); err == nil && minutes > 0 {
			cfg.Auth.TokenTTLMinutes = minutes
		}
	}
	if username := os.Getenv("DEFAULT_USERNAME"); username != "" {
		cfg.Auth.DefaultUsername = username
	}

	// Data directory holds catalog and pricing dumps.
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}
	absDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.DataDir = absDir

	return cfg, nil
}
