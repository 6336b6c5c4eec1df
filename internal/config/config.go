package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreBadger  = "badger"
	StoreSQLite  = "sqlite"
	StoreMongoDB = "mongodb"
)

type Config struct {
	Environment string `json:"environment"`
	Server      struct {
		Host string `json:"host" env:"ARENA_SERVER_HOST"`
		Port int    `json:"port" env:"ARENA_SERVER_PORT"`
	} `json:"server"`
	Store struct {
		Driver   string `json:"driver" env:"ARENA_STORE_DRIVER"`     // badger, sqlite or mongodb
		Path     string `json:"path" env:"ARENA_STORE_PATH"`         // badger directory or sqlite file
		URI      string `json:"uri" env:"ARENA_MONGODB_URI"`         // mongodb only
		Database string `json:"database" env:"ARENA_MONGODB_DATABASE"` // mongodb only
	} `json:"store"`
	Frontend struct {
		URL string `json:"url" env:"ARENA_FRONTEND_URL"`
	} `json:"frontend"`
	JWT struct {
		Secret string `json:"secret" env:"ARENA_JWT_SECRET"`
		Issuer string `json:"issuer" env:"ARENA_JWT_ISSUER"`
		TTL    int    `json:"ttl" env:"ARENA_JWT_TTL"` // in minutes
	} `json:"jwt"`
	RateLimit struct {
		WritesPerMinute int `json:"writesPerMinute" env:"ARENA_RATE_WRITES_PER_MINUTE"`
		Burst           int `json:"burst" env:"ARENA_RATE_BURST"`
	} `json:"rateLimit"`
}

// Load reads configs/config.<env>.json, expands ${VAR} references and then
// applies ARENA_* environment overrides. A .env file in the working
// directory is loaded first when present.
func Load(environment string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		// Default to configs directory relative to working directory
		configDir = "configs"
	}

	filename := fmt.Sprintf("config.%s.json", environment)
	configPath := filepath.Join(configDir, filename)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Environment = environment
	return cfg, nil
}

// Parse decodes a config document, then overlays the environment.
func Parse(data []byte) (*Config, error) {
	// Replace environment variables in the config
	configStr := expandEnvVars(string(data))

	cfg := Default()
	if err := json.Unmarshal([]byte(configStr), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the values used for anything the file leaves out.
func Default() *Config {
	cfg := &Config{Environment: "dev"}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Store.Driver = StoreBadger
	cfg.Store.Path = "data/arena"
	cfg.Store.Database = "arena"
	cfg.Frontend.URL = "http://localhost:3000"
	cfg.JWT.Issuer = "arena-ledger"
	cfg.JWT.TTL = 60
	cfg.RateLimit.WritesPerMinute = 60
	cfg.RateLimit.Burst = 10
	return cfg
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreBadger, StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for %s", c.Store.Driver)
		}
	case StoreMongoDB:
		if c.Store.URI == "" || c.Store.Database == "" {
			return errors.New("store.uri and store.database are required for mongodb")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// expandEnvVars replaces ${VAR_NAME} with environment variable values
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}

func GetEnv() string {
	if e := os.Getenv("ARENA_ENV"); e != "" {
		return e
	}
	return "dev"
}
