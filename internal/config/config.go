package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config represents the application configuration structure
type Config struct {
	Environment string `default:"development"`

	BackendURL     string        `split_words:"true" default:"http://localhost:8000"`
	RequestTimeout time.Duration `split_words:"true" default:"15s"`

	StorageDriver    string        `split_words:"true" default:"file"`
	StorageFile      string        `split_words:"true"`
	StorageNamespace string        `split_words:"true" default:"default"`
	CacheLifetime    time.Duration `split_words:"true"`

	RedisAddress  string `split_words:"true" default:"localhost:6379"`
	RedisPassword string `split_words:"true"`
	RedisDB       int    `split_words:"true"`

	PostgresDSN string `split_words:"true"`

	MockListenAddress string        `split_words:"true" default:":8000"`
	MockAllowedOrigin string        `split_words:"true" default:"*"`
	MockSigningSecret string        `split_words:"true" default:"insecure-development-secret"`
	MockOTPLifetime   time.Duration `split_words:"true" default:"10m"`
}

// IsEnvProduction returns whether the application runs in production mode
func (config *Config) IsEnvProduction() bool {
	return strings.EqualFold(config.Environment, "production")
}

// SessionFile returns the path of the JSON file the file storage driver persists to.
// Falls back to '<user config dir>/portal/<namespace>.json' if no path was configured.
func (config *Config) SessionFile() string {
	if config.StorageFile != "" {
		return config.StorageFile
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "portal", config.StorageNamespace+".json")
}

// LoadFromEnv loads a new configuration structure using environment variables and an optional .env file
func LoadFromEnv() (*Config, error) {
	// Load a .env file if it exists
	_ = godotenv.Overload()

	// Load a new configuration structure using environment variables
	config := new(Config)
	if err := envconfig.Process("portal", config); err != nil {
		return nil, err
	}
	return config, nil
}
