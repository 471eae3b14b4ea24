package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const configFileVar = "CONFIG_FILE"

type Config interface {
	EnvConfig
	StoreConfig
	HTTPConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetBaseURL() string
	GetStorageNamespace() string
	GetLoginRoute() string
}

type mainConfig struct {
	EnvVars
	Store
	HTTP
}

// New returns a Config backed by environment variables only.
func New() Config {
	return mainConfig{}
}

// Load reads an optional .env file and an optional YAML defaults file, then returns a Config.
// Environment variables always take precedence over values from the YAML file.
// If path is empty the CONFIG_FILE environment variable is consulted.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("godotenv.Load: %w", err)
	}

	if path == "" {
		path = os.Getenv(configFileVar)
	}
	if path == "" {
		return New(), nil
	}

	defaults, err := readDefaults(path)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Int("keys", len(defaults)).Msg("Loaded config file")

	src := source{defaults: defaults}
	return mainConfig{
		EnvVars: EnvVars{src},
		Store:   Store{src},
		HTTP:    HTTP{src},
	}, nil
}

func readDefaults(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	defaults := make(map[string]string)
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return defaults, nil
}

// source resolves a key from the environment, then the YAML defaults.
type source struct {
	defaults map[string]string
}

func (s source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value := s.defaults[key]; value != "" {
		return value
	}
	return defaultValue
}
