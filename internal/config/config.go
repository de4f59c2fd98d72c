package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	StoreConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetDataFolder() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetLogDedupWindow() time.Duration
}

type mainConfig struct {
	EnvVars
	API
	Store
}

// New parses the process environment into a Config.
func New() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.sanitize(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads an optional .env file before parsing the environment.
// A missing .env file is not an error.
func Load(filenames ...string) (Config, error) {
	if err := godotenv.Load(filenames...); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}
	return New()
}

func (c *mainConfig) sanitize() error {
	if err := c.API.sanitize(); err != nil {
		return err
	}
	return c.Store.sanitize()
}
