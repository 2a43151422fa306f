package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	IdentityConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type IdentityConfig interface {
	GetProvider() string
	GetIssuerURL() string
	GetClientID() string
	GetClientSecret() string
	GetScopes() []string
	GetSiteURL() string
	GetMemoryAutoConfirm() bool
}

type StorageConfig interface {
	GetProfileDBPath() string
}

type mainConfig struct {
	EnvVars
	Identity
	Storage
}

// New loads the configuration from the process environment.
func New() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("[config.New] parse env: %w", err)
	}
	return c, nil
}

// NewWithEnvironment loads the configuration from the given variables instead of the process
// environment.
func NewWithEnvironment(vars map[string]string) (Config, error) {
	var c mainConfig
	if err := env.ParseWithOptions(&c, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("[config.NewWithEnvironment] parse env: %w", err)
	}
	return c, nil
}
