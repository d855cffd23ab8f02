package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of environment variables read by LoadEnv.
const EnvPrefix = "LOCSYNC"

// Env holds settings taken from LOCSYNC_* environment variables.
type Env struct {
	APIKey   string `envconfig:"API_KEY"`
	Provider string `envconfig:"PROVIDER"`
	Model    string `envconfig:"MODEL"`
	BaseURL  string `envconfig:"BASE_URL"`
	Proxy    string `envconfig:"PROXY"`
}

// LoadEnv reads LOCSYNC_API_KEY, LOCSYNC_PROVIDER, LOCSYNC_MODEL,
// LOCSYNC_BASE_URL and LOCSYNC_PROXY.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Env{}, fmt.Errorf("reading environment: %w", err)
	}
	return env, nil
}

// Apply overrides provider settings of f with the non-empty values of env.
// The API key is not part of the file and is returned by the caller's own
// lookup.
func (env Env) Apply(f *File) {
	if env.Provider != "" {
		f.Provider.ID = env.Provider
	}
	if env.Model != "" {
		f.Provider.Model = env.Model
	}
	if env.BaseURL != "" {
		f.Provider.BaseURL = env.BaseURL
	}
	if env.Proxy != "" {
		f.Provider.Proxy = env.Proxy
	}
}
