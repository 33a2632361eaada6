package kv

import (
	"fmt"
	"time"

	"github.com/imdario/mergo"
	"github.com/spf13/viper"
)

// EnvURL is the environment variable consulted when no store URL is given.
const EnvURL = "REPLIT_DB_URL"

// Config holds client initialization parameters.
type Config struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns the default client configuration. It has no URL.
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
	}
}

// LoadConfig reads the client configuration from v, binding "url" to the
// REPLIT_DB_URL environment variable. Unset fields take their defaults.
// A nil v reads from the environment only.
func LoadConfig(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	if err := v.BindEnv("url", EnvURL); err != nil {
		return Config{}, fmt.Errorf("bind %s: %w", EnvURL, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse client config: %w", err)
	}
	if err := mergo.Merge(&cfg, DefaultConfig()); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
