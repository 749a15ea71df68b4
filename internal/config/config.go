package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// DialTimeout converts the configured seconds to a duration.
func (s StreamConfig) DialTimeout() time.Duration {
	return time.Duration(s.DialTimeoutSeconds) * time.Second
}

// ReconnectDelay converts the configured seconds to a duration.
func (s StreamConfig) ReconnectDelay() time.Duration {
	return time.Duration(s.ReconnectDelaySeconds) * time.Second
}
