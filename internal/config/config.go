// Package config loads server configuration from file, environment, and
// defaults. Precedence: explicit file > APPMCP_* environment > defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/1amageek/app-mcp-sub001/internal/logger"
	"github.com/1amageek/app-mcp-sub001/internal/tree"
)

// Config is the full appmcpd configuration.
type Config struct {
	Transport   string        `mapstructure:"transport"`    // stdio or streamable-http
	Port        int           `mapstructure:"port"`         // streamable-http only
	CacheTTLMs  int           `mapstructure:"cache_ttl_ms"` // snapshot cache, 0 disables
	MaxDepth    int           `mapstructure:"max_depth"`    // default extraction depth bound
	MaxChildren int           `mapstructure:"max_children"` // default extraction breadth bound
	Log         logger.Config `mapstructure:"log"`
}

// Load reads configuration. path may be empty, in which case only an optional
// $HOME/.appmcpd.yaml and the environment are consulted; a missing file is an
// error only when it was named explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("transport", "stdio")
	v.SetDefault("port", 8080)
	v.SetDefault("cache_ttl_ms", 500)
	v.SetDefault("max_depth", tree.DefaultMaxDepth)
	v.SetDefault("max_children", tree.DefaultMaxChildren)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("APPMCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(".appmcpd")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Transport {
	case "stdio", "streamable-http":
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", c.Transport)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxDepth < 0 || c.MaxChildren < 0 || c.CacheTTLMs < 0 {
		return fmt.Errorf("bounds must be non-negative")
	}
	return nil
}
