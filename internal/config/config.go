package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, mysql, or memory
	DSN    string `mapstructure:"dsn"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// ServerConfig holds settings for the MCP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ChainConfig bounds dependency chain traversal.
type ChainConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

// SuggestConfig caps suggestion output.
type SuggestConfig struct {
	Limit int `mapstructure:"limit"`
}

// CacheConfig toggles the per-project graph snapshot cache.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TelemetryConfig points at the JSONL event file. Empty disables telemetry.
type TelemetryConfig struct {
	Path string `mapstructure:"path"`
}

// Config holds all runtime configuration for critpath.
// Values are populated from .critpath.yaml, CRITPATH_* env vars, and CLI flags.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Suggest   SuggestConfig   `mapstructure:"suggest"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("store.driver", "sqlite")
	viper.SetDefault("store.dsn", "critpath.db")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("server.port", 8392)
	viper.SetDefault("chain.max_depth", 10)
	viper.SetDefault("suggest.limit", 5)
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("telemetry.path", "")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "mysql", "memory":
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if c.Chain.MaxDepth <= 0 {
		return fmt.Errorf("config: chain.max_depth must be positive, got %d", c.Chain.MaxDepth)
	}
	if c.Suggest.Limit <= 0 {
		return fmt.Errorf("config: suggest.limit must be positive, got %d", c.Suggest.Limit)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}
