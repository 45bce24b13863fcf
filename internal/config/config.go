// Package config loads datacode.yaml.
package config

import (
	"os"
	"time"

	"datacode/internal/limits"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "datacode.yaml"

type Config struct {
	Engine Engine `yaml:"engine"`
	Cache  Cache  `yaml:"cache"`
	Log    Log    `yaml:"log"`
	Server Server `yaml:"server"`
	Export Export `yaml:"export"`
}

type Engine struct {
	MaxCallDepth int `yaml:"max_call_depth"`
}

type Cache struct {
	Enabled bool          `yaml:"enabled"`
	MaxSize int           `yaml:"max_size"`
	TTL     time.Duration `yaml:"ttl"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Export struct {
	Path string `yaml:"path"`
}

func Default() *Config {
	return &Config{
		Engine: Engine{MaxCallDepth: limits.DefaultMaxCallDepth},
		Cache: Cache{
			Enabled: true,
			MaxSize: limits.DefaultCacheSize,
			TTL:     limits.DefaultCacheTTL,
		},
		Log:    Log{Level: "warn"},
		Server: Server{Addr: ":8899"},
		Export: Export{Path: "export.db"},
	}
}

// Load reads path over the defaults. An empty path tries DefaultFile and
// falls back to the defaults when it does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := limits.ValidateCallDepth(c.Engine.MaxCallDepth); err != nil {
		return errors.Wrap(err, "engine")
	}
	if c.Cache.Enabled {
		if err := limits.ValidateCacheSize(c.Cache.MaxSize); err != nil {
			return errors.Wrap(err, "cache")
		}
		if err := limits.ValidateCacheTTL(c.Cache.TTL); err != nil {
			return errors.Wrap(err, "cache")
		}
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log")
	}
	return nil
}
