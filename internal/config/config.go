// Package config loads server settings from defaults, an optional YAML file
// and environment variables, in that order of precedence.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"canokart/internal/pricing"
)

const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
)

type HTTP struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Store struct {
	Driver   string `yaml:"driver"`
	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Search struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// Config настройки сервера
type Config struct {
	HTTP    HTTP          `yaml:"http"`
	Store   Store         `yaml:"store"`
	Log     Log           `yaml:"log"`
	Pricing pricing.Rules `yaml:"pricing"`
	Search  Search        `yaml:"search"`
	Seed    bool          `yaml:"seed"`
}

func Default() Config {
	return Config{
		HTTP:    HTTP{Addr: ":5000", ShutdownTimeout: 20 * time.Second},
		Store:   Store{Driver: DriverMemory, MongoDB: "canokart"},
		Log:     Log{Level: "info"},
		Pricing: pricing.DefaultRules(),
		Search:  Search{DefaultLimit: 20, MaxLimit: 100},
		Seed:    true,
	}
}

// Load reads path (if non-empty) over the defaults, then applies env overrides
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, errors.Wrap(err, "parse config")
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		if !strings.Contains(v, ":") {
			v = ":" + v
		}
		c.HTTP.Addr = v
	}
	for _, key := range []string{"MONGODB_URI", "MONGO_URL"} {
		if v, ok := lookup(key); ok && v != "" {
			c.Store.MongoURI = v
			c.Store.Driver = DriverMongo
		}
	}
	if v, ok := lookup("MONGO_DB"); ok && v != "" {
		c.Store.MongoDB = v
	}
	if v, ok := lookup("STORE_DRIVER"); ok && v != "" {
		c.Store.Driver = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("SEED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "SEED")
		}
		c.Seed = b
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return errors.New("store.mongo_uri is required for the mongo driver")
		}
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	p := c.Pricing
	if p.FreeShippingThreshold < 0 || p.FlatShipping < 0 || p.DefaultTaxRate < 0 {
		return errors.New("pricing values must be non-negative")
	}
	for state, rate := range p.TaxRates {
		if rate < 0 {
			return errors.Errorf("negative tax rate for %s", state)
		}
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit < c.Search.DefaultLimit {
		return errors.New("search limits are inconsistent")
	}
	return nil
}
