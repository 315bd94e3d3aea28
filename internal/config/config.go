package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	StaticDir    string   `yaml:"static_dir"`
	CatalogPath  string   `yaml:"catalog_path"`
	AllowOrigins []string `yaml:"allow_origins"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
}

// EngineConfig points at the external scheduling engine. An empty URL
// selects the built-in sample plan.
type EngineConfig struct {
	URL           string  `yaml:"url"`
	Timeout       string  `yaml:"timeout"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

type SessionConfig struct {
	Backend    string `yaml:"backend"` // memory, badger
	Path       string `yaml:"path"`
	TTL        string `yaml:"ttl"`
	GCInterval string `yaml:"gc_interval"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			StaticDir:    "static",
			CatalogPath:  "data/programs.gob",
			AllowOrigins: []string{"*"},
			MaxBodyBytes: 8 << 20,
		},
		Engine: EngineConfig{
			Timeout:       "30s",
			RatePerSecond: 5,
			Burst:         5,
		},
		Session: SessionConfig{
			Backend:    "memory",
			Path:       "data/sessions",
			TTL:        "720h",
			GCInterval: "10m",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "logs/app.log",
		},
	}
}

// Load reads a YAML config. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ROSS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("ROSS_ENGINE_URL"); v != "" {
		c.Engine.URL = strings.Trim(v, "\"' ")
	}
	if v := os.Getenv("ROSS_SESSION_BACKEND"); v != "" {
		c.Session.Backend = v
	}
	if v := os.Getenv("ROSS_SESSION_PATH"); v != "" {
		c.Session.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	switch c.Session.Backend {
	case "memory":
	case "badger":
		if c.Session.Path == "" {
			return fmt.Errorf("session.path is required for the badger backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	for _, o := range c.Server.AllowOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("server.allow_origins: %q must be \"*\" or an http(s) origin", o)
		}
	}
	if c.Engine.RatePerSecond < 0 {
		return fmt.Errorf("engine.rate_per_second must not be negative")
	}
	for name, v := range map[string]string{
		"engine.timeout":      c.Engine.Timeout,
		"session.ttl":         c.Session.TTL,
		"session.gc_interval": c.Session.GCInterval,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) GetEngineTimeout() time.Duration { return parseOr(c.Engine.Timeout, 30*time.Second) }
func (c *Config) GetSessionTTL() time.Duration    { return parseOr(c.Session.TTL, 0) }
func (c *Config) GetGCInterval() time.Duration    { return parseOr(c.Session.GCInterval, 0) }

func parseOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
