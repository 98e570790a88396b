package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Quiz struct {
		Duration     string `yaml:"duration"`
		Tick         string `yaml:"tick"`
		QuestionsDir string `yaml:"questionsDir"`
		Set          string `yaml:"set"`
		CacheTTL     string `yaml:"cacheTTL"`
	} `yaml:"quiz"`
	Storage struct {
		Backend string `yaml:"backend"`
		Dir     string `yaml:"dir"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Quiz.Duration = "60s"
	cfg.Quiz.Tick = "1s"
	cfg.Quiz.Set = "default"
	cfg.Log.Level = "info"
	cfg.Log.Format = "pretty"
	return cfg
}

// Load reads YAML config from path on top of the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// StorageBackend resolves the snapshot backend, inferring it from the
// configured connections when not set explicitly.
func (c Config) StorageBackend(fallback string) string {
	switch {
	case c.Storage.Backend != "":
		return c.Storage.Backend
	case c.Redis.Addr != "":
		return BackendRedis
	case c.Postgres.URL != "":
		return BackendPostgres
	default:
		return fallback
	}
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
