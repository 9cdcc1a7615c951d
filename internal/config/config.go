package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig      `json:"server"`
	Persistence PersistenceConfig `json:"persistence"`
	Memory      MemoryConfig      `json:"memory"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

// PersistenceConfig selects the repository backend. Backend is one of
// "memory", "postgres", "redis", or "sqlite".
type PersistenceConfig struct {
	Backend  string         `json:"backend"`
	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
	SQLite   SQLiteConfig   `json:"sqlite"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

type SQLiteConfig struct {
	Path string `json:"path"`
}

// MemoryConfig tunes the cognitive stores.
type MemoryConfig struct {
	WorkingCapacity            int     `json:"working_capacity"`
	RelevanceThreshold         float64 `json:"relevance_threshold"`
	MaintenanceIntervalSeconds int     `json:"maintenance_interval_seconds"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8080,
			LogLevel: "info",
		},
		Persistence: PersistenceConfig{
			Backend: "memory",
			SQLite:  SQLiteConfig{Path: "cogito.db"},
		},
		Memory: MemoryConfig{
			WorkingCapacity:            7,
			RelevanceThreshold:         0.3,
			MaintenanceIntervalSeconds: 60,
		},
	}
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	cfg := Default()
	if err := json.Unmarshal([]byte(resolved), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
