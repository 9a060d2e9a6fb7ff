package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string `yaml:"port"`
	Environment  string `yaml:"env"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`
	LogLevel     string `yaml:"log_level"`
	CORSOrigin   string `yaml:"cors_origin"`

	// Bridge pump
	PumpIntervalMS int `yaml:"pump_interval_ms"`
	QueueSize      int `yaml:"queue_size"`

	// JournalPath is the sqlite file; empty disables the journal.
	JournalPath      string `yaml:"journal_path"`
	PartsDir         string `yaml:"parts_dir"`
	FastenersEnabled bool   `yaml:"fasteners_enabled"`
}

func defaults() *Config {
	return &Config{
		Port:             "9875",
		Environment:      "development",
		ReadTimeout:      10,
		WriteTimeout:     30,
		LogLevel:         "info",
		CORSOrigin:       "*",
		PumpIntervalMS:   500,
		QueueSize:        64,
		JournalPath:      "data/db/journal.db",
		PartsDir:         "parts",
		FastenersEnabled: true,
	}
}

// Load builds the configuration: defaults, then the optional YAML file named
// by CONFIG_FILE, then environment variables, each layer overriding the last.
func Load() (*Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.ReadTimeout = getEnvAsInt("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.CORSOrigin = getEnv("CORS_ORIGIN", cfg.CORSOrigin)
	cfg.PumpIntervalMS = getEnvAsInt("PUMP_INTERVAL_MS", cfg.PumpIntervalMS)
	cfg.QueueSize = getEnvAsInt("QUEUE_SIZE", cfg.QueueSize)
	if value, ok := os.LookupEnv("JOURNAL_PATH"); ok {
		cfg.JournalPath = value
	}
	cfg.PartsDir = getEnv("PARTS_DIR", cfg.PartsDir)
	cfg.FastenersEnabled = getEnvAsBool("FASTENERS_ENABLED", cfg.FastenersEnabled)

	if cfg.PumpIntervalMS <= 0 {
		return nil, fmt.Errorf("pump interval must be positive, got %d", cfg.PumpIntervalMS)
	}
	if cfg.QueueSize <= 0 {
		return nil, fmt.Errorf("queue size must be positive, got %d", cfg.QueueSize)
	}
	return cfg, nil
}

func (c *Config) PumpInterval() time.Duration {
	return time.Duration(c.PumpIntervalMS) * time.Millisecond
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}
