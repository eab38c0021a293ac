// Package config loads runtime configuration from the environment (and an
// optional .env file), grounded on the pack's aeromatch config loader.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every tunable the server entrypoint needs.
type Config struct {
	Server  ServerConfig
	Engine  EngineConfig
	Logging LoggingConfig
}

// ServerConfig holds the TCP listener's configuration.
type ServerConfig struct {
	ListenAddr string
	Workers    int
}

// EngineConfig holds matching-engine configuration.
type EngineConfig struct {
	Symbols []string
}

// LoggingConfig holds zerolog's level and output format.
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// Load reads a .env file if one is present (ignored if absent) and then
// environment variables, falling back to defaults for anything unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			ListenAddr: getEnvString("SKADI_LISTEN_ADDR", ":7890"),
			Workers:    getEnvInt("SKADI_WORKERS", 8),
		},
		Engine: EngineConfig{
			Symbols: getEnvList("SKADI_SYMBOLS", []string{"AAPL", "MSFT", "GOOG"}),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("SKADI_LOG_LEVEL", "info"),
			Pretty: getEnvBool("SKADI_LOG_PRETTY", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.Server.Workers <= 0 {
		return fmt.Errorf("invalid worker count: %d", c.Server.Workers)
	}
	if len(c.Engine.Symbols) == 0 {
		return fmt.Errorf("at least one symbol must be configured")
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("Server{Addr:%s, Workers:%d}, Engine{Symbols:%v}, Logging{Level:%s}",
		c.Server.ListenAddr, c.Server.Workers, c.Engine.Symbols, c.Logging.Level)
}

func getEnvString(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
