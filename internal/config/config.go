package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sourceplane/designbridge/internal/convert"
)

// Config is the server configuration
type Config struct {
	Server  ServerConfig
	Convert ConvertConfig
	Session SessionConfig
}

// ServerConfig holds listener settings
type ServerConfig struct {
	Port string
	Mode string
	// MaxBodyBytes caps request bodies
	MaxBodyBytes int64
}

// ConvertConfig holds conversion defaults
type ConvertConfig struct {
	Language     string
	OriginClause convert.OriginClause
}

// SessionConfig bounds the in-memory session store
type SessionConfig struct {
	MaxSessions int
	IdleTTL     time.Duration
}

// Load reads the configuration from the environment. A .env file is loaded
// first when present; variables already set take precedence. Extra files may
// be named explicitly.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is not an error
	_ = godotenv.Load()
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	origin, err := convert.ParseOriginClause(getEnv("DESIGNBRIDGE_ORIGIN_CLAUSE", "auto"))
	if err != nil {
		return nil, fmt.Errorf("invalid DESIGNBRIDGE_ORIGIN_CLAUSE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("DESIGNBRIDGE_PORT", "8080"),
			Mode:         getEnv("DESIGNBRIDGE_MODE", "release"),
			MaxBodyBytes: int64(getEnvInt("DESIGNBRIDGE_MAX_BODY_BYTES", 1<<20)),
		},
		Convert: ConvertConfig{
			Language:     getEnv("DESIGNBRIDGE_LANGUAGE", ""),
			OriginClause: origin,
		},
		Session: SessionConfig{
			MaxSessions: getEnvInt("DESIGNBRIDGE_MAX_SESSIONS", 1000),
			IdleTTL:     getEnvDuration("DESIGNBRIDGE_SESSION_TTL", 30*time.Minute),
		},
	}
	return cfg, nil
}

// Converter builds a converter from the conversion defaults
func (c *Config) Converter() *convert.Converter {
	return convert.NewConverter(
		convert.WithLanguage(c.Convert.Language),
		convert.WithOriginClause(c.Convert.OriginClause),
	)
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.Server.Port)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
