// Package config loads service configuration from the environment once at
// startup. Agents and handlers receive values from here instead of reading
// the process environment themselves.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config carries every knob the service reads from the environment.
type Config struct {
	Port        string
	Environment string

	// DatabaseURL selects Postgres (Fly.io, Heroku, Railway style URL);
	// empty falls back to the SQLite file at SQLitePath.
	DatabaseURL string
	SQLitePath  string

	// Model provider credentials. Empty keys disable the provider; with
	// both empty the service still runs and every analysis field carries
	// an error record.
	GeminiAPIKey    string
	AnthropicAPIKey string

	// RedisURL enables the Redis cache backend; empty uses in-memory.
	RedisURL string

	AllowedOrigins     []string
	RateLimitPerMinute int
	RateLimitBurst     int
}

// Load reads the environment into a Config.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnv("SQLITE_PATH", "taskpilot.db"),

		GeminiAPIKey:    getEnvAny([]string{"GEMINI_API_KEY", "GOOGLE_AI_API_KEY"}, ""),
		AnthropicAPIKey: getEnvAny([]string{"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"}, ""),

		RedisURL: os.Getenv("REDIS_URL"),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://127.0.0.1:3000",
		}),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 1000),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 50),
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAny(keys []string, fallback string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
