package config

import (
	"os"
	"strconv"
)

// Config holds all runtime configuration, loaded from the environment.
// A .env file is loaded by main before this is read.
type Config struct {
	Port        string
	Environment string

	DatabaseURL string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret string

	CDNBaseURL string

	LogLevel string
	LogFile  string

	// Tracing
	TracingEnabled  bool
	OTLPEndpoint    string
	TraceSampleRate float64
}

// Load reads configuration from environment variables with sane
// development defaults.
func Load() *Config {
	return &Config{
		Port:        getEnvOrDefault("PORT", "8787"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		CDNBaseURL: getEnvOrDefault("CDN_BASE_URL", "https://cdn.qauym.app"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  getEnvOrDefault("LOG_FILE", "server.log"),

		TracingEnabled:  getEnvOrDefault("TRACING_ENABLED", "false") == "true",
		OTLPEndpoint:    getEnvOrDefault("OTLP_ENDPOINT", "localhost:4318"),
		TraceSampleRate: getEnvFloat("TRACE_SAMPLE_RATE", 0.1),
	}
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
