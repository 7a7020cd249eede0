package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string

	// Persistence
	StoreBackend string // "memory", "sqlite" or "redis"
	DatabasePath string
	RedisURL     string

	// Providers
	GroqAPIKey       string
	GroqModel        string
	GeminiAPIKey     string
	GeminiFlashModel string
	GeminiProModel   string

	// Policy
	AIDailyLimit     int
	LogRetentionDays int
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3001"),
		Environment: getEnv("ENVIRONMENT", "development"),

		StoreBackend: getEnv("STORE_BACKEND", "sqlite"),
		DatabasePath: getEnv("DATABASE_PATH", "lifeos.db"),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),

		GroqAPIKey:       getEnv("GROQ_API_KEY", ""),
		GroqModel:        getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiFlashModel: getEnv("GEMINI_FLASH_MODEL", "gemini-1.5-flash"),
		GeminiProModel:   getEnv("GEMINI_PRO_MODEL", "gemini-1.5-pro"),

		AIDailyLimit:     getIntEnv("AI_DAILY_LIMIT", 20),
		LogRetentionDays: getIntEnv("LOG_RETENTION_DAYS", 90),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
