package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the report triage pipeline service.
type Config struct {
	// Server configuration
	Port string

	// Store configuration
	StoreBackend string // "jsonl" or "mysql"
	DatasetPath  string

	// Database configuration (used when StoreBackend is "mysql")
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Duplicate detection configuration
	EnableDuplicateCheck       bool
	EnableLegacyDuplicateCheck bool
	ImageHashThreshold         int
	TextSimilarityThreshold    float64
	LocationThresholdMeters    float64
	LegacyLocationThreshold    float64

	// External moderation service (optional; empty endpoint disables it)
	ModerationEndpoint string
	ModerationTimeout  time.Duration

	// External image labeling (optional, advisory; empty key disables it)
	OpenAIAPIKey  string
	OpenAIModel   string
	VisionTimeout time.Duration

	// RabbitMQ configuration (optional; empty URL disables publishing)
	AMQPUrl        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Store defaults
		StoreBackend: getEnv("STORE_BACKEND", "jsonl"),
		DatasetPath:  getEnv("DATASET_PATH", "data/dataset.jsonl"),

		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "civicreport"),

		// Duplicate detection defaults
		EnableDuplicateCheck:       getBoolEnv("ENABLE_DUPLICATE_CHECK", true),
		EnableLegacyDuplicateCheck: getBoolEnv("ENABLE_LEGACY_DUPLICATE_CHECK", false),
		ImageHashThreshold:         getIntEnv("IMAGE_HASH_THRESHOLD", 0),
		TextSimilarityThreshold:    getFloatEnv("TEXT_SIMILARITY_THRESHOLD", 0.6),
		LocationThresholdMeters:    getFloatEnv("LOCATION_THRESHOLD_METERS", 50.0),
		LegacyLocationThreshold:    getFloatEnv("LEGACY_LOCATION_THRESHOLD_METERS", 1.0),

		// Moderation defaults
		ModerationEndpoint: getEnv("MODERATION_ENDPOINT", ""),
		ModerationTimeout:  getDurationEnv("MODERATION_TIMEOUT", 5*time.Second),

		// Vision defaults
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		VisionTimeout: getDurationEnv("VISION_TIMEOUT", 30*time.Second),

		// RabbitMQ defaults
		AMQPUrl:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "civicreport"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "report.accepted"),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnv gets a float environment variable or returns a default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv gets a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
