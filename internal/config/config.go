// Package config reads process configuration from the environment and sets
// up logging.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values.
type Config struct {
	// Corpus
	ProtocolsDir string
	IntentsFile  string
	VocabFile    string

	// Embedding
	EmbeddingProvider string
	EmbeddingModel    string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	EmbedBatchSize    int
	EmbedTimeout      time.Duration

	// Safety
	EmergencyNumber string

	// Server
	ListenAddr string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables, applying defaults
// suitable for local development.
func Load() Config {
	return Config{
		ProtocolsDir: getEnv("CONRUMBO_PROTOCOLS_DIR", "protocols"),
		IntentsFile:  getEnv("CONRUMBO_INTENTS_FILE", ""),
		VocabFile:    getEnv("CONRUMBO_VOCAB_FILE", ""),

		EmbeddingProvider: getEnv("CONRUMBO_EMBED_PROVIDER", "local"),
		EmbeddingModel:    getEnv("CONRUMBO_EMBED_MODEL", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_API_BASE", ""),
		EmbedBatchSize:    getEnvInt("CONRUMBO_EMBED_BATCH", 0),
		EmbedTimeout:      getEnvDuration("CONRUMBO_EMBED_TIMEOUT", 0),

		EmergencyNumber: getEnv("CONRUMBO_EMERGENCY_NUMBER", "112"),

		ListenAddr: getEnv("CONRUMBO_LISTEN_ADDR", ":8080"),

		LogFile:  getEnv("CONRUMBO_LOG_FILE", "/tmp/conrumbo.log"),
		LogLevel: parseLogLevel(getEnv("CONRUMBO_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
