// Package config loads Orion configuration from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider identifies an embedding backend.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// Config holds all configuration values with documented defaults.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Embeddings
	EmbedProvider  Provider
	EmbedModel     string
	EmbedDimension int
	OllamaHost     string
	OpenAIAPIKey   string

	// Ingestion
	MaxChunkSize   int   // characters per chunk
	BatchSize      int   // chunks per storage batch
	MaxSourceMB    int64 // per-source size limit
	IngestWorkers  int   // concurrent ingestion jobs
	DefaultQueryK  int   // matches returned per query

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from the environment. A local .env file is
// applied first if present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "orion"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "content"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		EmbedProvider:  Provider(getEnv("ORION_EMBED_PROVIDER", string(ProviderOllama))),
		EmbedModel:     getEnv("ORION_EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("ORION_EMBED_DIMENSION", 384),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),

		MaxChunkSize:  getEnvInt("ORION_MAX_CHUNK_SIZE", 1000),
		BatchSize:     getEnvInt("ORION_BATCH_SIZE", 64),
		MaxSourceMB:   int64(getEnvInt("ORION_MAX_SOURCE_MB", 50)),
		IngestWorkers: getEnvInt("ORION_INGEST_WORKERS", 4),
		DefaultQueryK: getEnvInt("ORION_QUERY_K", 5),

		LogFile:  getEnv("ORION_LOG_FILE", "/tmp/orion.log"),
		LogLevel: parseLogLevel(getEnv("ORION_LOG_LEVEL", "INFO")),
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
