// Package config loads and holds all gateway configuration.
// Settings are layered: defaults → gateway-config.json → .env file → environment variables (env vars win).
package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the full gateway configuration.
type Config struct {
	ListenAddr string `json:"listenAddr"`
	LogLevel   string `json:"logLevel"`

	DatabaseURL string `json:"databaseUrl"`

	QdrantURL        string `json:"qdrantUrl"`
	QdrantCollection string `json:"qdrantCollection"`

	LiteLLMURL    string `json:"liteLLMUrl"`
	LiteLLMAPIKey string `json:"liteLLMApiKey"`

	EmbeddingURL   string `json:"embeddingUrl"`
	EmbeddingModel string `json:"embeddingModel"`
	EmbeddingCache string `json:"embeddingCacheFile"` // path to bbolt embedding cache; empty = in-memory only

	UploadDir string `json:"uploadDir"`

	AutoIndexIntervalMinutes int `json:"autoIndexIntervalMinutes"`
}

// Load returns config with defaults overridden by gateway-config.json, an
// optional .env file, and env vars, in that order.
func Load() *Config {
	cfg := defaults()
	loadFile(cfg, "gateway-config.json")
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[CONFIG] Warning: could not parse .env: %v", err)
	}
	loadEnv(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		ListenAddr:               "127.0.0.1:8080",
		LogLevel:                 "info",
		DatabaseURL:              "postgres://localhost:5432/gateway",
		QdrantURL:                "http://localhost:6334",
		QdrantCollection:         "documents",
		LiteLLMURL:               "http://localhost:4000",
		EmbeddingURL:             "http://localhost:11434",
		EmbeddingModel:           "nomic-embed-text",
		EmbeddingCache:           "embedding-cache.db",
		UploadDir:                "./uploads",
		AutoIndexIntervalMinutes: 60,
	}
}

func loadFile(cfg *Config, path string) {
	data, err := os.ReadFile(path) //nolint:gosec // G703: path is a controlled config file path, not user input
	if err != nil {
		return // file is optional
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Printf("[CONFIG] Warning: could not parse %s: %v", path, err)
	} else {
		log.Printf("[CONFIG] Loaded %s", path)
	}
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("QDRANT_URL"); v != "" {
		cfg.QdrantURL = v
	}
	if v := os.Getenv("QDRANT_COLLECTION"); v != "" {
		cfg.QdrantCollection = v
	}
	if v := os.Getenv("LITELLM_URL"); v != "" {
		cfg.LiteLLMURL = v
	}
	if v := os.Getenv("LITELLM_API_KEY"); v != "" {
		cfg.LiteLLMAPIKey = v
	}
	if v := os.Getenv("EMBEDDING_URL"); v != "" {
		cfg.EmbeddingURL = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := os.Getenv("EMBEDDING_CACHE_FILE"); v != "" {
		cfg.EmbeddingCache = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.UploadDir = v
	}
	if v := os.Getenv("AUTO_INDEX_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AutoIndexIntervalMinutes = n
		}
	}
}
