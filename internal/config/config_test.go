package config

import (
	"encoding/json"
	"os"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	if cfg.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("ListenAddr: got %s", cfg.ListenAddr)
	}
	if cfg.QdrantCollection != "documents" {
		t.Errorf("QdrantCollection: got %s", cfg.QdrantCollection)
	}
	if cfg.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("EmbeddingModel: got %s", cfg.EmbeddingModel)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel: got %s", cfg.LogLevel)
	}
	if cfg.AutoIndexIntervalMinutes != 60 {
		t.Errorf("AutoIndexIntervalMinutes: got %d, want 60", cfg.AutoIndexIntervalMinutes)
	}
	if cfg.UploadDir == "" {
		t.Error("UploadDir should not be empty")
	}
}

func TestLoadEnv_DatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/gw")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.DatabaseURL != "postgres://user:pass@db:5432/gw" {
		t.Errorf("DatabaseURL: got %s", cfg.DatabaseURL)
	}
}

func TestLoadEnv_QdrantURL(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://qdrant:6334")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.QdrantURL != "http://qdrant:6334" {
		t.Errorf("QdrantURL: got %s", cfg.QdrantURL)
	}
}

func TestLoadEnv_LiteLLMURLAndKey(t *testing.T) {
	t.Setenv("LITELLM_URL", "http://litellm:4000")
	t.Setenv("LITELLM_API_KEY", "sk-test")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.LiteLLMURL != "http://litellm:4000" {
		t.Errorf("LiteLLMURL: got %s", cfg.LiteLLMURL)
	}
	if cfg.LiteLLMAPIKey != "sk-test" {
		t.Errorf("LiteLLMAPIKey: got %s", cfg.LiteLLMAPIKey)
	}
}

func TestLoadEnv_UploadDir(t *testing.T) {
	t.Setenv("UPLOAD_DIR", "/data/corpus")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.UploadDir != "/data/corpus" {
		t.Errorf("UploadDir: got %s", cfg.UploadDir)
	}
}

func TestLoadEnv_AutoIndexInterval(t *testing.T) {
	t.Setenv("AUTO_INDEX_INTERVAL_MINUTES", "15")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.AutoIndexIntervalMinutes != 15 {
		t.Errorf("AutoIndexIntervalMinutes: got %d, want 15", cfg.AutoIndexIntervalMinutes)
	}
}

func TestLoadEnv_AutoIndexInterval_ZeroIgnored(t *testing.T) {
	t.Setenv("AUTO_INDEX_INTERVAL_MINUTES", "0")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.AutoIndexIntervalMinutes != 60 {
		t.Errorf("AutoIndexIntervalMinutes: got %d, want 60 (zero should be ignored)", cfg.AutoIndexIntervalMinutes)
	}
}

func TestLoadEnv_InvalidInterval_Ignored(t *testing.T) {
	t.Setenv("AUTO_INDEX_INTERVAL_MINUTES", "not-a-number")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.AutoIndexIntervalMinutes != 60 {
		t.Errorf("AutoIndexIntervalMinutes: got %d, want 60 (invalid env should be ignored)", cfg.AutoIndexIntervalMinutes)
	}
}

func TestLoadFile_ValidJSON(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	if err != nil {
		t.Fatal(err)
	}

	data, marshalErr := json.Marshal(map[string]any{
		"listenAddr":       "0.0.0.0:9090",
		"qdrantCollection": "custom-docs",
	})
	if marshalErr != nil {
		t.Fatal(marshalErr)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	cfg := defaults()
	loadFile(cfg, f.Name())

	if cfg.ListenAddr != "0.0.0.0:9090" {
		t.Errorf("ListenAddr: got %s", cfg.ListenAddr)
	}
	if cfg.QdrantCollection != "custom-docs" {
		t.Errorf("QdrantCollection: got %s", cfg.QdrantCollection)
	}
}

func TestLoadFile_Missing_IsNoOp(t *testing.T) {
	cfg := defaults()
	loadFile(cfg, "/nonexistent/path/config.json")
	if cfg.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("ListenAddr changed unexpectedly: %s", cfg.ListenAddr)
	}
}

func TestLoadFile_InvalidJSON_PreservesDefaults(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "config-bad-*.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{this is not json}"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	cfg := defaults()
	loadFile(cfg, f.Name())
	if cfg.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("ListenAddr changed on bad JSON: %s", cfg.ListenAddr)
	}
}

func TestLoad_ReturnsNonNil(t *testing.T) {
	cfg := Load()
	if cfg == nil {
		t.Fatal("Load() returned nil")
	}
	if cfg.ListenAddr == "" {
		t.Error("ListenAddr should not be empty")
	}
}
