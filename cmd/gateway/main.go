// Command gateway runs the privacy-preserving LLM gateway: the HTTP
// surface, the chat completion pipeline, and the background document
// indexer, all in one process.
//
// Usage:
//
//	./gateway
//
// Configuration is layered defaults → gateway-config.json → .env →
// environment variables; see internal/config for the full list.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"privacy-llm-gateway/internal/config"
	"privacy-llm-gateway/internal/embedding"
	"privacy-llm-gateway/internal/httpapi"
	"privacy-llm-gateway/internal/indexmanager"
	"privacy-llm-gateway/internal/logger"
	"privacy-llm-gateway/internal/logstore"
	"privacy-llm-gateway/internal/metrics"
	"privacy-llm-gateway/internal/model"
	"privacy-llm-gateway/internal/pipeline"
	"privacy-llm-gateway/internal/upstream"
	"privacy-llm-gateway/internal/vectorstore"
)

// staticModels is the catalogue returned by GET /api/v1/models. The
// upstream is an OpenAI-compatible chat/completions endpoint (typically a
// LiteLLM proxy) that may front any number of providers; this gateway does
// not introspect it, so the list is fixed rather than queried live.
var staticModels = []model.ModelInfo{
	{ID: "gpt-4o", Name: "GPT-4o", Provider: "openai", Description: "OpenAI's flagship multimodal model"},
	{ID: "gpt-4o-mini", Name: "GPT-4o mini", Provider: "openai", Description: "Smaller, faster GPT-4o variant"},
	{ID: "claude-3-5-sonnet", Name: "Claude 3.5 Sonnet", Provider: "anthropic", Description: "Anthropic's balanced model"},
}

func main() {
	cfg := config.Load()
	log := logger.New("GATEWAY", cfg.LogLevel)
	m := metrics.New()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("startup", "create upload dir %s: %v", cfg.UploadDir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logs, err := logstore.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("startup", "connect to log store: %v", err)
	}
	defer logs.Close()

	var embedCache *embedding.Cache
	if cfg.EmbeddingCache != "" {
		embedCache, err = embedding.NewBboltCache(cfg.EmbeddingCache, logger.New("EMBED_CACHE", cfg.LogLevel))
		if err != nil {
			log.Warnf("startup", "embedding cache disabled, falling back to in-memory: %v", err)
			embedCache = embedding.NewMemoryCache()
		}
	} else {
		embedCache = embedding.NewMemoryCache()
	}
	defer embedCache.Close()

	embedGen := embedding.NewGenerator(cfg.EmbeddingURL, cfg.EmbeddingModel, embedCache, logger.New("EMBEDDING", cfg.LogLevel))

	var store *vectorstore.Store
	if vs, err := vectorstore.New(ctx, cfg.QdrantURL, cfg.QdrantCollection); err != nil {
		log.Warnf("startup", "vector store unavailable, continuing without RAG: %v", err)
	} else {
		store = vs
		defer store.Close()
	}

	// The index manager owns the upload directory's filesystem operations
	// (list, create, delete, versioning) independently of whether the
	// vector store is reachable; only its embed-and-upsert reconciliation
	// pass needs embeddings/store, and RunIndex reports that as a failed
	// pass via last_error rather than refusing to run.
	indexMgr := indexmanager.New(cfg.UploadDir, embedGen, store, uint64(cfg.AutoIndexIntervalMinutes), m, logger.New("INDEX", cfg.LogLevel))
	if store != nil {
		indexMgr.StartScheduler(ctx)
		log.Infof("startup", "index manager started, auto-index every %d minute(s)", cfg.AutoIndexIntervalMinutes)
	} else {
		log.Warnf("startup", "index manager running in file-management-only mode (no vector store)")
	}

	upstreamClient := upstream.New(cfg.LiteLLMURL, cfg.LiteLLMAPIKey)

	var retriever pipeline.Retriever
	if store != nil {
		retriever = store
	}
	pipe := pipeline.New(embedGen, retriever, upstreamClient, logs, m, logger.New("PIPELINE", cfg.LogLevel))

	server := httpapi.New(httpapi.Config{
		Pipeline:          pipe,
		IndexMgr:          indexMgr,
		Embeddings:        embedGen,
		Store:             store,
		Logs:              logs,
		Upstream:          upstreamClient,
		Models:            staticModels,
		Log:               logger.New("HTTP", cfg.LogLevel),
		BackgroundContext: ctx,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("startup", "listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("startup", "server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown", "shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown", "graceful shutdown failed: %v", err)
	}
	cancel()

	fmt.Println("gateway stopped")
}
