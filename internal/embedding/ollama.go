// Package embedding generates vector embeddings for document chunks and
// query text via a local Ollama server, with an optional cache in front of
// the network call.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"privacy-llm-gateway/internal/logger"
)

// Generator produces embeddings, optionally through a cache.
type Generator struct {
	baseURL string
	model   string
	client  *http.Client
	cache   *Cache
	log     *logger.Logger
}

// NewGenerator returns a Generator backed by an Ollama server at baseURL.
// cache may be nil to disable caching.
func NewGenerator(baseURL, model string, cache *Cache, log *logger.Logger) *Generator {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &Generator{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
		cache:   cache,
		log:     log,
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed returns the embedding for text, serving from cache when a cache is
// configured and the content has been seen before.
func (g *Generator) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.cache != nil {
		if vec, ok := g.cache.Get(text); ok {
			return vec, nil
		}
	}

	vec, err := g.embedUncached(ctx, text)
	if err != nil {
		return nil, err
	}

	if g.cache != nil {
		g.cache.Set(text, vec)
	}
	return vec, nil
}

func (g *Generator) embedUncached(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: g.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		if g.log != nil {
			g.log.Errorf("embed_call", "ollama request failed: %v", err)
		}
		return nil, fmt.Errorf("call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	return out.Embedding, nil
}

// EmbedBatch embeds each text in sequence, short-circuiting on the first error.
func (g *Generator) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := g.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}
