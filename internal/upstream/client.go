// Package upstream talks to the configured chat-completion provider over
// an OpenAI-compatible HTTP contract.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"privacy-llm-gateway/internal/apierr"
	"privacy-llm-gateway/internal/model"
)

// Client calls a single configured upstream chat-completion provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a Client targeting baseURL, optionally authenticating with a
// bearer apiKey (empty disables the Authorization header).
func New(baseURL, apiKey string) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          200,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Transport: transport, Timeout: 60 * time.Second},
	}
}

// ChatCompletion forwards req to the upstream and returns its decoded
// response. Non-2xx responses and transport failures both surface as an
// *apierr.Error with KindUpstream.
func (c *Client) ChatCompletion(ctx context.Context, req model.ChatRequest) (*model.ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, apierr.Internal("marshal chat request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, apierr.Internal("build upstream request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apierr.Upstream("upstream request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, apierr.Upstream(fmt.Sprintf("upstream returned %d: %s", resp.StatusCode, string(errBody)), nil)
	}

	var out model.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apierr.Upstream("decode upstream response", err)
	}
	return &out, nil
}

// HealthCheck reports whether the upstream's liveliness endpoint responds
// with a 2xx status.
func (c *Client) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health/liveliness", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
