// Package pipeline implements the per-request chat completion flow: RAG
// retrieval on the unmasked prompt, PII masking, the upstream call, then
// unmasking and sanitizing the response before it leaves the boundary.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"privacy-llm-gateway/internal/apierr"
	"privacy-llm-gateway/internal/logger"
	"privacy-llm-gateway/internal/metrics"
	"privacy-llm-gateway/internal/model"
	"privacy-llm-gateway/internal/pii"
	"privacy-llm-gateway/internal/sanitizer"
	"privacy-llm-gateway/internal/upstream"
	"privacy-llm-gateway/internal/vectorstore"
)

const ragTopK = 3

// Retriever is the subset of the vector store the pipeline depends on. It is
// nil-able: a gateway that failed to connect to its vector store at startup
// degrades to chat completions without retrieval rather than refusing to
// start.
type Retriever interface {
	Search(ctx context.Context, queryVector []float32, topK uint64) ([]vectorstore.SearchResult, error)
}

// Embedder is the subset of the embedding generator the pipeline depends on.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// AuditLogger is the subset of the log store the pipeline depends on. Like
// Retriever and Embedder, a nil AuditLogger disables the feature (no audit
// trail written) rather than failing requests; a non-nil one that errors on
// a write is a request failure.
type AuditLogger interface {
	LogRequest(ctx context.Context, entry model.LogEntry) error
}

// Pipeline wires the masking/retrieval/upstream/unmasking sequence together
// for one gateway instance.
type Pipeline struct {
	embeddings Embedder
	store      Retriever
	upstream   *upstream.Client
	logs       AuditLogger
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// New returns a Pipeline. embeddings, store, and logs may be nil when their
// backing dependency failed to initialize (or was never configured);
// retrieval or audit logging is then skipped rather than failing the
// request.
func New(embeddings Embedder, store Retriever, upstreamClient *upstream.Client, logs AuditLogger, m *metrics.Metrics, log *logger.Logger) *Pipeline {
	return &Pipeline{
		embeddings: embeddings,
		store:      store,
		upstream:   upstreamClient,
		logs:       logs,
		metrics:    m,
		log:        log,
	}
}

// ChatCompletion runs the full request pipeline and returns the final,
// unmasked and sanitized response.
func (p *Pipeline) ChatCompletion(ctx context.Context, req model.ChatRequest) (*model.ChatResponse, error) {
	p.metrics.RequestsTotal.Add(1)
	requestID := uuid.New().String()

	userIdx := lastUserMessageIndex(req.Messages)
	if userIdx < 0 {
		return nil, apierr.BadRequest("No user message found")
	}
	originalContent := req.Messages[userIdx].Content

	ragContext, err := p.retrieveContext(ctx, originalContent)
	if err != nil {
		p.metrics.ErrorsInternal.Add(1)
		p.log.Errorf("RAG", "retrieval failed for request %s: %v", requestID, err)
		return nil, apierr.Internal("retrieve rag context", err)
	}

	maskStart := time.Now()
	maskedText, mappings := pii.MaskWithSharedPool(ragContext + originalContent)
	p.metrics.RecordMaskLatency(time.Since(maskStart))
	if len(mappings) > 0 {
		p.metrics.RequestsMasked.Add(1)
	}
	p.metrics.TokensMasked.Add(int64(len(mappings)))

	upstreamReq := req
	upstreamReq.Messages = append([]model.Message(nil), req.Messages...)
	upstreamReq.Messages[userIdx] = model.Message{Role: req.Messages[userIdx].Role, Content: maskedText}

	upstreamStart := time.Now()
	resp, err := p.upstream.ChatCompletion(ctx, upstreamReq)
	p.metrics.RecordUpstreamLatency(time.Since(upstreamStart))
	if err != nil {
		p.metrics.ErrorsUpstream.Add(1)
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, apierr.Upstream("upstream returned no choices", nil)
	}

	llmOutput := resp.Choices[0].Message.Content
	unmasked := pii.Unmask(llmOutput, mappings)
	p.metrics.TokensUnmasked.Add(int64(len(mappings)))

	final, removed := sanitizer.Sanitize(unmasked)
	if len(removed) > 0 {
		p.log.Warnf("SANITIZE", "request %s: removed %d item(s): %s", requestID, len(removed), strings.Join(removed, ", "))
	}
	p.metrics.ItemsSanitized.Add(int64(len(removed)))

	resp.Choices[0].Message.Content = final

	if err := p.logRequest(ctx, requestID, originalContent, maskedText, ragContext, llmOutput, final, mappings); err != nil {
		p.metrics.ErrorsInternal.Add(1)
		p.log.Errorf("AUDIT", "failed to write log row for request %s: %v", requestID, err)
		return nil, apierr.Internal("write audit log", err)
	}

	return resp, nil
}

// retrieveContext embeds query and searches the vector store for the top-k
// nearest chunks, returning either "" or the block
// "関連情報:\n<passage1>\n\n<passage2>...\n\n". A nil embeddings/store pair
// means RAG is disabled for this gateway instance and is not an error;
// an Embed or Search call that fails on a configured backend is.
func (p *Pipeline) retrieveContext(ctx context.Context, query string) (string, error) {
	if p.embeddings == nil || p.store == nil {
		return "", nil
	}

	vec, err := p.embeddings.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	results, err := p.store.Search(ctx, vec, ragTopK)
	if err != nil {
		return "", fmt.Errorf("search vector store: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}

	passages := make([]string, 0, len(results))
	for _, r := range results {
		passages = append(passages, r.Text)
	}
	return "関連情報:\n" + strings.Join(passages, "\n\n") + "\n\n", nil
}

// logRequest writes the audit trail row for one completed request. A nil
// log store means audit logging is disabled for this gateway instance and
// is not an error; a write failure against a configured store is.
func (p *Pipeline) logRequest(ctx context.Context, requestID, original, masked, ragContext, llmOutput, finalOutput string, mappings map[string]string) error {
	if p.logs == nil {
		return nil
	}
	var rag *string
	if ragContext != "" {
		rag = &ragContext
	}
	entry := model.LogEntry{
		ID:            requestID,
		Timestamp:     time.Now().UTC(),
		OriginalInput: original,
		MaskedInput:   masked,
		RAGContext:    rag,
		LLMOutput:     llmOutput,
		FinalOutput:   finalOutput,
		PIIMappings:   mappings,
	}
	return p.logs.LogRequest(ctx, entry)
}

func lastUserMessageIndex(messages []model.Message) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return i
		}
	}
	return -1
}
