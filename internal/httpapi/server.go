// Package httpapi binds the gateway's HTTP surface: the chat completion
// route, the RAG document/file/index management routes, the audit log
// query route, and a health check, all over a chi router.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"privacy-llm-gateway/internal/apierr"
	"privacy-llm-gateway/internal/embedding"
	"privacy-llm-gateway/internal/indexmanager"
	"privacy-llm-gateway/internal/logger"
	"privacy-llm-gateway/internal/logstore"
	"privacy-llm-gateway/internal/model"
	"privacy-llm-gateway/internal/pipeline"
	"privacy-llm-gateway/internal/upstream"
	"privacy-llm-gateway/internal/vectorstore"
)

// Server holds every dependency a handler might need. Fields may be nil
// when their subsystem failed to initialize at startup (RAG embeddings/
// vector store in particular); handlers degrade to 503 rather than panic.
type Server struct {
	pipeline   *pipeline.Pipeline
	indexMgr   *indexmanager.Manager
	embeddings *embedding.Generator
	store      *vectorstore.Store
	logs       *logstore.Store
	upstream   *upstream.Client
	models     []model.ModelInfo
	log        *logger.Logger

	// bgCtx outlives any single request; it is canceled only on process
	// shutdown. Handlers that kick off work meant to keep running after
	// they respond (the detached reindex pass) must derive from this, not
	// from the triggering request's context, which chi's Timeout
	// middleware cancels the moment the handler returns.
	bgCtx context.Context
}

// Config bundles the constructor arguments for New.
type Config struct {
	Pipeline   *pipeline.Pipeline
	IndexMgr   *indexmanager.Manager
	Embeddings *embedding.Generator
	Store      *vectorstore.Store
	Logs       *logstore.Store
	Upstream   *upstream.Client
	Models     []model.ModelInfo
	Log        *logger.Logger

	// BackgroundContext is used for work a handler starts but does not
	// wait for. Defaults to context.Background() if left nil.
	BackgroundContext context.Context
}

// New returns a Server ready to mount as an http.Handler via Routes.
func New(cfg Config) *Server {
	bgCtx := cfg.BackgroundContext
	if bgCtx == nil {
		bgCtx = context.Background()
	}
	return &Server{
		pipeline:   cfg.Pipeline,
		indexMgr:   cfg.IndexMgr,
		embeddings: cfg.Embeddings,
		store:      cfg.Store,
		logs:       cfg.Logs,
		upstream:   cfg.Upstream,
		models:     cfg.Models,
		log:        cfg.Log,
		bgCtx:      bgCtx,
	}
}

// Routes builds the full route table under /api/v1 plus /api/health.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(corsMiddleware)
	r.Use(middleware.Timeout(90 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat/completions", s.handleChatCompletion)
		r.Get("/models", s.handleListModels)
		r.Post("/documents", s.handleAddDocument)
		r.Get("/logs", s.handleQueryLogs)

		r.Route("/rag", func(r chi.Router) {
			r.Post("/upload", s.handleUpload)
			r.Get("/files", s.handleListFiles)
			r.Delete("/files/{name}", s.handleDeleteFile)
			r.Post("/mkdir", s.handleMkdir)
			r.Post("/files/create", s.handleCreateFile)
			r.Get("/files/{path}/versions", s.handleFileVersions)
			r.Post("/files/{path}/rollback", s.handleFileRollback)
			r.Post("/index", s.handleTriggerIndex)
			r.Get("/status", s.handleIndexStatus)
			r.Put("/config", s.handleUpdateConfig)
		})
	})

	r.Get("/api/health", s.handleHealth)

	return r
}

// requestLogger writes one line per request through the structured logger
// instead of chi's default stdlib logger, matching the logger convention
// used everywhere else in the gateway.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Infof("http", "%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

// corsMiddleware allows any origin, matching the reference implementation's
// permissive CORS layer — this gateway's own clients are not authenticated
// (§1 Non-goals), so there is no session/cookie boundary for CORS to guard.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client disconnects are not actionable here
}

// writeError maps err's apierr.Kind to an HTTP status and writes a short
// JSON body; the underlying cause is logged but never returned to the
// client (§7).
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(apierr.KindOf(err))
	if status >= 500 {
		s.log.Errorf("http_error", "%v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(kind apierr.Kind) int {
	switch kind {
	case apierr.KindBadRequest, apierr.KindInvalidPath:
		return http.StatusBadRequest
	case apierr.KindNotFound:
		return http.StatusNotFound
	case apierr.KindConflict:
		return http.StatusConflict
	case apierr.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case apierr.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ragEnabled reports whether the RAG subsystem (embeddings + vector store +
// index manager) initialized successfully at startup.
func (s *Server) ragEnabled() bool {
	return s.embeddings != nil && s.store != nil && s.indexMgr != nil
}
