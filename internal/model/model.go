// Package model holds the wire-level data types shared across the HTTP API,
// the masking pipeline, and the document-indexing subsystem.
package model

import "time"

// ChatRequest is the inbound OpenAI-compatible chat completion request.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
	MaxTokens   *uint32   `json:"max_tokens,omitempty"`
	Stream      *bool     `json:"stream,omitempty"`
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the outbound OpenAI-compatible chat completion response,
// after unmasking and output sanitization have run.
type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Choice is one completion candidate.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ModelInfo describes one model exposed by GET /api/v1/models.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Description string `json:"description"`
}

// DocumentUpload is a direct-text document submission (as opposed to a file
// upload), used by callers that want to index content they already hold
// in memory.
type DocumentUpload struct {
	ID       *string `json:"id,omitempty"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Category *string `json:"category,omitempty"`
}

// DocumentResponse echoes a stored document after indexing.
type DocumentResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  *string   `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// LogQuery filters the request/response audit log.
type LogQuery struct {
	StartDate  *string `json:"startDate,omitempty"`
	EndDate    *string `json:"endDate,omitempty"`
	SearchTerm *string `json:"searchTerm,omitempty"`
	Limit      *int64  `json:"limit,omitempty"`
	Offset     *int64  `json:"offset,omitempty"`
}

// LogEntry is one row of the audit log, recording a full request lifecycle
// for later review. PIIMappings is stored as raw JSON so the schema can
// evolve without a migration for every new PII category.
type LogEntry struct {
	ID             string          `json:"id"`
	Timestamp      time.Time       `json:"timestamp"`
	OriginalInput  string          `json:"originalInput"`
	MaskedInput    string          `json:"maskedInput"`
	RAGContext     *string         `json:"ragContext,omitempty"`
	LLMOutput      string          `json:"llmOutput"`
	FinalOutput    string          `json:"finalOutput"`
	PIIMappingsRaw []byte          `json:"-"`
	PIIMappings    map[string]string `json:"piiMappings"`
}

// LogResponse wraps a page of audit-log entries with the total match count.
type LogResponse struct {
	Logs  []LogEntry `json:"logs"`
	Total int64      `json:"total"`
}

// MaskingContext carries the per-request state threaded through the
// retrieve → mask → call → unmask → sanitize pipeline.
type MaskingContext struct {
	RequestID      string
	Mappings       map[string]string // token -> original value
	OriginalPrompt string
	MaskedPrompt   string
	RAGContext     string
}

// FileInfo describes one indexable file under the upload directory.
type FileInfo struct {
	Name       string    `json:"name"`
	Size       uint64    `json:"size"`
	Format     string    `json:"format"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// IndexStatusResponse reports the current state of the background indexer.
type IndexStatusResponse struct {
	IsIndexing               bool      `json:"isIndexing"`
	LastIndexedAt            *time.Time `json:"lastIndexedAt,omitempty"`
	TotalFiles                int       `json:"totalFiles"`
	TotalChunks               int       `json:"totalChunks"`
	FailedFiles               []string  `json:"failedFiles"`
	AutoIndexIntervalMinutes  uint64    `json:"autoIndexIntervalMinutes"`
	UploadDir                 string    `json:"uploadDir"`
	LastError                 *string   `json:"lastError,omitempty"`
}

// IndexConfigUpdate changes the reconciliation interval at runtime.
type IndexConfigUpdate struct {
	AutoIndexIntervalMinutes uint64 `json:"autoIndexIntervalMinutes"`
}

// UploadResponse reports the result of a multipart file upload.
type UploadResponse struct {
	UploadedFiles    []string `json:"uploadedFiles"`
	TotalFilesInDir  int      `json:"totalFilesInDir"`
}

// DirEntry is one entry in a directory listing. Nil pointer fields are
// omitted from the JSON encoding: directories carry only modifiedAt, and a
// file has no format when its extension is unrecognized and no versionCount
// when it has no saved versions.
type DirEntry struct {
	Name         string     `json:"name"`
	IsDir        bool       `json:"isDir"`
	Size         *uint64    `json:"size,omitempty"`
	Format       *string    `json:"format,omitempty"`
	ModifiedAt   *time.Time `json:"modifiedAt,omitempty"`
	VersionCount *uint32    `json:"versionCount,omitempty"`
}

// CreateDirRequest creates a new subdirectory under the upload root.
type CreateDirRequest struct {
	Path string `json:"path"`
}

// CreateFileRequest creates a new text file under the upload root; a path
// that already exists is rejected.
type CreateFileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ListFilesQuery scopes a directory listing to a subpath.
type ListFilesQuery struct {
	Path *string `json:"path,omitempty"`
}

// VersionEntry describes one retained historical version of a file.
type VersionEntry struct {
	Version   uint32    `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	Size      uint64    `json:"size"`
	Comment   string    `json:"comment"`
}

// VersionMeta is the persisted version-history manifest for one file.
type VersionMeta struct {
	MaxVersions uint32         `json:"maxVersions"`
	Versions    []VersionEntry `json:"versions"`
}

// FileVersionHistory is the response for GET .../versions.
type FileVersionHistory struct {
	FilePath          string         `json:"filePath"`
	CurrentSize       uint64         `json:"currentSize"`
	CurrentModifiedAt time.Time      `json:"currentModifiedAt"`
	Versions          []VersionEntry `json:"versions"`
}

// RollbackRequest restores a file to a prior version.
type RollbackRequest struct {
	Version  uint32 `json:"version"`
	Reindex  bool   `json:"reindex"`
}

// RollbackResponse confirms a completed rollback.
type RollbackResponse struct {
	Status          string `json:"status"`
	RolledBackTo    uint32 `json:"rolledBackTo"`
	ReindexTriggered bool  `json:"reindexTriggered"`
}

// Chunk is one piece of a document after chunking, ready for embedding.
type Chunk struct {
	FileHash   string
	ChunkIndex int
	Text       string
	SourceFile string
}

// SearchResult is one retrieved chunk with its similarity score.
type SearchResult struct {
	Text       string  `json:"text"`
	SourceFile string  `json:"sourceFile"`
	Score      float32 `json:"score"`
}
