// Package indexmanager owns the upload directory: walking it for indexable
// files, safely resolving user-supplied relative paths within it, and
// running the embed-and-upsert reconciliation loop that keeps the vector
// store in sync with what is actually on disk.
package indexmanager

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"privacy-llm-gateway/internal/embedding"
	"privacy-llm-gateway/internal/extractor"
	"privacy-llm-gateway/internal/chunker"
	"privacy-llm-gateway/internal/logger"
	"privacy-llm-gateway/internal/model"
	"privacy-llm-gateway/internal/metrics"
	"privacy-llm-gateway/internal/vectorstore"
	"privacy-llm-gateway/internal/versioning"
)

const (
	chunkMaxSize   = 1000
	chunkOverlap   = 200
	embedBatchSize = 32
)

// status is the mutex-guarded indexing state. Copied out via GetStatus so
// callers never hold the lock.
type status struct {
	isIndexing               bool
	lastIndexedAt            *time.Time
	totalFiles               int
	totalChunks              int
	failedFiles              []string
	autoIndexIntervalMinutes uint64
	lastError                *string
}

// Manager coordinates the upload directory, the embedding generator, and
// the vector store. One Manager serves the whole gateway process.
type Manager struct {
	mu         sync.Mutex
	status     status
	uploadDir  string
	embeddings *embedding.Generator
	store      *vectorstore.Store
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// New returns a Manager rooted at uploadDir, with an initial reconciliation
// interval of intervalMinutes.
func New(uploadDir string, embeddings *embedding.Generator, store *vectorstore.Store, intervalMinutes uint64, m *metrics.Metrics, log *logger.Logger) *Manager {
	return &Manager{
		status: status{
			autoIndexIntervalMinutes: intervalMinutes,
		},
		uploadDir:  uploadDir,
		embeddings: embeddings,
		store:      store,
		metrics:    m,
		log:        log,
	}
}

// UploadDir returns the root directory this manager indexes.
func (mgr *Manager) UploadDir() string {
	return mgr.uploadDir
}

// GetStatus returns a snapshot of the current indexing state.
func (mgr *Manager) GetStatus() model.IndexStatusResponse {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	s := mgr.status
	failed := make([]string, len(s.failedFiles))
	copy(failed, s.failedFiles)
	return model.IndexStatusResponse{
		IsIndexing:               s.isIndexing,
		LastIndexedAt:            s.lastIndexedAt,
		TotalFiles:               s.totalFiles,
		TotalChunks:              s.totalChunks,
		FailedFiles:              failed,
		AutoIndexIntervalMinutes: s.autoIndexIntervalMinutes,
		UploadDir:                mgr.uploadDir,
		LastError:                s.lastError,
	}
}

// SetInterval changes the background reconciliation interval.
func (mgr *Manager) SetInterval(minutes uint64) {
	mgr.mu.Lock()
	mgr.status.autoIndexIntervalMinutes = minutes
	mgr.mu.Unlock()
}

// IsIndexing reports whether a reconciliation pass is currently running.
func (mgr *Manager) IsIndexing() bool {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.status.isIndexing
}

// fileID derives the stable file hash used as the prefix of every chunk id
// belonging to path: the first 8 bytes of SHA-256 over the file's absolute
// path, hex-encoded.
func fileID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:8])
}

// ListFiles enumerates every indexable file under the upload directory.
func (mgr *Manager) ListFiles() ([]model.FileInfo, error) {
	files, err := extractor.WalkDirectory(mgr.uploadDir)
	if err != nil {
		return nil, fmt.Errorf("walk upload dir: %w", err)
	}

	out := make([]model.FileInfo, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}
		out = append(out, model.FileInfo{
			Name:       filepath.Base(f.Path),
			Size:       uint64(info.Size()),
			Format:     formatName(f.Format),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	return out, nil
}

func formatName(f extractor.SupportedFormat) string {
	switch f {
	case extractor.FormatPDF:
		return "pdf"
	case extractor.FormatDocx:
		return "docx"
	case extractor.FormatXlsx:
		return "xlsx"
	case extractor.FormatPptx:
		return "pptx"
	default:
		return "text"
	}
}

// SafeResolve resolves a relative path against the upload directory,
// rejecting anything that would escape it via symlinks or "..". An empty
// relative path resolves to the upload directory itself. Use this for
// paths that must already exist.
func (mgr *Manager) SafeResolve(relative string) (string, error) {
	if relative == "" {
		return mgr.uploadDir, nil
	}

	joined := filepath.Join(mgr.uploadDir, relative)
	canonical, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	base, err := filepath.EvalSymlinks(mgr.uploadDir)
	if err != nil {
		return "", fmt.Errorf("upload dir error: %w", err)
	}
	if !isWithin(base, canonical) {
		return "", fmt.Errorf("path traversal not allowed")
	}
	return canonical, nil
}

// SafeResolveNew resolves a relative path that may not exist yet (for
// creating a file or directory), validating that its parent does and sits
// within the upload directory.
func (mgr *Manager) SafeResolveNew(relative string) (string, error) {
	if relative == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if strings.Contains(relative, "..") {
		return "", fmt.Errorf("path traversal not allowed")
	}

	target := filepath.Join(mgr.uploadDir, relative)
	parent := filepath.Dir(target)
	if parent != mgr.uploadDir {
		parentCanonical, err := filepath.EvalSymlinks(parent)
		if err != nil {
			return "", fmt.Errorf("parent directory does not exist: %w", err)
		}
		base, err := filepath.EvalSymlinks(mgr.uploadDir)
		if err != nil {
			return "", fmt.Errorf("upload dir error: %w", err)
		}
		if !isWithin(base, parentCanonical) {
			return "", fmt.Errorf("path traversal not allowed")
		}
	}
	return target, nil
}

func isWithin(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "..")
}

// ListDirEntries lists the immediate contents of relativePath within the
// upload directory, directories first then alphabetically, skipping the
// reserved version-history directory.
func (mgr *Manager) ListDirEntries(relativePath string) ([]model.DirEntry, error) {
	dir, err := mgr.SafeResolve(relativePath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("not a directory")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	out := make([]model.DirEntry, 0, len(entries))
	for _, e := range entries {
		if versioning.IsVersionsDir(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		modified := fi.ModTime().UTC()

		if e.IsDir() {
			out = append(out, model.DirEntry{
				Name:       e.Name(),
				IsDir:      true,
				ModifiedAt: &modified,
			})
			continue
		}

		path := filepath.Join(dir, e.Name())
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		var formatPtr *string
		if format, ok := extractor.FormatFromExtension(ext); ok {
			name := formatName(format)
			formatPtr = &name
		}

		size := uint64(fi.Size())
		var versionCountPtr *uint32
		if vc := versioning.Count(path); vc > 0 {
			versionCountPtr = &vc
		}

		out = append(out, model.DirEntry{
			Name:         e.Name(),
			IsDir:        false,
			Size:         &size,
			Format:       formatPtr,
			ModifiedAt:   &modified,
			VersionCount: versionCountPtr,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDir != out[j].IsDir {
			return out[i].IsDir
		}
		return out[i].Name < out[j].Name
	})

	return out, nil
}

// RunIndex performs one reconciliation pass, guarded so only one can run
// at a time, and recovers from a panic in any stage so is_indexing always
// resets to false.
func (mgr *Manager) RunIndex(ctx context.Context) (err error) {
	mgr.mu.Lock()
	if mgr.status.isIndexing {
		mgr.mu.Unlock()
		return fmt.Errorf("indexing already in progress")
	}
	mgr.status.isIndexing = true
	mgr.status.lastError = nil
	mgr.status.failedFiles = nil
	mgr.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("indexing panicked: %v", r)
			mgr.log.Errorf("run_index", "%s", msg)
			mgr.mu.Lock()
			mgr.status.isIndexing = false
			mgr.status.lastError = &msg
			mgr.mu.Unlock()
			err = fmt.Errorf("%s", msg)
		}
	}()

	start := time.Now()
	runErr := mgr.doIndex(ctx)

	mgr.mu.Lock()
	mgr.status.isIndexing = false
	if runErr != nil {
		msg := fmt.Sprintf("indexing error: %v", runErr)
		mgr.status.lastError = &msg
	} else {
		now := time.Now().UTC()
		mgr.status.lastIndexedAt = &now
		mgr.status.lastError = nil
	}
	mgr.mu.Unlock()

	if mgr.metrics != nil {
		mgr.metrics.RecordIndexLatency(time.Since(start))
		if runErr != nil {
			mgr.metrics.IndexFailed.Add(1)
		} else {
			mgr.metrics.IndexRuns.Add(1)
		}
	}

	return runErr
}

func (mgr *Manager) doIndex(ctx context.Context) error {
	if mgr.embeddings == nil || mgr.store == nil {
		return fmt.Errorf("RAG is not enabled: no embedding generator or vector store configured")
	}

	files, err := extractor.WalkDirectory(mgr.uploadDir)
	if err != nil {
		return fmt.Errorf("walk upload dir: %w", err)
	}
	mgr.log.Infof("do_index", "indexing %d files from %s", len(files), mgr.uploadDir)

	existingFileHashes := make(map[string]bool, len(files))
	for _, f := range files {
		existingFileHashes[fileID(f.Path)] = true
	}

	successCount := 0
	totalChunks := 0
	var failedFiles []string

	for _, f := range files {
		n, err := mgr.processFile(ctx, f.Path, f.Format)
		if err != nil {
			mgr.log.Warnf("process_file", "failed to index %s: %v", f.Path, err)
			failedFiles = append(failedFiles, filepath.Base(f.Path))
			continue
		}
		successCount++
		totalChunks += n
	}

	mgr.cleanupStalePoints(ctx, existingFileHashes)

	mgr.mu.Lock()
	mgr.status.totalFiles = successCount
	mgr.status.totalChunks = totalChunks
	mgr.status.failedFiles = failedFiles
	mgr.mu.Unlock()

	mgr.log.Infof("do_index", "indexing complete: %d files, %d chunks", successCount, totalChunks)
	return nil
}

func (mgr *Manager) cleanupStalePoints(ctx context.Context, existingFileHashes map[string]bool) {
	allIDs, err := mgr.store.ScrollAllChunkIDs(ctx)
	if err != nil {
		mgr.log.Errorf("cleanup_stale", "failed to scroll chunk ids: %v", err)
		return
	}

	var stale []string
	for _, id := range allIDs {
		fileHash := id
		if idx := strings.IndexByte(id, '_'); idx >= 0 {
			fileHash = id[:idx]
		}
		if !existingFileHashes[fileHash] {
			stale = append(stale, id)
		}
	}

	if len(stale) == 0 {
		return
	}
	mgr.log.Infof("cleanup_stale", "cleaning up %d stale points", len(stale))
	if err := mgr.store.DeleteByChunkIDs(ctx, stale); err != nil {
		mgr.log.Errorf("cleanup_stale", "failed to clean up stale points: %v", err)
		return
	}
	if mgr.metrics != nil {
		mgr.metrics.PointsEvicted.Add(int64(len(stale)))
	}
}

func (mgr *Manager) processFile(ctx context.Context, path string, format extractor.SupportedFormat) (int, error) {
	text, err := extractor.Extract(path, format)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	chunks := chunker.Chunk(text, chunkMaxSize, chunkOverlap)
	pathID := fileID(path)
	chunkCount := 0

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := mgr.embeddings.EmbedBatch(ctx, texts)
		if err != nil {
			return chunkCount, fmt.Errorf("embed batch for %s: %w", path, err)
		}

		points := make([]vectorstore.Point, len(batch))
		for i, c := range batch {
			points[i] = vectorstore.Point{
				ID:         fmt.Sprintf("%s_%d", pathID, c.ChunkIndex),
				Vector:     vectors[i],
				Text:       c.Text,
				SourceFile: path,
				ChunkIndex: c.ChunkIndex,
			}
		}

		if err := mgr.store.Upsert(ctx, points); err != nil {
			return chunkCount, fmt.Errorf("upsert batch for %s: %w", path, err)
		}
		chunkCount += len(points)
		if mgr.metrics != nil {
			mgr.metrics.ChunksUpsert.Add(int64(len(points)))
		}
	}

	return chunkCount, nil
}

// StartScheduler runs periodic reconciliation in the background: an
// initial 60-second delay so dependent services can finish starting, then
// RunIndex followed by a sleep of the configured interval, forever. It
// returns immediately; the loop runs until ctx is cancelled.
func (mgr *Manager) StartScheduler(ctx context.Context) {
	go func() {
		select {
		case <-time.After(60 * time.Second):
		case <-ctx.Done():
			return
		}

		for {
			mgr.log.Info("scheduler", "scheduled indexing starting")
			if err := mgr.RunIndex(ctx); err != nil {
				mgr.log.Errorf("scheduler", "scheduled indexing failed: %v", err)
			}

			mgr.mu.Lock()
			interval := mgr.status.autoIndexIntervalMinutes
			mgr.mu.Unlock()

			select {
			case <-time.After(time.Duration(interval) * time.Minute):
			case <-ctx.Done():
				return
			}
		}
	}()
}
