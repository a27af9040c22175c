package httpapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"privacy-llm-gateway/internal/apierr"
	"privacy-llm-gateway/internal/extractor"
	"privacy-llm-gateway/internal/model"
	"privacy-llm-gateway/internal/versioning"
)

// maxUploadSize bounds one multipart upload request body.
const maxUploadSize = 64 << 20 // 64 MiB

// handleUpload implements POST /api/v1/rag/upload?path=: a multipart file
// upload into the upload directory (or a subdirectory of it). Existing
// files are auto-versioned before being overwritten, so an indexing pass
// reading the prior content concurrently never loses history (§5).
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.indexMgr == nil {
		s.writeError(w, apierr.Internal("file management unavailable", fmt.Errorf("index manager not configured")))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.writeError(w, apierr.BadRequest("could not parse multipart form"))
		return
	}

	subdir := r.URL.Query().Get("path")
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		s.writeError(w, apierr.BadRequest("no files in upload"))
		return
	}

	uploaded := make([]string, 0, len(files))
	for _, fh := range files {
		ext := strings.TrimPrefix(filepath.Ext(fh.Filename), ".")
		if _, ok := extractor.FormatFromExtension(ext); !ok {
			s.writeError(w, apierr.BadRequest("unsupported file extension: "+ext))
			return
		}

		relative := fh.Filename
		if subdir != "" {
			relative = filepath.Join(subdir, fh.Filename)
		}
		target, err := s.indexMgr.SafeResolveNew(relative)
		if err != nil {
			s.writeError(w, apierr.InvalidPath(err.Error()))
			return
		}

		if _, err := os.Stat(target); err == nil {
			if _, err := versioning.SaveVersion(target, "Auto-saved before upload overwrite"); err != nil {
				s.writeError(w, apierr.Internal("save prior version", err))
				return
			}
		}

		if err := writeUploadedFile(target, fh); err != nil {
			s.writeError(w, apierr.Internal("write uploaded file", err))
			return
		}
		uploaded = append(uploaded, fh.Filename)
	}

	dirEntries, err := s.indexMgr.ListDirEntries(subdir)
	total := 0
	if err == nil {
		for _, e := range dirEntries {
			if !e.IsDir {
				total++
			}
		}
	}

	writeJSON(w, http.StatusOK, model.UploadResponse{
		UploadedFiles:   uploaded,
		TotalFilesInDir: total,
	})
}

func writeUploadedFile(target string, fh *multipart.FileHeader) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// handleListFiles implements GET /api/v1/rag/files?path=.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	if s.indexMgr == nil {
		s.writeError(w, apierr.Internal("file management unavailable", fmt.Errorf("index manager not configured")))
		return
	}

	entries, err := s.indexMgr.ListDirEntries(r.URL.Query().Get("path"))
	if err != nil {
		s.writeError(w, apierr.InvalidPath(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleDeleteFile implements DELETE /api/v1/rag/files/{name}.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if s.indexMgr == nil {
		s.writeError(w, apierr.Internal("file management unavailable", fmt.Errorf("index manager not configured")))
		return
	}

	name := chi.URLParam(r, "name")
	target, err := s.indexMgr.SafeResolve(name)
	if err != nil {
		s.writeError(w, apierr.InvalidPath(err.Error()))
		return
	}

	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		s.writeError(w, apierr.NotFound("file not found"))
		return
	}

	if err := os.Remove(target); err != nil {
		s.writeError(w, apierr.Internal("delete file", err))
		return
	}
	if err := versioning.DeleteVersions(target); err != nil {
		s.log.Warnf("rag_delete", "failed to delete version history for %s: %v", target, err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "path": name})
}

// handleMkdir implements POST /api/v1/rag/mkdir.
func (s *Server) handleMkdir(w http.ResponseWriter, r *http.Request) {
	if s.indexMgr == nil {
		s.writeError(w, apierr.Internal("file management unavailable", fmt.Errorf("index manager not configured")))
		return
	}

	var req model.CreateDirRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apierr.BadRequest("invalid request body"))
		return
	}

	target, err := s.indexMgr.SafeResolveNew(req.Path)
	if err != nil {
		s.writeError(w, apierr.InvalidPath(err.Error()))
		return
	}
	if _, err := os.Stat(target); err == nil {
		s.writeError(w, apierr.Conflict("path already exists"))
		return
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		s.writeError(w, apierr.Internal("create directory", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "created"})
}

// handleCreateFile implements POST /api/v1/rag/files/create.
func (s *Server) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	if s.indexMgr == nil {
		s.writeError(w, apierr.Internal("file management unavailable", fmt.Errorf("index manager not configured")))
		return
	}

	var req model.CreateFileRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apierr.BadRequest("invalid request body"))
		return
	}

	target, err := s.indexMgr.SafeResolveNew(req.Path)
	if err != nil {
		s.writeError(w, apierr.InvalidPath(err.Error()))
		return
	}
	if _, err := os.Stat(target); err == nil {
		s.writeError(w, apierr.Conflict("path already exists"))
		return
	}
	if err := os.WriteFile(target, []byte(req.Content), 0o644); err != nil {
		s.writeError(w, apierr.Internal("create file", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "created"})
}

// handleFileVersions implements GET /api/v1/rag/files/{path}/versions.
func (s *Server) handleFileVersions(w http.ResponseWriter, r *http.Request) {
	if s.indexMgr == nil {
		s.writeError(w, apierr.Internal("file management unavailable", fmt.Errorf("index manager not configured")))
		return
	}

	relative := chi.URLParam(r, "path")
	target, err := s.indexMgr.SafeResolve(relative)
	if err != nil {
		s.writeError(w, apierr.InvalidPath(err.Error()))
		return
	}
	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		s.writeError(w, apierr.BadRequest("not a file"))
		return
	}

	history, err := versioning.History(target)
	if err != nil {
		s.writeError(w, apierr.Internal("read version history", err))
		return
	}
	history.FilePath = relative
	writeJSON(w, http.StatusOK, history)
}

// handleFileRollback implements POST /api/v1/rag/files/{path}/rollback.
func (s *Server) handleFileRollback(w http.ResponseWriter, r *http.Request) {
	if s.indexMgr == nil {
		s.writeError(w, apierr.Internal("file management unavailable", fmt.Errorf("index manager not configured")))
		return
	}

	relative := chi.URLParam(r, "path")
	target, err := s.indexMgr.SafeResolve(relative)
	if err != nil {
		s.writeError(w, apierr.InvalidPath(err.Error()))
		return
	}

	var req model.RollbackRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apierr.BadRequest("invalid request body"))
		return
	}

	if err := versioning.RollbackToVersion(target, req.Version); err != nil {
		s.writeError(w, apierr.BadRequest(err.Error()))
		return
	}

	reindexTriggered := false
	if req.Reindex {
		if err := s.indexMgr.RunIndex(r.Context()); err != nil {
			s.log.Warnf("rag_rollback", "reindex after rollback failed: %v", err)
		} else {
			reindexTriggered = true
		}
	}

	writeJSON(w, http.StatusOK, model.RollbackResponse{
		Status:           "success",
		RolledBackTo:     req.Version,
		ReindexTriggered: reindexTriggered,
	})
}
