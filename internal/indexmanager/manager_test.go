package indexmanager

import (
	"os"
	"path/filepath"
	"testing"

	"privacy-llm-gateway/internal/logger"
)

func newTestManager(t *testing.T, uploadDir string) *Manager {
	t.Helper()
	return New(uploadDir, nil, nil, 60, nil, logger.New("INDEXER", "error"))
}

func TestGetStatus_InitialState(t *testing.T) {
	dir := t.TempDir()
	mgr := newTestManager(t, dir)

	s := mgr.GetStatus()
	if s.IsIndexing {
		t.Error("expected IsIndexing = false initially")
	}
	if s.AutoIndexIntervalMinutes != 60 {
		t.Errorf("AutoIndexIntervalMinutes = %d, want 60", s.AutoIndexIntervalMinutes)
	}
	if s.UploadDir != dir {
		t.Errorf("UploadDir = %q, want %q", s.UploadDir, dir)
	}
}

func TestSetInterval_UpdatesStatus(t *testing.T) {
	mgr := newTestManager(t, t.TempDir())
	mgr.SetInterval(15)
	if got := mgr.GetStatus().AutoIndexIntervalMinutes; got != 15 {
		t.Errorf("AutoIndexIntervalMinutes = %d, want 15", got)
	}
}

func TestSafeResolve_EmptyReturnsUploadDir(t *testing.T) {
	dir := t.TempDir()
	mgr := newTestManager(t, dir)

	resolved, err := mgr.SafeResolve("")
	if err != nil {
		t.Fatal(err)
	}
	if resolved != dir {
		t.Errorf("SafeResolve(\"\") = %q, want %q", resolved, dir)
	}
}

func TestSafeResolve_RejectsTraversalOutsideUploadDir(t *testing.T) {
	dir := t.TempDir()
	mgr := newTestManager(t, dir)

	if _, err := mgr.SafeResolve("../../../etc/passwd"); err == nil {
		t.Error("expected error resolving a path outside the upload dir")
	}
}

func TestSafeResolve_AllowsNestedExistingFile(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	filePath := filepath.Join(sub, "doc.txt")
	if err := os.WriteFile(filePath, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	mgr := newTestManager(t, dir)
	resolved, err := mgr.SafeResolve("sub/doc.txt")
	if err != nil {
		t.Fatal(err)
	}
	if resolved != filePath {
		t.Errorf("SafeResolve = %q, want %q", resolved, filePath)
	}
}

func TestSafeResolveNew_RejectsDotDot(t *testing.T) {
	mgr := newTestManager(t, t.TempDir())
	if _, err := mgr.SafeResolveNew("../escape.txt"); err == nil {
		t.Error("expected error for path containing ..")
	}
}

func TestSafeResolveNew_RejectsEmptyPath(t *testing.T) {
	mgr := newTestManager(t, t.TempDir())
	if _, err := mgr.SafeResolveNew(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestSafeResolveNew_AllowsNewFileInExistingDir(t *testing.T) {
	dir := t.TempDir()
	mgr := newTestManager(t, dir)

	target, err := mgr.SafeResolveNew("new-file.txt")
	if err != nil {
		t.Fatal(err)
	}
	if target != filepath.Join(dir, "new-file.txt") {
		t.Errorf("SafeResolveNew = %q", target)
	}
}

func TestSafeResolveNew_RejectsMissingParentDir(t *testing.T) {
	dir := t.TempDir()
	mgr := newTestManager(t, dir)

	if _, err := mgr.SafeResolveNew("missing-dir/file.txt"); err == nil {
		t.Error("expected error when parent directory does not exist")
	}
}

func TestListDirEntries_DirsFirstThenAlphabetical(t *testing.T) {
	dir := t.TempDir()
	mustMkdir(t, filepath.Join(dir, "zeta-dir"))
	mustMkdir(t, filepath.Join(dir, "alpha-dir"))
	mustWriteFile(t, filepath.Join(dir, "b.txt"), "content")
	mustWriteFile(t, filepath.Join(dir, "a.txt"), "content")

	mgr := newTestManager(t, dir)
	entries, err := mgr.ListDirEntries("")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Fatalf("len(entries) = %d, want 4", len(entries))
	}
	if !entries[0].IsDir || !entries[1].IsDir {
		t.Error("expected the two directories to sort first")
	}
	if entries[0].Name != "alpha-dir" || entries[1].Name != "zeta-dir" {
		t.Errorf("directories out of order: %v, %v", entries[0].Name, entries[1].Name)
	}
	if entries[2].Name != "a.txt" || entries[3].Name != "b.txt" {
		t.Errorf("files out of order: %v, %v", entries[2].Name, entries[3].Name)
	}
}

func TestListDirEntries_SkipsVersionsDir(t *testing.T) {
	dir := t.TempDir()
	mustMkdir(t, filepath.Join(dir, ".versions"))
	mustWriteFile(t, filepath.Join(dir, "doc.txt"), "content")

	mgr := newTestManager(t, dir)
	entries, err := mgr.ListDirEntries("")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name == ".versions" {
			t.Error("expected .versions to be skipped")
		}
	}
}

func TestListFiles_ReturnsIndexableFilesWithFormat(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "notes.txt"), "hello")
	mustWriteFile(t, filepath.Join(dir, "image.png"), "binary")

	mgr := newTestManager(t, dir)
	files, err := mgr.ListFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("len(files) = %d, want 1 (only notes.txt is indexable)", len(files))
	}
	if files[0].Name != "notes.txt" {
		t.Errorf("files[0].Name = %q, want notes.txt", files[0].Name)
	}
	if files[0].Format != "text" {
		t.Errorf("files[0].Format = %q, want text", files[0].Format)
	}
}

func TestFileID_DeterministicAndStable(t *testing.T) {
	a := fileID("/upload/doc.txt")
	b := fileID("/upload/doc.txt")
	c := fileID("/upload/other.txt")

	if a != b {
		t.Error("expected fileID to be deterministic for the same path")
	}
	if a == c {
		t.Error("expected distinct paths to hash differently")
	}
	if len(a) != 16 {
		t.Errorf("len(fileID) = %d, want 16 (8 bytes hex-encoded)", len(a))
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
