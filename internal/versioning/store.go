// Package versioning keeps a bounded history of prior contents for every
// indexed file, so edits and rollbacks through the HTTP API are reversible.
package versioning

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"privacy-llm-gateway/internal/model"
)

// VersionsDirName is the directory name holding per-file version history.
// The indexer walk must never descend into it.
const VersionsDirName = ".versions"

// MaxVersions is the retained-version cap per file. Saving a new version
// beyond this evicts the oldest first (FIFO).
const MaxVersions = 10

// versionsDirFor returns the .versions directory alongside filePath.
func versionsDirFor(filePath string) string {
	dir := filepath.Dir(filePath)
	return filepath.Join(dir, VersionsDirName)
}

// fileVersionDir returns the per-file version storage directory.
func fileVersionDir(filePath string) string {
	return filepath.Join(versionsDirFor(filePath), filepath.Base(filePath))
}

// ReadMeta reads meta.json for filePath, returning an empty manifest if none
// exists yet.
func ReadMeta(filePath string) (*model.VersionMeta, error) {
	metaPath := filepath.Join(fileVersionDir(filePath), "meta.json")
	data, err := os.ReadFile(metaPath)
	if os.IsNotExist(err) {
		return &model.VersionMeta{MaxVersions: MaxVersions}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read version meta for %s: %w", filePath, err)
	}
	var meta model.VersionMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse version meta for %s: %w", filePath, err)
	}
	return &meta, nil
}

// writeMeta persists meta.json atomically: write to a temp file in the same
// directory, then rename over the target, so a crash mid-write never leaves
// a truncated manifest.
func writeMeta(filePath string, meta *model.VersionMeta) error {
	verDir := fileVersionDir(filePath)
	if err := os.MkdirAll(verDir, 0o755); err != nil {
		return fmt.Errorf("create version dir for %s: %w", filePath, err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal version meta for %s: %w", filePath, err)
	}

	tmp, err := os.CreateTemp(verDir, ".meta-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp meta file for %s: %w", filePath, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp meta file for %s: %w", filePath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp meta file for %s: %w", filePath, err)
	}

	metaPath := filepath.Join(verDir, "meta.json")
	if err := os.Rename(tmpName, metaPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp meta file for %s: %w", filePath, err)
	}
	return nil
}

// findVersionFile locates the on-disk blob for a given version number.
func findVersionFile(verDir string, version uint32) (string, bool) {
	prefix := fmt.Sprintf("v%d_", version)
	entries, err := os.ReadDir(verDir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		name := e.Name()
		if name != "meta.json" && strings.HasPrefix(name, prefix) {
			return filepath.Join(verDir, name), true
		}
	}
	return "", false
}

// SaveVersion snapshots the current contents of filePath as a new version
// before it is overwritten, evicting the oldest retained version if the
// file is already at MaxVersions. It returns the assigned version number.
func SaveVersion(filePath, comment string) (uint32, error) {
	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		return 0, fmt.Errorf("file does not exist: %s", filePath)
	}

	verDir := fileVersionDir(filePath)
	if err := os.MkdirAll(verDir, 0o755); err != nil {
		return 0, fmt.Errorf("create version dir for %s: %w", filePath, err)
	}

	meta, err := ReadMeta(filePath)
	if err != nil {
		return 0, err
	}

	var nextVersion uint32 = 1
	if len(meta.Versions) > 0 {
		nextVersion = meta.Versions[len(meta.Versions)-1].Version + 1
	}

	for len(meta.Versions) >= MaxVersions {
		oldest := meta.Versions[0]
		meta.Versions = meta.Versions[1:]
		if f, ok := findVersionFile(verDir, oldest.Version); ok {
			os.Remove(f)
		}
	}

	ext := strings.TrimPrefix(filepath.Ext(filePath), ".")
	if ext == "" {
		ext = "dat"
	}
	verFilename := fmt.Sprintf("v%d_%d.%s", nextVersion, time.Now().Unix(), ext)
	verPath := filepath.Join(verDir, verFilename)

	if err := copyFile(filePath, verPath); err != nil {
		return 0, fmt.Errorf("copy version blob for %s: %w", filePath, err)
	}

	verInfo, err := os.Stat(verPath)
	if err != nil {
		return 0, fmt.Errorf("stat version blob for %s: %w", filePath, err)
	}

	meta.Versions = append(meta.Versions, model.VersionEntry{
		Version:   nextVersion,
		CreatedAt: time.Now().UTC(),
		Size:      uint64(verInfo.Size()),
		Comment:   comment,
	})

	if err := writeMeta(filePath, meta); err != nil {
		return 0, err
	}
	return nextVersion, nil
}

// History returns the full version history for filePath alongside its
// current size and modification time.
func History(filePath string) (*model.FileVersionHistory, error) {
	meta, err := ReadMeta(filePath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", filePath, err)
	}
	return &model.FileVersionHistory{
		FilePath:          filePath,
		CurrentSize:       uint64(info.Size()),
		CurrentModifiedAt: info.ModTime().UTC(),
		Versions:          meta.Versions,
	}, nil
}

// RollbackToVersion restores filePath to the contents of a prior version,
// first saving the current state as a new version so the rollback itself
// is reversible.
func RollbackToVersion(filePath string, version uint32) error {
	verDir := fileVersionDir(filePath)
	meta, err := ReadMeta(filePath)
	if err != nil {
		return err
	}

	found := false
	for _, v := range meta.Versions {
		if v.Version == version {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("version %d not found", version)
	}

	verFile, ok := findVersionFile(verDir, version)
	if !ok {
		return fmt.Errorf("version file for v%d not found on disk", version)
	}

	if _, err := os.Stat(filePath); err == nil {
		if _, err := SaveVersion(filePath, fmt.Sprintf("Auto-saved before rollback to v%d", version)); err != nil {
			return err
		}
	}

	return copyFile(verFile, filePath)
}

// Count returns the number of retained versions for filePath (0 if none).
func Count(filePath string) uint32 {
	meta, err := ReadMeta(filePath)
	if err != nil {
		return 0
	}
	return uint32(len(meta.Versions))
}

// DeleteVersions removes all retained history for filePath, called when the
// file itself is deleted. It also removes the parent .versions directory
// once it becomes empty.
func DeleteVersions(filePath string) error {
	verDir := fileVersionDir(filePath)
	if _, err := os.Stat(verDir); err == nil {
		if err := os.RemoveAll(verDir); err != nil {
			return fmt.Errorf("remove version dir for %s: %w", filePath, err)
		}
	}

	parent := versionsDirFor(filePath)
	entries, err := os.ReadDir(parent)
	if err == nil && len(entries) == 0 {
		os.Remove(parent)
	}
	return nil
}

// IsVersionsDir reports whether name is the reserved version-storage directory.
func IsVersionsDir(name string) bool {
	return name == VersionsDirName
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
