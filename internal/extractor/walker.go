package extractor

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// SupportedFormat identifies how a file's text should be extracted.
type SupportedFormat int

// Supported document formats.
const (
	FormatPlainText SupportedFormat = iota
	FormatPDF
	FormatDocx
	FormatXlsx
	FormatPptx
)

var plainTextExtensions = map[string]bool{
	"txt": true, "md": true, "rs": true, "py": true, "js": true,
	"ts": true, "json": true, "yaml": true, "yml": true, "toml": true,
}

// FormatFromExtension maps a lowercased file extension (without the dot)
// to a SupportedFormat, or false if the extension is not indexable.
func FormatFromExtension(ext string) (SupportedFormat, bool) {
	ext = strings.ToLower(ext)
	if plainTextExtensions[ext] {
		return FormatPlainText, true
	}
	switch ext {
	case "pdf":
		return FormatPDF, true
	case "docx":
		return FormatDocx, true
	case "xlsx":
		return FormatXlsx, true
	case "pptx":
		return FormatPptx, true
	default:
		return 0, false
	}
}

// IndexableFile pairs a discovered path with how to extract its text.
type IndexableFile struct {
	Path   string
	Format SupportedFormat
}

// versionsDirName is the per-file history directory written by the
// versioning package; it must never itself be walked for indexing.
const versionsDirName = ".versions"

// WalkDirectory returns every indexable file under dir, skipping any
// ".versions" directory. Symlinks are not followed.
func WalkDirectory(dir string) ([]IndexableFile, error) {
	var files []IndexableFile

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries rather than aborting the walk
		}
		if d.IsDir() {
			if d.Name() == versionsDirName {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		format, ok := FormatFromExtension(ext)
		if !ok {
			return nil
		}
		files = append(files, IndexableFile{Path: path, Format: format})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
