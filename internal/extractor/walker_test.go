package extractor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormatFromExtension(t *testing.T) {
	cases := []struct {
		ext    string
		want   SupportedFormat
		wantOK bool
	}{
		{"txt", FormatPlainText, true},
		{"MD", FormatPlainText, true},
		{"pdf", FormatPDF, true},
		{"docx", FormatDocx, true},
		{"xlsx", FormatXlsx, true},
		{"pptx", FormatPptx, true},
		{"exe", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := FormatFromExtension(c.ext)
		if ok != c.wantOK {
			t.Errorf("FormatFromExtension(%q) ok = %v, want %v", c.ext, ok, c.wantOK)
			continue
		}
		if ok && got != c.want {
			t.Errorf("FormatFromExtension(%q) = %v, want %v", c.ext, got, c.want)
		}
	}
}

func TestWalkDirectory_SkipsVersionsDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "doc.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	versionsDir := filepath.Join(dir, ".versions")
	if err := os.MkdirAll(versionsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(versionsDir, "doc.txt.v1"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := WalkDirectory(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("len(files) = %d, want 1 (should skip .versions)", len(files))
	}
	if filepath.Base(files[0].Path) != "doc.txt" {
		t.Errorf("found file = %s, want doc.txt", files[0].Path)
	}
}

func TestWalkDirectory_IgnoresUnsupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "image.png"), []byte{0x89, 0x50}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := WalkDirectory(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("len(files) = %d, want 1", len(files))
	}
}
