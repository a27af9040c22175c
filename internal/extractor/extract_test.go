package extractor

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	text, err := Extract(path, FormatPlainText)
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello world" {
		t.Errorf("text = %q, want %q", text, "hello world")
	}
}

func TestExtractDocx_PullsRunText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.docx")
	writeZipEntry(t, path, "word/document.xml",
		`<w:document><w:body><w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t>World</w:t></w:r></w:p></w:body></w:document>`)

	text, err := Extract(path, FormatDocx)
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hello World" {
		t.Errorf("text = %q, want %q", text, "Hello World")
	}
}

func TestExtractPptx_JoinsSlides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.pptx")
	writeMultiZipEntry(t, path, map[string]string{
		"ppt/slides/slide1.xml": `<p:sld><a:t>Title Slide</a:t></p:sld>`,
		"ppt/slides/slide2.xml": `<p:sld><a:t>Second Slide</a:t></p:sld>`,
		"ppt/presentation.xml":  `<p:presentation/>`,
	})

	text, err := Extract(path, FormatPptx)
	if err != nil {
		t.Fatal(err)
	}
	if text != "Title Slide\n\nSecond Slide" {
		t.Errorf("text = %q", text)
	}
}

func TestExtractXlsx_SharedStringsAndInline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sheet.xlsx")
	writeMultiZipEntry(t, path, map[string]string{
		"xl/sharedStrings.xml": `<sst><si><t>Name</t></si><si><t>Age</t></si></sst>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData>` +
			`<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>` +
			`<row r="2"><c r="A2" t="inlineStr"><t>Taro</t></c><c r="B2"><v>30</v></c></row>` +
			`</sheetData></worksheet>`,
	})

	text, err := Extract(path, FormatXlsx)
	if err != nil {
		t.Fatal(err)
	}
	want := "Name\tAge\nTaro\t30"
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func writeZipEntry(t *testing.T, path, entryName, content string) {
	t.Helper()
	writeMultiZipEntry(t, path, map[string]string{entryName: content})
}

func writeMultiZipEntry(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	// Write entries in name order so archive order is deterministic.
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	w := zip.NewWriter(f)
	for _, name := range names {
		content := entries[name]
		entry, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}
