// Package extractor pulls plain text out of indexable documents: plain
// text/code files, PDFs, and the text streams embedded in DOCX/PPTX/XLSX
// Office Open XML archives.
package extractor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Extract returns the plain-text contents of path, dispatching on format.
func Extract(path string, format SupportedFormat) (string, error) {
	switch format {
	case FormatPlainText:
		return extractPlainText(path)
	case FormatPDF:
		return extractPDF(path)
	case FormatDocx:
		return extractOOXML(path, "word/document.xml", "w:t")
	case FormatPptx:
		return extractPptx(path)
	case FormatXlsx:
		return extractXlsx(path)
	default:
		return "", fmt.Errorf("unsupported format")
	}
}

func extractPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text file %s is not valid UTF-8", path)
	}
	return string(data), nil
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open PDF %s: %w", path, err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract PDF text %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("read extracted PDF text %s: %w", path, err)
	}
	return buf.String(), nil
}

// extractOOXML reads one XML entry from an Office Open XML ZIP container
// and pulls text out of every occurrence of the given run tag.
func extractOOXML(path, entryName, tag string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open %s as ZIP: %w", path, err)
	}
	defer r.Close()

	f, err := r.Open(entryName)
	if err != nil {
		return "", fmt.Errorf("no %s found in %s", entryName, path)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", entryName, err)
	}
	return extractTextFromXML(string(data), tag), nil
}

func extractPptx(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open %s as ZIP: %w", path, err)
	}
	defer r.Close()

	var slides []string
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, "ppt/slides/slide") || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		if text := extractTextFromXML(string(data), "a:t"); text != "" {
			slides = append(slides, text)
		}
	}
	return strings.Join(slides, "\n\n"), nil
}

// extractXlsx pulls shared-string and inline cell text out of each
// worksheet's XML, row by row, tab-joining cells and newline-joining rows.
// This is a deliberately minimal scan, the same technique used for
// DOCX/PPTX: a real spreadsheet parser is more machinery than indexing for
// retrieval needs.
func extractXlsx(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open %s as ZIP: %w", path, err)
	}
	defer r.Close()

	sharedStrings := readSharedStrings(r)

	var sheetNames []string
	for _, f := range r.File {
		if strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml") {
			sheetNames = append(sheetNames, f.Name)
		}
	}

	var rows []string
	for _, name := range sheetNames {
		f, err := r.Open(name)
		if err != nil {
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			continue
		}
		rows = append(rows, extractSheetRows(string(data), sharedStrings)...)
	}
	return strings.Join(rows, "\n"), nil
}

// readSharedStrings loads xl/sharedStrings.xml, returning the ordered pool
// of <t> text values that cell references by index into.
func readSharedStrings(r *zip.ReadCloser) []string {
	f, err := r.Open("xl/sharedStrings.xml")
	if err != nil {
		return nil
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil
	}
	return scanTag(string(data), "t")
}

// extractSheetRows scans <row>...</row> blocks and, within each, the cell
// text: either inline <t> text or a shared-string index in <v>, keyed by
// the cell's t="s" attribute marking a shared-string reference.
func extractSheetRows(xml string, shared []string) []string {
	var rows []string
	for _, rowXML := range scanTag(xml, "row") {
		var cells []string
		for _, cellXML := range scanCellTags(rowXML) {
			cells = append(cells, cellText(cellXML, shared)...)
		}
		nonEmpty := cells[:0]
		for _, c := range cells {
			if c != "" {
				nonEmpty = append(nonEmpty, c)
			}
		}
		if len(nonEmpty) > 0 {
			rows = append(rows, strings.Join(nonEmpty, "\t"))
		}
	}
	return rows
}

// cellText extracts the displayable text from one <c>...</c> cell block,
// resolving shared-string indices when the cell carries t="s".
func cellText(cellXML string, shared []string) []string {
	isShared := strings.Contains(cellXML, `t="s"`)
	if isShared {
		values := scanTag(cellXML, "v")
		var out []string
		for _, v := range values {
			idx := 0
			if _, err := fmt.Sscanf(v, "%d", &idx); err == nil && idx >= 0 && idx < len(shared) {
				out = append(out, shared[idx])
			}
		}
		return out
	}
	if inline := scanTag(cellXML, "t"); len(inline) > 0 {
		return inline
	}
	return scanTag(cellXML, "v")
}

// scanCellTags splits a <row> block into its individual <c ...>...</c> cells.
func scanCellTags(rowXML string) []string {
	const open, close = "<c", "</c>"
	var cells []string
	searchFrom := 0
	for {
		openPos := strings.Index(rowXML[searchFrom:], open)
		if openPos < 0 {
			break
		}
		absOpen := searchFrom + openPos
		closePos := strings.Index(rowXML[absOpen:], close)
		if closePos < 0 {
			break
		}
		absClose := absOpen + closePos + len(close)
		cells = append(cells, rowXML[absOpen:absClose])
		searchFrom = absClose
	}
	return cells
}

// extractTextFromXML pulls the content of every <tag ...>...</tag> element
// and joins it with spaces. This intentionally does not implement a real
// XML parser — indexing only needs the run text, not document structure.
func extractTextFromXML(xmlContent, tag string) string {
	return strings.Join(scanTag(xmlContent, tag), " ")
}

// scanTag returns the inner content of every <tag ...>...</tag> occurrence
// in xmlContent, handling attributes on the opening tag but not nesting.
func scanTag(xmlContent, tag string) []string {
	openTag := "<" + tag
	closeTag := "</" + tag + ">"

	var texts []string
	searchFrom := 0
	for {
		openPos := strings.Index(xmlContent[searchFrom:], openTag)
		if openPos < 0 {
			break
		}
		absOpen := searchFrom + openPos
		tagEnd := strings.IndexByte(xmlContent[absOpen:], '>')
		if tagEnd < 0 {
			break
		}
		contentStart := absOpen + tagEnd + 1
		closePos := strings.Index(xmlContent[contentStart:], closeTag)
		if closePos < 0 {
			break
		}
		content := xmlContent[contentStart : contentStart+closePos]
		if content != "" {
			texts = append(texts, content)
		}
		searchFrom = contentStart + closePos + len(closeTag)
	}
	return texts
}
