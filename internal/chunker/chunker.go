// Package chunker splits document text into overlapping, UTF-8-safe
// segments sized for embedding.
package chunker

import "strings"

// TextChunk is one piece of a chunked document.
type TextChunk struct {
	Text       string
	ChunkIndex int
}

// ceilCharBoundary rounds a byte offset up to the next UTF-8 rune boundary.
func ceilCharBoundary(text string, pos int) int {
	if pos >= len(text) {
		return len(text)
	}
	for pos < len(text) && !isCharBoundary(text, pos) {
		pos++
	}
	return pos
}

// floorCharBoundary rounds a byte offset down to the previous UTF-8 rune boundary.
func floorCharBoundary(text string, pos int) int {
	if pos >= len(text) {
		return len(text)
	}
	for pos > 0 && !isCharBoundary(text, pos) {
		pos--
	}
	return pos
}

// isCharBoundary reports whether pos lies on a UTF-8 rune boundary. A byte
// is a boundary if it isn't a continuation byte (10xxxxxx).
func isCharBoundary(text string, pos int) bool {
	if pos == 0 || pos == len(text) {
		return true
	}
	return text[pos]&0xC0 != 0x80
}

// Chunk splits text into overlapping chunks no larger than maxChunkSize
// bytes, preferring to break on paragraph, line, sentence, then word
// boundaries. overlap bytes from the end of one chunk are repeated at the
// start of the next so retrieval doesn't lose context at chunk edges.
func Chunk(text string, maxChunkSize, overlap int) []TextChunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if len(text) <= maxChunkSize {
		return []TextChunk{{Text: text, ChunkIndex: 0}}
	}

	var chunks []TextChunk
	start := 0
	chunkIndex := 0

	for start < len(text) {
		end := ceilCharBoundary(text, min(start+maxChunkSize, len(text)))

		actualEnd := end
		if end < len(text) {
			actualEnd = findBreakPoint(text, start, end)
		}

		chunkText := strings.TrimSpace(text[start:actualEnd])
		if chunkText != "" {
			chunks = append(chunks, TextChunk{Text: chunkText, ChunkIndex: chunkIndex})
			chunkIndex++
		}

		nextStart := actualEnd
		if actualEnd > overlap {
			nextStart = floorCharBoundary(text, actualEnd-overlap)
		}

		if nextStart <= start {
			start = actualEnd
		} else {
			start = nextStart
		}
	}

	return chunks
}

// findBreakPoint looks for the last paragraph, line, sentence (Japanese or
// Western), or word boundary within [start, maxEnd), in that priority order.
func findBreakPoint(text string, start, maxEnd int) int {
	segment := text[start:maxEnd]

	if pos := strings.LastIndex(segment, "\n\n"); pos >= 0 {
		return start + pos + len("\n\n")
	}
	if pos := strings.LastIndex(segment, "\n"); pos >= 0 {
		return start + pos + len("\n")
	}
	for _, sentinel := range []string{"。", "？", "！", ". ", "? ", "! "} {
		if pos := strings.LastIndex(segment, sentinel); pos >= 0 {
			return start + pos + len(sentinel)
		}
	}
	if pos := strings.LastIndex(segment, " "); pos >= 0 {
		return start + pos + 1
	}
	return maxEnd
}
