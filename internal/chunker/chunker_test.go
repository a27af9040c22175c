package chunker

import "testing"

func TestJapaneseTextChunking(t *testing.T) {
	text := "これはテスト文章です。日本語のマルチバイト文字を含むテキストを正しくチャンクに分割できるかテストします。句読点で分割されることを確認します。"
	chunks := Chunk(text, 60, 10)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for _, c := range chunks {
		if c.Text == "" {
			t.Error("chunk text should not be empty")
		}
	}
}

func TestMixedTextChunking(t *testing.T) {
	text := "AI Security Conference 2026 イベントレポート。最新のセキュリティ技術について検討しました。参加者は100名を超えました。"
	chunks := Chunk(text, 50, 10)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for _, c := range chunks {
		if c.Text == "" {
			t.Error("chunk text should not be empty")
		}
	}
}

func TestSmallTextSingleChunk(t *testing.T) {
	text := "short"
	chunks := Chunk(text, 100, 10)
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if chunks[0].Text != "short" {
		t.Errorf("chunks[0].Text = %q, want %q", chunks[0].Text, "short")
	}
}

func TestEmptyText(t *testing.T) {
	chunks := Chunk("", 100, 10)
	if chunks != nil {
		t.Errorf("expected nil chunks for empty text, got %v", chunks)
	}
}

func TestChunkIndicesAreSequential(t *testing.T) {
	text := "これは長いテキストです。" // repeated to force multiple chunks
	long := ""
	for i := 0; i < 20; i++ {
		long += text
	}
	chunks := Chunk(long, 40, 5)
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has ChunkIndex %d", i, c.ChunkIndex)
		}
	}
}

func TestNoInfiniteLoop_OnNoBreakPoints(t *testing.T) {
	// A run of characters with no spaces, newlines, or punctuation must
	// still terminate via the maxEnd fallback.
	long := ""
	for i := 0; i < 200; i++ {
		long += "字"
	}
	chunks := Chunk(long, 30, 5)
	if len(chunks) == 0 {
		t.Fatal("expected chunks from a long run of characters")
	}
}
