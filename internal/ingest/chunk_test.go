package ingest

import (
	"strings"
	"testing"
)

func TestChunkTextSplits(t *testing.T) {
	text := strings.Repeat("a", 3200)
	chunks := chunkText(text, 1500)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 1500 || len(chunks[1]) != 1500 || len(chunks[2]) != 200 {
		t.Fatalf("unexpected chunk sizes: %d %d %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if strings.Join(chunks, "") != text {
		t.Fatal("chunks must reassemble to the original text")
	}
}

func TestChunkTextShortInput(t *testing.T) {
	chunks := chunkText("short", 1500)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}

func TestChunkTextEmpty(t *testing.T) {
	if chunks := chunkText("", 1500); chunks != nil {
		t.Fatalf("expected nil for empty input, got %v", chunks)
	}
}

func TestChunkTextKeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("é", 10)
	chunks := chunkText(text, 3)
	if strings.Join(chunks, "") != text {
		t.Fatal("multibyte runes must not be split")
	}
	for i, c := range chunks {
		if !strings.HasPrefix(c, "é") {
			t.Fatalf("chunk %d starts mid-rune: %q", i, c)
		}
	}
}
