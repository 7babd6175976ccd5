package chunk

import (
	"strings"
	"testing"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	t.Parallel()
	chunks := Split("hello world", 1200, 150)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "hello world" {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}

func TestSplitEmptyText(t *testing.T) {
	t.Parallel()
	if got := Split("", 1200, 150); got != nil {
		t.Fatalf("expected nil for empty text, got %v", got)
	}
	if got := Split("   \t\n  ", 1200, 150); len(got) != 0 {
		t.Fatalf("expected no chunks for whitespace-only text, got %d", len(got))
	}
}

func TestSplitCount(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		textLen int
		size    int
		overlap int
		want    int
	}{
		{"exactly one window", 1200, 1200, 150, 1},
		{"page boundary case", 1500, 1200, 150, 2}, // ceil((1500-150)/1050)
		{"tiny windows", 10, 4, 2, 4},              // ceil((10-2)/2)
		{"no overlap", 100, 25, 0, 4},
		{"one char over", 1201, 1200, 150, 2},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat("a", tt.textLen)
			got := Split(text, tt.size, tt.overlap)
			if len(got) != tt.want {
				t.Fatalf("Split(len=%d, %d, %d) = %d chunks, want %d",
					tt.textLen, tt.size, tt.overlap, len(got), tt.want)
			}
		})
	}
}

func TestSplitChunkBounds(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("abcdefghij", 500)
	size, overlap := 1200, 150
	for i, c := range Split(text, size, overlap) {
		if len(c) > size {
			t.Fatalf("chunk %d exceeds size: %d > %d", i, len(c), size)
		}
		if strings.TrimSpace(c) == "" {
			t.Fatalf("chunk %d is blank", i)
		}
	}
}

func TestSplitWindowsOverlap(t *testing.T) {
	t.Parallel()
	text := "abcdefghij"
	chunks := Split(text, 4, 2)
	want := []string{"abcd", "cdef", "efgh", "ghij"}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks %v, want %v", len(chunks), chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplitReconstructs(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 80)
	text = strings.TrimSpace(text)
	size, overlap := 300, 50

	chunks := Split(text, size, overlap)
	if len(chunks) < 2 {
		t.Fatalf("test needs multiple chunks, got %d", len(chunks))
	}
	rebuilt := chunks[0]
	for _, c := range chunks[1:] {
		rebuilt += c[overlap:]
	}
	if rebuilt != text {
		t.Fatalf("reconstruction mismatch: got %d chars, want %d", len(rebuilt), len(text))
	}
}

func TestSplitDeterministic(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("lorem ipsum dolor sit amet ", 100)
	a := Split(text, 500, 100)
	b := Split(text, 500, 100)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic chunk %d", i)
		}
	}
}
