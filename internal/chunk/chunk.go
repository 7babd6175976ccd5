// Package chunk splits normalized page text into overlapping windows,
// the atomic unit that gets embedded and retrieved.
package chunk

import "strings"

const (
	DefaultSize    = 1200
	DefaultOverlap = 150
)

// Split cuts text into windows of at most size characters, each window
// starting size-overlap after the previous one. Windows that are empty
// or whitespace-only are dropped. Text shorter than size yields a single
// chunk. Split is pure: no I/O, deterministic for a given input.
func Split(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		piece := text[start:end]
		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, piece)
		}
		if end == len(text) {
			break
		}
	}
	return chunks
}
