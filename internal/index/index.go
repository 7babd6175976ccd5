// Package index defines the persisted vector index and the ingestion
// pipeline that builds it.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Record is the atomic retrieval unit: one embedded chunk of one page.
type Record struct {
	ID        string    `json:"id"` // "<url>#<chunkIndex>", unique within an index
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

// Index is the persisted collection for one site. It is written
// wholesale by an ingestion run and read-only afterwards; all
// embeddings share the dimensionality of the model named in Model.
type Index struct {
	Site        string    `json:"site"`
	GeneratedAt time.Time `json:"generatedAt"`
	Model       string    `json:"model"`
	Vectors     []Record  `json:"vectors"`
}

// Load reads an index from disk.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse index %s: %w", path, err)
	}
	return &idx, nil
}

// Save writes the index to path, fully replacing any prior file. The
// write goes through a temp file and rename so a concurrent Load never
// sees a half-written index.
func Save(idx *Index, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.json")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(idx); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp index: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace index %s: %w", path, err)
	}
	return nil
}
