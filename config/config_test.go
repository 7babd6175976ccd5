package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := LoadConfig("")

	if cfg.General.Listen != ":8080" {
		t.Fatalf("listen = %q", cfg.General.Listen)
	}
	if cfg.Crawl.MaxPages != 40 || cfg.Crawl.FetchTimeout != 15*time.Second || cfg.Crawl.MinTextChars != 200 {
		t.Fatalf("crawl defaults: %+v", cfg.Crawl)
	}
	if cfg.Crawl.Fetcher != "http" {
		t.Fatalf("fetcher = %q", cfg.Crawl.Fetcher)
	}
	if cfg.Index.ChunkSize != 1200 || cfg.Index.ChunkOverlap != 150 || cfg.Index.Path != "data/index.json" {
		t.Fatalf("index defaults: %+v", cfg.Index)
	}
	if cfg.Retrieval.TopK != 6 || cfg.Retrieval.MaxSources != 3 {
		t.Fatalf("retrieval defaults: %+v", cfg.Retrieval)
	}
	oa := cfg.Providers.OpenAI
	if oa.CompletionModel != "gpt-4o-mini" || oa.EmbeddingModel != "text-embedding-3-small" {
		t.Fatalf("model defaults: %+v", oa)
	}
	if oa.Temperature != 0.2 || oa.MaxTokens != 700 {
		t.Fatalf("sampling defaults: %+v", oa)
	}
	if cfg.Schedule.RebuildCron != "" {
		t.Fatalf("rebuild_cron default = %q", cfg.Schedule.RebuildCron)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CHATBOX_CRAWL_SITE", "https://docs.example.com")
	t.Setenv("CHATBOX_CRAWL_MAX_PAGES", "10")
	t.Setenv("CHATBOX_INDEX_PATH", "/tmp/alt-index.json")
	t.Setenv("CHATBOX_PROVIDERS_OPENAI_API_KEY", "sk-from-env")

	cfg := LoadConfig("")
	if cfg.Crawl.Site != "https://docs.example.com" {
		t.Fatalf("site = %q", cfg.Crawl.Site)
	}
	if cfg.Crawl.MaxPages != 10 {
		t.Fatalf("max_pages = %d", cfg.Crawl.MaxPages)
	}
	if cfg.Index.Path != "/tmp/alt-index.json" {
		t.Fatalf("index path = %q", cfg.Index.Path)
	}
	if cfg.Providers.OpenAI.APIKey != "sk-from-env" {
		t.Fatalf("api key = %q", cfg.Providers.OpenAI.APIKey)
	}
}

func TestLoadConfigPlainOpenAIKeyFallback(t *testing.T) {
	t.Setenv("CHATBOX_PROVIDERS_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-plain")

	cfg := LoadConfig("")
	if cfg.Providers.OpenAI.APIKey != "sk-plain" {
		t.Fatalf("api key = %q, want plain-env fallback", cfg.Providers.OpenAI.APIKey)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
crawl:
  site: https://help.example.org
  max_pages: 25
index:
  chunk_size: 800
  chunk_overlap: 100
retrieval:
  top_k: 4
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := LoadConfig(path)
	if cfg.Crawl.Site != "https://help.example.org" || cfg.Crawl.MaxPages != 25 {
		t.Fatalf("crawl from file: %+v", cfg.Crawl)
	}
	if cfg.Index.ChunkSize != 800 || cfg.Index.ChunkOverlap != 100 {
		t.Fatalf("index from file: %+v", cfg.Index)
	}
	if cfg.Retrieval.TopK != 4 {
		t.Fatalf("top_k = %d", cfg.Retrieval.TopK)
	}
	// Untouched keys keep their defaults.
	if cfg.Providers.OpenAI.CompletionModel != "gpt-4o-mini" {
		t.Fatalf("completion model = %q", cfg.Providers.OpenAI.CompletionModel)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()
	if err := (CrawlConfig{MaxPages: 0, FetchTimeout: time.Second}).Validate(); err == nil {
		t.Fatal("expected error for max_pages = 0")
	}
	if err := (CrawlConfig{MaxPages: 1, FetchTimeout: time.Second, Fetcher: "curl"}).Validate(); err == nil {
		t.Fatal("expected error for unknown fetcher")
	}
	if err := (IndexConfig{Path: "x", ChunkSize: 100, ChunkOverlap: 100}).Validate(); err == nil {
		t.Fatal("expected error for overlap >= size")
	}
	if err := (IndexConfig{Path: "", ChunkSize: 100, ChunkOverlap: 10}).Validate(); err == nil {
		t.Fatal("expected error for empty path")
	}
	if err := (RetrievalConfig{TopK: 0}).Validate(); err == nil {
		t.Fatal("expected error for top_k = 0")
	}
	if err := (OpenAIConfig{CompletionModel: "m", EmbeddingModel: "", Timeout: time.Second}).Validate(); err == nil {
		t.Fatal("expected error for empty embedding model")
	}
}
