package index

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Golden-YG/Chatbox/internal/chunk"
	"github.com/Golden-YG/Chatbox/internal/crawler"
	"github.com/Golden-YG/Chatbox/internal/extract"
	"github.com/Golden-YG/Chatbox/internal/fetch"
	"github.com/Golden-YG/Chatbox/provider"
)

// BuilderOptions tune one ingestion run.
type BuilderOptions struct {
	Model        string // embedding model identifier, stamped into the index
	ChunkSize    int
	ChunkOverlap int
	MinTextChars int // pages with less extracted text are skipped
}

// Builder orchestrates the ingestion pipeline:
// crawl -> extract -> chunk -> embed -> records.
type Builder struct {
	crawler  *crawler.Crawler
	provider provider.Provider
	opts     BuilderOptions
	logger   *log.Logger
}

func NewBuilder(c *crawler.Crawler, p provider.Provider, opts BuilderOptions, logger *log.Logger) *Builder {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = chunk.DefaultSize
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = chunk.DefaultOverlap
	}
	if opts.MinTextChars <= 0 {
		opts.MinTextChars = 200
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[INDEX] ", log.LstdFlags)
	}
	return &Builder{crawler: c, provider: p, opts: opts, logger: logger}
}

// Build runs one full ingestion pass and returns the resulting index.
// Per-page fetch or embedding failures are logged and skipped; the run
// only fails when URL discovery itself fails. URLs are processed
// sequentially so one bad page never poisons another.
func (b *Builder) Build(ctx context.Context) (*Index, error) {
	urls, err := b.crawler.Discover(ctx)
	if err != nil {
		return nil, err
	}
	b.logger.Printf("discovered %d urls for %s", len(urls), b.crawler.Site())

	idx := &Index{
		Site:        b.crawler.Site(),
		GeneratedAt: time.Now().UTC(),
		Model:       b.opts.Model,
	}

	for _, pageURL := range urls {
		res, err := b.crawler.Fetch(ctx, pageURL)
		if err != nil {
			b.logger.Printf("WARN fetch %s: %v", pageURL, err)
			continue
		}

		doc := pageDocument(res)
		if len(doc.Text) < b.opts.MinTextChars {
			b.logger.Printf("skip %s: only %d chars of text", pageURL, len(doc.Text))
			continue
		}

		chunks := chunk.Split(doc.Text, b.opts.ChunkSize, b.opts.ChunkOverlap)
		if len(chunks) == 0 {
			continue
		}

		vecs, err := b.provider.CreateEmbedding(ctx, chunks)
		if err != nil {
			b.logger.Printf("WARN embed %s: %v", pageURL, err)
			continue
		}
		if len(vecs) != len(chunks) {
			b.logger.Printf("WARN embed %s: got %d vectors for %d chunks", pageURL, len(vecs), len(chunks))
			continue
		}

		for i, content := range chunks {
			idx.Vectors = append(idx.Vectors, Record{
				ID:        fmt.Sprintf("%s#%d", pageURL, i),
				URL:       pageURL,
				Title:     doc.Title,
				Content:   content,
				Embedding: vecs[i],
			})
		}
		b.logger.Printf("indexed %s: %d chunks", pageURL, len(chunks))
	}

	b.logger.Printf("built index for %s: %d vectors from %d urls", idx.Site, len(idx.Vectors), len(urls))
	return idx, nil
}

// pageDocument prefers text the fetcher already extracted (the rendered
// fetcher runs readability itself); otherwise falls back to generic
// markup extraction.
func pageDocument(res fetch.Result) extract.Document {
	if res.Text != "" {
		return extract.Document{Title: res.Title, Text: extract.Normalize(res.Text)}
	}
	return extract.FromHTML(res.HTML)
}
