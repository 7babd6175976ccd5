package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/Golden-YG/Chatbox/config"
	"github.com/Golden-YG/Chatbox/internal/crawler"
	"github.com/Golden-YG/Chatbox/internal/fetch"
	"github.com/Golden-YG/Chatbox/internal/index"
	"github.com/Golden-YG/Chatbox/internal/retrieve"
	"github.com/Golden-YG/Chatbox/provider"
)

// Scheduler runs periodic full re-ingestion: rebuild the index from a
// fresh crawl, persist it, and hot-reload the retriever.
type Scheduler struct {
	Cfg       *config.Config
	LLM       provider.Provider
	Retriever *retrieve.Retriever
	Stop      chan struct{}
	Logger    *log.Logger

	mu      sync.Mutex
	lastRun *time.Time
	running bool
}

func (s *Scheduler) Start() {
	ticker := time.NewTicker(time.Minute)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.running || !isDue(s.Cfg.Schedule.RebuildCron, s.lastRun) {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		defer func() {
			now := time.Now()
			s.mu.Lock()
			s.lastRun = &now
			s.running = false
			s.mu.Unlock()
		}()
		s.rebuild()
	}()
}

func (s *Scheduler) rebuild() {
	ctx := context.Background()
	cfg := s.Cfg

	if cfg.Crawl.Site == "" {
		s.Logger.Printf("WARN rebuild skipped: crawl.site not configured")
		return
	}

	fetcher, err := fetch.New(fetch.Type(cfg.Crawl.Fetcher), cfg.Crawl.FetchTimeout, cfg.Crawl.UserAgent)
	if err != nil {
		s.Logger.Printf("WARN rebuild: %v", err)
		return
	}
	cr, err := crawler.New(fetcher, cfg.Crawl, s.Logger)
	if err != nil {
		s.Logger.Printf("WARN rebuild: %v", err)
		return
	}

	builder := index.NewBuilder(cr, s.LLM, index.BuilderOptions{
		Model:        cfg.Providers.OpenAI.EmbeddingModel,
		ChunkSize:    cfg.Index.ChunkSize,
		ChunkOverlap: cfg.Index.ChunkOverlap,
		MinTextChars: cfg.Crawl.MinTextChars,
	}, s.Logger)

	idx, err := builder.Build(ctx)
	if err != nil {
		s.Logger.Printf("WARN rebuild failed: %v", err)
		return
	}
	if err := index.Save(idx, cfg.Index.Path); err != nil {
		s.Logger.Printf("WARN rebuild: write index: %v", err)
		return
	}
	n, err := s.Retriever.Reload()
	if err != nil {
		s.Logger.Printf("WARN rebuild: reload: %v", err)
		return
	}
	reloadsTotal.Inc()
	indexVectors.Set(float64(n))
	s.Logger.Printf("rebuilt index: %d vectors", n)
}

// isDue determines whether a rebuild with cronSpec should run now given
// the last run time. Supports "@daily", "@hourly" and standard 5-field
// cron expressions; an unparsable spec falls back to @daily.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "":
		return false
	case "@daily":
		return last == nil || now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		return last == nil || now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			return last == nil || now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		return !expr.Next(*last).After(now)
	}
}
