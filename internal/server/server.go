package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Golden-YG/Chatbox/config"
	"github.com/Golden-YG/Chatbox/internal/answer"
	"github.com/Golden-YG/Chatbox/internal/retrieve"
	"github.com/Golden-YG/Chatbox/provider"
)

// Run wires the serving path together and blocks on the HTTP listener.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Missing credentials are fatal before we start serving.
	if cfg.Providers.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY not configured")
	}
	llm, err := provider.NewProvider(provider.OpenAI, cfg.Providers.OpenAI)
	if err != nil {
		return err
	}

	idxLogger := log.New(log.Writer(), "[INDEX] ", log.LstdFlags)
	ret := retrieve.New(cfg.Index.Path, cfg.Providers.OpenAI.EmbeddingModel, idxLogger)
	if n, err := ret.Load(); err != nil {
		// An absent index degrades to answering without context.
		idxLogger.Printf("WARN no index loaded from %s: %v (serving without context)", cfg.Index.Path, err)
	} else {
		idxLogger.Printf("loaded %d vectors from %s", n, cfg.Index.Path)
		indexVectors.Set(float64(n))
	}

	composer := answer.New(llm, ret, cfg.Crawl.Site,
		cfg.Retrieval.TopK, cfg.Retrieval.MaxSources,
		log.New(log.Writer(), "[ANSWER] ", log.LstdFlags))

	h := &Handler{
		LLM:       llm,
		Retriever: ret,
		Composer:  composer,
		Logger:    baseLogger,
	}
	h.Register(e.Group("/api"))

	if cfg.Schedule.RebuildCron != "" {
		sched := &Scheduler{
			Cfg:       cfg,
			LLM:       llm,
			Retriever: ret,
			Stop:      make(chan struct{}),
			Logger:    log.New(log.Writer(), "[SCHED] ", log.LstdFlags),
		}
		sched.Start()
	}

	addr := cfg.General.Listen
	if addr == "" {
		addr = ":8080"
	}
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	baseLogger.Printf("listening on %s", addr)
	return e.Start(addr)
}
