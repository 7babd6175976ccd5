package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Golden-YG/Chatbox/internal/answer"
	"github.com/Golden-YG/Chatbox/internal/retrieve"
	"github.com/Golden-YG/Chatbox/provider"
)

// Handler carries the serving-path dependencies for the API routes.
type Handler struct {
	LLM       provider.Provider
	Retriever *retrieve.Retriever
	Composer  *answer.Composer
	Logger    *log.Logger
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("/ask", h.Ask)
	g.GET("/search", h.Search)
	g.POST("/reload", h.Reload)
	g.GET("/index/stats", h.Stats)
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask answers a free-text question grounded in the loaded index.
func (h *Handler) Ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		questionsTotal.WithLabelValues("bad_request").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	reqID := uuid.NewString()
	start := time.Now()
	ans, err := h.Composer.Answer(c.Request().Context(), req.Question)
	if err != nil {
		if errors.Is(err, answer.ErrEmptyQuestion) {
			questionsTotal.WithLabelValues("bad_request").Inc()
			return echo.NewHTTPError(http.StatusBadRequest, "question is required")
		}
		questionsTotal.WithLabelValues("error").Inc()
		h.Logger.Printf("req %s: ask failed: %v", reqID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to answer question")
	}

	elapsed := time.Since(start)
	questionsTotal.WithLabelValues("ok").Inc()
	answerSeconds.Observe(elapsed.Seconds())
	h.Logger.Printf("req %s: answered in %s with %d sources", reqID, elapsed.Round(time.Millisecond), len(ans.Sources))
	return c.JSON(http.StatusOK, ans)
}

type searchHit struct {
	ID      string  `json:"id"`
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Search exposes hybrid (cosine + BM25) retrieval for debugging and
// search-box style use.
func (h *Handler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	k, _ := strconv.Atoi(c.QueryParam("k"))
	if k <= 0 || k > 50 {
		k = 10
	}

	vecs, err := h.LLM.CreateEmbedding(c.Request().Context(), []string{q})
	if err != nil {
		h.Logger.Printf("search embed failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	matches := h.Retriever.Hybrid(vecs[0], q, k)
	hits := make([]searchHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, searchHit{
			ID:      m.Record.ID,
			URL:     m.Record.URL,
			Title:   m.Record.Title,
			Snippet: snippet(m.Record.Content),
			Score:   m.Score,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"hits": hits})
}

// Reload re-reads the persisted index and swaps it in.
func (h *Handler) Reload(c echo.Context) error {
	n, err := h.Retriever.Reload()
	if err != nil {
		h.Logger.Printf("reload failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "reload failed")
	}
	reloadsTotal.Inc()
	indexVectors.Set(float64(n))
	return c.JSON(http.StatusOK, map[string]int{"vectors": n})
}

// Stats reports on the loaded index.
func (h *Handler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Retriever.Stats())
}

func snippet(s string) string {
	if len(s) <= 300 {
		return s
	}
	return s[:300] + "…"
}
