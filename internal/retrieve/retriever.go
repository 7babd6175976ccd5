// Package retrieve owns the in-memory vector index and query-time
// nearest-neighbor selection. The index is read-only during serving;
// reloads swap a single pointer to a fully built snapshot, so readers
// never observe a partially loaded structure.
package retrieve

import (
	"log"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve"

	"github.com/Golden-YG/Chatbox/internal/index"
)

const (
	DefaultTopK = 6

	// rrfK is the reciprocal-rank-fusion constant for hybrid search.
	rrfK = 60
)

// Match is one scored retrieval hit.
type Match struct {
	Record index.Record
	Score  float64
}

// Stats summarises the currently loaded index.
type Stats struct {
	Site        string    `json:"site"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
	Vectors     int       `json:"vectors"`
}

// snapshot is an immutable view of one loaded index: the vectors for
// cosine scanning, a mem-only BM25 index over the same chunks for
// keyword search, and an id lookup shared by both.
type snapshot struct {
	index   *index.Index
	keyword bleve.Index
	byID    map[string]int
}

// Retriever serves top-k selection over the loaded index. Concurrent
// reads need no locking; Load/Reload publish a new snapshot atomically.
type Retriever struct {
	path   string
	model  string // configured embedding model, checked against the index
	logger *log.Logger
	snap   atomic.Pointer[snapshot]
}

// New creates a retriever for the index at path. Nothing is loaded yet;
// call Load. Until then (and after a failed Load at startup) the
// retriever serves an empty index rather than erroring.
func New(path, model string, logger *log.Logger) *Retriever {
	if logger == nil {
		logger = log.New(log.Writer(), "[INDEX] ", log.LstdFlags)
	}
	r := &Retriever{path: path, model: model, logger: logger}
	r.snap.Store(&snapshot{index: &index.Index{}})
	return r
}

// Load re-reads the persisted index and swaps it in, returning the
// vector count. On error the previous snapshot keeps serving.
func (r *Retriever) Load() (int, error) {
	idx, err := index.Load(r.path)
	if err != nil {
		return 0, err
	}
	if r.model != "" && idx.Model != "" && idx.Model != r.model {
		// Similarity against vectors from another model is meaningless;
		// surfaced loudly but the index still loads.
		r.logger.Printf("WARN index model %q differs from configured embedding model %q", idx.Model, r.model)
	}

	snap := &snapshot{index: idx, byID: make(map[string]int, len(idx.Vectors))}
	for i := range idx.Vectors {
		snap.byID[idx.Vectors[i].ID] = i
	}
	if kw, err := buildKeywordIndex(idx); err != nil {
		r.logger.Printf("WARN keyword index unavailable: %v", err)
	} else {
		snap.keyword = kw
	}

	r.snap.Store(snap)
	return len(idx.Vectors), nil
}

// Reload is the hot-reload entry point exposed to the service layer.
func (r *Retriever) Reload() (int, error) { return r.Load() }

// Stats reports on the loaded index.
func (r *Retriever) Stats() Stats {
	idx := r.snap.Load().index
	return Stats{Site: idx.Site, Model: idx.Model, GeneratedAt: idx.GeneratedAt, Vectors: len(idx.Vectors)}
}

// SelectTopK scores every stored vector against the query embedding by
// cosine similarity and returns the k best, ties broken by insertion
// order. An unloaded or empty index yields an empty result, never an
// error. This is a deliberate O(n*d) linear scan.
func (r *Retriever) SelectTopK(query []float32, k int) []Match {
	return selectTopK(r.snap.Load(), query, k)
}

// Keyword runs a BM25 search over chunk text.
func (r *Retriever) Keyword(q string, k int) ([]Match, error) {
	return keywordSearch(r.snap.Load(), q, k)
}

// Hybrid fuses cosine and keyword rankings with reciprocal-rank fusion.
// A keyword-side failure degrades to the vector ranking alone.
func (r *Retriever) Hybrid(query []float32, q string, k int) []Match {
	snap := r.snap.Load()
	vec := selectTopK(snap, query, k)
	kw, err := keywordSearch(snap, q, k)
	if err != nil {
		r.logger.Printf("WARN keyword search failed: %v", err)
		return vec
	}
	if len(kw) == 0 {
		return vec
	}
	return fuseRRF(vec, kw, k)
}

func selectTopK(snap *snapshot, query []float32, k int) []Match {
	if k <= 0 {
		k = DefaultTopK
	}
	idx := snap.index
	if idx == nil || len(idx.Vectors) == 0 {
		return nil
	}

	matches := make([]Match, len(idx.Vectors))
	for i := range idx.Vectors {
		matches[i] = Match{
			Record: idx.Vectors[i],
			Score:  Cosine(query, idx.Vectors[i].Embedding),
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func keywordSearch(snap *snapshot, q string, k int) ([]Match, error) {
	if snap.keyword == nil {
		return nil, nil
	}
	if k <= 0 {
		k = DefaultTopK
	}
	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, k, 0, false)
	res, err := snap.keyword.Search(req)
	if err != nil {
		return nil, err
	}
	var out []Match
	for _, hit := range res.Hits {
		i, ok := snap.byID[hit.ID]
		if !ok {
			continue
		}
		out = append(out, Match{Record: snap.index.Vectors[i], Score: hit.Score})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

func fuseRRF(a, b []Match, k int) []Match {
	type agg struct {
		match Match
		score float64
	}
	fused := map[string]*agg{}
	add := func(list []Match) {
		for rank, m := range list {
			x, ok := fused[m.Record.ID]
			if !ok {
				x = &agg{match: m}
				fused[m.Record.ID] = x
			}
			x.score += 1.0 / float64(rrfK+rank+1)
		}
	}
	add(a)
	add(b)

	items := make([]Match, 0, len(fused))
	for _, v := range fused {
		items = append(items, Match{Record: v.match.Record, Score: v.score})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	if len(items) > k {
		items = items[:k]
	}
	return items
}

// Cosine computes dot(a,b) / (|a|*|b| + 1e-8). The epsilon guards the
// zero-vector case without materially changing any meaningful score.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + 1e-8)
}

type keywordDoc struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func buildKeywordIndex(idx *index.Index) (bleve.Index, error) {
	kw, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	for _, rec := range idx.Vectors {
		doc := keywordDoc{URL: rec.URL, Title: rec.Title, Content: rec.Content}
		if err := kw.Index(rec.ID, doc); err != nil {
			return nil, err
		}
	}
	return kw, nil
}
