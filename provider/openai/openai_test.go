package openai_provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Golden-YG/Chatbox/config"
)

func testClient(baseURL string) *client {
	return New(config.OpenAIConfig{
		APIKey:          "sk-test",
		BaseURL:         baseURL,
		CompletionModel: "gpt-4o-mini",
		EmbeddingModel:  "text-embedding-3-small",
		Temperature:     0.2,
		MaxTokens:       700,
		Timeout:         5 * time.Second,
	})
}

func TestCreateEmbeddingOrder(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "text-embedding-3-small" || len(body.Input) != 3 {
			t.Errorf("unexpected request: %+v", body)
		}
		// Shuffled response order: the index field is authoritative.
		fmt.Fprint(w, `{"data":[
			{"index":2,"embedding":[0.3]},
			{"index":0,"embedding":[0.1]},
			{"index":1,"embedding":[0.2]}
		]}`)
	}))
	defer srv.Close()

	vecs, err := testClient(srv.URL).CreateEmbedding(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("CreateEmbedding: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}
	for i, want := range []float32{0.1, 0.2, 0.3} {
		if len(vecs[i]) != 1 || vecs[i][0] != want {
			t.Fatalf("vecs[%d] = %v, want [%v]", i, vecs[i], want)
		}
	}
}

func TestCreateEmbeddingEmptyInput(t *testing.T) {
	t.Parallel()
	vecs, err := testClient("http://127.0.0.1:0").CreateEmbedding(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Fatalf("expected no-op for empty input, got %v, %v", vecs, err)
	}
}

func TestCreateEmbeddingCountMismatch(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[0.1]}]}`)
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).CreateEmbedding(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error for vector count mismatch")
	}
}

func TestCreateEmbeddingUpstreamError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).CreateEmbedding(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error for 429")
	}
}

func TestCreateCompletion(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			Model       string    `json:"model"`
			Messages    []Message `json:"messages"`
			Temperature float64   `json:"temperature"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "gpt-4o-mini" || body.Temperature != 0.2 {
			t.Errorf("unexpected request: %+v", body)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", body.Messages)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"Sure, here's how."}}]}`)
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).CreateCompletion(context.Background(), "be helpful", "how do I reset?")
	if err != nil {
		t.Fatalf("CreateCompletion: %v", err)
	}
	if got != "Sure, here's how." {
		t.Fatalf("content = %q", got)
	}
}

func TestCreateCompletionNoChoices(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).CreateCompletion(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestCreateCompletionUpstreamError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).CreateCompletion(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for 502")
	}
}
