package provider

import (
	"context"
	"errors"

	"github.com/Golden-YG/Chatbox/config"
	openai_provider "github.com/Golden-YG/Chatbox/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI Client = "openai"
)

// Provider is the interface the ingestion pipeline and the answer
// composer consume. Embeddings are order-preserving: vector i belongs
// to texts[i].
type Provider interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	CreateCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, cfg config.OpenAIConfig) (Provider, error) {
	switch client {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		return openai_provider.New(cfg), nil
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
