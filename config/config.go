package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the chatbot.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Crawl     CrawlConfig     `mapstructure:"crawl"`
	Index     IndexConfig     `mapstructure:"index"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Listen   string `mapstructure:"listen"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// CrawlConfig controls URL discovery and page fetching.
type CrawlConfig struct {
	Site           string        `mapstructure:"site"`
	MaxPages       int           `mapstructure:"max_pages"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	MinTextChars   int           `mapstructure:"min_text_chars"`
	Fetcher        string        `mapstructure:"fetcher"` // http or chromedp
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
}

func (c CrawlConfig) Validate() error {
	if c.MaxPages <= 0 {
		return fmt.Errorf("crawl.max_pages must be > 0")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("crawl.fetch_timeout must be > 0")
	}
	if c.MinTextChars < 0 {
		return fmt.Errorf("crawl.min_text_chars cannot be negative")
	}
	switch c.Fetcher {
	case "", "http", "chromedp":
	default:
		return fmt.Errorf("crawl.fetcher must be http or chromedp, got %q", c.Fetcher)
	}
	return nil
}

// IndexConfig controls where the vector index lives and how pages are chunked.
type IndexConfig struct {
	Path         string `mapstructure:"path"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
}

func (c IndexConfig) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("index.path is required")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("index.chunk_size must be > 0")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("index.chunk_overlap must be in [0, chunk_size)")
	}
	return nil
}

// RetrievalConfig controls query-time context selection.
type RetrievalConfig struct {
	TopK       int `mapstructure:"top_k"`
	MaxSources int `mapstructure:"max_sources"`
}

func (c RetrievalConfig) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be > 0")
	}
	if c.MaxSources < 0 {
		return fmt.Errorf("retrieval.max_sources cannot be negative")
	}
	return nil
}

// ProvidersConfig groups external model provider settings.
type ProvidersConfig struct {
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// OpenAIConfig configures the embedding and completion client.
type OpenAIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	CompletionModel string        `mapstructure:"completion_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

func (c OpenAIConfig) Validate() error {
	if strings.TrimSpace(c.CompletionModel) == "" {
		return fmt.Errorf("providers.openai.completion_model is required")
	}
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		return fmt.Errorf("providers.openai.embedding_model is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("providers.openai.timeout must be > 0")
	}
	return nil
}

// ScheduleConfig enables periodic full re-ingestion.
type ScheduleConfig struct {
	RebuildCron string `mapstructure:"rebuild_cron"` // @daily, @hourly or 5-field cron; empty disables
}

// LoadConfig loads config from an optional file, environment variables
// (CHATBOX_* with dots replaced by underscores) and built-in defaults.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.listen", ":8080")
	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("crawl.site", "")
	viper.SetDefault("crawl.max_pages", 40)
	viper.SetDefault("crawl.fetch_timeout", 15*time.Second)
	viper.SetDefault("crawl.user_agent", "ChatboxBot/1.0 (+https://github.com/Golden-YG/Chatbox)")
	viper.SetDefault("crawl.min_text_chars", 200)
	viper.SetDefault("crawl.fetcher", "http")
	viper.SetDefault("crawl.requests_per_sec", 4.0)
	viper.SetDefault("index.path", "data/index.json")
	viper.SetDefault("index.chunk_size", 1200)
	viper.SetDefault("index.chunk_overlap", 150)
	viper.SetDefault("retrieval.top_k", 6)
	viper.SetDefault("retrieval.max_sources", 3)
	viper.SetDefault("providers.openai.api_key", "")
	viper.SetDefault("providers.openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("providers.openai.completion_model", "gpt-4o-mini")
	viper.SetDefault("providers.openai.embedding_model", "text-embedding-3-small")
	viper.SetDefault("providers.openai.temperature", 0.2)
	viper.SetDefault("providers.openai.max_tokens", 700)
	viper.SetDefault("providers.openai.timeout", 30*time.Second)
	viper.SetDefault("schedule.rebuild_cron", "")

	if path == "" {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("CHATBOX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
		// No config file is fine: defaults plus environment.
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	// Plain OPENAI_API_KEY works too, matching what most deployments export.
	if config.Providers.OpenAI.APIKey == "" {
		config.Providers.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := config.Crawl.Validate(); err != nil {
		panic(err)
	}
	if err := config.Index.Validate(); err != nil {
		panic(err)
	}
	if err := config.Retrieval.Validate(); err != nil {
		panic(err)
	}
	if err := config.Providers.OpenAI.Validate(); err != nil {
		panic(err)
	}
	return &config
}
