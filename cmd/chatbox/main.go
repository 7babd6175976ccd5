package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Golden-YG/Chatbox/config"
	"github.com/Golden-YG/Chatbox/internal/crawler"
	"github.com/Golden-YG/Chatbox/internal/fetch"
	"github.com/Golden-YG/Chatbox/internal/index"
	"github.com/Golden-YG/Chatbox/internal/server"
	"github.com/Golden-YG/Chatbox/provider"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{Use: "chatbox", Short: "Website support chatbot"}
	root.AddCommand(serveCMD(), ingestCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCMD() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			return server.Run(cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches . and ./config)")
	return cmd
}

func ingestCMD() *cobra.Command {
	var cfgPath, site string
	var limit int
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Crawl the site and build the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			if site != "" {
				cfg.Crawl.Site = site
			}
			if limit > 0 {
				cfg.Crawl.MaxPages = limit
			}
			if cfg.Crawl.Site == "" {
				return fmt.Errorf("crawl.site not configured (set CHATBOX_CRAWL_SITE or pass --site)")
			}
			if cfg.Providers.OpenAI.APIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY not configured")
			}

			logger := log.New(os.Stderr, "[INGEST] ", log.LstdFlags)

			llm, err := provider.NewProvider(provider.OpenAI, cfg.Providers.OpenAI)
			if err != nil {
				return err
			}
			fetcher, err := fetch.New(fetch.Type(cfg.Crawl.Fetcher), cfg.Crawl.FetchTimeout, cfg.Crawl.UserAgent)
			if err != nil {
				return err
			}
			cr, err := crawler.New(fetcher, cfg.Crawl, logger)
			if err != nil {
				return err
			}

			builder := index.NewBuilder(cr, llm, index.BuilderOptions{
				Model:        cfg.Providers.OpenAI.EmbeddingModel,
				ChunkSize:    cfg.Index.ChunkSize,
				ChunkOverlap: cfg.Index.ChunkOverlap,
				MinTextChars: cfg.Crawl.MinTextChars,
			}, logger)

			idx, err := builder.Build(cmd.Context())
			if err != nil {
				return err
			}
			if err := index.Save(idx, cfg.Index.Path); err != nil {
				return fmt.Errorf("write index: %w", err)
			}
			logger.Printf("wrote %d vectors for %s to %s", len(idx.Vectors), idx.Site, cfg.Index.Path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches . and ./config)")
	cmd.Flags().StringVar(&site, "site", "", "site origin to crawl, e.g. https://docs.example.com")
	cmd.Flags().IntVar(&limit, "limit", 0, "max pages to ingest (overrides crawl.max_pages)")
	return cmd
}
