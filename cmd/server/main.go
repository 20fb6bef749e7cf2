package main

import (
	"log"

	"github.com/david/artify/internal/api"
	"github.com/david/artify/internal/config"
	"github.com/david/artify/internal/ingest"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	registry, err := ingest.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		log.Fatalf("Failed to load source registry: %v", err)
	}

	fetcher, err := ingest.NewFetcher(cfg.Fetcher, ingest.FetchOptions{
		Timeout:      cfg.FetchTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("Failed to build fetcher: %v", err)
	}

	pipeline := ingest.NewPipeline(registry, fetcher, ingest.PipelineOptions{
		Concurrency:  cfg.Concurrency,
		FetchTimeout: cfg.FetchTimeout,
		BatchTimeout: cfg.BatchTimeout,
	})

	srv := api.NewServer(cfg, pipeline)
	log.Printf("Server starting on port %s with %d sources (fetcher=%s, cache=%s)...",
		cfg.Port, len(registry.Sources), cfg.Fetcher, cfg.CacheTTL)
	if err := srv.Start(cfg.Port); err != nil {
		log.Fatal(err)
	}
}
