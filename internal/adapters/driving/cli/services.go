package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/riverfold/feedlens/internal/adapters/driven/contentsource/freshrss"
	"github.com/riverfold/feedlens/internal/adapters/driven/embedding/openai"
	"github.com/riverfold/feedlens/internal/adapters/driven/rerank/siliconflow"
	"github.com/riverfold/feedlens/internal/adapters/driven/vectorstore/sqlite"
	"github.com/riverfold/feedlens/internal/chunker"
	"github.com/riverfold/feedlens/internal/config"
	"github.com/riverfold/feedlens/internal/core/domain"
	"github.com/riverfold/feedlens/internal/core/services"
)

// QueryService answers semantic searches. Satisfied by the query
// engine; replaced with a stub in command tests.
type QueryService interface {
	Query(ctx context.Context, query string, opts domain.QueryOptions) ([]domain.QueryResult, error)
}

// SyncService runs the ingestion loop until its context is cancelled.
type SyncService interface {
	Run(ctx context.Context) error
}

// Injected services. Commands build them lazily from configuration on
// first use; tests preset them.
var (
	queryService QueryService
	syncService  SyncService
	appConfig    *config.Config
)

func loadConfig() (*config.Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}

	path := cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	appConfig = cfg
	return cfg, nil
}

// buildDependencies wires the driven adapters shared by both engines.
func buildDependencies(cfg *config.Config) (*freshrss.Factory, *sqlite.Store, *openai.EmbeddingService, error) {
	store, err := sqlite.NewStore(cfg.Store.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open vector store: %w", err)
	}

	embedder, err := openai.NewEmbeddingService(openai.Config{
		APIKey:            cfg.API.Key,
		BaseURL:           cfg.API.BaseURL,
		Model:             cfg.Embedding.Model,
		Dimensions:        cfg.Embedding.Dimensions,
		RequestsPerMinute: cfg.Embedding.RequestsPerMinute,
	})
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}

	return &freshrss.Factory{Path: cfg.Source.FreshRSSPath}, store, embedder, nil
}

func initQueryService() error {
	if queryService != nil {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	source, store, embedder, err := buildDependencies(cfg)
	if err != nil {
		return err
	}

	reranker, err := siliconflow.NewRerankService(siliconflow.Config{
		APIKey:  cfg.API.Key,
		BaseURL: cfg.API.BaseURL,
		Timeout: time.Duration(cfg.Search.Rerank.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		store.Close()
		return err
	}

	queryService = services.NewQueryEngine(source, store, embedder, reranker, services.QueryConfig{
		Threshold:        cfg.Search.Threshold,
		PoolMultiplier:   cfg.Search.PoolMultiplier,
		PoolCap:          cfg.Search.PoolCap,
		DocMaxChars:      cfg.Search.DocMaxChars,
		RerankEnabled:    cfg.Search.Rerank.Enabled,
		RerankModel:      cfg.Search.Rerank.Model,
		RerankCandidates: cfg.Search.Rerank.Candidates,
	})
	return nil
}

func initSyncService() error {
	if syncService != nil {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	source, store, embedder, err := buildDependencies(cfg)
	if err != nil {
		return err
	}

	ch, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		store.Close()
		return err
	}

	syncService = services.NewSyncEngine(source, store, embedder, ch, services.SyncConfig{
		Interval:       time.Duration(cfg.Sync.IntervalSeconds) * time.Second,
		RetentionDays:  cfg.Sync.RetentionDays,
		EmbedBatchSize: cfg.Embedding.BatchSize,
		BatchEntries:   cfg.Sync.BatchEntries,
		Categories:     cfg.Sync.Categories,
	})
	return nil
}
