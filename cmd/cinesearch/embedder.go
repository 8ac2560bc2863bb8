package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinesearch/internal/config"
	"github.com/kailas-cloud/cinesearch/internal/db"
	"github.com/kailas-cloud/cinesearch/internal/domain"
	"github.com/kailas-cloud/cinesearch/internal/metrics"
	"github.com/kailas-cloud/cinesearch/internal/repository/embcache"
	fastembedEmb "github.com/kailas-cloud/cinesearch/internal/transport/fastembed"
	openaiEmb "github.com/kailas-cloud/cinesearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/cinesearch/internal/usecase/embedding"
)

// provider is an embedding backend plus its lifecycle hooks.
type provider struct {
	embedder domain.Embedder
	model    string
	close    func()
}

// buildProvider creates the configured base embedder (with transport metrics built-in).
func buildProvider(cfg config.EmbeddingConfig, logger *zap.Logger) (provider, error) {
	switch cfg.Provider {
	case "fastembed":
		model := cfg.Model
		if model == "" {
			model = fastembedEmb.DefaultModel
		}
		e, err := fastembedEmb.NewEmbedder(fastembedEmb.Config{
			Model:     model,
			CacheDir:  cfg.CacheDir,
			MaxLength: cfg.MaxLength,
			BatchSize: cfg.MaxBatchSize,
		}, logger)
		if err != nil {
			return provider{}, fmt.Errorf("fastembed: %w", err)
		}
		return provider{embedder: e, model: model, close: func() { _ = e.Close() }}, nil
	case "openai":
		e := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			Provider:          cfg.Provider,
			MaxRetries:        cfg.MaxRetries,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Logger:            logger,
		})
		return provider{embedder: e, model: cfg.Model, close: func() {}}, nil
	default:
		return provider{}, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// instrument wraps the base embedder with logging, batching and provider error tagging.
func instrument(p provider, cfg config.EmbeddingConfig, logger *zap.Logger) *embeddinguc.InstrumentedEmbedder {
	return embeddinguc.NewInstrumentedEmbedder(p.embedder, cfg.Provider, p.model, logger).
		WithMaxBatchSize(cfg.MaxBatchSize)
}

// buildQueryEmbedder assembles the query decorator chain: provider -> Instrumented -> Cached.
func buildQueryEmbedder(
	inner domain.Embedder,
	model string,
	cfg config.Config,
	store db.KVStore,
	logger *zap.Logger,
) domain.Embedder {
	if cfg.Embedding.DisableCache {
		return inner
	}
	return embcache.New(inner, store, cfg.Storage.KeyPrefix, model, metrics.EmbeddingCacheTotal, logger).
		WithTTL(time.Duration(cfg.Embedding.CacheTTLHours) * time.Hour)
}

// healthChecker returns the provider health check, or nil when it has none.
func healthChecker(e domain.Embedder) domain.HealthChecker {
	if hc, ok := e.(domain.HealthChecker); ok {
		return hc
	}
	return nil
}
