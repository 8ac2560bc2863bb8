//go:build cgo

package fastembed

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	fastembedgo "github.com/anush008/fastembed-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cinesearch/internal/domain"
	"github.com/kailas-cloud/cinesearch/internal/metrics"
)

const providerName = "fastembed"

var models = map[string]fastembedgo.EmbeddingModel{
	"BAAI/bge-small-en-v1.5":                 fastembedgo.BGESmallENV15,
	"BAAI/bge-small-en":                      fastembedgo.BGESmallEN,
	"BAAI/bge-base-en-v1.5":                  fastembedgo.BGEBaseENV15,
	"BAAI/bge-base-en":                       fastembedgo.BGEBaseEN,
	"BAAI/bge-small-zh-v1.5":                 fastembedgo.BGESmallZH,
	"sentence-transformers/all-MiniLM-L6-v2": fastembedgo.AllMiniLML6V2,
	"fast-bge-small-en-v1.5":                 fastembedgo.BGESmallENV15,
	"fast-bge-small-en":                      fastembedgo.BGESmallEN,
	"fast-bge-base-en-v1.5":                  fastembedgo.BGEBaseENV15,
	"fast-bge-base-en":                       fastembedgo.BGEBaseEN,
	"fast-bge-small-zh-v1.5":                 fastembedgo.BGESmallZH,
	"fast-all-MiniLM-L6-v2":                  fastembedgo.AllMiniLML6V2,
}

// Embedder computes embeddings in-process with an ONNX model.
// The ONNX session is not safe for concurrent use, so calls are serialized.
type Embedder struct {
	mu        sync.Mutex
	model     *fastembedgo.FlagEmbedding
	name      string
	batchSize int
	logger    *zap.Logger
}

// NewEmbedder loads the model, downloading it to CacheDir on first use.
func NewEmbedder(cfg Config, logger *zap.Logger) (*Embedder, error) {
	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}
	model, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("fastembed: unsupported model %q", name)
	}
	dimension, _ := ModelDimensions(name)

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(".", "local_cache")
	}
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = 512
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 256
	}

	showProgress := false
	start := time.Now()
	flag, err := fastembedgo.NewFlagEmbedding(&fastembedgo.InitOptions{
		Model:                model,
		CacheDir:             cacheDir,
		MaxLength:            maxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing fastembed: %w", err)
	}

	logger.Info("Local embedding model loaded",
		zap.String("model", name),
		zap.Int("dimensions", dimension),
		zap.String("cache_dir", cacheDir),
		zap.Duration("duration", time.Since(start)),
	)

	return &Embedder{
		model:     flag,
		name:      name,
		batchSize: batchSize,
		logger:    logger,
	}, nil
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0]}, nil
}

// BatchEmbed implements domain.BatchEmbedder. Queries and catalog overviews are
// encoded identically so their vectors are directly comparable.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model == nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("fastembed: embedder closed: %w", domain.ErrEmbeddingProviderError)
	}

	start := time.Now()
	vecs, err := e.model.Embed(texts, e.batchSize)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.name, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.name, "inference").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("fastembed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.name, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, e.name).Observe(time.Since(start).Seconds())

	return domain.BatchEmbeddingResult{Embeddings: vecs}, nil
}

// HealthCheck reports whether the model is loaded.
func (e *Embedder) HealthCheck(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return fmt.Errorf("fastembed: embedder closed")
	}
	return nil
}

// Close releases the ONNX session.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return nil
	}
	err := e.model.Destroy()
	e.model = nil
	return err
}
