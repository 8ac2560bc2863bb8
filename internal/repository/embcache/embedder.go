// Package embcache memoizes query embeddings in the key-value store so a
// repeated search does not pay for another provider call.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cinesearch/internal/db"
	"github.com/kailas-cloud/cinesearch/internal/domain"
)

const keySegment = "emb_cache:"

type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder wraps an embedder with a read-through cache.
// Store failures are logged and treated as misses; they never fail a search.
type CachedEmbedder struct {
	inner     domain.Embedder
	kv        kv
	namespace string
	ttl       time.Duration
	lookups   *prometheus.CounterVec
	logger    *zap.Logger
}

// New builds the cache around inner. Keys look like
// <keyPrefix>emb_cache:<model>:<sha256(text)>, so a model switch starts cold.
// lookups, when set, is incremented with result="hit" or "miss".
func New(
	inner domain.Embedder,
	store kv,
	keyPrefix, model string,
	lookups *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		inner:     inner,
		kv:        store,
		namespace: keyPrefix + keySegment + model + ":",
		lookups:   lookups,
		logger:    logger,
	}
}

// WithTTL expires cached vectors after ttl. Zero keeps them until evicted.
func (c *CachedEmbedder) WithTTL(ttl time.Duration) *CachedEmbedder {
	c.ttl = ttl
	return c
}

// Embed serves text from the cache, falling back to the inner embedder.
// A hit reports zero tokens since the provider was not called.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)
	if vec, ok := c.lookup(ctx, key); ok {
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	c.store(ctx, key, res.Embedding)
	return res, nil
}

// BatchEmbed answers every cached text locally and sends the rest to the
// inner embedder in one call, preserving input order.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	vectors := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	pending := make([]int, 0, len(texts))

	for i, text := range texts {
		keys[i] = c.key(text)
		if vec, ok := c.lookup(ctx, keys[i]); ok {
			vectors[i] = vec
		} else {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: vectors}, nil
	}

	missed := make([]string, len(pending))
	for j, i := range pending {
		missed[j] = texts[i]
	}
	res, err := domain.EmbedBatch(ctx, c.inner, missed)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed batch: %w", err)
	}

	for j, i := range pending {
		vectors[i] = res.Embeddings[j]
		c.store(ctx, keys[i], res.Embeddings[j])
	}
	res.Embeddings = vectors
	return res, nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.namespace + hex.EncodeToString(sum[:])
}

// lookup reports a hit only for a readable entry of the current format.
func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	vec, err := c.read(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		}
		c.count("miss")
		return nil, false
	}
	c.count("hit")
	return vec, true
}

func (c *CachedEmbedder) read(ctx context.Context, key string) ([]float32, error) {
	data, err := c.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return decodeEntry(data)
}

func (c *CachedEmbedder) store(ctx context.Context, key string, vec []float32) {
	data := encodeEntry(vec)
	var err error
	if c.ttl > 0 {
		err = c.kv.SetWithTTL(ctx, key, data, c.ttl)
	} else {
		err = c.kv.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedEmbedder) count(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}
