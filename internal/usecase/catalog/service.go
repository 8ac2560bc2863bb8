package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinesearch/internal/domain"
	"github.com/kailas-cloud/cinesearch/internal/domain/movie"
	"github.com/kailas-cloud/cinesearch/internal/metrics"
)

// DefaultBatchSize is the number of overviews embedded per request.
const DefaultBatchSize = 64

// Service loads the catalog and fills in missing embeddings.
type Service struct {
	repo      Repository
	embed     domain.Embedder
	batchSize int
	logger    *zap.Logger
}

// New creates a catalog service.
func New(repo Repository, embed domain.Embedder, logger *zap.Logger) *Service {
	return &Service{repo: repo, embed: embed, batchSize: DefaultBatchSize, logger: logger}
}

// WithBatchSize overrides the embedding batch size. Non-positive keeps the default.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// PrepareResult summarizes a Prepare run.
type PrepareResult struct {
	Catalog  *movie.Catalog
	Embedded int
	Saved    bool
}

// Prepare loads the catalog, embeds every record that lacks a vector and persists
// the file only when something was added. Existing vectors are never recomputed.
func (s *Service) Prepare(ctx context.Context) (PrepareResult, error) {
	start := time.Now()

	movies, err := s.repo.Load(ctx)
	if err != nil {
		return PrepareResult{}, fmt.Errorf("load catalog: %w", err)
	}

	embedded, err := s.augment(ctx, movies)
	if err != nil {
		return PrepareResult{}, err
	}

	// Validate before persisting so a mixed-dimension catalog is never written back.
	cat, err := movie.NewCatalog(movies)
	if err != nil {
		return PrepareResult{}, err
	}

	if embedded > 0 {
		if err := s.repo.Save(ctx, movies); err != nil {
			return PrepareResult{}, fmt.Errorf("save catalog: %w", err)
		}
	}

	metrics.CatalogMovies.Set(float64(cat.Len()))
	metrics.CatalogEmbeddedTotal.Add(float64(embedded))

	s.logger.Info("Catalog ready",
		zap.Int("movies", cat.Len()),
		zap.Int("dimensions", cat.Dimensions()),
		zap.Int("embedded", embedded),
		zap.Bool("saved", embedded > 0),
		zap.Duration("duration", time.Since(start)),
	)

	return PrepareResult{Catalog: cat, Embedded: embedded, Saved: embedded > 0}, nil
}

// augment replaces movies lacking a vector in place and returns how many were embedded.
func (s *Service) augment(ctx context.Context, movies []movie.Movie) (int, error) {
	var pending []int
	for i := range movies {
		if !movies[i].HasVector() {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	s.logger.Info("Embedding catalog records",
		zap.Int("pending", len(pending)),
		zap.Int("batch_size", s.batchSize),
	)

	for offset := 0; offset < len(pending); offset += s.batchSize {
		chunk := pending[offset:min(offset+s.batchSize, len(pending))]

		texts := make([]string, len(chunk))
		for j, idx := range chunk {
			texts[j] = movies[idx].EmbeddingText()
		}

		res, err := domain.EmbedBatch(ctx, s.embed, texts)
		if err != nil {
			return 0, fmt.Errorf("embed records %d-%d: %w", offset, offset+len(chunk)-1, err)
		}

		for j, idx := range chunk {
			movies[idx] = movies[idx].WithVector(res.Embeddings[j])
		}

		s.logger.Debug("Embedded catalog batch",
			zap.Int("offset", offset),
			zap.Int("size", len(chunk)),
			zap.Int("total_tokens", res.TotalTokens),
		)
	}

	return len(pending), nil
}
