package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinesearch/internal/domain"
	"github.com/kailas-cloud/cinesearch/internal/domain/search/request"
	"github.com/kailas-cloud/cinesearch/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/cinesearch/internal/logger"
	"github.com/kailas-cloud/cinesearch/internal/metrics"
)

// Service ranks catalog movies by semantic similarity to a free-text query.
type Service struct {
	catalog        Catalog
	embed          Embedder
	topK           int
	maxQueryLength int
}

// New creates a search service returning the default top 5.
func New(catalog Catalog, embed Embedder) *Service {
	return &Service{
		catalog:        catalog,
		embed:          embed,
		topK:           request.DefaultTopK,
		maxQueryLength: request.DefaultMaxQueryLength,
	}
}

// WithLimits overrides the result count and query length limit. Non-positive values keep the defaults.
func (s *Service) WithLimits(topK, maxQueryLength int) *Service {
	if topK > 0 {
		s.topK = topK
	}
	if maxQueryLength > 0 {
		s.maxQueryLength = maxQueryLength
	}
	return s
}

// Search returns up to topK movies ordered by descending cosine similarity between
// the query embedding and each movie embedding. Equal scores keep catalog order.
// An empty catalog yields an empty list without validating or embedding the query.
func (s *Service) Search(ctx context.Context, query string) ([]result.Result, error) {
	start := time.Now()
	results, err := s.search(ctx, query)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.SearchRequestsTotal.WithLabelValues("success").Inc()
	case errors.Is(err, domain.ErrEmptyQuery), errors.Is(err, domain.ErrQueryTooLong):
		metrics.SearchRequestsTotal.WithLabelValues("rejected").Inc()
	default:
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
	}
	return results, err
}

func (s *Service) search(ctx context.Context, query string) ([]result.Result, error) {
	if s.catalog.Len() == 0 {
		return []result.Result{}, nil
	}

	req, err := request.New(query, s.topK, s.maxQueryLength)
	if err != nil {
		return nil, err
	}

	emb, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	if len(emb.Embedding) != s.catalog.Dimensions() {
		return nil, fmt.Errorf("query embedding: %w",
			domain.NewDimMismatch(s.catalog.Dimensions(), len(emb.Embedding)))
	}

	ranked := rank(s.catalog, emb.Embedding)
	if len(ranked) > req.TopK() {
		ranked = ranked[:req.TopK()]
	}

	logpkg.FromContext(ctx).Debug("Search completed",
		zap.Int("catalog_size", s.catalog.Len()),
		zap.Int("results", len(ranked)),
		zap.Int("query_tokens", emb.TotalTokens),
	)
	return ranked, nil
}

// rank scores every movie and sorts by descending score with a stable sort.
func rank(catalog Catalog, query []float32) []result.Result {
	scored := make([]result.Result, 0, catalog.Len())
	for i, m := range catalog.All() {
		scored = append(scored, result.New(m, CosineSimilarity(query, m.Vector()), i))
	}
	slices.SortStableFunc(scored, func(a, b result.Result) int {
		return cmp.Compare(b.Score(), a.Score())
	})
	return scored
}
