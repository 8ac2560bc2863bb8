package search

import (
	"context"
	"iter"

	"github.com/kailas-cloud/cinesearch/internal/domain"
	"github.com/kailas-cloud/cinesearch/internal/domain/movie"
)

// Catalog is the read-only movie source scanned on every search.
type Catalog interface {
	Len() int
	Dimensions() int
	All() iter.Seq2[int, movie.Movie]
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
