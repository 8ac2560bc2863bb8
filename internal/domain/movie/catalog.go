package movie

import (
	"fmt"
	"iter"

	"github.com/kailas-cloud/cinesearch/internal/domain"
)

// Catalog is the ordered, read-only set of searchable movies.
// All movies share one embedding dimension. A Catalog is never mutated after
// NewCatalog returns, so concurrent readers need no locking.
type Catalog struct {
	movies     []Movie
	dimensions int
}

// NewCatalog validates movies and builds a catalog preserving their order.
// Every movie must carry an embedding and all embeddings must have the same length.
// An empty slice yields an empty catalog with zero dimensions.
func NewCatalog(movies []Movie) (*Catalog, error) {
	c := &Catalog{movies: make([]Movie, len(movies))}
	copy(c.movies, movies)

	for i := range c.movies {
		m := &c.movies[i]
		if !m.HasVector() {
			return nil, fmt.Errorf("%w: movie %d (%q) has no embedding", domain.ErrInvalidCatalog, i, m.Title())
		}
		if c.dimensions == 0 {
			c.dimensions = len(m.Vector())
			continue
		}
		if len(m.Vector()) != c.dimensions {
			return nil, fmt.Errorf("%w: movie %d (%q): %w",
				domain.ErrInvalidCatalog, i, m.Title(),
				domain.NewDimMismatch(c.dimensions, len(m.Vector())),
			)
		}
	}
	return c, nil
}

// Len returns the number of movies.
func (c *Catalog) Len() int { return len(c.movies) }

// Dimensions returns the shared embedding length, 0 for an empty catalog.
func (c *Catalog) Dimensions() int { return c.dimensions }

// At returns the i-th movie in catalog order.
func (c *Catalog) At(i int) Movie { return c.movies[i] }

// All iterates movies in catalog order.
func (c *Catalog) All() iter.Seq2[int, Movie] {
	return func(yield func(int, Movie) bool) {
		for i, m := range c.movies {
			if !yield(i, m) {
				return
			}
		}
	}
}
