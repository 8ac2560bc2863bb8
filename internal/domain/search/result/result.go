package result

import "github.com/kailas-cloud/cinesearch/internal/domain/movie"

// Result is a single search hit.
type Result struct {
	movie movie.Movie
	score float64
	index int
}

// New creates a search result. index is the movie's position in the catalog.
func New(m movie.Movie, score float64, index int) Result {
	return Result{movie: m, score: score, index: index}
}

// Movie returns the matched catalog entry.
func (r *Result) Movie() movie.Movie { return r.movie }

// Score returns the cosine similarity to the query.
func (r *Result) Score() float64 { return r.score }

// Index returns the catalog position of the movie.
func (r *Result) Index() int { return r.index }
