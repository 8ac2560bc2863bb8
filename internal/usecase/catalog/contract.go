package catalog

import (
	"context"

	"github.com/kailas-cloud/cinesearch/internal/domain/movie"
)

// Repository reads and writes catalog records.
type Repository interface {
	Load(ctx context.Context) ([]movie.Movie, error)
	Save(ctx context.Context, movies []movie.Movie) error
}
