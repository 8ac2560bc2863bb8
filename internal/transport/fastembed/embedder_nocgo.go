//go:build !cgo

package fastembed

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinesearch/internal/domain"
)

// ErrNotAvailable is returned when the binary was built without cgo.
var ErrNotAvailable = errors.New("fastembed: not available (binary built without cgo, use the openai provider)")

// Embedder is a stub for builds without cgo.
type Embedder struct{}

// NewEmbedder always fails without cgo.
func NewEmbedder(_ Config, _ *zap.Logger) (*Embedder, error) {
	return nil, ErrNotAvailable
}

// Embed returns ErrNotAvailable.
func (e *Embedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, ErrNotAvailable
}

// BatchEmbed returns ErrNotAvailable.
func (e *Embedder) BatchEmbed(_ context.Context, _ []string) (domain.BatchEmbeddingResult, error) {
	return domain.BatchEmbeddingResult{}, ErrNotAvailable
}

// HealthCheck returns ErrNotAvailable.
func (e *Embedder) HealthCheck(_ context.Context) error { return ErrNotAvailable }

// Close is a no-op.
func (e *Embedder) Close() error { return nil }
