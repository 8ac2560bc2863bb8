package movie

import (
	"fmt"
	"math"
	"strings"
)

// Movie is a catalog entry (immutable value object).
type Movie struct {
	title      string
	overview   string
	attributes map[string]any
	vector     []float32
}

// New validates and creates a Movie. Title is required; overview may be empty.
// attributes carries the remaining catalog fields (genres, release date, ...) untouched.
func New(title, overview string, attributes map[string]any, vector []float32) (Movie, error) {
	if strings.TrimSpace(title) == "" {
		return Movie{}, fmt.Errorf("movie title is required")
	}
	for i, f := range vector {
		if math.IsNaN(float64(f)) {
			return Movie{}, fmt.Errorf("movie %q: embedding[%d] is NaN", title, i)
		}
	}
	return Movie{
		title:      title,
		overview:   overview,
		attributes: cloneAttributes(attributes),
		vector:     vector,
	}, nil
}

// Reconstruct creates a Movie without validation.
func Reconstruct(title, overview string, attributes map[string]any, vector []float32) Movie {
	return Movie{title: title, overview: overview, attributes: attributes, vector: vector}
}

// Title returns the movie title.
func (m *Movie) Title() string { return m.title }

// Overview returns the synopsis.
func (m *Movie) Overview() string { return m.overview }

// Attributes returns the extra catalog fields.
func (m *Movie) Attributes() map[string]any { return m.attributes }

// Vector returns the embedding vector.
func (m *Movie) Vector() []float32 { return m.vector }

// HasVector reports whether the movie already carries an embedding.
func (m *Movie) HasVector() bool { return len(m.vector) > 0 }

// EmbeddingText is the text the embedding is computed from: the overview, or the title when the overview is blank.
func (m *Movie) EmbeddingText() string {
	if strings.TrimSpace(m.overview) == "" {
		return m.title
	}
	return m.overview
}

// WithVector returns a copy with the given vector set.
func (m *Movie) WithVector(v []float32) Movie {
	return Movie{title: m.title, overview: m.overview, attributes: m.attributes, vector: v}
}

func cloneAttributes(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
