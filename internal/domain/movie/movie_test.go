package movie

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/cinesearch/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	attrs := map[string]any{"genres": "Drama"}

	m, err := New("Heat", "cops and robbers", attrs, []float32{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Title() != "Heat" {
		t.Errorf("Title() = %q", m.Title())
	}
	if m.Overview() != "cops and robbers" {
		t.Errorf("Overview() = %q", m.Overview())
	}
	if !m.HasVector() {
		t.Error("expected HasVector() = true")
	}

	attrs["genres"] = "Comedy"
	if m.Attributes()["genres"] != "Drama" {
		t.Error("attributes should be cloned")
	}
}

func TestNew_EmptyTitle(t *testing.T) {
	if _, err := New("   ", "overview", nil, nil); err == nil {
		t.Fatal("expected error for blank title")
	}
}

func TestNew_NaNVector(t *testing.T) {
	nan := float32(math.NaN())
	if _, err := New("A", "x", nil, []float32{1, nan}); err == nil {
		t.Fatal("expected error for NaN component")
	}
}

func TestEmbeddingText(t *testing.T) {
	tests := []struct {
		name     string
		overview string
		want     string
	}{
		{"overview", "space opera", "space opera"},
		{"blank overview", "  ", "Title"},
		{"empty overview", "", "Title"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := Reconstruct("Title", tc.overview, nil, nil)
			if got := m.EmbeddingText(); got != tc.want {
				t.Errorf("EmbeddingText() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWithVector(t *testing.T) {
	m := Reconstruct("A", "x", nil, nil)
	w := m.WithVector([]float32{0.5})
	if m.HasVector() {
		t.Error("original should stay without vector")
	}
	if len(w.Vector()) != 1 || w.Title() != "A" {
		t.Errorf("unexpected copy: %+v", w)
	}
}

func TestNewCatalog_PreservesOrder(t *testing.T) {
	movies := []Movie{
		Reconstruct("A", "", nil, []float32{1, 0}),
		Reconstruct("B", "", nil, []float32{0, 1}),
		Reconstruct("C", "", nil, []float32{1, 1}),
	}

	c, err := NewCatalog(movies)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 3 || c.Dimensions() != 2 {
		t.Fatalf("Len()=%d Dimensions()=%d", c.Len(), c.Dimensions())
	}

	var titles []string
	for _, m := range c.All() {
		titles = append(titles, m.Title())
	}
	if len(titles) != 3 || titles[0] != "A" || titles[1] != "B" || titles[2] != "C" {
		t.Errorf("unexpected order: %v", titles)
	}

	movies[0] = Reconstruct("Z", "", nil, []float32{1, 0})
	first := c.At(0)
	if first.Title() != "A" {
		t.Error("catalog must not alias the input slice")
	}
}

func TestNewCatalog_Empty(t *testing.T) {
	c, err := NewCatalog(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 0 || c.Dimensions() != 0 {
		t.Errorf("expected empty catalog, got Len()=%d Dimensions()=%d", c.Len(), c.Dimensions())
	}
}

func TestNewCatalog_MissingVector(t *testing.T) {
	_, err := NewCatalog([]Movie{
		Reconstruct("A", "", nil, []float32{1}),
		Reconstruct("B", "", nil, nil),
	})
	if !errors.Is(err, domain.ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
}

func TestNewCatalog_DimMismatch(t *testing.T) {
	_, err := NewCatalog([]Movie{
		Reconstruct("A", "", nil, []float32{1, 0}),
		Reconstruct("B", "", nil, []float32{1, 0, 0}),
	})
	if !errors.Is(err, domain.ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch in chain, got %v", err)
	}
}

func TestCatalog_AllStopsEarly(t *testing.T) {
	c, _ := NewCatalog([]Movie{
		Reconstruct("A", "", nil, []float32{1}),
		Reconstruct("B", "", nil, []float32{1}),
	})
	n := 0
	for range c.All() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("expected iteration to stop after 1, got %d", n)
	}
}
