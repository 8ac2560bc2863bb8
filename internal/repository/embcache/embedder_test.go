package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/cinesearch/internal/db"
	"github.com/kailas-cloud/cinesearch/internal/domain"
)

func TestEmbed_MissCallsInnerAndStores(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	var stored []byte
	ms.setFn = func(_ context.Context, _ string, value []byte) error {
		stored = value
		return nil
	}

	res, err := ce.Embed(context.Background(), "space western")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalTokens != 10 || res.Embedding[0] != 0.1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	vec, err := decodeEntry(stored)
	if err != nil {
		t.Fatalf("stored entry unreadable: %v", err)
	}
	if len(vec) != 3 || vec[2] != 0.3 {
		t.Errorf("stored vector = %v", vec)
	}
}

func TestEmbed_HitSkipsInner(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("inner must not be called")}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return encodeEntry([]float32{0.4, 0.5, 0.6}), nil
	}

	res, err := ce.Embed(context.Background(), "space western")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 3 || res.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got %v", res.Embedding)
	}
	if res.TotalTokens != 0 {
		t.Errorf("a hit consumes no tokens, got %d", res.TotalTokens)
	}
}

func TestEmbed_InnerErrorIsWrapped(t *testing.T) {
	providerErr := errors.New("provider down")
	ce, _ := newTestCachedEmbedder(t, &mockEmbedder{err: providerErr})

	_, err := ce.Embed(context.Background(), "q")
	if !errors.Is(err, providerErr) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestEmbed_UnreadableEntryIsMiss(t *testing.T) {
	tests := []struct {
		name  string
		entry []byte
	}{
		{"raw floats from an older format", []byte{0, 0, 128, 63}},
		{"wrong version", append([]byte{9}, encodeEntry([]float32{1})[1:]...)},
		{"truncated body", encodeEntry([]float32{1, 2})[:headerLen+4]},
		{"empty", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.7}}}
			ce, ms := newTestCachedEmbedder(t, inner)
			ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return tc.entry, nil }

			var rewritten bool
			ms.setFn = func(_ context.Context, _ string, _ []byte) error {
				rewritten = true
				return nil
			}

			res, err := ce.Embed(context.Background(), "q")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Embedding[0] != 0.7 {
				t.Errorf("expected fresh vector, got %v", res.Embedding)
			}
			if !rewritten {
				t.Error("unreadable entry should be overwritten")
			}
		})
	}
}

func TestEmbed_StoreErrorsDegradeToMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.7}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("connection reset")
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		return errors.New("connection reset")
	}

	res, err := ce.Embed(context.Background(), "q")
	if err != nil {
		t.Fatalf("cache failures must not fail the request: %v", err)
	}
	if res.Embedding[0] != 0.7 {
		t.Errorf("expected inner vector, got %v", res.Embedding)
	}
}

func TestEmbed_KeyIsNamespacedByModel(t *testing.T) {
	ce, ms := newTestCachedEmbedder(t, &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}})

	var gotKey string
	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		gotKey = key
		return nil, db.ErrKeyNotFound
	}

	if _, err := ce.Embed(context.Background(), "heist"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(gotKey, "cinesearch:emb_cache:test-model:") {
		t.Errorf("unexpected cache key %q", gotKey)
	}
	if ce.key("a") == ce.key("b") {
		t.Error("different texts must not share a key")
	}
}

func TestEmbed_WithTTLUsesSetWithTTL(t *testing.T) {
	ce, ms := newTestCachedEmbedder(t, &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5}}})
	ce.WithTTL(2 * time.Hour)

	var gotTTL time.Duration
	ms.setTTLFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		gotTTL = ttl
		return nil
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		t.Error("plain Set must not be used when a TTL is configured")
		return nil
	}

	if _, err := ce.Embed(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTTL != 2*time.Hour {
		t.Errorf("ttl = %v, want 2h", gotTTL)
	}
}

func TestEmbed_CountsLookups(t *testing.T) {
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_lookups_total"}, []string{"result"})
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ms := &mockKVStore{}
	ce := New(inner, ms, "cinesearch:", "test-model", lookups, nil)

	_, _ = ce.Embed(context.Background(), "q")
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return encodeEntry([]float32{1}), nil }
	_, _ = ce.Embed(context.Background(), "q")
	_, _ = ce.Embed(context.Background(), "q")

	if got := testutil.ToFloat64(lookups.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(lookups.WithLabelValues("hit")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
}

func TestBatchEmbed(t *testing.T) {
	cached := encodeEntry([]float32{0.9})

	tests := []struct {
		name       string
		texts      []string
		hits       map[string]bool
		wantCalls  int
		wantPuts   int
		wantTokens int
		wantFirst  []float32
	}{
		{"all misses", []string{"a", "b"}, nil, 1, 2, 6, []float32{0.5}},
		{"all hits", []string{"a", "b"}, map[string]bool{"a": true, "b": true}, 0, 0, 0, []float32{0.9}},
		{"mixed", []string{"a", "b", "c"}, map[string]bool{"b": true}, 1, 2, 6, []float32{0.5}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5}, PromptTokens: 3, TotalTokens: 3}}
			ce, ms := newTestCachedEmbedder(t, inner)

			keyOf := map[string]string{}
			for _, text := range tc.texts {
				keyOf[ce.key(text)] = text
			}
			ms.getFn = func(_ context.Context, key string) ([]byte, error) {
				if tc.hits[keyOf[key]] {
					return cached, nil
				}
				return nil, db.ErrKeyNotFound
			}
			puts := 0
			ms.setFn = func(_ context.Context, _ string, _ []byte) error {
				puts++
				return nil
			}

			res, err := ce.BatchEmbed(context.Background(), tc.texts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(res.Embeddings) != len(tc.texts) {
				t.Fatalf("got %d embeddings, want %d", len(res.Embeddings), len(tc.texts))
			}
			for i, text := range tc.texts {
				want := float32(0.5)
				if tc.hits[text] {
					want = 0.9
				}
				if res.Embeddings[i][0] != want {
					t.Errorf("embedding %d (%s) = %v, want %v", i, text, res.Embeddings[i], want)
				}
			}
			if inner.batchCalls != tc.wantCalls {
				t.Errorf("inner batch calls = %d, want %d", inner.batchCalls, tc.wantCalls)
			}
			if puts != tc.wantPuts {
				t.Errorf("cache puts = %d, want %d", puts, tc.wantPuts)
			}
			if res.TotalTokens != tc.wantTokens {
				t.Errorf("TotalTokens = %d, want %d", res.TotalTokens, tc.wantTokens)
			}
			if res.Embeddings[0][0] != tc.wantFirst[0] {
				t.Errorf("first embedding = %v, want %v", res.Embeddings[0], tc.wantFirst)
			}
		})
	}
}

func TestBatchEmbed_InnerError(t *testing.T) {
	ce, _ := newTestCachedEmbedder(t, &mockEmbedder{batchErr: errors.New("api down")})

	if _, err := ce.BatchEmbed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error from inner batch embedder")
	}
}

func TestBatchEmbed_Empty(t *testing.T) {
	ce, _ := newTestCachedEmbedder(t, &mockEmbedder{})

	res, err := ce.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings != nil {
		t.Error("expected nil embeddings for empty input")
	}
}

func TestEntryCodec(t *testing.T) {
	in := []float32{0, -1.5, 3.25}
	data := encodeEntry(in)
	if data[0] != entryVersion || len(data) != headerLen+12 {
		t.Fatalf("unexpected layout: % x", data)
	}

	out, err := decodeEntry(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("mismatch at %d: %v != %v", i, out[i], in[i])
		}
	}
}
