package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/cinesearch/internal/domain"
)

// Search parameter limits.
const (
	// DefaultMaxQueryLength is the query length limit when none is configured.
	DefaultMaxQueryLength = 1024
	DefaultTopK           = 5
	MaxTopK               = 100
)

// Request is a validated search query.
type Request struct {
	query string
	topK  int
}

// New validates and normalizes search parameters.
// The query is trimmed; blank queries are rejected. topK <= 0 means DefaultTopK and is clamped to MaxTopK.
// maxQueryLength <= 0 means DefaultMaxQueryLength.
func New(query string, topK, maxQueryLength int) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, domain.ErrEmptyQuery
	}
	if maxQueryLength <= 0 {
		maxQueryLength = DefaultMaxQueryLength
	}
	if n := len([]rune(query)); n > maxQueryLength {
		return Request{}, fmt.Errorf("%w: %d chars (max %d)", domain.ErrQueryTooLong, n, maxQueryLength)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	return Request{query: query, topK: topK}, nil
}

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// TopK returns the maximum number of results.
func (r *Request) TopK() int { return r.topK }
