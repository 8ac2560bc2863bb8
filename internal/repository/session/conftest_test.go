package session

import (
	"context"
	"strconv"
	"time"

	"github.com/kailas-cloud/cinesearch/internal/db"
)

// mockStore is an in-memory key-value store with TTL bookkeeping.
type mockStore struct {
	data map[string][]byte
	ttl  map[string]time.Duration
	err  error
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttl[key] = ttl
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	delete(m.ttl, key)
	return nil
}

// IncrWithTTL mirrors INCR + EXPIRE NX: the ttl is set only on first use.
func (m *mockStore) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	n, _ := strconv.ParseInt(string(m.data[key]), 10, 64)
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	if _, ok := m.ttl[key]; !ok {
		m.ttl[key] = ttl
	}
	return n, nil
}
