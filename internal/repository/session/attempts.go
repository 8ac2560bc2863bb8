package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/cinesearch/internal/db"
)

const attemptsSegment = "login_failures:"

type counterStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, key string) error
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Attempts counts failed logins per username within a lockout window.
type Attempts struct {
	store     counterStore
	keyPrefix string
	window    time.Duration
}

// NewAttempts creates a failed-login counter. The window starts at the first failure.
func NewAttempts(s counterStore, keyPrefix string, window time.Duration) *Attempts {
	return &Attempts{store: s, keyPrefix: keyPrefix, window: window}
}

// Failures returns the current failure count for username.
func (a *Attempts) Failures(ctx context.Context, username string) (int64, error) {
	data, err := a.store.Get(ctx, a.key(username))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get login failures: %w", err)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse login failures: %w", err)
	}
	return n, nil
}

// RecordFailure increments the failure count and returns the new value.
func (a *Attempts) RecordFailure(ctx context.Context, username string) (int64, error) {
	n, err := a.store.IncrWithTTL(ctx, a.key(username), a.window)
	if err != nil {
		return n, fmt.Errorf("record login failure: %w", err)
	}
	return n, nil
}

// Reset clears the failure count after a successful login.
func (a *Attempts) Reset(ctx context.Context, username string) error {
	if err := a.store.Del(ctx, a.key(username)); err != nil {
		return fmt.Errorf("reset login failures: %w", err)
	}
	return nil
}

// key folds case so "Alice" and "alice" share one counter.
func (a *Attempts) key(username string) string {
	return a.keyPrefix + attemptsSegment + strings.ToLower(username)
}
