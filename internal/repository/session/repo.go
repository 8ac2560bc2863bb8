package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/cinesearch/internal/db"
	"github.com/kailas-cloud/cinesearch/internal/domain"
	domsession "github.com/kailas-cloud/cinesearch/internal/domain/session"
)

const sessionSegment = "session:"

// store is the consumer interface for sessions (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Repo implements usecase/auth.SessionRepository on a key-value store.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a session repository. Keys are <keyPrefix>session:<id>.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Save stores a session that expires after ttl.
func (r *Repo) Save(ctx context.Context, s domsession.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: session ttl must be positive", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(toRecord(s))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, r.key(s.ID), data, ttl); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

// Get returns a live session or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domsession.Session, error) {
	data, err := r.store.Get(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domsession.Session{}, domain.ErrNotFound
		}
		return domsession.Session{}, fmt.Errorf("get session %s: %w", id, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domsession.Session{}, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return rec.toDomain(id), nil
}

// Delete revokes a session. Deleting a missing session is not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.keyPrefix + sessionSegment + id
}

// record is the stored JSON form of a session.
type record struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expires_at"`
}

func toRecord(s domsession.Session) record {
	return record{UserID: s.UserID, Username: s.Username, ExpiresAt: s.ExpiresAt.Unix()}
}

func (r record) toDomain(id string) domsession.Session {
	return domsession.Session{
		ID:        id,
		UserID:    r.UserID,
		Username:  r.Username,
		ExpiresAt: time.Unix(r.ExpiresAt, 0).UTC(),
	}
}
