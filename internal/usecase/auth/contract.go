package auth

import (
	"context"
	"time"

	"github.com/kailas-cloud/cinesearch/internal/domain/session"
	"github.com/kailas-cloud/cinesearch/internal/domain/user"
)

// UserRepository persists accounts.
type UserRepository interface {
	Insert(ctx context.Context, u user.User) (user.User, error)
	FindByUsername(ctx context.Context, username string) (user.User, error)
}

// SessionRepository stores live sessions with an expiry.
type SessionRepository interface {
	Save(ctx context.Context, s session.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (session.Session, error)
	Delete(ctx context.Context, id string) error
}

// AttemptTracker counts failed logins per username.
type AttemptTracker interface {
	Failures(ctx context.Context, username string) (int64, error)
	RecordFailure(ctx context.Context, username string) (int64, error)
	Reset(ctx context.Context, username string) error
}
