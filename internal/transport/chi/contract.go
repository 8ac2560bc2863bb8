package chi

import (
	"context"

	"github.com/kailas-cloud/cinesearch/internal/domain/search/result"
	"github.com/kailas-cloud/cinesearch/internal/domain/session"
	"github.com/kailas-cloud/cinesearch/internal/domain/user"
	healthuc "github.com/kailas-cloud/cinesearch/internal/usecase/health"
)

// Authenticator manages accounts and login sessions.
type Authenticator interface {
	Register(ctx context.Context, username, email, password string) (user.User, error)
	Login(ctx context.Context, username, password string) (string, session.Session, error)
	Authenticate(ctx context.Context, token string) (session.Session, error)
	Logout(ctx context.Context, token string) error
}

// Searcher ranks catalog movies for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]result.Result, error)
}

// HealthReporter aggregates dependency health.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}
