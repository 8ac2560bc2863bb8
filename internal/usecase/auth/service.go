package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kailas-cloud/cinesearch/internal/domain"
	"github.com/kailas-cloud/cinesearch/internal/domain/session"
	"github.com/kailas-cloud/cinesearch/internal/domain/user"
	"github.com/kailas-cloud/cinesearch/internal/metrics"
)

// DefaultSessionTTL is the session lifetime when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// Config holds authentication settings.
type Config struct {
	Secret     string
	SessionTTL time.Duration
	BcryptCost int
	// MaxLoginAttempts locks a username after this many failures; 0 disables throttling.
	MaxLoginAttempts int
}

// Service registers users and manages login sessions.
type Service struct {
	users       UserRepository
	sessions    SessionRepository
	attempts    AttemptTracker
	maxAttempts int64
	secret      []byte
	ttl         time.Duration
	bcryptCost  int
	dummyHash   []byte
	now         func() time.Time
	logger      *zap.Logger
}

// New creates an auth service. Secret must be non-empty.
func New(users UserRepository, sessions SessionRepository, cfg Config, logger *zap.Logger) (*Service, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	// Compared against on unknown usernames so both failure paths cost one bcrypt check.
	dummy, err := bcrypt.GenerateFromPassword([]byte("cinesearch-dummy-password"), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt cost %d: %w", cfg.BcryptCost, err)
	}

	return &Service{
		users:       users,
		sessions:    sessions,
		maxAttempts: int64(cfg.MaxLoginAttempts),
		secret:      []byte(cfg.Secret),
		ttl:         cfg.SessionTTL,
		bcryptCost:  cfg.BcryptCost,
		dummyHash:   dummy,
		now:         time.Now,
		logger:      logger,
	}, nil
}

// WithAttempts enables login throttling backed by t.
func (s *Service) WithAttempts(t AttemptTracker) *Service {
	s.attempts = t
	return s
}

// WithClock overrides the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register creates an account. A taken username yields domain.ErrAlreadyExists.
func (s *Service) Register(ctx context.Context, username, email, password string) (user.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validateRegistration(username, email, password); err != nil {
		s.event("register", "invalid")
		return user.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := user.New(username, email, string(hash), s.now())
	if err != nil {
		s.event("register", "invalid")
		return user.User{}, err
	}

	created, err := s.users.Insert(ctx, u)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			s.event("register", "duplicate")
			return user.User{}, fmt.Errorf("username %q: %w", username, domain.ErrAlreadyExists)
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	s.event("register", "success")
	s.logger.Info("User registered", zap.String("user_id", created.ID()), zap.String("username", created.Username()))
	return created, nil
}

// Login verifies credentials and opens a session. Unknown users and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, session.Session, error) {
	username = strings.TrimSpace(username)

	if s.lockedOut(ctx, username) {
		s.event("login", "locked")
		return "", session.Session{}, domain.ErrTooManyAttempts
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return "", session.Session{}, fmt.Errorf("find user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.loginFailed(ctx, username)
		return "", session.Session{}, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash()), []byte(password)); err != nil {
		s.loginFailed(ctx, username)
		return "", session.Session{}, domain.ErrInvalidCredentials
	}

	if s.attempts != nil {
		if err := s.attempts.Reset(ctx, username); err != nil {
			s.logger.Warn("Failed to reset login attempts", zap.String("username", username), zap.Error(err))
		}
	}

	now := s.now()
	sess := session.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID(),
		Username:  u.Username(),
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}
	if err := s.sessions.Save(ctx, sess, s.ttl); err != nil {
		return "", session.Session{}, fmt.Errorf("save session: %w", err)
	}

	token, err := s.signToken(sess.UserID, sess.Username, sess.ID, now, sess.ExpiresAt)
	if err != nil {
		_ = s.sessions.Delete(ctx, sess.ID)
		return "", session.Session{}, err
	}

	s.event("login", "success")
	s.logger.Info("User logged in", zap.String("user_id", sess.UserID), zap.String("session_id", sess.ID))
	return token, sess, nil
}

// Authenticate resolves a token to its live session. Any failure yields domain.ErrUnauthenticated
// unless the session store itself is unavailable.
func (s *Service) Authenticate(ctx context.Context, token string) (session.Session, error) {
	if token == "" {
		return session.Session{}, fmt.Errorf("%w: no token", domain.ErrUnauthenticated)
	}

	claims, err := s.parseToken(token, false)
	if err != nil {
		return session.Session{}, err
	}

	sess, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return session.Session{}, fmt.Errorf("%w: session revoked or expired", domain.ErrUnauthenticated)
		}
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	if sess.UserID != claims.Subject {
		return session.Session{}, fmt.Errorf("%w: session does not match token", domain.ErrUnauthenticated)
	}
	if sess.Expired(s.now()) {
		return session.Session{}, fmt.Errorf("%w: session expired", domain.ErrUnauthenticated)
	}
	return sess, nil
}

// Logout revokes the session behind token. Unknown, expired or invalid tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.parseToken(token, true)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.event("logout", "success")
	return nil
}

func (s *Service) lockedOut(ctx context.Context, username string) bool {
	if s.attempts == nil || s.maxAttempts <= 0 {
		return false
	}
	n, err := s.attempts.Failures(ctx, username)
	if err != nil {
		s.logger.Warn("Failed to read login attempts", zap.String("username", username), zap.Error(err))
		return false
	}
	return n >= s.maxAttempts
}

func (s *Service) loginFailed(ctx context.Context, username string) {
	s.event("login", "failure")
	if s.attempts == nil || s.maxAttempts <= 0 {
		return
	}
	n, err := s.attempts.RecordFailure(ctx, username)
	if err != nil {
		s.logger.Warn("Failed to record login attempt", zap.String("username", username), zap.Error(err))
		return
	}
	if n == s.maxAttempts {
		s.logger.Warn("Username locked after repeated failures",
			zap.String("username", username), zap.Int64("failures", n))
	}
}

func (s *Service) event(name, result string) {
	metrics.AuthEventsTotal.WithLabelValues(name, result).Inc()
}

func validateRegistration(username, email, password string) error {
	if err := user.ValidateUsername(username); err != nil {
		return err
	}
	if err := user.ValidateEmail(email); err != nil {
		return err
	}
	return user.ValidatePassword(password)
}
