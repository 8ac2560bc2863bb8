package auth

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kailas-cloud/cinesearch/internal/domain"
	"github.com/kailas-cloud/cinesearch/internal/domain/session"
	"github.com/kailas-cloud/cinesearch/internal/domain/user"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// --- Mocks ---

type mockUsers struct {
	byName  map[string]user.User
	nextID  int
	findErr error
}

func newMockUsers() *mockUsers {
	return &mockUsers{byName: map[string]user.User{}}
}

func (m *mockUsers) Insert(_ context.Context, u user.User) (user.User, error) {
	if _, ok := m.byName[u.Username()]; ok {
		return user.User{}, domain.ErrAlreadyExists
	}
	m.nextID++
	created := u.WithID("u" + strconv.Itoa(m.nextID))
	m.byName[u.Username()] = created
	return created, nil
}

func (m *mockUsers) FindByUsername(_ context.Context, username string) (user.User, error) {
	if m.findErr != nil {
		return user.User{}, m.findErr
	}
	u, ok := m.byName[username]
	if !ok {
		return user.User{}, domain.ErrNotFound
	}
	return u, nil
}

type mockSessions struct {
	data map[string]session.Session
	ttl  map[string]time.Duration
}

func newMockSessions() *mockSessions {
	return &mockSessions{data: map[string]session.Session{}, ttl: map[string]time.Duration{}}
}

func (m *mockSessions) Save(_ context.Context, s session.Session, ttl time.Duration) error {
	m.data[s.ID] = s
	m.ttl[s.ID] = ttl
	return nil
}

func (m *mockSessions) Get(_ context.Context, id string) (session.Session, error) {
	s, ok := m.data[id]
	if !ok {
		return session.Session{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *mockSessions) Delete(_ context.Context, id string) error {
	delete(m.data, id)
	return nil
}

type mockAttempts struct {
	counts map[string]int64
	resets int
	err    error
}

func newMockAttempts() *mockAttempts {
	return &mockAttempts{counts: map[string]int64{}}
}

func (m *mockAttempts) Failures(_ context.Context, username string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.counts[username], nil
}

func (m *mockAttempts) RecordFailure(_ context.Context, username string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.counts[username]++
	return m.counts[username], nil
}

func (m *mockAttempts) Reset(_ context.Context, username string) error {
	m.resets++
	delete(m.counts, username)
	return m.err
}

// --- Helpers ---

type fixture struct {
	svc      *Service
	users    *mockUsers
	sessions *mockSessions
	attempts *mockAttempts
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    newMockUsers(),
		sessions: newMockSessions(),
		attempts: newMockAttempts(),
		now:      time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	svc, err := New(f.users, f.sessions, Config{
		Secret:           testSecret,
		SessionTTL:       time.Hour,
		BcryptCost:       bcrypt.MinCost,
		MaxLoginAttempts: 3,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.svc = svc.WithAttempts(f.attempts).WithClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) register(t *testing.T, username, password string) user.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), username, strings.TrimSpace(username)+"@example.com", password)
	if err != nil {
		t.Fatalf("Register(%q): %v", username, err)
	}
	return u
}
