package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/cinesearch/internal/domain"
	"github.com/kailas-cloud/cinesearch/internal/domain/search/result"
	"github.com/kailas-cloud/cinesearch/internal/domain/session"
	"github.com/kailas-cloud/cinesearch/internal/domain/user"
	healthuc "github.com/kailas-cloud/cinesearch/internal/usecase/health"
)

const (
	testCookie = "test_session"
	validToken = "tok-alice"
)

// --- Mocks ---

type mockAuth struct {
	loginErr    error
	registerErr error
	authErr     error
	logoutErr   error

	registered  []string
	loggedOut   []string
	loginCalls  int
	gotUsername string
}

func aliceSession() session.Session {
	return session.Session{
		ID:        "sess-1",
		UserID:    "u-1",
		Username:  "alice",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func (m *mockAuth) Register(_ context.Context, username, email, _ string) (user.User, error) {
	if m.registerErr != nil {
		return user.User{}, m.registerErr
	}
	m.registered = append(m.registered, username)
	return user.Reconstruct("u-2", username, email, "hash", time.Now()), nil
}

func (m *mockAuth) Login(_ context.Context, username, _ string) (string, session.Session, error) {
	m.loginCalls++
	m.gotUsername = username
	if m.loginErr != nil {
		return "", session.Session{}, m.loginErr
	}
	return validToken, aliceSession(), nil
}

func (m *mockAuth) Authenticate(_ context.Context, token string) (session.Session, error) {
	if m.authErr != nil {
		return session.Session{}, m.authErr
	}
	if token != validToken {
		return session.Session{}, domain.ErrUnauthenticated
	}
	return aliceSession(), nil
}

func (m *mockAuth) Logout(_ context.Context, token string) error {
	if m.logoutErr != nil {
		return m.logoutErr
	}
	m.loggedOut = append(m.loggedOut, token)
	return nil
}

type mockSearch struct {
	results []result.Result
	err     error
	got     string
	panic   bool
}

func (m *mockSearch) Search(_ context.Context, query string) ([]result.Result, error) {
	if m.panic {
		panic("boom")
	}
	m.got = query
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- Helpers ---

type fixture struct {
	auth   *mockAuth
	search *mockSearch
	health *mockHealth
	server *Server
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		auth:   &mockAuth{},
		search: &mockSearch{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"mongo": healthuc.CheckOK},
		}},
	}
	f.server = NewServer(f.auth, f.search, f.health, Config{CookieName: testCookie}, nil)
	f.router = f.server.Router()
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: testCookie, Value: validToken})
	return req
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
