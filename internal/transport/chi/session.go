package chi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kailas-cloud/cinesearch/internal/domain"
	"github.com/kailas-cloud/cinesearch/internal/domain/session"
	logpkg "github.com/kailas-cloud/cinesearch/internal/logger"
)

type sessionCtxKey struct{}

type authInfo struct {
	session session.Session
	token   string
}

func withAuth(ctx context.Context, info authInfo) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, info)
}

func authFromContext(ctx context.Context) (authInfo, bool) {
	info, ok := ctx.Value(sessionCtxKey{}).(authInfo)
	return info, ok
}

// RequireSession lets a request through only with a valid session cookie.
// Anonymous visitors are redirected to the login page with the original path in next.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(s.cfg.CookieName)
		if err != nil || c.Value == "" {
			s.redirectToLogin(w, r)
			return
		}

		sess, err := s.auth.Authenticate(r.Context(), c.Value)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) {
				s.clearCookie(w, s.cfg.CookieName)
				s.redirectToLogin(w, r)
				return
			}
			status, msg := s.resolveError(r.Context(), err)
			s.renderError(w, r, status, msg)
			return
		}

		ctx := logpkg.WithUser(r.Context(), sess.UserID, sess.Username)
		ctx = withAuth(ctx, authInfo{session: sess, token: c.Value})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if r.Method == http.MethodGet {
		target = r.URL.RequestURI()
	}
	http.Redirect(w, r, "/login?next="+url.QueryEscape(target), http.StatusSeeOther)
}

// currentSession returns the session of a valid cookie, if any. Used by public pages.
func (s *Server) currentSession(r *http.Request) (session.Session, bool) {
	c, err := r.Cookie(s.cfg.CookieName)
	if err != nil || c.Value == "" {
		return session.Session{}, false
	}
	sess, err := s.auth.Authenticate(r.Context(), c.Value)
	if err != nil {
		return session.Session{}, false
	}
	return sess, true
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, sess session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(sess.TTL(time.Now()).Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// safeNext returns next if it is a local absolute path, otherwise "/".
// Absolute URLs, protocol-relative URLs and backslash tricks are rejected.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return "/"
	}
	if strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
