package chi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/cinesearch/internal/logger"
	healthuc "github.com/kailas-cloud/cinesearch/internal/usecase/health"
)

// maxFormBytes caps urlencoded form bodies.
const maxFormBytes = 64 << 10

// Config holds cookie settings for the web layer.
type Config struct {
	CookieName   string
	SecureCookie bool
}

// Server serves the HTML pages of the movie search app.
type Server struct {
	auth          Authenticator
	search        Searcher
	health        HealthReporter
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the web server.
func NewServer(auth Authenticator, search Searcher, health HealthReporter, cfg Config, logger *zap.Logger) *Server {
	if cfg.CookieName == "" {
		cfg.CookieName = "cinesearch_session"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		auth:          auth,
		search:        search,
		health:        health,
		cfg:           cfg,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Home handles GET /.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	info, _ := authFromContext(r.Context())
	s.render(w, r, http.StatusOK, "home", pageData{Username: info.session.Username})
}

// LoginPage handles GET /login. Visitors with a live session go straight to next.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if _, ok := s.currentSession(r); ok {
		http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login", pageData{Title: "Login", Next: next})
}

// Login handles POST /login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	next := r.URL.Query().Get("next")
	username := r.PostFormValue("username")

	token, sess, err := s.auth.Login(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		status, msg := s.resolveError(r.Context(), err)
		if status >= http.StatusInternalServerError {
			s.renderError(w, r, status, msg)
			return
		}
		s.render(w, r, status, "login", pageData{
			Title:   "Login",
			Next:    next,
			Form:    formValues{Username: username},
			Flashes: []Flash{{Category: FlashDanger, Message: msg}},
		})
		return
	}

	s.setSessionCookie(w, token, sess)
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register", pageData{Title: "Register"})
}

// Register handles POST /register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	form := formValues{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
	}

	if _, err := s.auth.Register(r.Context(), form.Username, form.Email, r.PostFormValue("password")); err != nil {
		status, msg := s.resolveError(r.Context(), err)
		if status >= http.StatusInternalServerError {
			s.renderError(w, r, status, msg)
			return
		}
		s.render(w, r, status, "register", pageData{
			Title:   "Register",
			Form:    form,
			Flashes: []Flash{{Category: FlashDanger, Message: msg}},
		})
		return
	}

	s.setFlash(w, FlashSuccess, "Registration successful! Please log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout handles GET /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	info, _ := authFromContext(r.Context())
	if err := s.auth.Logout(r.Context(), info.token); err != nil {
		status, msg := s.resolveError(r.Context(), err)
		s.renderError(w, r, status, msg)
		return
	}

	s.clearCookie(w, s.cfg.CookieName)
	s.setFlash(w, FlashSuccess, "Logged out successfully!")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	info, _ := authFromContext(r.Context())
	query := r.PostFormValue("query")

	results, err := s.search.Search(r.Context(), query)
	if err != nil {
		status, msg := s.resolveError(r.Context(), err)
		if status >= http.StatusInternalServerError {
			s.renderError(w, r, status, msg)
			return
		}
		s.render(w, r, status, "home", pageData{
			Username: info.session.Username,
			Query:    query,
			Flashes:  []Flash{{Category: FlashDanger, Message: msg}},
		})
		return
	}

	s.render(w, r, http.StatusOK, "recommendations", pageData{
		Title:    "Recommendations",
		Username: info.session.Username,
		Query:    strings.TrimSpace(query),
		Results:  toResultViews(results),
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// NotFound renders the error page for unknown routes.
func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "Page not found.")
}

// MethodNotAllowed renders the error page for a known route with the wrong method.
func (s *Server) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusMethodNotAllowed, "Method not allowed.")
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		logpkg.FromContext(r.Context()).Debug("invalid form", zap.Error(err))
		s.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return false
	}
	return true
}
