package chi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinesearch/internal/domain"
	logpkg "github.com/kailas-cloud/cinesearch/internal/logger"
)

const genericErrorMessage = "Something went wrong. Please try again."

// errorHandler maps a domain error to a status and a user-visible message. ok is false if it does not match.
type errorHandler func(err error) (status int, msg string, ok bool)

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password!"),
		sentinelHandler(domain.ErrTooManyAttempts, http.StatusTooManyRequests,
			"Too many failed login attempts. Please try again later."),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, "Username already exists!"),
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, "Please enter a search query."),
		sentinelHandler(domain.ErrQueryTooLong, http.StatusBadRequest, "Your search query is too long."),
		invalidInputHandler,
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway,
			"The recommendation engine is unavailable. Please try again later."),
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, msg string) errorHandler {
	return func(err error) (int, string, bool) {
		if !errors.Is(err, sentinel) {
			return 0, "", false
		}
		return status, msg, true
	}
}

// invalidInputHandler surfaces the validation detail that follows the ErrInvalidInput prefix.
func invalidInputHandler(err error) (int, string, bool) {
	if !errors.Is(err, domain.ErrInvalidInput) {
		return 0, "", false
	}
	detail, ok := strings.CutPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
	if !ok || detail == "" {
		return http.StatusBadRequest, "Invalid input.", true
	}
	return http.StatusBadRequest, capitalize(detail) + ".", true
}

// resolveError walks the handler chain. Unmapped errors become a logged 500.
func (s *Server) resolveError(ctx context.Context, err error) (int, string) {
	log := logpkg.FromContext(ctx)
	for _, h := range s.errorHandlers {
		if status, msg, ok := h(err); ok {
			if status >= http.StatusInternalServerError {
				log.Error("request failed", zap.Int("status", status), zap.Error(err))
			} else {
				log.Debug("request rejected", zap.Int("status", status), zap.Error(err))
			}
			return status, msg
		}
	}
	log.Error("internal error", zap.Error(err))
	return http.StatusInternalServerError, genericErrorMessage
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
