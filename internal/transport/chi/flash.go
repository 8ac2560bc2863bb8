package chi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// Flash categories used by the templates.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

func (s *Server) flashCookieName() string {
	return s.cfg.CookieName + "_flash"
}

// setFlash queues a message for the next page view.
func (s *Server) setFlash(w http.ResponseWriter, category, message string) {
	flashes := []Flash{{Category: category, Message: message}}
	raw, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.flashCookieName(),
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes returns queued messages and clears the cookie. A malformed cookie is discarded silently.
func (s *Server) popFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	c, err := r.Cookie(s.flashCookieName())
	if err != nil {
		return nil
	}
	s.clearCookie(w, s.flashCookieName())

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}

func (s *Server) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
