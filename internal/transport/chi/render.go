package chi

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinesearch/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/cinesearch/internal/logger"
	"github.com/kailas-cloud/cinesearch/internal/version"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "login", "register", "recommendations", "error"}

var pages = mustParsePages()

func mustParsePages() map[string]*template.Template {
	out := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		out[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return out
}

// pageData is the root value passed to every template.
type pageData struct {
	Title    string
	Username string
	Flashes  []Flash
	Next     string
	Query    string
	Form     formValues
	Results  []resultView
	Status   int
	Message  string
	Version  string
}

type formValues struct {
	Username string
	Email    string
}

type resultView struct {
	Rank        int
	Title       string
	Overview    string
	Score       float64
	ReleaseDate string
	Genres      string
}

func toResultViews(results []result.Result) []resultView {
	out := make([]resultView, len(results))
	for i := range results {
		m := results[i].Movie()
		attrs := m.Attributes()
		out[i] = resultView{
			Rank:        i + 1,
			Title:       m.Title(),
			Overview:    m.Overview(),
			Score:       results[i].Score(),
			ReleaseDate: formatAttr(attrs["release_date"]),
			Genres:      formatAttr(attrs["genres"]),
		}
	}
	return out
}

// formatAttr renders a decoded JSON attribute for display.
func formatAttr(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := formatAttr(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		// TMDB-style {"id": 1, "name": "Drama"}
		if name, ok := t["name"].(string); ok {
			return name
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return strings.Join(keys, ", ")
	default:
		return fmt.Sprint(t)
	}
}

// render executes a page into a buffer first so template failures never produce a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	tmpl, ok := pages[page]
	if !ok {
		logpkg.FromContext(r.Context()).Error("unknown template", zap.String("page", page))
		http.Error(w, genericErrorMessage, http.StatusInternalServerError)
		return
	}
	if data.Flashes == nil {
		data.Flashes = s.popFlashes(w, r)
	}
	data.Version = version.Version

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logpkg.FromContext(r.Context()).Error("render template", zap.String("page", page), zap.Error(err))
		http.Error(w, genericErrorMessage, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	data := pageData{
		Title:   http.StatusText(status),
		Status:  status,
		Message: msg,
	}
	if info, ok := authFromContext(r.Context()); ok {
		data.Username = info.session.Username
	}
	s.render(w, r, status, "error", data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
