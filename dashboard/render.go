package dashboard

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"intOr": func(v *int, empty string) string {
		if v == nil {
			return empty
		}
		return strconv.Itoa(*v)
	},
	"floatOr": func(v *float64, empty string) string {
		if v == nil {
			return empty
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	},
	"strOr": func(v *string, empty string) string {
		if v == nil {
			return empty
		}
		return *v
	},
	"timeOr": func(v *time.Time, empty string) string {
		if v == nil {
			return empty
		}
		return v.Local().Format("2006-01-02 15:04")
	},
	"check": func(b bool) string {
		if b {
			return "✓"
		}
		return ""
	},
	"fmtFloat": func(f float64) string {
		return strconv.FormatFloat(f, 'f', 2, 64)
	},
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

// render executes into a buffer first so a template error yields a clean 500.
func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("[dashboard] Render %s: %v", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
