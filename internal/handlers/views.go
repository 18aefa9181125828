package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	"github.com/saifelleuhci/kanouwood2/internal/platform/observability"
	"github.com/saifelleuhci/kanouwood2/internal/render"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	storefrontLayout = "layout.tmpl"
	adminLayout      = "admin_layout.tmpl"
)

// Views renders the embedded page templates. Each page is parsed together
// with its layout; pages named admin_* use the admin layout.
type Views struct {
	pages map[string]*template.Template
}

// NewViews parses every page template up front.
func NewViews(md *render.Markdown) (*Views, error) {
	if md == nil {
		md = render.NewMarkdown()
	}
	funcs := template.FuncMap{
		"markdown": func(src string) template.HTML {
			out, err := md.HTML(src)
			if err != nil {
				return template.HTML(template.HTMLEscapeString(src))
			}
			return out
		},
		"excerpt": md.Plain,
		"price":   formatPrice,
		"tags":    domain.SplitCategories,
		"telHref": telHref,
		"join":    strings.Join,
	}

	names, err := fs.Glob(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template)
	for _, path := range names {
		file := strings.TrimPrefix(path, "templates/")
		if file == storefrontLayout || file == adminLayout {
			continue
		}
		layout := storefrontLayout
		if strings.HasPrefix(file, "admin_") {
			layout = adminLayout
		}
		tmpl, err := template.New(layout).Funcs(funcs).ParseFS(templateFS, "templates/"+layout, path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(file, ".tmpl")] = tmpl
	}
	return &Views{pages: pages}, nil
}

// Render executes page into a buffer first so template failures can still
// produce a clean 500.
func (v *Views) Render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	tmpl, ok := v.pages[page]
	if !ok {
		observability.FromContext(r.Context()).Error("unknown template", zap.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		observability.FromContext(r.Context()).Error("template exec failed", zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func formatPrice(value float64) string {
	return fmt.Sprintf("€%.2f", value)
}

func telHref(phone string) template.URL {
	var b strings.Builder
	for _, r := range phone {
		if r == '+' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return template.URL("tel:" + b.String())
}
