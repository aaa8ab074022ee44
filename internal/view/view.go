package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"fpc-portal/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageLogin        = "login.html"
	PageDashboard    = "dashboard.html"
	PageFPOList      = "fpo_list.html"
	PageFPODetail    = "fpo_detail.html"
	PageFPORegister  = "fpo_register.html"
	PageAgriList     = "agri_list.html"
	PageAgriNew      = "agri_new.html"
	PageDistricts    = "districts.html"
	PageError        = "error.html"
	layoutTemplate   = "layout.html"
	templatesPattern = "templates/*.html"
)

// markdown escapes raw HTML in its input.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Page is what every template receives. Data holds the page-specific view
// model.
type Page struct {
	Title     string
	Active    string
	User      *model.UserIdentity
	Nav       []model.NavigationEntry
	CSRFField template.HTML
	Flash     *Flash
	Notices   []string
	Errors    map[string]string
	RequestID string
	Data      any
}

// HasError reports whether field failed validation.
func (p Page) HasError(field string) bool {
	_, ok := p.Errors[field]
	return ok
}

// Error returns the validation message for field.
func (p Page) Error(field string) string {
	return p.Errors[field]
}

type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page together with the shared layout.
func New() (*Renderer, error) {
	names, err := fs.Glob(templateFS, templatesPattern)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, path := range names {
		name := strings.TrimPrefix(path, "templates/")
		if name == layoutTemplate {
			continue
		}

		tpl, err := template.New(layoutTemplate).Funcs(Funcs()).ParseFS(templateFS, "templates/"+layoutTemplate, path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = tpl
	}

	return r, nil
}

// Render executes a page into a buffer first so a template failure never
// leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) {
	tpl, ok := r.pages[name]
	if !ok {
		slog.Error("unknown template", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, page); err != nil {
		slog.Error("template render failed", "template", name, "request_id", page.RequestID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Funcs is the template function set.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"markdown":  renderMarkdown,
		"roleLabel": func(role model.Role) string { return role.Label() },
		"date":      formatDate,
		"number":    formatNumber,
		"money":     formatMoney,
		"lower":     strings.ToLower,
		"add":       func(a, b int) int { return a + b },
		"isActive": func(active string, target string) bool {
			return active == target
		},
	}
}

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

// formatNumber groups thousands Indian style: 12,34,567.
func formatNumber(n int64) string {
	negative := n < 0
	if negative {
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	if len(digits) > 3 {
		head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		digits = strings.Join(groups, ",") + "," + tail
	}

	if negative {
		return "-" + digits
	}
	return digits
}

func formatMoney(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := int64(v)
	paise := int64((v-float64(whole))*100 + 0.5)
	if paise >= 100 {
		whole++
		paise -= 100
	}
	return fmt.Sprintf("%s₹%s.%02d", sign, formatNumber(whole), paise)
}
