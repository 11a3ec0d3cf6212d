// Package site serves the marketing pages and the assets of the demo widget.
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/appointment-ai-site/internal/render"
	"github.com/wolfman30/appointment-ai-site/internal/webchat"
	"github.com/wolfman30/appointment-ai-site/pkg/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Feature is one card of the features section.
type Feature struct {
	Icon        string
	Title       string
	Description string
}

// Features lists the product features shown on the landing page.
var Features = []Feature{
	{
		Icon:        "clock",
		Title:       "AI-Powered Scheduling",
		Description: "Smart algorithms automatically find the best meeting times for all participants across time zones.",
	},
	{
		Icon:        "globe",
		Title:       "Time Zone Detection",
		Description: "Automatically detects and converts time zones to prevent scheduling conflicts and confusion.",
	},
	{
		Icon:        "bell",
		Title:       "Smart Reminders",
		Description: "Intelligent reminder system that adapts to user preferences and reduces no-shows by 80%.",
	},
	{
		Icon:        "zap",
		Title:       "Integration Ready",
		Description: "Seamlessly connects with your existing calendar, CRM, and communication tools.",
	},
}

// DemoPaths are the endpoints the widget talks to.
type DemoPaths struct {
	WebSocket string
	Sessions  string
}

// DefaultDemoPaths matches the router's /demo mount.
var DefaultDemoPaths = DemoPaths{
	WebSocket: "/demo/ws",
	Sessions:  "/demo/sessions",
}

type pageData struct {
	ProductName  string
	CanonicalURL string
	Features     []Feature
	SessionKey   string
	Transcript   template.HTML
	Version      uint64
	ScrollTo     string
	Typing       bool
	Paths        DemoPaths
}

// Handler renders the landing page. Every page load starts a new demo
// session whose greeting is rendered into the page.
type Handler struct {
	registry  *webchat.Registry
	renderer  *render.Renderer
	logger    *logging.Logger
	paths     DemoPaths
	canonical string
	page      *template.Template
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(logger *logging.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithDemoPaths overrides the widget endpoints.
func WithDemoPaths(p DemoPaths) Option {
	return func(h *Handler) {
		h.paths = p
	}
}

// WithPublicBaseURL sets the public origin used for the canonical link.
func WithPublicBaseURL(baseURL string) Option {
	return func(h *Handler) {
		baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if baseURL != "" {
			h.canonical = baseURL + "/"
		}
	}
}

// NewHandler parses the embedded page templates.
func NewHandler(registry *webchat.Registry, renderer *render.Renderer, opts ...Option) (*Handler, error) {
	page, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("site: parse templates: %w", err)
	}
	h := &Handler{
		registry: registry,
		renderer: renderer,
		logger:   logging.Default(),
		paths:    DefaultDemoPaths,
		page:     page,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Routes mounts the landing page and its static assets. pageMiddlewares wrap
// only the landing page, which is where demo sessions are created.
func (h *Handler) Routes(pageMiddlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.With(pageMiddlewares...).Get("/", h.Index)
	r.Handle("/static/*", http.StripPrefix("/static/", Static()))
	return r
}

// Static serves the embedded CSS and widget script.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// Index renders the landing page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	key, sess := h.registry.Create()
	view := h.renderer.View(sess.Snapshot())
	transcript, err := h.renderer.Transcript(view)
	if err != nil {
		h.logger.Error("site: render transcript", "session_key", key, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	data := pageData{
		ProductName:  "AppointmentAI",
		CanonicalURL: h.canonical,
		Features:     Features,
		SessionKey:   key,
		Transcript:   transcript,
		Version:      view.Version,
		ScrollTo:     view.ScrollTarget,
		Typing:       view.Typing,
		Paths:        h.paths,
	}

	var buf bytes.Buffer
	if err := h.page.ExecuteTemplate(&buf, "index", data); err != nil {
		h.logger.Error("site: render index", "session_key", key, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
