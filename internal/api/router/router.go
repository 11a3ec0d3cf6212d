package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpmiddleware "github.com/wolfman30/appointment-ai-site/internal/http/middleware"
	"github.com/wolfman30/appointment-ai-site/internal/site"
	"github.com/wolfman30/appointment-ai-site/internal/webchat"
	"github.com/wolfman30/appointment-ai-site/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Site               *site.Handler
	Webchat            *webchat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// SessionLimiter throttles landing page loads per client, since every
	// load creates a demo session (optional)
	SessionLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Demo chat transport (WebSocket + HTTP fallback). Not compressed: the
	// socket needs the raw connection.
	if cfg.Webchat != nil {
		r.Mount("/demo", cfg.Webchat.Routes())
	}

	// Marketing pages and static assets
	if cfg.Site != nil {
		r.Group(func(pages chi.Router) {
			pages.Use(middleware.Compress(5))
			pages.Mount("/", cfg.Site.Routes(httpmiddleware.RateLimit(cfg.SessionLimiter)))
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
