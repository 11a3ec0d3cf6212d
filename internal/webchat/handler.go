package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/appointment-ai-site/internal/chat"
	httpmiddleware "github.com/wolfman30/appointment-ai-site/internal/http/middleware"
	"github.com/wolfman30/appointment-ai-site/internal/observability/metrics"
	"github.com/wolfman30/appointment-ai-site/internal/render"
	"github.com/wolfman30/appointment-ai-site/pkg/logging"
	"golang.org/x/net/websocket"
)

const (
	expiredText     = "This demo session has expired. Reload the page to start a new conversation."
	rateLimitedText = "You're sending messages a little too quickly. Please wait a moment and try again."
)

// Limiter decides whether a client may submit another message.
type Limiter interface {
	Allow(key string) bool
}

// Handler serves the demo chat widget: a WebSocket for live updates and an
// HTTP fallback for clients without one.
type Handler struct {
	registry *Registry
	renderer *render.Renderer
	logger   *logging.Logger
	metrics  *metrics.WebchatMetrics
	limiter  Limiter
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(logger *logging.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics reports connection counts.
func WithMetrics(m *metrics.WebchatMetrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithLimiter throttles submissions per client IP.
func WithLimiter(l Limiter) HandlerOption {
	return func(h *Handler) {
		h.limiter = l
	}
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string `json:"type"` // "transcript", "busy", "error", "pong"
	SessionID string `json:"session_id,omitempty"`
	HTML      string `json:"html,omitempty"`
	Typing    bool   `json:"typing"`
	ScrollTo  string `json:"scroll_to,omitempty"`
	Version   uint64 `json:"version"`
	Text      string `json:"text,omitempty"`
}

// ViewResponse is the JSON body of the HTTP endpoints.
type ViewResponse struct {
	render.View
	HTML string `json:"html"`
}

// NewHandler creates a web chat handler.
func NewHandler(registry *Registry, renderer *render.Renderer, opts ...HandlerOption) *Handler {
	h := &Handler{
		registry: registry,
		renderer: renderer,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the demo endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/ws", h.HandleWebSocket)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.HandleTranscript)
		r.Post("/messages", h.HandleMessage)
	})
	return r
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	key := r.URL.Query().Get("session")
	sess, err := h.registry.Get(key)
	if err != nil {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: expiredText})
		return
	}

	h.metrics.ConnectionOpened()
	defer h.metrics.ConnectionClosed()

	// Closing the socket cancels any turn still waiting on the assistant;
	// the turn then resolves with the failure text.
	ctx, cancel := context.WithCancel(r.Context())
	var inflight sync.WaitGroup
	defer func() {
		cancel()
		inflight.Wait()
	}()

	clientIP := httpmiddleware.ClientIP(r)
	h.logger.Info("webchat: connection opened", "session_key", key, "session_id", sess.ID())

	_ = websocket.JSON.Send(conn, h.transcriptFrame(key, sess))

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_key", key, "error", err)
			return
		}
		h.registry.Touch(key)

		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
		case "message":
			turn, frame := h.begin(sess, key, clientIP, msg.Text)
			if frame != nil {
				_ = websocket.JSON.Send(conn, *frame)
			}
			if turn == nil {
				continue
			}
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				turn.Run(ctx)
				h.registry.Touch(key)
				_ = websocket.JSON.Send(conn, h.transcriptFrame(key, sess))
			}()
		}
	}
}

// begin accepts a submission for the socket loop. It returns the turn to run,
// if any, and the frame to send back right away.
func (h *Handler) begin(sess *chat.Session, key, clientIP, text string) (*chat.Turn, *OutboundMessage) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if sess.Pending() {
		return nil, &OutboundMessage{Type: "busy"}
	}
	if !h.allow(clientIP) {
		return nil, &OutboundMessage{Type: "error", Text: rateLimitedText}
	}

	turn, err := sess.Begin(text)
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		return nil, nil
	case errors.Is(err, chat.ErrBusy):
		return nil, &OutboundMessage{Type: "busy"}
	case err != nil:
		h.logger.Error("webchat: begin failed", "session_key", key, "error", err)
		return nil, nil
	}

	frame := h.transcriptFrame(key, sess)
	return turn, &frame
}

func (h *Handler) allow(clientIP string) bool {
	if h.limiter == nil || h.limiter.Allow(clientIP) {
		return true
	}
	h.metrics.ObserveRateLimited()
	return false
}

func (h *Handler) transcriptFrame(key string, sess *chat.Session) OutboundMessage {
	view := h.renderer.View(sess.Snapshot())
	html, err := h.renderer.Transcript(view)
	if err != nil {
		h.logger.Error("webchat: render transcript", "session_key", key, "error", err)
	}
	return OutboundMessage{
		Type:      "transcript",
		SessionID: key,
		HTML:      string(html),
		Typing:    view.Typing,
		ScrollTo:  view.ScrollTarget,
		Version:   view.Version,
	}
}

func (h *Handler) viewResponse(key string, sess *chat.Session) ViewResponse {
	view := h.renderer.View(sess.Snapshot())
	view.SessionID = key
	html, err := h.renderer.Transcript(view)
	if err != nil {
		h.logger.Error("webchat: render transcript", "session_key", key, "error", err)
	}
	return ViewResponse{View: view, HTML: string(html)}
}

// HandleMessage is the HTTP fallback for sending messages. It blocks until
// the turn resolves.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "sessionID")
	sess, err := h.registry.Get(key)
	if err != nil {
		respondError(w, http.StatusNotFound, expiredText)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if sess.Pending() {
		respondError(w, http.StatusConflict, "a reply is still on its way")
		return
	}
	if !h.allow(httpmiddleware.ClientIP(r)) {
		respondError(w, http.StatusTooManyRequests, rateLimitedText)
		return
	}

	_, err = sess.Submit(r.Context(), req.Text)
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, chat.ErrBusy):
		respondError(w, http.StatusConflict, "a reply is still on its way")
		return
	case err != nil:
		h.logger.Error("webchat: submit failed", "session_key", key, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to submit message")
		return
	}

	h.registry.Touch(key)
	respondJSON(w, http.StatusOK, h.viewResponse(key, sess))
}

// HandleTranscript returns the current transcript of a session.
func (h *Handler) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "sessionID")
	sess, err := h.registry.Get(key)
	if err != nil {
		respondError(w, http.StatusNotFound, expiredText)
		return
	}
	respondJSON(w, http.StatusOK, h.viewResponse(key, sess))
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
