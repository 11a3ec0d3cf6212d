package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/appointment-ai-site/internal/observability/metrics"
	"github.com/wolfman30/appointment-ai-site/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a single call to the assistant.
const DefaultTimeout = 30 * time.Second

var (
	// ErrEmptyInput is returned for blank submissions. Callers treat it as a
	// silent no-op.
	ErrEmptyInput = errors.New("chat: empty input")
	// ErrBusy is returned while a submission is still in flight.
	ErrBusy = errors.New("chat: request already in flight")
)

var chatTracer = otel.Tracer("appointment.internal.chat")

// State is the pipeline state of a session.
type State int

const (
	StateIdle State = iota
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Outcome classifies how a turn resolved.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeDegraded Outcome = "degraded"
	OutcomeFailure  Outcome = "failure"
)

// Snapshot is a consistent copy of session state for rendering.
type Snapshot struct {
	SessionID string
	Messages  []Message
	Pending   bool

	// Version increases by one on every append.
	Version uint64
}

// Last returns the newest message of the snapshot.
func (s Snapshot) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Turn is an accepted submission waiting for its single resolution.
type Turn struct {
	// User is the message appended when the turn was accepted.
	User Message

	session  *Session
	resolved bool
	result   Message
	outcome  Outcome
}

// Run calls the assistant and resolves the turn. It always appends exactly
// one message, whatever happens to the call. A turn that is already resolved
// returns its result without calling the assistant again.
func (t *Turn) Run(ctx context.Context) Message {
	t.session.mu.Lock()
	resolved, result := t.resolved, t.result
	t.session.mu.Unlock()
	if resolved {
		return result
	}

	reply, err := t.session.call(ctx, t.User.Content)
	return t.session.Resolve(t, reply, err)
}

// Session owns one conversation: its transcript, the in-flight turn and the
// stable identifier sent to the assistant. All transcript writes go through
// Begin and Resolve.
type Session struct {
	id        string
	assistant Assistant
	logger    *logging.Logger
	metrics   *metrics.ChatMetrics
	tracer    trace.Tracer
	timeout   time.Duration
	now       func() time.Time

	mu         sync.Mutex
	transcript *Transcript
	pending    *Turn
	version    uint64
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	logger   *logging.Logger
	metrics  *metrics.ChatMetrics
	tracer   trace.Tracer
	timeout  time.Duration
	now      func() time.Time
	greeting string
}

// WithLogger sets the session logger.
func WithLogger(logger *logging.Logger) SessionOption {
	return func(c *sessionConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records pipeline outcomes.
func WithMetrics(m *metrics.ChatMetrics) SessionOption {
	return func(c *sessionConfig) {
		c.metrics = m
	}
}

// WithTracer overrides the package tracer.
func WithTracer(tracer trace.Tracer) SessionOption {
	return func(c *sessionConfig) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithTimeout bounds each assistant call. Non-positive values keep the default.
func WithTimeout(d time.Duration) SessionOption {
	return func(c *sessionConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock overrides time.Now for message timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(c *sessionConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithGreeting replaces the seeded greeting. Blank values are ignored.
func WithGreeting(text string) SessionOption {
	return func(c *sessionConfig) {
		if strings.TrimSpace(text) != "" {
			c.greeting = text
		}
	}
}

// NewSession creates a session seeded with the assistant greeting. An empty
// id is replaced by a random one.
func NewSession(id string, assistant Assistant, opts ...SessionOption) *Session {
	cfg := sessionConfig{
		logger:   logging.Default(),
		tracer:   chatTracer,
		timeout:  DefaultTimeout,
		now:      time.Now,
		greeting: DefaultGreeting,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	return &Session{
		id:         id,
		assistant:  assistant,
		logger:     cfg.logger.With("session_id", id),
		metrics:    cfg.metrics,
		tracer:     cfg.tracer,
		timeout:    cfg.timeout,
		now:        cfg.now,
		transcript: NewTranscript(newMessage(SenderAssistant, cfg.greeting, cfg.now())),
	}
}

// ID returns the identifier sent to the assistant with every turn.
func (s *Session) ID() string {
	return s.id
}

// State reports whether a turn is in flight.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return StateSubmitting
	}
	return StateIdle
}

// Pending reports whether a turn is in flight.
func (s *Session) Pending() bool {
	return s.State() == StateSubmitting
}

// Len returns the transcript length.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Len()
}

// Snapshot copies the transcript and pending flag.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SessionID: s.id,
		Messages:  s.transcript.Messages(),
		Pending:   s.pending != nil,
		Version:   s.version,
	}
}

// Begin accepts a submission: it appends the user message and marks the
// session in flight. Blank text yields ErrEmptyInput and a second submission
// before the first resolves yields ErrBusy; neither touches the transcript.
func (s *Session) Begin(text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		s.metrics.ObserveRejection("empty")
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.metrics.ObserveRejection("busy")
		s.logger.Debug("chat: submission rejected while in flight")
		return nil, ErrBusy
	}

	msg := newMessage(SenderUser, text, s.now())
	s.transcript.Append(msg)
	s.version++

	turn := &Turn{session: s, User: msg}
	s.pending = turn
	return turn, nil
}

// Resolve ends a turn with the assistant reply or the call error and appends
// the single resulting assistant message. Resolving the same turn again
// returns the first result without appending.
func (s *Session) Resolve(turn *Turn, reply string, callErr error) Message {
	if turn == nil || turn.session != s {
		return Message{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.resolved {
		return turn.result
	}

	content, outcome := resolution(reply, callErr)
	switch outcome {
	case OutcomeFailure:
		s.logger.Error("chat: assistant call failed", "error", callErr, "message_id", turn.User.ID)
	case OutcomeDegraded:
		s.logger.Warn("chat: assistant reply had no message", "message_id", turn.User.ID)
	}

	msg := newMessage(SenderAssistant, content, s.now())
	s.transcript.Append(msg)
	s.version++

	turn.resolved = true
	turn.result = msg
	turn.outcome = outcome
	if s.pending == turn {
		s.pending = nil
	}
	s.metrics.ObserveOutcome(string(outcome))
	return msg
}

// Submit runs Begin and the assistant call in one blocking step.
func (s *Session) Submit(ctx context.Context, text string) (Message, error) {
	turn, err := s.Begin(text)
	if err != nil {
		return Message{}, err
	}
	return turn.Run(ctx), nil
}

// Outcome reports how a resolved turn ended.
func (t *Turn) Outcome() (Outcome, bool) {
	t.session.mu.Lock()
	defer t.session.mu.Unlock()
	return t.outcome, t.resolved
}

func resolution(reply string, callErr error) (string, Outcome) {
	if callErr != nil {
		return FailureText, OutcomeFailure
	}
	if reply == "" {
		return NoResponseText, OutcomeDegraded
	}
	return reply, OutcomeSuccess
}

// call runs one assistant request outside the session lock.
func (s *Session) call(ctx context.Context, text string) (string, error) {
	if s.assistant == nil {
		return "", errors.New("chat: no assistant configured")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ctx, span := s.tracer.Start(ctx, "chat.assistant_reply")
	defer span.End()
	span.SetAttributes(
		attribute.String("chat.session_id", s.id),
		attribute.Int("chat.message_length", len(text)),
	)

	start := time.Now()
	reply, err := s.assistant.Reply(ctx, s.id, text)
	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = "timeout"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
	}
	s.metrics.ObserveLatency(status, time.Since(start).Seconds())
	return reply, err
}
