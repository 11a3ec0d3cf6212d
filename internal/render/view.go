package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/wolfman30/appointment-ai-site/internal/chat"
)

//go:embed templates/*.html
var templateFS embed.FS

// Alignment places a bubble on the transcript's start or end edge.
type Alignment string

const (
	AlignStart Alignment = "start"
	AlignEnd   Alignment = "end"
)

// AlignmentFor depends only on who sent the message.
func AlignmentFor(sender chat.Sender) Alignment {
	if sender == chat.SenderUser {
		return AlignEnd
	}
	return AlignStart
}

// Bubble is one rendered transcript entry.
type Bubble struct {
	ID        string        `json:"id"`
	Sender    chat.Sender   `json:"sender"`
	Align     Alignment     `json:"align"`
	Body      template.HTML `json:"html"`
	Timestamp time.Time     `json:"timestamp"`
}

// DOMID is the element id the bubble is rendered under.
func (b Bubble) DOMID() string {
	return DOMID(b.ID)
}

// IsUser reports whether the bubble holds visitor text.
func (b Bubble) IsUser() bool {
	return b.Sender == chat.SenderUser
}

// DOMID maps a message id to its element id.
func DOMID(messageID string) string {
	return "msg-" + messageID
}

// View is the full presentation state of a session.
type View struct {
	SessionID string   `json:"session_id"`
	Bubbles   []Bubble `json:"messages"`

	// Typing is true while a turn is in flight; the indicator is never part
	// of Bubbles.
	Typing bool `json:"typing"`

	// ScrollTarget is the id of the newest message.
	ScrollTarget string `json:"scroll_to"`
	Version      uint64 `json:"version"`
}

// Renderer builds views and HTML fragments from session snapshots.
type Renderer struct {
	markdown *Markdown
	tmpl     *template.Template
}

// NewRenderer parses the embedded transcript templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Renderer{markdown: NewMarkdown(), tmpl: tmpl}, nil
}

// MustRenderer is NewRenderer for program start-up.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Bubble renders a single message. Assistant content is markdown, user
// content is plain text.
func (r *Renderer) Bubble(msg chat.Message) Bubble {
	body := PlainText(msg.Content)
	if msg.Sender == chat.SenderAssistant {
		body = r.markdown.HTML(msg.Content)
	}
	return Bubble{
		ID:        msg.ID,
		Sender:    msg.Sender,
		Align:     AlignmentFor(msg.Sender),
		Body:      body,
		Timestamp: msg.Timestamp,
	}
}

// View renders every message of the snapshot.
func (r *Renderer) View(snap chat.Snapshot) View {
	v := View{
		SessionID: snap.SessionID,
		Bubbles:   make([]Bubble, 0, len(snap.Messages)),
		Typing:    snap.Pending,
		Version:   snap.Version,
	}
	for _, msg := range snap.Messages {
		v.Bubbles = append(v.Bubbles, r.Bubble(msg))
	}
	if last, ok := snap.Last(); ok {
		v.ScrollTarget = last.ID
	}
	return v
}

// WriteTranscript writes the transcript fragment for v.
func (r *Renderer) WriteTranscript(w io.Writer, v View) error {
	if err := r.tmpl.ExecuteTemplate(w, "transcript", v); err != nil {
		return fmt.Errorf("render: transcript: %w", err)
	}
	return nil
}

// Transcript returns the transcript fragment for v as trusted HTML.
func (r *Renderer) Transcript(v View) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.WriteTranscript(&buf, v); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
