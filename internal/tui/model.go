// Package tui is a terminal rendition of the demo chat widget.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/wolfman30/appointment-ai-site/internal/chat"
	"github.com/wolfman30/appointment-ai-site/internal/render"
	"github.com/wolfman30/appointment-ai-site/pkg/logging"
)

// DefaultGlamourStyle is used when no style is configured.
const DefaultGlamourStyle = "dark"

const busyNotice = "The assistant is still replying. Please wait."

// Model drives one chat session in the terminal.
type Model struct {
	ctx     context.Context
	session *chat.Session
	logger  *logging.Logger
	style   string

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	markdown *glamour.TermRenderer

	width   int
	height  int
	version uint64
	notice  string
}

type turnResolvedMsg struct {
	message chat.Message
}

// Option configures a Model.
type Option func(*Model)

// WithContext bounds in-flight assistant calls; cancelling it resolves them
// as failures.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// WithGlamourStyle selects the glamour style for assistant replies.
func WithGlamourStyle(style string) Option {
	return func(m *Model) {
		if style != "" {
			m.style = style
		}
	}
}

// WithLogger sets the model logger. It must not write to the terminal.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New builds a model around sess.
func New(sess *chat.Session, opts ...Option) Model {
	vp := viewport.New(80, 20)

	ti := textinput.New()
	ti.Placeholder = "Type your message..."
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points

	h := help.New()
	h.ShowAll = false

	m := Model{
		ctx:      context.Background(),
		session:  sess,
		logger:   logging.Default(),
		style:    DefaultGlamourStyle,
		viewport: vp,
		input:    ti,
		spinner:  sp,
		help:     h,
		keys:     defaultKeys(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.markdown = m.newMarkdown(vp.Width)
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.refresh()

	case turnResolvedMsg:
		m.notice = ""
		m.refresh()

	case spinner.TickMsg:
		if !m.session.Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Send):
			return m.submit()
		case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	turn, err := m.session.Begin(m.input.Value())
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		return m, nil
	case errors.Is(err, chat.ErrBusy):
		m.notice = busyNotice
		return m, nil
	case err != nil:
		m.logger.Error("tui: begin failed", "error", err)
		return m, nil
	}

	m.notice = ""
	m.input.Reset()
	m.refresh()
	return m, tea.Batch(m.runTurn(turn), m.spinner.Tick)
}

func (m Model) runTurn(turn *chat.Turn) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return turnResolvedMsg{message: turn.Run(ctx)}
	}
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	// title, status, input and help lines
	bodyHeight := m.height - 4
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = bodyHeight
	m.input.Width = m.width - lipgloss.Width(m.input.Prompt) - 1
	m.markdown = m.newMarkdown(m.bubbleWidth())
}

func (m Model) bubbleWidth() int {
	w := m.viewport.Width * 3 / 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) newMarkdown(wrap int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.logger.Warn("tui: markdown renderer unavailable", "style", m.style, "error", err)
		return nil
	}
	return r
}

// refresh re-renders the transcript and follows the newest message when
// something was appended since the last refresh.
func (m *Model) refresh() {
	snap := m.session.Snapshot()
	m.viewport.SetContent(m.renderTranscript(snap))
	if snap.Version != m.version {
		m.version = snap.Version
		m.viewport.GotoBottom()
	}
}

func (m Model) renderTranscript(snap chat.Snapshot) string {
	blocks := make([]string, 0, len(snap.Messages))
	for _, msg := range snap.Messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg chat.Message) string {
	// Replies come from a remote endpoint; never pass its control
	// sequences through to the terminal.
	content := ansi.Strip(msg.Content)

	var label, bubble string
	if msg.IsUser() {
		label = userLabelStyle.Render("You")
		style := userBubbleStyle
		if lipgloss.Width(content) > m.bubbleWidth() {
			style = style.Width(m.bubbleWidth())
		}
		bubble = style.Render(content)
	} else {
		label = assistantLabelStyle.Render("Assistant")
		bubble = assistantBubbleStyle.Render(m.renderMarkdown(content))
	}

	block := lipgloss.JoinVertical(lipgloss.Left, label, bubble)
	if render.AlignmentFor(msg.Sender) == render.AlignEnd {
		return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, block)
	}
	return block
}

func (m Model) renderMarkdown(md string) string {
	if m.markdown == nil {
		return md
	}
	out, err := m.markdown.Render(md)
	if err != nil {
		m.logger.Warn("tui: render markdown", "error", err)
		return md
	}
	return strings.Trim(out, "\n")
}

func (m Model) View() string {
	title := titleStyle.Render("AI Appointment Assistant")

	status := statusStyle.Render("session " + m.session.ID())
	if m.session.Pending() {
		status = m.spinner.View() + " " + statusStyle.Render("assistant is typing...")
	}
	if m.notice != "" {
		status = noticeStyle.Render(m.notice)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.viewport.View(),
		status,
		m.input.View(),
		m.help.View(m.keys),
	)
}
