package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/appointment-ai-site/internal/chat"
	"github.com/wolfman30/appointment-ai-site/pkg/logging"
)

type stubAssistant struct {
	reply string
	block chan struct{}
}

func (s *stubAssistant) Reply(ctx context.Context, _, _ string) (string, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.reply, nil
}

func newSession(a chat.Assistant) *chat.Session {
	return chat.NewSession("demo-session", a, chat.WithLogger(logging.New("error")))
}

func TestAlignmentFor(t *testing.T) {
	assert.Equal(t, AlignEnd, AlignmentFor(chat.SenderUser))
	assert.Equal(t, AlignStart, AlignmentFor(chat.SenderAssistant))
}

func TestRenderer_UserContentIsPlainText(t *testing.T) {
	r := MustRenderer()
	b := r.Bubble(chat.Message{ID: "1", Sender: chat.SenderUser, Content: "**not bold** <i>x</i>"})

	assert.Equal(t, AlignEnd, b.Align)
	assert.True(t, b.IsUser())
	assert.NotContains(t, string(b.Body), "<strong>")
	assert.NotContains(t, string(b.Body), "<i>")
	assert.Contains(t, string(b.Body), "**not bold**")
}

func TestRenderer_AssistantContentIsMarkdown(t *testing.T) {
	r := MustRenderer()
	b := r.Bubble(chat.Message{ID: "2", Sender: chat.SenderAssistant, Content: "**bold** and *italic*"})

	assert.Equal(t, AlignStart, b.Align)
	assert.Contains(t, string(b.Body), "<strong>bold</strong>")
	assert.Equal(t, "msg-2", b.DOMID())
}

func TestRenderer_ViewFollowsSession(t *testing.T) {
	r := MustRenderer()
	stub := &stubAssistant{reply: "Hello", block: make(chan struct{})}
	s := newSession(stub)

	v := r.View(s.Snapshot())
	require.Len(t, v.Bubbles, 1)
	assert.False(t, v.Typing)
	assert.Equal(t, v.Bubbles[0].ID, v.ScrollTarget)

	turn, err := s.Begin("Book a cleaning")
	require.NoError(t, err)

	v = r.View(s.Snapshot())
	require.Len(t, v.Bubbles, 2)
	assert.True(t, v.Typing)
	assert.Equal(t, turn.User.ID, v.ScrollTarget)
	assert.Equal(t, uint64(1), v.Version)

	close(stub.block)
	reply := turn.Run(context.Background())

	v = r.View(s.Snapshot())
	require.Len(t, v.Bubbles, 3)
	assert.False(t, v.Typing)
	assert.Equal(t, reply.ID, v.ScrollTarget)
	assert.Equal(t, uint64(2), v.Version)
}

func TestRenderer_TranscriptFragment(t *testing.T) {
	r := MustRenderer()
	stub := &stubAssistant{block: make(chan struct{})}
	s := newSession(stub)

	_, err := s.Begin("<script>alert(1)</script>")
	require.NoError(t, err)

	html, err := r.Transcript(r.View(s.Snapshot()))
	require.NoError(t, err)
	out := string(html)

	assert.Equal(t, 2, strings.Count(out, `class="bubble-row bubble-`)-strings.Count(out, "typing-indicator"))
	assert.Contains(t, out, "typing-indicator")
	assert.Contains(t, out, `data-sender="user"`)
	assert.Contains(t, out, "bubble-end")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")

	last, _ := s.Snapshot().Last()
	assert.Contains(t, out, `id="msg-`+last.ID+`"`)
	close(stub.block)
}

func TestRenderer_TranscriptWithoutTyping(t *testing.T) {
	r := MustRenderer()
	s := newSession(&stubAssistant{reply: "*Sure*"})
	_, err := s.Submit(context.Background(), "hi")
	require.NoError(t, err)

	html, err := r.Transcript(r.View(s.Snapshot()))
	require.NoError(t, err)
	assert.NotContains(t, string(html), "typing-indicator")
	assert.Contains(t, string(html), "<em>Sure</em>")
}

func TestView_JSONShape(t *testing.T) {
	r := MustRenderer()
	s := newSession(&stubAssistant{})

	raw, err := json.Marshal(r.View(s.Snapshot()))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "demo-session", decoded["session_id"])
	assert.Equal(t, false, decoded["typing"])
	assert.NotEmpty(t, decoded["scroll_to"])
	msgs, ok := decoded["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 1)
}
