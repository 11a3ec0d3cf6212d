package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript_AppendKeepsOrder(t *testing.T) {
	now := time.Now()
	tr := NewTranscript(newMessage(SenderAssistant, "hello", now))
	tr.Append(newMessage(SenderUser, "one", now))
	tr.Append(newMessage(SenderAssistant, "two", now))
	tr.Append(newMessage(SenderUser, "one", now))

	msgs := tr.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, []string{"hello", "one", "two", "one"}, []string{msgs[0].Content, msgs[1].Content, msgs[2].Content, msgs[3].Content})
	assert.Equal(t, 4, tr.Len())

	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, "one", last.Content)
	assert.Equal(t, SenderUser, last.Sender)
}

func TestTranscript_MessagesReturnsCopy(t *testing.T) {
	tr := NewTranscript(newMessage(SenderAssistant, "hello", time.Now()))
	msgs := tr.Messages()
	msgs[0].Content = "mutated"

	again := tr.Messages()
	assert.Equal(t, "hello", again[0].Content)
}

func TestTranscript_LastOnEmpty(t *testing.T) {
	tr := NewTranscript()
	_, ok := tr.Last()
	assert.False(t, ok)
	assert.Equal(t, 0, tr.Len())
}

func TestMessageIDsFollowCreationOrder(t *testing.T) {
	prev := ""
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := newMessageID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		if prev != "" {
			require.Greater(t, id, prev)
		}
		prev = id
	}
}
