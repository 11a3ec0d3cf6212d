// Package chat implements the demo conversation: an append-only transcript,
// a single-flight request pipeline to the remote assistant, and the client
// for the assistant endpoint.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a transcript entry.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

const (
	// DefaultGreeting seeds every new session.
	DefaultGreeting = "Hi! I'm your AI appointment assistant. I can help you schedule meetings, check availability, and manage your calendar. What would you like to do today?"
	// NoResponseText replaces a successful reply that carried no message.
	NoResponseText = "No response from assistant."
	// FailureText is appended when the assistant could not be reached.
	FailureText = "Sorry, something went wrong while contacting the server."
)

// Message is one entry in the transcript. Position in the transcript, not
// Timestamp, defines ordering.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// IsUser reports whether the message was typed by the visitor.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

func newMessage(sender Sender, content string, now time.Time) Message {
	return Message{
		ID:        newMessageID(),
		Content:   content,
		Sender:    sender,
		Timestamp: now,
	}
}

// newMessageID returns a time-ordered identifier so ids sort by creation.
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
