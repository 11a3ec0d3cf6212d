package chat

// Transcript is the ordered, append-only log of a session. It has no locking
// of its own; Session serializes every access.
type Transcript struct {
	messages []Message
}

// NewTranscript creates a transcript holding the given seed messages.
func NewTranscript(seed ...Message) *Transcript {
	t := &Transcript{messages: make([]Message, 0, len(seed)+8)}
	t.messages = append(t.messages, seed...)
	return t
}

// Append adds msg to the end of the transcript.
func (t *Transcript) Append(msg Message) {
	t.messages = append(t.messages, msg)
}

// Messages returns a copy of the full ordered sequence.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Last returns the newest entry.
func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}
