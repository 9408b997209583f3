package ipc

import (
	"sync"
)

// mailbox stores recent messages for one window and provides incremental reads.
type mailbox struct {
	mu          sync.RWMutex
	maxMessages int
	messages    []Message
}

// newMailbox creates a bounded in-memory message buffer.
func newMailbox(maxMessages int) *mailbox {
	if maxMessages <= 0 {
		maxMessages = 200
	}

	return &mailbox{
		maxMessages: maxMessages,
		messages:    make([]Message, 0, maxMessages),
	}
}

// append stores one already-sequenced message and trims history past the cap.
func (m *mailbox) append(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, msg)
	if len(m.messages) > m.maxMessages {
		trim := len(m.messages) - m.maxMessages
		m.messages = append([]Message(nil), m.messages[trim:]...)
	}
}

// since returns messages with sequence strictly greater than seq.
func (m *mailbox) since(seq int64) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Message, 0, len(m.messages))
	for _, msg := range m.messages {
		if msg.Seq > seq {
			out = append(out, msg)
		}
	}
	return out
}
