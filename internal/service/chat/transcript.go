package chat

import (
	"strings"
	"sync"

	"github.com/zhouzirui/lumi/backend/internal/model/chat"
)

// Transcript is the append-only, ordered message list of one session.
type Transcript struct {
	mu       sync.RWMutex
	messages []chat.Message
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{messages: make([]chat.Message, 0, 16)}
}

// Append adds msg to the end. It only checks that the role is known and the
// content is not blank.
func (t *Transcript) Append(msg chat.Message) error {
	if !msg.Role.Valid() {
		return ErrInvalidRole
	}
	if strings.TrimSpace(msg.Content) == "" {
		return ErrEmptyMessage
	}

	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
	return nil
}

// List returns a copy of every message in arrival order.
func (t *Transcript) List() []chat.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	copied := make([]chat.Message, len(t.messages))
	copy(copied, t.messages)
	return copied
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}
