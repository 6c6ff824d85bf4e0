package models

import (
	"fmt"
	"sync"
	"time"
)

// Role identifies the speaker of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ParseRole converts a wire role into a Role.
// Only "user" and "model" are accepted.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleModel:
		return Role(s), nil
	default:
		return "", fmt.Errorf("invalid role %q: must be %q or %q", s, RoleUser, RoleModel)
	}
}

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// Message represents one turn in the conversation
type Message struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`

	// Fallback is set when Text is the fixed fallback reply instead of model output.
	Fallback bool `json:"fallback,omitempty"`
}

// UserMessage creates a user turn
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text, Time: time.Now()}
}

// ModelMessage creates a model turn
func ModelMessage(text string) Message {
	return Message{Role: RoleModel, Text: text, Time: time.Now()}
}

// FallbackMessage creates a model turn carrying the fallback text
func FallbackMessage(text string) Message {
	m := ModelMessage(text)
	m.Fallback = true
	return m
}

// Conversation is an ordered, append-only list of messages.
// It is safe for concurrent use.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message
}

// NewConversation creates an empty conversation
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message to the end of the conversation.
func (c *Conversation) Append(msg Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("cannot append message: invalid role %q", msg.Role)
	}
	if msg.Time.IsZero() {
		msg.Time = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return nil
}

// Messages returns a copy of all messages in order
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the most recent message, if any
func (c *Conversation) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Reset drops every message. Used by the /clear command.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// History returns the turns that should be replayed to the model.
// A user turn answered by a fallback is dropped together with the fallback,
// so the result alternates user/model and never contains fallback text.
func (c *Conversation) History() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ReplayableHistory(c.messages)
}

// ReplayableHistory filters msgs the same way as Conversation.History.
func ReplayableHistory(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for i := 0; i < len(msgs); i++ {
		msg := msgs[i]
		if msg.Fallback {
			continue
		}
		if msg.Role == RoleUser && i+1 < len(msgs) && msgs[i+1].Fallback {
			i++
			continue
		}
		out = append(out, msg)
	}
	return out
}
