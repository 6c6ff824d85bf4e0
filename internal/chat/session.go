// Package chat implements the submit contract shared by every chat view.
package chat

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diogo/panjul/internal/api"
	apierrors "github.com/diogo/panjul/internal/errors"
	"github.com/diogo/panjul/internal/models"
)

// Session owns one conversation and the generator that answers it.
//
// Submit never fails from the caller's point of view: every accepted input
// grows the conversation by exactly two messages, the user turn followed by
// either the model reply or the fallback text.
type Session struct {
	id       string
	conv     *models.Conversation
	gen      api.Generator
	fallback string
	logger   *slog.Logger
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithLogger sets the logger used to record failed requests
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConversation starts the session from an existing conversation
func WithConversation(conv *models.Conversation) SessionOption {
	return func(s *Session) {
		if conv != nil {
			s.conv = conv
		}
	}
}

// NewSession creates a session answering with gen and falling back to fallback
func NewSession(gen api.Generator, fallback string, opts ...SessionOption) *Session {
	s := &Session{
		id:       uuid.NewString(),
		conv:     models.NewConversation(),
		gen:      gen,
		fallback: fallback,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id)
	return s
}

// ID returns the session identifier used in logs and export file names
func (s *Session) ID() string {
	return s.id
}

// Fallback returns the text appended when a request fails
func (s *Session) Fallback() string {
	return s.fallback
}

// Conversation returns the underlying conversation
func (s *Session) Conversation() *models.Conversation {
	return s.conv
}

// Messages returns a copy of the conversation so far
func (s *Session) Messages() []models.Message {
	return s.conv.Messages()
}

// Reset clears the conversation
func (s *Session) Reset() {
	s.conv.Reset()
	s.logger.Debug("conversation cleared")
}

// Submit sends text to the model and appends the exchange.
// Blank input is ignored and reported with false.
func (s *Session) Submit(ctx context.Context, text string) bool {
	return s.submit(ctx, text, func(ctx context.Context, history []models.Message) (string, error) {
		return s.gen.Generate(ctx, history, text)
	})
}

// SubmitStream is Submit with onChunk called for each piece of the reply as
// it arrives. A failure after some chunks still appends the fallback.
func (s *Session) SubmitStream(ctx context.Context, text string, onChunk func(string)) bool {
	return s.submit(ctx, text, func(ctx context.Context, history []models.Message) (string, error) {
		return s.gen.GenerateStream(ctx, history, text, onChunk)
	})
}

type generateFunc func(ctx context.Context, history []models.Message) (string, error)

func (s *Session) submit(ctx context.Context, text string, generate generateFunc) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	// Snapshot before appending so the new text is sent once, as the prompt.
	history := s.conv.History()

	if err := s.conv.Append(models.UserMessage(text)); err != nil {
		s.logger.Error("append user message", "error", err)
		return false
	}

	start := time.Now()
	reply, err := generate(ctx, history)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = apierrors.ErrNoContent
	}

	if err != nil {
		s.logger.Error("model request failed",
			"error", err,
			"history", len(history),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
		_ = s.conv.Append(models.FallbackMessage(s.fallback))
		return true
	}

	s.logger.Debug("model replied",
		"chars", len(reply),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	_ = s.conv.Append(models.ModelMessage(reply))
	return true
}
