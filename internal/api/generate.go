package api

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"

	apierrors "github.com/diogo/panjul/internal/errors"
	"github.com/diogo/panjul/internal/models"
)

// chatSender is the part of *genai.ChatSession the client uses
type chatSender interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	SendMessageStream(ctx context.Context, parts ...genai.Part) responseIterator
}

// responseIterator yields streamed responses until iterator.Done
type responseIterator interface {
	Next() (*genai.GenerateContentResponse, error)
}

// genaiChat adapts *genai.ChatSession to chatSender
type genaiChat struct {
	cs *genai.ChatSession
}

func (g genaiChat) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	return g.cs.SendMessage(ctx, parts...)
}

func (g genaiChat) SendMessageStream(ctx context.Context, parts ...genai.Part) responseIterator {
	return g.cs.SendMessageStream(ctx, parts...)
}

// Generate sends prompt with history and returns the reply text
func (c *GeminiClient) Generate(ctx context.Context, history []models.Message, prompt string) (string, error) {
	if err := c.usable(); err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt cannot be empty")
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	endpoint := c.endpoint("generateContent")
	c.logger.Debug("sending request", "endpoint", endpoint, "history", len(history))

	resp, err := c.newChat(toContents(history)).SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		err = apierrors.Classify(err, endpoint)
		c.logger.Debug("request failed", "endpoint", endpoint, "error", err)
		return "", err
	}

	text := extractText(resp)
	if text == "" {
		return "", apierrors.ErrNoContent
	}
	return text, nil
}

// GenerateStream sends prompt with history, reporting text chunks as they arrive
func (c *GeminiClient) GenerateStream(ctx context.Context, history []models.Message, prompt string, onChunk func(string)) (string, error) {
	if err := c.usable(); err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt cannot be empty")
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	endpoint := c.endpoint("streamGenerateContent")
	c.logger.Debug("streaming request", "endpoint", endpoint, "history", len(history))

	iter := c.newChat(toContents(history)).SendMessageStream(ctx, genai.Text(prompt))

	var sb strings.Builder
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			err = apierrors.Classify(err, endpoint)
			c.logger.Debug("stream failed", "endpoint", endpoint, "received", sb.Len(), "error", err)
			return "", err
		}

		chunk := extractText(resp)
		if chunk == "" {
			continue
		}
		sb.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}

	if sb.Len() == 0 {
		return "", apierrors.ErrNoContent
	}
	return sb.String(), nil
}

// toContents converts conversation messages into SDK history
func toContents(history []models.Message) []*genai.Content {
	if len(history) == 0 {
		return nil
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		contents = append(contents, &genai.Content{
			Role:  string(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Text)},
		})
	}
	return contents
}

// extractText joins the text parts of every candidate in resp
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}
