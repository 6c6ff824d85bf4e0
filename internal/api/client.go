// Package api wraps the Gemini SDK behind the Generator interface.
package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	apierrors "github.com/diogo/panjul/internal/errors"
	"github.com/diogo/panjul/internal/models"
)

// GeminiClient talks to the hosted Gemini API using an API key
type GeminiClient struct {
	client       *genai.Client
	model        models.Model
	systemPrompt string
	temperature  float32
	timeout      time.Duration
	clientOpts   []option.ClientOption
	logger       *slog.Logger

	// initErr is returned by every request when the client could not be built,
	// e.g. because no API key is configured.
	initErr error

	// newChat opens a chat primed with history. Replaced in tests.
	newChat func(history []*genai.Content) chatSender

	mu     sync.Mutex
	closed bool
}

// Ensure GeminiClient implements Generator
var _ Generator = (*GeminiClient)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*GeminiClient)

// WithModel sets the model for the client
func WithModel(model models.Model) ClientOption {
	return func(c *GeminiClient) {
		c.model = model
	}
}

// WithSystemInstruction sets the persona prompt sent with every request
func WithSystemInstruction(prompt string) ClientOption {
	return func(c *GeminiClient) {
		c.systemPrompt = prompt
	}
}

// WithTemperature overrides the sampling temperature
func WithTemperature(t float32) ClientOption {
	return func(c *GeminiClient) {
		c.temperature = t
	}
}

// WithTimeout bounds each request. Zero disables the deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *GeminiClient) {
		c.timeout = d
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *GeminiClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClientOptions passes extra options (endpoint, HTTP client) to the SDK
func WithClientOptions(opts ...option.ClientOption) ClientOption {
	return func(c *GeminiClient) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// NewClient creates a GeminiClient. An empty apiKey is not an error: the
// client is returned and every request fails with an *errors.AuthError.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*GeminiClient, error) {
	c := &GeminiClient{
		model:       models.DefaultModel,
		temperature: models.DefaultTemperature,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	if apiKey == "" {
		c.initErr = &apierrors.AuthError{
			Message: "no API key set, export GEMINI_API_KEY",
			Err:     apierrors.ErrNoAPIKey,
		}
		c.logger.Warn("gemini client created without API key")
		return c, nil
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, c.clientOpts...)
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client

	gm := c.generativeModel()
	c.newChat = func(history []*genai.Content) chatSender {
		cs := gm.StartChat()
		cs.History = history
		return genaiChat{cs: cs}
	}

	c.logger.Debug("gemini client ready", "model", c.model.Name)
	return c, nil
}

// generativeModel builds the SDK model with the generation settings
func (c *GeminiClient) generativeModel() *genai.GenerativeModel {
	gm := c.client.GenerativeModel(c.model.Name)
	gm.SetTemperature(c.temperature)
	gm.SetTopP(models.DefaultTopP)
	gm.SetTopK(models.DefaultTopK)
	gm.SetMaxOutputTokens(models.DefaultMaxOutputTokens)
	gm.ResponseMIMEType = models.DefaultResponseMIME

	if c.systemPrompt != "" {
		gm.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(c.systemPrompt)},
		}
	}
	return gm
}

// Model returns the model requests are sent to
func (c *GeminiClient) Model() models.Model {
	return c.model
}

// Close releases the underlying SDK client
func (c *GeminiClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if c.client != nil {
		if err := c.client.Close(); err != nil {
			c.logger.Debug("closing gemini client", "error", err)
		}
	}
}

// IsClosed returns true if Close was called
func (c *GeminiClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// endpoint names the remote method for error messages
func (c *GeminiClient) endpoint(method string) string {
	return fmt.Sprintf("models/%s:%s", c.model.Name, method)
}

// requestContext applies the configured timeout
func (c *GeminiClient) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// usable returns an error when no request can be sent
func (c *GeminiClient) usable() error {
	if c.initErr != nil {
		return c.initErr
	}
	if c.IsClosed() {
		return fmt.Errorf("client is closed")
	}
	return nil
}
