package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/diogo/panjul/internal/api"
	"github.com/diogo/panjul/internal/chat"
	"github.com/diogo/panjul/internal/config"
	"github.com/diogo/panjul/internal/models"
	"github.com/diogo/panjul/internal/server"
	"github.com/diogo/panjul/internal/tui"
)

// GeneratorRequest describes the model client a command needs
type GeneratorRequest struct {
	APIKey  string
	Persona *config.Persona
	Model   models.Model
	Timeout time.Duration
	Logger  *slog.Logger
}

// GeneratorFactory creates a generator and the function releasing it
type GeneratorFactory func(ctx context.Context, req GeneratorRequest) (api.Generator, func(), error)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(session *chat.Session, opts tui.Options) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewGenerator creates the Gemini client for a persona.
	NewGenerator GeneratorFactory

	// TUI is the terminal user interface.
	TUI TUIInterface

	// Serve runs the browser chat server until ctx is done.
	Serve func(ctx context.Context, srv *server.Server, addr string) error

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(session *chat.Session, opts tui.Options) error {
	return tui.RunChat(session, opts)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewGenerator: newGeminiGenerator,
		TUI:          &DefaultTUI{},
		Serve: func(ctx context.Context, srv *server.Server, addr string) error {
			return srv.ListenAndServe(ctx, addr)
		},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// newGeminiGenerator is the production GeneratorFactory
func newGeminiGenerator(ctx context.Context, req GeneratorRequest) (api.Generator, func(), error) {
	opts := []api.ClientOption{
		api.WithModel(req.Model),
		api.WithTimeout(req.Timeout),
		api.WithLogger(req.Logger),
	}
	if req.Persona != nil {
		opts = append(opts, api.WithSystemInstruction(req.Persona.SystemPrompt))
		if req.Persona.Temperature > 0 {
			opts = append(opts, api.WithTemperature(float32(req.Persona.Temperature)))
		}
	}

	client, err := api.NewClient(ctx, req.APIKey, opts...)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}
