package commands

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/diogo/panjul/internal/chat"
	"github.com/diogo/panjul/internal/config"
	"github.com/diogo/panjul/internal/render"
	"github.com/diogo/panjul/internal/tui"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

The conversation is kept in memory for as long as the session runs.
Commands: /clear, /save [md|json], /persona, /help.
Type 'exit', 'quit', press Esc or Ctrl+C to end the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), deps)
		},
	}
}

func runChat(ctx context.Context, deps *Dependencies) error {
	rt, err := loadRuntime(deps.Stderr, nil)
	if err != nil {
		return err
	}

	// stderr belongs to the TUI, so diagnostics go to the log file.
	if verboseFlag || rt.cfg.Verbose {
		f, path, err := openLogFile()
		if err != nil {
			fmt.Fprintf(deps.Stderr, "Warning: %v\n", err)
		} else {
			defer f.Close()
			rt.logger = newLogger(f, true)
			fmt.Fprintf(deps.Stderr, "Logging to %s\n", path)
		}
	}

	if rt.cfg.APIKey == "" {
		fmt.Fprintf(deps.Stderr, "Warning: %s is not set, replies will fall back\n", config.EnvAPIKey)
	}

	if rt.cfg.TUITheme != "" && !tui.ApplyTheme(rt.cfg.TUITheme) {
		fmt.Fprintf(deps.Stderr, "Warning: unknown tui_theme %q\n", rt.cfg.TUITheme)
	}

	sessions := &sessionFactory{ctx: ctx, deps: deps, rt: rt}
	defer sessions.close()

	session, err := sessions.open(rt.persona)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	exportDir, err := config.GetExportDir(rt.cfg)
	if err != nil {
		rt.logger.Warn("export directory unavailable", "error", err)
		exportDir = "."
	}

	rt.logger.Info("chat started", "session", session.ID(), "persona", rt.persona.Name)

	return deps.TUI.RunChat(session, tui.Options{
		Persona:    rt.persona,
		ModelName:  rt.modelFor(rt.persona).Name,
		Stream:     rt.cfg.Stream,
		ExportDir:  exportDir,
		Render:     render.OptionsFromConfig(rt.cfg.Markdown),
		Logger:     rt.logger,
		NewSession: sessions.open,
		Personas:   tui.NewPersonaStore(),
	})
}

// sessionFactory opens chat sessions and releases the client of the
// previous one when the persona changes.
type sessionFactory struct {
	ctx  context.Context
	deps *Dependencies
	rt   *runtime

	mu      sync.Mutex
	release func()
}

func (f *sessionFactory) open(p *config.Persona) (*chat.Session, error) {
	gen, release, err := f.deps.NewGenerator(f.ctx, f.rt.generatorRequest(p))
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	prev := f.release
	f.release = release
	f.mu.Unlock()
	if prev != nil {
		prev()
	}

	return chat.NewSession(gen, p.FallbackText(), chat.WithLogger(f.rt.logger)), nil
}

func (f *sessionFactory) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.release != nil {
		f.release()
		f.release = nil
	}
}

// openLogFile opens the diagnostic log for appending
func openLogFile() (*os.File, string, error) {
	if _, err := config.EnsureConfigDir(); err != nil {
		return nil, "", err
	}
	path, err := config.GetLogPath()
	if err != nil {
		return nil, "", err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file: %w", err)
	}
	return f, path, nil
}
