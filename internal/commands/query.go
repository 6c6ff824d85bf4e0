package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/diogo/panjul/internal/api"
	"github.com/diogo/panjul/internal/chat"
	"github.com/diogo/panjul/internal/models"
	"github.com/diogo/panjul/internal/render"
	"github.com/diogo/panjul/internal/tui"
)

// errRequestFailed is returned by --strict when the reply is the fallback
var errRequestFailed = errors.New("model request failed")

// copyToClipboard is swapped in tests
var copyToClipboard = clipboard.WriteAll

// replyStyles draws the reply like a model turn in the chat view
func replyStyles(theme render.TUITheme) (label, bubble lipgloss.Style) {
	label = lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	bubble = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Foreground(theme.Text).
		Padding(0, 1).
		MarginTop(1).
		MarginBottom(1)
	return label, bubble
}

// lastErrorGenerator remembers the error of the last call so the one-shot
// command can explain a fallback reply.
type lastErrorGenerator struct {
	api.Generator

	mu  sync.Mutex
	err error
}

func (g *lastErrorGenerator) Generate(ctx context.Context, history []models.Message, prompt string) (string, error) {
	reply, err := g.Generator.Generate(ctx, history, prompt)
	g.record(err)
	return reply, err
}

func (g *lastErrorGenerator) GenerateStream(ctx context.Context, history []models.Message, prompt string, onChunk func(string)) (string, error) {
	reply, err := g.Generator.GenerateStream(ctx, history, prompt, onChunk)
	g.record(err)
	return reply, err
}

func (g *lastErrorGenerator) record(err error) {
	g.mu.Lock()
	g.err = err
	g.mu.Unlock()
}

func (g *lastErrorGenerator) lastErr() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// runQuery submits a single prompt and prints the reply.
// A failed request prints the persona's fallback like the chat views do.
func runQuery(ctx context.Context, deps *Dependencies, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	rt, err := loadRuntime(deps.Stderr, deps.Stderr)
	if err != nil {
		return err
	}
	render.SetTUITheme(rt.cfg.TUITheme)

	gen, release, err := deps.NewGenerator(ctx, rt.generatorRequest(rt.persona))
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer release()

	recorder := &lastErrorGenerator{Generator: gen}
	session := chat.NewSession(recorder, rt.persona.FallbackText(), chat.WithLogger(rt.logger))

	decorate := !rawFlag && isTerminal(deps.Stderr)

	var spin *spinner
	if decorate {
		spin = newSpinner(deps.Stderr, rt.persona.Label()+" is typing")
		spin.start()
	}

	session.Submit(ctx, prompt)
	reply, _ := session.Conversation().Last()

	if reply.Fallback {
		reqErr := recorder.lastErr()
		if spin != nil {
			spin.stopWithWarning("Request failed")
		}
		if !rawFlag {
			fmt.Fprintln(deps.Stderr, formatErrorMessage(reqErr))
		}
		if strictFlag {
			return fmt.Errorf("%w: %v", errRequestFailed, reqErr)
		}
	} else if spin != nil {
		spin.stopWithSuccess("Done")
	}

	return writeReply(deps, rt, reply)
}

// writeReply prints the reply or saves it to --output
func writeReply(deps *Dependencies, rt *runtime, reply models.Message) error {
	text := reply.Text
	theme := render.GetTUITheme()
	errStyle := lipgloss.NewStyle().Foreground(theme.Error)
	okStyle := lipgloss.NewStyle().Foreground(theme.Secondary)

	if rt.cfg.CopyToClipboard && !reply.Fallback && !rawFlag {
		if err := copyToClipboard(text); err != nil {
			fmt.Fprintln(deps.Stderr, errStyle.Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			))
		} else {
			fmt.Fprintln(deps.Stderr, okStyle.Render("✓ Copied to clipboard"))
		}
	}

	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !rawFlag {
			fmt.Fprintln(deps.Stderr, okStyle.Render(
				fmt.Sprintf("✓ Response saved to %s", outputFlag),
			))
		}
		return nil
	}

	if rawFlag || !isTerminal(deps.Stdout) {
		fmt.Fprintln(deps.Stdout, text)
		return nil
	}

	bubbleWidth := getTerminalWidth(deps.Stdout) - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}

	labelStyle, bubbleStyle := replyStyles(theme)
	fmt.Fprintln(deps.Stdout, labelStyle.Render("✦ "+rt.persona.Label()))

	rendered := text
	if !reply.Fallback {
		rendered = render.Reply(text, render.OptionsFromConfig(rt.cfg.Markdown).InBubble(bubbleWidth))
	}
	fmt.Fprintln(deps.Stdout, bubbleStyle.Width(bubbleWidth).Render(rendered))

	return nil
}

// isTerminal reports whether w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 80
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// formatErrorMessage renders err with its HTTP status, endpoint and hint,
// styled like the chat view
func formatErrorMessage(err error) string {
	return tui.FormatError(err)
}
