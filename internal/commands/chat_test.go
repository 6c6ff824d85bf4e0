package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/panjul/internal/api"
	"github.com/diogo/panjul/internal/chat"
	"github.com/diogo/panjul/internal/config"
	"github.com/diogo/panjul/internal/models"
	"github.com/diogo/panjul/internal/tui"
)

func TestRunChat_StartsTUI(t *testing.T) {
	env := newTestEnv(t)

	if err := env.execute("chat"); err != nil {
		t.Fatalf("execute() error = %v", err)
	}

	if env.tui.calls != 1 {
		t.Fatalf("RunChat calls = %d", env.tui.calls)
	}
	opts := env.tui.opts
	if opts.Persona == nil || opts.Persona.Name != config.BuiltinPersonaName {
		t.Errorf("Persona = %+v", opts.Persona)
	}
	if opts.ModelName != models.DefaultModel.Name {
		t.Errorf("ModelName = %s", opts.ModelName)
	}
	if !opts.Stream {
		t.Error("streaming is on by default")
	}
	if opts.ExportDir != filepath.Join(env.home, "transcripts") {
		t.Errorf("ExportDir = %s", opts.ExportDir)
	}
	if opts.NewSession == nil || opts.Personas == nil {
		t.Error("persona switching should be enabled")
	}
	if env.tui.session.Fallback() != "Waduh, gua error nih. Coba lagi ya!" {
		t.Errorf("Fallback = %q", env.tui.session.Fallback())
	}
	if env.released != 1 {
		t.Errorf("released = %d, want 1", env.released)
	}
}

func TestRunChat_PersonaSwitchReleasesPreviousClient(t *testing.T) {
	env := newTestEnv(t)

	env.tui.run = func(session *chat.Session, opts tui.Options) error {
		p := config.DefaultPersonas()[1]
		next, err := opts.NewSession(&p)
		if err != nil {
			return err
		}
		if next.ID() == session.ID() {
			t.Error("switch should open a new session")
		}
		if env.released != 1 {
			t.Errorf("previous client should be released on switch, released = %d", env.released)
		}
		return nil
	}

	if err := env.execute("chat"); err != nil {
		t.Fatal(err)
	}
	if env.released != 2 {
		t.Errorf("released = %d, want 2", env.released)
	}
	if got := env.lastRequest(t).Persona.Name; got != "default" {
		t.Errorf("last persona = %s", got)
	}
}

func TestRunChat_MissingAPIKeyWarns(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv(config.EnvAPIKey, "")

	if err := env.execute("chat"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.stderr.String(), "GEMINI_API_KEY is not set") {
		t.Errorf("stderr = %q", env.stderr.String())
	}
	if env.tui.calls != 1 {
		t.Error("a missing key should not stop the chat")
	}
}

func TestRunChat_VerboseLogsToFile(t *testing.T) {
	env := newTestEnv(t)

	if err := env.execute("chat", "--verbose"); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(env.home, "panjul.log")
	if !strings.Contains(env.stderr.String(), path) {
		t.Errorf("stderr = %q", env.stderr.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "chat started") {
		t.Errorf("log = %q", data)
	}
}

func TestRunChat_UnknownThemeWarns(t *testing.T) {
	env := newTestEnv(t)
	cfg := config.DefaultConfig()
	cfg.TUITheme = "ancol"
	if err := config.SaveConfig(cfg); err != nil {
		t.Fatal(err)
	}

	if err := env.execute("chat"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.stderr.String(), `unknown tui_theme "ancol"`) {
		t.Errorf("stderr = %q", env.stderr.String())
	}
}

func TestRunChat_GeneratorError(t *testing.T) {
	env := newTestEnv(t)
	env.deps.NewGenerator = func(context.Context, GeneratorRequest) (api.Generator, func(), error) {
		return nil, nil, errors.New("dial failed")
	}

	err := env.execute("chat")
	if err == nil || !strings.Contains(err.Error(), "dial failed") {
		t.Errorf("error = %v", err)
	}
	if env.tui.calls != 0 {
		t.Error("TUI should not start without a client")
	}
}
