package commands

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/diogo/panjul/internal/config"
	apierrors "github.com/diogo/panjul/internal/errors"
	"github.com/diogo/panjul/internal/models"
)

func TestRunQuery_Success(t *testing.T) {
	env := newTestEnv(t)
	env.gen.EXPECT().
		Generate(gomock.Any(), gomock.Len(0), "Where is Monas?").
		Return("Di Gambir, bro!", nil)

	if err := env.execute("Where is Monas?"); err != nil {
		t.Fatalf("execute() error = %v", err)
	}

	if got := env.stdout.String(); got != "Di Gambir, bro!\n" {
		t.Errorf("stdout = %q", got)
	}

	req := env.lastRequest(t)
	if req.APIKey != "test-key" {
		t.Errorf("APIKey = %q", req.APIKey)
	}
	if req.Persona == nil || req.Persona.Name != config.BuiltinPersonaName {
		t.Errorf("Persona = %+v", req.Persona)
	}
	if req.Model != models.DefaultModel {
		t.Errorf("Model = %+v", req.Model)
	}
	if req.Timeout != 120*time.Second {
		t.Errorf("Timeout = %v", req.Timeout)
	}
	if env.released != 1 {
		t.Errorf("released = %d, want 1", env.released)
	}
}

func TestRunQuery_FailurePrintsFallback(t *testing.T) {
	env := newTestEnv(t)
	env.gen.EXPECT().
		Generate(gomock.Any(), gomock.Any(), "hi").
		Return("", apierrors.NewAuthError("API key not valid"))

	if err := env.execute("hi"); err != nil {
		t.Fatalf("execute() error = %v, want nil without --strict", err)
	}

	if got := env.stdout.String(); got != "Waduh, gua error nih. Coba lagi ya!\n" {
		t.Errorf("stdout = %q", got)
	}
	if !strings.Contains(env.stderr.String(), "GEMINI_API_KEY") {
		t.Errorf("stderr should carry a hint, got %q", env.stderr.String())
	}
}

func TestRunQuery_Strict(t *testing.T) {
	env := newTestEnv(t)
	env.gen.EXPECT().
		Generate(gomock.Any(), gomock.Any(), "hi").
		Return("", errors.New("boom"))

	err := env.execute("--strict", "hi")
	if !errors.Is(err, errRequestFailed) {
		t.Fatalf("execute() error = %v, want errRequestFailed", err)
	}
	if env.stdout.Len() != 0 {
		t.Errorf("strict failure should not print a reply, got %q", env.stdout.String())
	}
}

func TestRunQuery_Inputs(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		env := newTestEnv(t)
		path := filepath.Join(t.TempDir(), "prompt.md")
		if err := os.WriteFile(path, []byte("from file"), 0o600); err != nil {
			t.Fatal(err)
		}
		env.gen.EXPECT().Generate(gomock.Any(), gomock.Any(), "from file").Return("ok", nil)

		if err := env.execute("-f", path); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.execute("-f", filepath.Join(t.TempDir(), "nope.md"))
		if err == nil || !strings.Contains(err.Error(), "failed to read file") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("stdin", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.Stdin = strings.NewReader("from stdin\n")
		env.gen.EXPECT().Generate(gomock.Any(), gomock.Any(), "from stdin\n").Return("ok", nil)

		if err := env.execute(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("no input shows help", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.execute(); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(env.stdout.String(), "Usage:") {
			t.Error("expected help output")
		}
	})

	t.Run("blank prompt", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.execute("   ")
		if err == nil || !strings.Contains(err.Error(), "prompt cannot be empty") {
			t.Errorf("error = %v", err)
		}
	})
}

func TestRunQuery_Output(t *testing.T) {
	env := newTestEnv(t)
	env.gen.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Return("# Itinerary", nil)

	path := filepath.Join(t.TempDir(), "reply.md")
	if err := env.execute("plan my day", "-o", path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# Itinerary" {
		t.Errorf("file = %q", data)
	}
	if env.stdout.Len() != 0 {
		t.Error("reply should go to the file only")
	}
}

func TestRunQuery_ModelAndPersonaFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantModel   string
		wantPersona string
	}{
		{"alias", []string{"-m", "pro", "hi"}, models.ModelPro.Name, "panjul"},
		{"passthrough", []string{"--model", "gemini-9-ultra", "hi"}, "gemini-9-ultra", "panjul"},
		{"persona", []string{"-p", "default", "hi"}, models.DefaultModel.Name, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.gen.EXPECT().Generate(gomock.Any(), gomock.Any(), "hi").Return("ok", nil)

			if err := env.execute(tt.args...); err != nil {
				t.Fatal(err)
			}

			req := env.lastRequest(t)
			if req.Model.Name != tt.wantModel {
				t.Errorf("Model = %s, want %s", req.Model.Name, tt.wantModel)
			}
			if req.Persona.Name != tt.wantPersona {
				t.Errorf("Persona = %s, want %s", req.Persona.Name, tt.wantPersona)
			}
		})
	}
}

func TestRunQuery_PersonaModelPreference(t *testing.T) {
	env := newTestEnv(t)
	if err := config.AddPersona(config.Persona{Name: "ojol", SystemPrompt: "x", Model: "fast"}); err != nil {
		t.Fatal(err)
	}
	env.gen.EXPECT().Generate(gomock.Any(), gomock.Any(), "hi").Return("ok", nil)

	if err := env.execute("-p", "ojol", "hi"); err != nil {
		t.Fatal(err)
	}
	if got := env.lastRequest(t).Model; got != models.ModelFlash {
		t.Errorf("Model = %+v, want the persona's preference", got)
	}
}

func TestRunQuery_UnknownPersona(t *testing.T) {
	env := newTestEnv(t)

	err := env.execute("-p", "nobody", "hi")
	if err == nil || !strings.Contains(err.Error(), "nobody") {
		t.Errorf("error = %v", err)
	}
}

func TestRunQuery_Clipboard(t *testing.T) {
	env := newTestEnv(t)
	cfg := config.DefaultConfig()
	cfg.CopyToClipboard = true
	if err := config.SaveConfig(cfg); err != nil {
		t.Fatal(err)
	}

	var copied string
	old := copyToClipboard
	copyToClipboard = func(s string) error { copied = s; return nil }
	defer func() { copyToClipboard = old }()

	env.gen.EXPECT().Generate(gomock.Any(), gomock.Any(), "hi").Return("Kerak telor", nil)
	if err := env.execute("hi"); err != nil {
		t.Fatal(err)
	}

	if copied != "Kerak telor" {
		t.Errorf("copied = %q", copied)
	}
	if !strings.Contains(env.stderr.String(), "Copied to clipboard") {
		t.Error("expected clipboard notice")
	}
}

func TestFormatErrorMessage(t *testing.T) {
	if formatErrorMessage(nil) != "" {
		t.Error("nil error should format as empty")
	}

	err := apierrors.NewAPIError(429, "models/gemini-2.0-flash-exp:generateContent", "quota")
	out := formatErrorMessage(err)
	for _, want := range []string{"quota", "429", "generateContent"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatErrorMessage() missing %q in %q", want, out)
		}
	}
}

func TestStdinPiped(t *testing.T) {
	if stdinPiped(nil) {
		t.Error("nil reader is not piped")
	}
	if !stdinPiped(strings.NewReader("x")) {
		t.Error("non-file reader counts as piped")
	}
}
