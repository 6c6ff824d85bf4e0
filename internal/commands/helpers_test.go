package commands

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/diogo/panjul/internal/api"
	"github.com/diogo/panjul/internal/chat"
	"github.com/diogo/panjul/internal/config"
	"github.com/diogo/panjul/internal/render"
	"github.com/diogo/panjul/internal/server"
	"github.com/diogo/panjul/internal/tui"
)

// fakeTUI records the session it was asked to run
type fakeTUI struct {
	session *chat.Session
	opts    tui.Options
	calls   int
	run     func(session *chat.Session, opts tui.Options) error
}

func (f *fakeTUI) RunChat(session *chat.Session, opts tui.Options) error {
	f.calls++
	f.session = session
	f.opts = opts
	if f.run != nil {
		return f.run(session, opts)
	}
	return nil
}

// testEnv is a command environment with captured I/O and a mock generator
type testEnv struct {
	deps   *Dependencies
	gen    *api.MockGenerator
	tui    *fakeTUI
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	home   string

	mu       sync.Mutex
	requests []GeneratorRequest
	released int

	serveAddr string
	served    *server.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvAPIKey, "test-key")
	t.Setenv(config.EnvLegacyAPIKey, "")
	t.Setenv(config.EnvModel, "")
	t.Setenv(render.EnvStyle, "")

	ctrl := gomock.NewController(t)
	env := &testEnv{
		gen:    api.NewMockGenerator(ctrl),
		tui:    &fakeTUI{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		home:   home,
	}

	env.deps = &Dependencies{
		NewGenerator: func(ctx context.Context, req GeneratorRequest) (api.Generator, func(), error) {
			env.mu.Lock()
			env.requests = append(env.requests, req)
			env.mu.Unlock()
			return env.gen, func() {
				env.mu.Lock()
				env.released++
				env.mu.Unlock()
			}, nil
		},
		TUI: env.tui,
		Serve: func(ctx context.Context, srv *server.Server, addr string) error {
			env.served = srv
			env.serveAddr = addr
			return nil
		},
		Stdin:  strings.NewReader(""),
		Stdout: env.stdout,
		Stderr: env.stderr,
	}

	return env
}

func (e *testEnv) execute(args ...string) error {
	cmd := NewRootCmd(e.deps)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func (e *testEnv) lastRequest(t *testing.T) GeneratorRequest {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.requests) == 0 {
		t.Fatal("no generator was created")
	}
	return e.requests[len(e.requests)-1]
}
