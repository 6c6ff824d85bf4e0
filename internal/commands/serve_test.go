package commands

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diogo/panjul/internal/config"
)

func TestServe(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		cfgAddr  string
		wantAddr string
	}{
		{"config default", []string{"serve"}, "", ":8080"},
		{"config value", []string{"serve"}, "127.0.0.1:9000", "127.0.0.1:9000"},
		{"flag wins", []string{"serve", "--addr", ":3000"}, "127.0.0.1:9000", ":3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.cfgAddr != "" {
				cfg := config.DefaultConfig()
				cfg.ServerAddr = tt.cfgAddr
				if err := config.SaveConfig(cfg); err != nil {
					t.Fatal(err)
				}
			}

			if err := env.execute(tt.args...); err != nil {
				t.Fatalf("execute() error = %v", err)
			}

			if env.serveAddr != tt.wantAddr {
				t.Errorf("addr = %q, want %q", env.serveAddr, tt.wantAddr)
			}
			if !strings.Contains(env.stderr.String(), "Jakarta ChatBot - Panjul") {
				t.Errorf("stderr = %q", env.stderr.String())
			}
			if env.released != 1 {
				t.Errorf("released = %d", env.released)
			}
		})
	}
}

func TestServe_HandlerUsesPersona(t *testing.T) {
	env := newTestEnv(t)
	if err := env.execute("serve"); err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	env.served.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Ask Panjul anything about Jakarta...") {
		t.Errorf("page = %d", rr.Code)
	}
}

func TestDisplayAddr(t *testing.T) {
	tests := map[string]string{
		"":               "http://localhost:8080",
		":3000":          "http://localhost:3000",
		"127.0.0.1:9000": "http://127.0.0.1:9000",
	}
	for in, want := range tests {
		if got := displayAddr(in); got != want {
			t.Errorf("displayAddr(%q) = %q, want %q", in, got, want)
		}
	}
}
