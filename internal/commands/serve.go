package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/panjul/internal/config"
	"github.com/diogo/panjul/internal/server"
)

// NewServeCmd creates the browser chat command
func NewServeCmd(deps *Dependencies) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat page in the browser",
		Long: `Serve a single chat page plus its API:

  GET  /             chat page
  POST /api/chat     {"history":[...],"message":"..."} -> {"reply":"...","fallback":false}
  GET  /api/chat/ws  streaming replies over a websocket
  GET  /health       liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(deps.Stderr, deps.Stderr)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = rt.cfg.ServerAddr
			}
			if rt.cfg.APIKey == "" {
				fmt.Fprintf(deps.Stderr, "Warning: %s is not set, replies will fall back\n", config.EnvAPIKey)
			}

			ctx := cmd.Context()
			gen, release, err := deps.NewGenerator(ctx, rt.generatorRequest(rt.persona))
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			defer release()

			model := rt.modelFor(rt.persona)
			srv := server.New(gen, rt.persona,
				server.WithLogger(rt.logger),
				server.WithModelName(model.Name),
			)

			fmt.Fprintf(deps.Stderr, "Serving %s (%s) on %s\n", rt.persona.HeaderTitle(), model.Name, displayAddr(addr))
			return deps.Serve(ctx, srv, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, "+server.DefaultAddr+")")
	return cmd
}

// displayAddr turns a listen address into a URL a browser can open
func displayAddr(addr string) string {
	if addr == "" {
		addr = server.DefaultAddr
	}
	if addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
