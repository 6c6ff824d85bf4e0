package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/panjul/internal/config"
	"github.com/diogo/panjul/internal/render"
)

// NewConfigCmd creates a new config command
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change panjul settings stored in ~/.panjul/config.json.

The API key is read from GEMINI_API_KEY (or VITE_GEMINI_API_KEY, or a .env
file) and is never written to disk.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(deps)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Long:  "Change a setting. Keys: " + strings.Join(config.SettableKeys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(deps, args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(deps.Stdout, path)
			return nil
		},
	})

	return cmd
}

func runConfigShow(deps *Dependencies) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "Warning: %v (showing defaults)\n", err)
	}

	apiKey := "set"
	if cfg.APIKey == "" {
		apiKey = "not set"
		fmt.Fprintf(deps.Stderr, "Warning: no API key set, export %s to chat\n", config.EnvAPIKey)
	}

	w := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"api_key", apiKey},
		{"default_model", cfg.DefaultModel},
		{"request_timeout", fmt.Sprintf("%ds", cfg.RequestTimeout)},
		{"stream", fmt.Sprint(cfg.Stream)},
		{"verbose", fmt.Sprint(cfg.Verbose)},
		{"copy_to_clipboard", fmt.Sprint(cfg.CopyToClipboard)},
		{"tui_theme", cfg.TUITheme},
		{"server_addr", cfg.ServerAddr},
		{"export_dir", cfg.ExportDir},
		{"markdown.style", cfg.Markdown.Style},
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", r[0], r[1])
	}
	return w.Flush()
}

func runConfigSet(deps *Dependencies, key, value string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	switch key {
	case "tui_theme":
		if _, ok := render.GetTUIThemeByName(value); !ok {
			return fmt.Errorf("unknown tui_theme %q (available: %s)", value, strings.Join(render.TUIThemeNames(), ", "))
		}
	case "markdown.style":
		if !render.IsBuiltinStyle(value) && !render.IsStyleFile(value) {
			return fmt.Errorf("unknown markdown style %q (available: %s)", value, strings.Join(render.ThemeNames(), ", "))
		}
	}

	if err := config.SetValue(&cfg, key, value); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "%s set to %s\n", key, value)
	return nil
}
