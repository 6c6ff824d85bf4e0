// Package commands provides CLI commands for panjul.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	modelFlag   string
	personaFlag string
	verboseFlag bool

	// Root (one-shot) flags
	outputFlag string
	fileFlag   string
	rawFlag    bool
	strictFlag bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// NewRootCmd creates the command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panjul [prompt]",
		Short: "Chat with Panjul, the Jakarta tour guide, in your terminal",
		Long: `panjul is a terminal and browser chat client for Google Gemini.
The default persona is Panjul, a Jakarta tour guide who talks in Betawi slang.

Set GEMINI_API_KEY (or put it in a .env file) before chatting.

Examples:
  panjul chat                           Start interactive chat
  panjul serve --addr :8080             Chat in the browser
  panjul "Where should I eat in Kota Tua?"
  panjul -f prompt.md                   Read prompt from file
  cat prompt.md | panjul                Read prompt from stdin
  panjul "Hello" -o response.md         Save response to file`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				printVersion(deps.Stdout)
				return nil
			}

			prompt, ok, err := readPrompt(deps, args)
			if err != nil {
				return err
			}
			if !ok {
				return cmd.Help()
			}
			return runQuery(cmd.Context(), deps, prompt)
		},
	}

	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)

	cmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model to use (e.g., gemini-2.0-flash-exp, fast, pro)")
	cmd.PersistentFlags().StringVarP(&personaFlag, "persona", "p", "", "Persona to chat with (default from config)")
	cmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Log diagnostics")

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save response to file")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	cmd.Flags().BoolVar(&rawFlag, "raw", false, "Print the reply without decoration")
	cmd.Flags().BoolVar(&strictFlag, "strict", false, "Exit non-zero when the model request fails")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(NewChatCmd(deps))
	cmd.AddCommand(NewServeCmd(deps))
	cmd.AddCommand(NewConfigCmd(deps))
	cmd.AddCommand(NewPersonaCmd(deps))
	cmd.AddCommand(NewVersionCmd(deps))

	return cmd
}

// rootCmd represents the base command
var rootCmd = NewRootCmd(NewDependencies())

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), formatErrorMessage(err))
		stop()
		os.Exit(1)
	}
}

// readPrompt picks the prompt from --file, piped stdin or the argument, in
// that order. ok is false when none was given.
func readPrompt(deps *Dependencies, args []string) (prompt string, ok bool, err error) {
	if fileFlag != "" {
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if len(args) > 0 {
		return args[0], true, nil
	}

	if stdinPiped(deps.Stdin) {
		data, err := io.ReadAll(deps.Stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) != "" {
			return string(data), true, nil
		}
	}

	return "", false, nil
}

// stdinPiped reports whether r carries piped input rather than a terminal
func stdinPiped(r io.Reader) bool {
	if r == nil {
		return false
	}
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
