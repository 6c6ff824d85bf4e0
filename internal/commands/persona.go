package commands

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/panjul/internal/config"
)

// personaAddOptions holds the flags of persona add
type personaAddOptions struct {
	displayName string
	description string
	prompt      string
	model       string
	temperature float64
	fallback    string
	placeholder string
	title       string
}

// NewPersonaCmd creates the persona command tree
func NewPersonaCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Manage chat personas",
		Long:  `View and manage personas (system prompt, display name and fallback reply) for chat sessions.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available personas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPersonaList(deps)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Show persona details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPersonaShow(deps, args[0])
		},
	})

	var addOpts personaAddOptions
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new persona",
		Long: `Add a new persona. Without --prompt the system prompt is read from
stdin, ending with an empty line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPersonaAdd(deps, args[0], addOpts)
		},
	}
	addCmd.Flags().StringVar(&addOpts.displayName, "display-name", "", "Name shown next to replies")
	addCmd.Flags().StringVarP(&addOpts.description, "description", "d", "", "Short description")
	addCmd.Flags().StringVar(&addOpts.prompt, "prompt", "", "System prompt")
	addCmd.Flags().StringVar(&addOpts.model, "preferred-model", "", "Model this persona prefers")
	addCmd.Flags().Float64Var(&addOpts.temperature, "temperature", 0, "Sampling temperature (0-2, 0 keeps the default)")
	addCmd.Flags().StringVar(&addOpts.fallback, "fallback", "", "Reply shown when a request fails")
	addCmd.Flags().StringVar(&addOpts.placeholder, "placeholder", "", "Input hint")
	addCmd.Flags().StringVar(&addOpts.title, "title", "", "Title of the chat views")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a persona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DeletePersona(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(deps.Stdout, "Persona '%s' deleted.\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "default <name>",
		Short: "Set default persona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SetDefaultPersona(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(deps.Stdout, "Default persona set to '%s'.\n", args[0])
			return nil
		},
	})

	return cmd
}

func runPersonaList(deps *Dependencies) error {
	cfg, err := config.LoadPersonas()
	if err != nil {
		return fmt.Errorf("failed to load personas: %w", err)
	}

	defaultName := cfg.DefaultName()

	w := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tDESCRIPTION\tDEFAULT")
	_, _ = fmt.Fprintln(w, "----\t-----------\t-------")

	for _, p := range cfg.Personas {
		isDefault := ""
		if p.Name == defaultName {
			isDefault = "✓"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Description, isDefault)
	}

	return w.Flush()
}

func runPersonaShow(deps *Dependencies, name string) error {
	persona, err := config.GetPersona(name)
	if err != nil {
		return err
	}

	out := deps.Stdout
	fmt.Fprintf(out, "Name: %s\n", persona.Name)
	fmt.Fprintf(out, "Display Name: %s\n", persona.Label())
	fmt.Fprintf(out, "Description: %s\n", persona.Description)
	if persona.Model != "" {
		fmt.Fprintf(out, "Preferred Model: %s\n", persona.Model)
	}
	if persona.Temperature > 0 {
		fmt.Fprintf(out, "Temperature: %g\n", persona.Temperature)
	}
	fmt.Fprintf(out, "Title: %s\n", persona.HeaderTitle())
	fmt.Fprintf(out, "Placeholder: %s\n", persona.InputPlaceholder())
	fmt.Fprintf(out, "Fallback: %s\n", persona.FallbackText())
	fmt.Fprintf(out, "\nSystem Prompt:\n%s\n", persona.SystemPrompt)

	return nil
}

func runPersonaAdd(deps *Dependencies, name string, opts personaAddOptions) error {
	if _, err := config.GetPersona(name); err == nil {
		return fmt.Errorf("persona '%s' already exists", name)
	}

	prompt := opts.prompt
	if prompt == "" {
		var err error
		prompt, err = readSystemPrompt(deps)
		if err != nil {
			return err
		}
	}

	persona := config.Persona{
		Name:         name,
		DisplayName:  opts.displayName,
		Description:  opts.description,
		SystemPrompt: prompt,
		Model:        opts.model,
		Temperature:  opts.temperature,
		Fallback:     opts.fallback,
		Placeholder:  opts.placeholder,
		Title:        opts.title,
	}

	if err := config.AddPersona(persona); err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "Persona '%s' created.\n", name)
	return nil
}

// readSystemPrompt reads lines from stdin until an empty line or EOF
func readSystemPrompt(deps *Dependencies) (string, error) {
	if deps.Stdin == nil {
		return "", fmt.Errorf("no system prompt given, use --prompt")
	}

	fmt.Fprintln(deps.Stderr, "Enter system prompt (end with an empty line):")

	reader := bufio.NewReader(deps.Stdin)
	var promptLines []string
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\n\r")
		if line == "" {
			break
		}
		promptLines = append(promptLines, line)
		if err != nil {
			break
		}
	}
	return strings.Join(promptLines, "\n"), nil
}
