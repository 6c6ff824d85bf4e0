package commands

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/diogo/panjul/internal/config"
	"github.com/diogo/panjul/internal/models"
)

// runtime is the configuration every chatting command resolves first
type runtime struct {
	cfg     config.Config
	persona *config.Persona
	logger  *slog.Logger
}

// loadRuntime reads the config, resolves --persona and builds the logger.
// A broken config file is reported and the defaults are used.
func loadRuntime(stderr, logOut io.Writer) (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Warning: %v (using defaults)\n", err)
	}

	persona, err := config.ResolvePersona(personaFlag)
	if err != nil {
		if personaFlag != "" {
			return nil, fmt.Errorf("failed to load persona '%s': %w", personaFlag, err)
		}
		builtin := config.DefaultPersonas()[0]
		persona = &builtin
	}

	rt := &runtime{
		cfg:     cfg,
		persona: persona,
		logger:  newLogger(logOut, verboseFlag || cfg.Verbose),
	}
	rt.logger.Debug("runtime loaded", "persona", persona.Name, "model", rt.modelFor(persona).Name)
	return rt, nil
}

// modelFor returns the model for p: --model, then the persona's preference,
// then the configured default.
func (rt *runtime) modelFor(p *config.Persona) models.Model {
	switch {
	case modelFlag != "":
		return models.ModelFromName(modelFlag)
	case p != nil && p.Model != "":
		return models.ModelFromName(p.Model)
	default:
		return models.ModelFromName(rt.cfg.DefaultModel)
	}
}

// generatorRequest describes the client for persona p
func (rt *runtime) generatorRequest(p *config.Persona) GeneratorRequest {
	return GeneratorRequest{
		APIKey:  rt.cfg.APIKey,
		Persona: p,
		Model:   rt.modelFor(p),
		Timeout: time.Duration(rt.cfg.RequestTimeout) * time.Second,
		Logger:  rt.logger,
	}
}

// newLogger returns a debug text logger on w, or a discarding one when
// verbose is off or w is nil.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose || w == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
