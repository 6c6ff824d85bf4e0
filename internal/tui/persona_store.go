package tui

import (
	"sort"
	"strings"

	"github.com/diogo/panjul/internal/config"
)

// PersonaStore lists the personas offered by the /persona selector
type PersonaStore interface {
	List() ([]config.Persona, error)
	// DefaultName returns the name of the configured default persona
	DefaultName() (string, error)
}

// personaStoreAdapter wraps the config functions to implement PersonaStore
type personaStoreAdapter struct{}

// NewPersonaStore creates a new PersonaStore backed by the config package
func NewPersonaStore() PersonaStore {
	return &personaStoreAdapter{}
}

// List returns all personas
func (s *personaStoreAdapter) List() ([]config.Persona, error) {
	cfg, err := config.LoadPersonas()
	if err != nil {
		return nil, err
	}
	return cfg.Personas, nil
}

// DefaultName returns the default persona name
func (s *personaStoreAdapter) DefaultName() (string, error) {
	p, err := config.GetDefaultPersona()
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// sortPersonas puts defaultName first, then the rest alphabetically
func sortPersonas(personas []config.Persona, defaultName string) []config.Persona {
	sorted := make([]config.Persona, len(personas))
	copy(sorted, personas)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name == defaultName {
			return sorted[j].Name != defaultName
		}
		if sorted[j].Name == defaultName {
			return false
		}
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	return sorted
}
