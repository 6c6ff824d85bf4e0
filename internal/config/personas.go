package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFallback is used by personas that do not define their own
const DefaultFallback = "Sorry, something went wrong. Please try again."

// Persona represents a system instruction plus the strings the views show for it
type Persona struct {
	Name         string  `json:"name"`
	DisplayName  string  `json:"display_name,omitempty"`
	Description  string  `json:"description"`
	SystemPrompt string  `json:"system_prompt"`
	Model        string  `json:"model,omitempty"`       // Preferred model (optional)
	Temperature  float64 `json:"temperature,omitempty"` // 0 keeps the generation default
	Fallback     string  `json:"fallback,omitempty"`    // Reply shown when the model call fails
	Placeholder  string  `json:"placeholder,omitempty"` // Input hint
	Title        string  `json:"title,omitempty"`       // Header of the chat views
}

// Label returns the name shown next to model turns
func (p *Persona) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return "Gemini"
}

// FallbackText returns the fixed reply used when a request fails
func (p *Persona) FallbackText() string {
	if p.Fallback != "" {
		return p.Fallback
	}
	return DefaultFallback
}

// InputPlaceholder returns the hint shown in an empty input box
func (p *Persona) InputPlaceholder() string {
	if p.Placeholder != "" {
		return p.Placeholder
	}
	return fmt.Sprintf("Ask %s anything...", p.Label())
}

// HeaderTitle returns the title of the chat views
func (p *Persona) HeaderTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Label() + " Chat"
}

// PersonaConfig stores all personas
type PersonaConfig struct {
	Personas       []Persona `json:"personas"`
	DefaultPersona string    `json:"default_persona,omitempty"`
}

// BuiltinPersonaName is the persona used when nothing else is configured
const BuiltinPersonaName = "panjul"

// DefaultPersonas returns pre-configured personas
func DefaultPersonas() []Persona {
	return []Persona{
		{
			Name:        "panjul",
			DisplayName: "Panjul",
			Description: "Jakarta tour guide who talks in Betawi slang",
			SystemPrompt: "You're Panjul, the best tour guide in Jakarta, using slang like 'gua' and 'lu'. " +
				"Answer questions about Jakarta's best spots and attractions.",
			Fallback:    "Waduh, gua error nih. Coba lagi ya!",
			Placeholder: "Ask Panjul anything about Jakarta...",
			Title:       "Jakarta ChatBot - Panjul",
		},
		{
			Name:        "default",
			DisplayName: "Gemini",
			Description: "No system prompt",
		},
	}
}

// isBuiltin reports whether name is one of DefaultPersonas
func isBuiltin(name string) bool {
	for _, p := range DefaultPersonas() {
		if p.Name == name {
			return true
		}
	}
	return false
}

// GetPersonasPath returns the path to the personas file
func GetPersonasPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "personas.json"), nil
}

// Find returns the persona called name.
func (c *PersonaConfig) Find(name string) (*Persona, bool) {
	i := c.index(name)
	if i < 0 {
		return nil, false
	}
	p := c.Personas[i]
	return &p, true
}

// DefaultName returns the configured default, or the builtin persona.
func (c *PersonaConfig) DefaultName() string {
	if c.DefaultPersona == "" {
		return BuiltinPersonaName
	}
	return c.DefaultPersona
}

func (c *PersonaConfig) index(name string) int {
	for i, p := range c.Personas {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// LoadPersonas loads the persona file. The builtin personas are always
// present; a file entry with a builtin name overrides it.
func LoadPersonas() (*PersonaConfig, error) {
	path, err := GetPersonasPath()
	if err != nil {
		return nil, err
	}

	cfg := &PersonaConfig{DefaultPersona: BuiltinPersonaName}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read personas: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse personas: %w", err)
		}
	}

	cfg.Personas = mergePersonas(DefaultPersonas(), cfg.Personas)
	return cfg, nil
}

// SavePersonas writes the persona file (0600, prompts may be private).
func SavePersonas(cfg *PersonaConfig) error {
	path, err := GetPersonasPath()
	if err != nil {
		return err
	}
	if _, err := EnsureConfigDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal personas: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// updatePersonas loads the file, applies fn and saves the result unless fn fails.
func updatePersonas(fn func(cfg *PersonaConfig) error) error {
	cfg, err := LoadPersonas()
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return SavePersonas(cfg)
}

// GetPersona returns a persona by name
func GetPersona(name string) (*Persona, error) {
	cfg, err := LoadPersonas()
	if err != nil {
		return nil, err
	}
	p, ok := cfg.Find(name)
	if !ok {
		return nil, fmt.Errorf("persona '%s' not found", name)
	}
	return p, nil
}

// ResolvePersona returns the named persona, or the default one when name is empty.
func ResolvePersona(name string) (*Persona, error) {
	if name == "" {
		return GetDefaultPersona()
	}
	return GetPersona(name)
}

// ListPersonaNames returns the names of all personas
func ListPersonaNames() ([]string, error) {
	cfg, err := LoadPersonas()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(cfg.Personas))
	for i, p := range cfg.Personas {
		names[i] = p.Name
	}
	return names, nil
}

// AddPersona validates and stores a new persona
func AddPersona(persona Persona) error {
	if err := ValidatePersona(persona); err != nil {
		return err
	}

	return updatePersonas(func(cfg *PersonaConfig) error {
		if cfg.index(persona.Name) >= 0 {
			return fmt.Errorf("persona '%s' already exists", persona.Name)
		}
		cfg.Personas = append(cfg.Personas, persona)
		return nil
	})
}

// DeletePersona removes a user persona. When it was the default, the
// builtin persona becomes the default again.
func DeletePersona(name string) error {
	if isBuiltin(name) {
		return fmt.Errorf("cannot delete built-in persona '%s'", name)
	}

	return updatePersonas(func(cfg *PersonaConfig) error {
		i := cfg.index(name)
		if i < 0 {
			return fmt.Errorf("persona '%s' not found", name)
		}
		cfg.Personas = append(cfg.Personas[:i], cfg.Personas[i+1:]...)

		if cfg.DefaultPersona == name {
			cfg.DefaultPersona = BuiltinPersonaName
		}
		return nil
	})
}

// SetDefaultPersona sets the default persona
func SetDefaultPersona(name string) error {
	return updatePersonas(func(cfg *PersonaConfig) error {
		if cfg.index(name) < 0 {
			return fmt.Errorf("persona '%s' not found", name)
		}
		cfg.DefaultPersona = name
		return nil
	})
}

// GetDefaultPersona returns the default persona
func GetDefaultPersona() (*Persona, error) {
	cfg, err := LoadPersonas()
	if err != nil {
		return nil, err
	}

	name := cfg.DefaultName()
	p, ok := cfg.Find(name)
	if !ok {
		return nil, fmt.Errorf("persona '%s' not found", name)
	}
	return p, nil
}

func mergePersonas(defaults, custom []Persona) []Persona {
	result := append([]Persona(nil), defaults...)

	for _, cp := range custom {
		i := -1
		for j := range result {
			if result[j].Name == cp.Name {
				i = j
				break
			}
		}
		if i >= 0 {
			result[i] = cp
		} else {
			result = append(result, cp)
		}
	}
	return result
}

// Validation constants
const (
	MaxNameLength        = 50
	MaxDescriptionLength = 200
	MaxPromptLength      = 32 * 1024 // 32KB
	MaxFallbackLength    = 500
)

// ValidatePersona validates a persona's fields
func ValidatePersona(p Persona) error {
	fieldErrors := make(map[string]string)

	if p.Name == "" {
		fieldErrors["name"] = "name is required"
	} else if len(p.Name) > MaxNameLength {
		fieldErrors["name"] = fmt.Sprintf("name too long (max %d characters)", MaxNameLength)
	} else if !isValidPersonaName(p.Name) {
		fieldErrors["name"] = "name must contain only alphanumeric characters, underscores, and hyphens"
	}

	if len(p.Description) > MaxDescriptionLength {
		fieldErrors["description"] = fmt.Sprintf("description too long (max %d characters)", MaxDescriptionLength)
	}

	if len(p.SystemPrompt) > MaxPromptLength {
		fieldErrors["system_prompt"] = fmt.Sprintf("system prompt too long (max %d characters)", MaxPromptLength)
	}

	if len(p.Fallback) > MaxFallbackLength {
		fieldErrors["fallback"] = fmt.Sprintf("fallback too long (max %d characters)", MaxFallbackLength)
	}

	if p.Temperature < 0 || p.Temperature > 2 {
		fieldErrors["temperature"] = "temperature must be between 0 and 2"
	}

	if len(fieldErrors) > 0 {
		return fmt.Errorf("validation failed: %v", fieldErrors)
	}

	return nil
}

func isValidPersonaName(name string) bool {
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-') {
			return false
		}
	}
	return true
}
