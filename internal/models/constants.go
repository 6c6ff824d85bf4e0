// Package models contains the conversation data types and model catalog.
package models

// Model describes a hosted model that can serve the chat
type Model struct {
	Name        string // API model identifier
	Alias       string // short name accepted by --model
	Description string
}

// Available models
var (
	ModelFlashExp = Model{
		Name:        "gemini-2.0-flash-exp",
		Alias:       "flash-exp",
		Description: "Gemini 2.0 Flash (experimental)",
	}

	ModelFlash = Model{
		Name:        "gemini-2.5-flash",
		Alias:       "fast",
		Description: "Gemini 2.5 Flash",
	}

	ModelPro = Model{
		Name:        "gemini-2.5-pro",
		Alias:       "pro",
		Description: "Gemini 2.5 Pro",
	}

	// DefaultModel is used when neither the flag, the config nor the persona picks one
	DefaultModel = ModelFlashExp
)

// Generation defaults for chat requests
const (
	DefaultTemperature     float32 = 1
	DefaultTopP            float32 = 0.95
	DefaultTopK            int32   = 40
	DefaultMaxOutputTokens int32   = 8192
	DefaultResponseMIME            = "text/plain"
)

// AllModels returns the known models
func AllModels() []Model {
	return []Model{ModelFlashExp, ModelFlash, ModelPro}
}

// ModelFromName resolves an alias or API name to a Model.
// Unknown names are passed through unchanged so new models work without a release.
func ModelFromName(name string) Model {
	if name == "" {
		return DefaultModel
	}
	for _, m := range AllModels() {
		if m.Name == name || m.Alias == name {
			return m
		}
	}
	return Model{Name: name, Alias: name}
}
