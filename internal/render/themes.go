package render

import (
	"os"

	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Markdown style names accepted in Options.Style besides a JSON file path
const (
	ThemeDark       = "dark"
	ThemeLight      = "light"
	ThemeTokyoNight = "tokyonight"
	ThemeCatppuccin = "catppuccin"
	ThemeDracula    = "dracula"
	ThemeNoTTY      = "notty"
	ThemeASCII      = "ascii"
)

// BuiltinStyle returns the glamour style config registered under name.
// "tokyonight" is accepted as an alias of glamour's "tokyo-night".
func BuiltinStyle(name string) (ansi.StyleConfig, bool) {
	switch name {
	case ThemeTokyoNight:
		name = styles.TokyoNightStyle
	case ThemeCatppuccin:
		return catppuccinStyle(), true
	}

	cfg, ok := styles.DefaultStyles[name]
	if !ok || cfg == nil {
		return ansi.StyleConfig{}, false
	}
	return *cfg, true
}

// IsBuiltinStyle returns true if style names a built-in markdown style
func IsBuiltinStyle(style string) bool {
	_, ok := BuiltinStyle(style)
	return ok
}

// IsStyleFile reports whether style points at a readable JSON theme file
func IsStyleFile(style string) bool {
	info, err := os.Stat(style)
	return err == nil && !info.IsDir()
}

// catppuccinStyle recolours the dark style with the Catppuccin Mocha palette
func catppuccinStyle() ansi.StyleConfig {
	s := styles.DarkStyleConfig

	s.Document.Color = stringPtr("#cdd6f4")
	s.Heading.Color = stringPtr("#89b4fa")
	s.H1.Color = stringPtr("#1e1e2e")
	s.H1.BackgroundColor = stringPtr("#cba6f7")
	s.Link.Color = stringPtr("#f5c2e7")
	s.LinkText.Color = stringPtr("#cba6f7")
	s.Code.Color = stringPtr("#a6e3a1")
	s.Strong.Color = stringPtr("#f9e2af")
	s.Emph.Color = stringPtr("#f5c2e7")

	return s
}

func stringPtr(s string) *string {
	return &s
}

// ThemeInfo contains information about a theme for display purposes.
type ThemeInfo struct {
	Name        string
	Description string
}

// AvailableThemes returns the built-in markdown styles.
func AvailableThemes() []ThemeInfo {
	return []ThemeInfo{
		{Name: ThemeDark, Description: "Dark theme (default)"},
		{Name: ThemeTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: ThemeCatppuccin, Description: "Catppuccin Mocha color scheme"},
		{Name: ThemeLight, Description: "Light theme for bright terminals"},
		{Name: ThemeDracula, Description: "Dracula color scheme"},
		{Name: ThemeNoTTY, Description: "Plain text (no styling)"},
		{Name: ThemeASCII, Description: "ASCII-only output"},
	}
}

// ThemeNames returns just the theme names for selection.
func ThemeNames() []string {
	themes := AvailableThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
