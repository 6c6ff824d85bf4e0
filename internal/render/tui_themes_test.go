package render

import (
	"regexp"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func TestTUIThemes_Palettes(t *testing.T) {
	for _, theme := range AvailableTUIThemes() {
		t.Run(theme.Name, func(t *testing.T) {
			if theme.Description == "" {
				t.Error("description should not be empty")
			}

			colors := map[string]lipgloss.Color{
				"Background": theme.Background,
				"Surface":    theme.Surface,
				"Border":     theme.Border,
				"Primary":    theme.Primary,
				"Secondary":  theme.Secondary,
				"Accent":     theme.Accent,
				"Warning":    theme.Warning,
				"Error":      theme.Error,
				"Text":       theme.Text,
				"TextDim":    theme.TextDim,
				"TextMute":   theme.TextMute,
			}
			for name, c := range colors {
				if !hexColor.MatchString(string(c)) {
					t.Errorf("%s = %q, want #rrggbb", name, c)
				}
			}

			g := theme.Gradient()
			if len(g) < 4 || g[0] != theme.Primary {
				t.Errorf("Gradient() = %v", g)
			}
		})
	}
}

func TestSetTUITheme(t *testing.T) {
	defer SetTUITheme(DefaultTUIThemeName)

	if GetTUITheme().Name != DefaultTUIThemeName {
		t.Fatalf("initial theme = %s", GetTUITheme().Name)
	}

	if !SetTUITheme("jakarta") {
		t.Fatal("jakarta should be accepted")
	}
	if got := GetTUITheme(); got.Primary != "#f2c14e" {
		t.Errorf("jakarta primary = %s", got.Primary)
	}

	if SetTUITheme("bogor") {
		t.Error("unknown theme should be rejected")
	}
	if GetTUITheme().Name != "jakarta" {
		t.Error("a rejected name must not change the active theme")
	}
}

func TestGetTUIThemeByName(t *testing.T) {
	testCases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"tokyonight", "tokyonight", true},
		{"jakarta", "jakarta", true},
		{" Jakarta ", "jakarta", true},
		{"DRACULA", "dracula", true},
		{"nord", "nord", true},
		{"catppuccin", "catppuccin", true},
		{"nonexistent", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		theme, ok := GetTUIThemeByName(tc.in)
		if ok != tc.ok || theme.Name != tc.want {
			t.Errorf("GetTUIThemeByName(%q) = %q, %v; want %q, %v", tc.in, theme.Name, ok, tc.want, tc.ok)
		}
	}
}

func TestTUIThemeNames(t *testing.T) {
	names := TUIThemeNames()
	themes := AvailableTUIThemes()

	if len(names) != len(themes) {
		t.Fatalf("len(names) = %d, len(themes) = %d", len(names), len(themes))
	}
	for i := range names {
		if names[i] != themes[i].Name {
			t.Errorf("names[%d] = %q, themes[%d] = %q", i, names[i], i, themes[i].Name)
		}
	}

	// callers get a copy
	themes[0].Name = "changed"
	if AvailableTUIThemes()[0].Name == "changed" {
		t.Error("AvailableTUIThemes should return a copy")
	}
}
