// Package config handles configuration, environment and persona management for panjul.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/diogo/panjul/internal/models"
)

// Environment variables read by LoadConfig
const (
	EnvAPIKey       = "GEMINI_API_KEY"
	EnvLegacyAPIKey = "VITE_GEMINI_API_KEY" // Vite-style name, still honoured
	EnvModel        = "PANJUL_MODEL"
	EnvHome         = "PANJUL_HOME"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // glamour style name or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	DefaultModel string `json:"default_model"`
	// RequestTimeout bounds a single model call in seconds. 0 disables the deadline.
	RequestTimeout int `json:"request_timeout"`
	// Stream renders replies incrementally as chunks arrive.
	Stream bool `json:"stream"`
	// Verbose enables diagnostic logging (stderr, or the log file while the TUI runs).
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty"`
	ServerAddr      string         `json:"server_addr,omitempty"`
	ExportDir       string         `json:"export_dir,omitempty"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`

	// APIKey comes from the environment only and is never written to disk.
	APIKey string `json:"-"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		DefaultModel:    models.DefaultModel.Name,
		RequestTimeout:  120,
		Stream:          true,
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		ServerAddr:      ":8080",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".panjul"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the path of the diagnostic log used while the TUI owns the terminal
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "panjul.log"), nil
}

// GetExportDir returns the transcript export directory, creating it if necessary
func GetExportDir(cfg Config) (string, error) {
	dir := cfg.ExportDir
	if dir == "" {
		configDir, err := GetConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(configDir, "transcripts")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	return dir, nil
}

var dotenvOnce sync.Once

// loadDotenv loads .env from the working directory once. Variables already
// present in the environment win.
func loadDotenv() {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})
}

// LoadConfig loads the configuration from disk and applies environment overrides.
// A missing API key is not an error: requests will fail and fall back instead.
func LoadConfig() (Config, error) {
	loadDotenv()

	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		applyEnv(&cfg)
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// defaults
	case err != nil:
		applyEnv(&cfg)
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			cfg = DefaultConfig()
			applyEnv(&cfg)
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.APIKey = os.Getenv(EnvAPIKey)
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(EnvLegacyAPIKey)
	}
	if m := os.Getenv(EnvModel); m != "" {
		cfg.DefaultModel = m
	}
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SettableKeys lists the keys accepted by SetValue
func SettableKeys() []string {
	return []string{
		"default_model",
		"request_timeout",
		"stream",
		"verbose",
		"copy_to_clipboard",
		"tui_theme",
		"server_addr",
		"export_dir",
		"markdown.style",
	}
}

// SetValue updates a single setting from its string form.
func SetValue(cfg *Config, key, value string) error {
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		return b, nil
	}

	switch key {
	case "default_model":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("default_model cannot be empty")
		}
		cfg.DefaultModel = models.ModelFromName(value).Name
	case "request_timeout":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("request_timeout expects a non-negative number of seconds, got %q", value)
		}
		cfg.RequestTimeout = n
	case "stream":
		b, err := parseBool()
		if err != nil {
			return err
		}
		cfg.Stream = b
	case "verbose":
		b, err := parseBool()
		if err != nil {
			return err
		}
		cfg.Verbose = b
	case "copy_to_clipboard":
		b, err := parseBool()
		if err != nil {
			return err
		}
		cfg.CopyToClipboard = b
	case "tui_theme":
		cfg.TUITheme = value
	case "server_addr":
		cfg.ServerAddr = value
	case "export_dir":
		cfg.ExportDir = value
	case "markdown.style":
		cfg.Markdown.Style = value
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(SettableKeys(), ", "))
	}
	return nil
}
