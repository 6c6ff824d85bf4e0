// Package history exports the in-memory conversation to files on request.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diogo/panjul/internal/models"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ParseExportFormat accepts "markdown", "md" or "json"
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (use markdown or json)", s)
	}
}

// Extension returns the file extension for the format, including the dot
func (f ExportFormat) Extension() string {
	if f == ExportFormatJSON {
		return ".json"
	}
	return ".md"
}

// ExportOptions configures how conversations are exported
type ExportOptions struct {
	Format ExportFormat
	// IncludeFallbacks keeps failed exchanges (the user turn and the fallback reply)
	IncludeFallbacks bool
	// ModelLabel names the model turns in markdown, e.g. the persona display name
	ModelLabel string
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:           ExportFormatMarkdown,
		IncludeFallbacks: true,
		ModelLabel:       "Model",
	}
}

// Transcript is a snapshot of a chat session ready to be written out
type Transcript struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Persona   string           `json:"persona,omitempty"`
	Model     string           `json:"model"`
	CreatedAt time.Time        `json:"created_at"`
	Messages  []models.Message `json:"messages"`
}

// NewTranscript captures msgs. The slice is copied.
func NewTranscript(id, title, persona, model string, msgs []models.Message) *Transcript {
	cp := make([]models.Message, len(msgs))
	copy(cp, msgs)

	return &Transcript{
		ID:        id,
		Title:     title,
		Persona:   persona,
		Model:     model,
		CreatedAt: time.Now(),
		Messages:  cp,
	}
}

// messages returns the turns selected by opts
func (t *Transcript) messages(opts ExportOptions) []models.Message {
	if opts.IncludeFallbacks {
		return t.Messages
	}
	return models.ReplayableHistory(t.Messages)
}

// ExportToMarkdown exports a transcript to Markdown format
func (t *Transcript) ExportToMarkdown(opts ExportOptions) string {
	label := opts.ModelLabel
	if label == "" {
		label = "Model"
	}
	msgs := t.messages(opts)

	var sb strings.Builder

	// Header
	sb.WriteString("# ")
	sb.WriteString(t.Title)
	sb.WriteString("\n\n")

	// Metadata
	sb.WriteString("**Model:** ")
	sb.WriteString(t.Model)
	sb.WriteString("\n")
	if t.Persona != "" {
		sb.WriteString("**Persona:** ")
		sb.WriteString(t.Persona)
		sb.WriteString("\n")
	}
	sb.WriteString("**Exported:** ")
	sb.WriteString(t.CreatedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("**Messages:** %d", len(msgs)))
	sb.WriteString("\n\n---\n\n")

	for i, msg := range msgs {
		role := "You"
		if msg.Role == models.RoleModel {
			role = label
		}

		sb.WriteString("## ")
		sb.WriteString(role)
		if !msg.Time.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(msg.Time.Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")

		if msg.Fallback {
			sb.WriteString("> ")
		}
		sb.WriteString(msg.Text)
		sb.WriteString("\n")

		if i < len(msgs)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// ExportToJSON exports a transcript to JSON format
func (t *Transcript) ExportToJSON(opts ExportOptions) ([]byte, error) {
	export := *t
	export.Messages = t.messages(opts)
	if export.Messages == nil {
		export.Messages = []models.Message{}
	}
	return json.MarshalIndent(export, "", "  ")
}

// Export renders the transcript in opts.Format
func (t *Transcript) Export(opts ExportOptions) ([]byte, error) {
	switch opts.Format {
	case ExportFormatJSON:
		return t.ExportToJSON(opts)
	case ExportFormatMarkdown, "":
		return []byte(t.ExportToMarkdown(opts)), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", opts.Format)
	}
}

// FileName returns the default file name, e.g. panjul-20250102-150405-1a2b3c4d.md
func (t *Transcript) FileName(format ExportFormat) string {
	id := t.ID
	if len(id) > 8 {
		id = id[:8]
	}
	name := "panjul-" + t.CreatedAt.Format("20060102-150405")
	if id != "" {
		name += "-" + id
	}
	return name + format.Extension()
}

// WriteFile exports the transcript into dir and returns the written path.
// The file is readable only by the current user.
func (t *Transcript) WriteFile(dir string, opts ExportOptions) (string, error) {
	if len(t.Messages) == 0 {
		return "", fmt.Errorf("nothing to export: conversation is empty")
	}

	data, err := t.Export(opts)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, t.FileName(opts.Format))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}

	return path, nil
}
