package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diogo/panjul/internal/models"
)

func sampleTranscript() *Transcript {
	at := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	msgs := []models.Message{
		{Role: models.RoleUser, Text: "Where's the best kerak telor?", Time: at},
		{Role: models.RoleModel, Text: "Di Monas, bro!", Time: at},
		{Role: models.RoleUser, Text: "And at night?", Time: at},
		{Role: models.RoleModel, Text: "Waduh, gua error nih. Coba lagi ya!", Time: at, Fallback: true},
	}
	tr := NewTranscript("1a2b3c4d-5e6f", "Jakarta ChatBot - Panjul", "panjul", "gemini-2.0-flash-exp", msgs)
	tr.CreatedAt = at
	return tr
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ExportFormat
		wantErr bool
	}{
		{"", ExportFormatMarkdown, false},
		{"md", ExportFormatMarkdown, false},
		{"Markdown", ExportFormatMarkdown, false},
		{" json ", ExportFormatJSON, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExportFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseExportFormat(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseExportFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewTranscript_CopiesMessages(t *testing.T) {
	msgs := []models.Message{models.UserMessage("a")}
	tr := NewTranscript("id", "title", "", "m", msgs)

	msgs[0].Text = "changed"
	if tr.Messages[0].Text != "a" {
		t.Error("transcript should not share the caller's slice")
	}
}

func TestExportToMarkdown(t *testing.T) {
	tr := sampleTranscript()

	opts := DefaultExportOptions()
	opts.ModelLabel = "Panjul"
	md := tr.ExportToMarkdown(opts)

	checks := []string{
		"# Jakarta ChatBot - Panjul",
		"**Model:** gemini-2.0-flash-exp",
		"**Persona:** panjul",
		"**Messages:** 4",
		"## You (15:04:05)",
		"## Panjul (15:04:05)",
		"Where's the best kerak telor?",
		"Di Monas, bro!",
		"> Waduh, gua error nih.",
	}
	for _, want := range checks {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestExportToMarkdown_WithoutFallbacks(t *testing.T) {
	tr := sampleTranscript()

	opts := DefaultExportOptions()
	opts.IncludeFallbacks = false
	md := tr.ExportToMarkdown(opts)

	if strings.Contains(md, "And at night?") || strings.Contains(md, "Waduh") {
		t.Errorf("failed exchange should be dropped:\n%s", md)
	}
	if !strings.Contains(md, "**Messages:** 2") {
		t.Error("message count should reflect filtered turns")
	}
	if !strings.Contains(md, "## Model") {
		t.Error("default model label should be used")
	}
}

func TestExportToJSON(t *testing.T) {
	tr := sampleTranscript()

	data, err := tr.ExportToJSON(DefaultExportOptions())
	if err != nil {
		t.Fatalf("ExportToJSON failed: %v", err)
	}

	var decoded struct {
		ID       string `json:"id"`
		Persona  string `json:"persona"`
		Messages []struct {
			Role     string `json:"role"`
			Text     string `json:"text"`
			Fallback bool   `json:"fallback"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if decoded.ID != tr.ID || decoded.Persona != "panjul" {
		t.Errorf("decoded = %+v", decoded)
	}
	if len(decoded.Messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(decoded.Messages))
	}
	if decoded.Messages[1].Role != "model" || !decoded.Messages[3].Fallback {
		t.Errorf("messages = %+v", decoded.Messages)
	}
}

func TestExportToJSON_Empty(t *testing.T) {
	tr := NewTranscript("id", "t", "", "m", nil)

	data, err := tr.ExportToJSON(DefaultExportOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"messages": []`) {
		t.Errorf("empty transcript should export an empty array: %s", data)
	}
}

func TestFileName(t *testing.T) {
	tr := sampleTranscript()

	if got := tr.FileName(ExportFormatMarkdown); got != "panjul-20250102-150405-1a2b3c4d.md" {
		t.Errorf("FileName(markdown) = %s", got)
	}
	if got := tr.FileName(ExportFormatJSON); !strings.HasSuffix(got, ".json") {
		t.Errorf("FileName(json) = %s", got)
	}

	tr.ID = ""
	if got := tr.FileName(ExportFormatMarkdown); got != "panjul-20250102-150405.md" {
		t.Errorf("FileName without id = %s", got)
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "transcripts")
	tr := sampleTranscript()

	opts := DefaultExportOptions()
	opts.Format = ExportFormatJSON

	path, err := tr.WriteFile(dir, opts)
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	data, _ := os.ReadFile(path)
	if !json.Valid(data) {
		t.Error("written file is not valid JSON")
	}
}

func TestWriteFile_Empty(t *testing.T) {
	tr := NewTranscript("id", "t", "", "m", nil)
	if _, err := tr.WriteFile(t.TempDir(), DefaultExportOptions()); err == nil {
		t.Error("expected error exporting an empty conversation")
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	tr := sampleTranscript()
	if _, err := tr.Export(ExportOptions{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}
