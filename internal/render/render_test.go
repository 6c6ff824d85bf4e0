package render

import (
	"strings"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Width != 80 || opts.Style != ThemeDark {
		t.Errorf("DefaultOptions() = %+v", opts)
	}
	if !opts.EnableEmoji || !opts.PreserveNewLines || !opts.TableWrap || opts.InlineTableLinks {
		t.Errorf("unexpected flags: %+v", opts)
	}
}

func TestInBubble(t *testing.T) {
	tests := []struct {
		bubble int
		want   int
	}{
		{80, 80 - BubblePadding},
		{40, 40 - BubblePadding},
		{10, minWrapWidth},
		{0, minWrapWidth},
	}

	for _, tt := range tests {
		opts := DefaultOptions().WithStyle(ThemeLight).InBubble(tt.bubble)
		if opts.Width != tt.want {
			t.Errorf("InBubble(%d).Width = %d, want %d", tt.bubble, opts.Width, tt.want)
		}
		if opts.Style != ThemeLight {
			t.Errorf("InBubble should keep the style, got %s", opts.Style)
		}
	}
}

func TestMarkdown(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		width    int
		contains string
	}{
		{"heading", "# Kota Tua Jakarta", 80, "Kota"},
		{"bold", "Naik **TransJakarta** aja", 80, "TransJakarta"},
		{"code_block", "```go\nfmt.Println(\"hello\")\n```", 80, "Println"},
		{"link", "[Monas](https://example.com)", 80, "Monas"},
		{"multiline", "Gua\n\nsaranin\n\nMonas", 80, "Monas"},
		{"table", "| Tempat | Jam |\n|---|---|\n| Ancol | 24 |", 80, "Ancol"},
		{"narrow_width", "# Long heading that should wrap", 30, "Long"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			output, err := Markdown(tc.input, DefaultOptions().WithWidth(tc.width))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			// ANSI codes split styled text, so match single words
			if !strings.Contains(output, tc.contains) {
				t.Errorf("output should contain %q, got: %s", tc.contains, output)
			}
		})
	}
}

func TestMarkdownWithWidth(t *testing.T) {
	output, err := MarkdownWithWidth("# Kota Tua\n\nNaik TransJakarta aja, bro.", 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Kota", "TransJakarta"} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q, got: %s", want, output)
		}
	}
}

func TestMarkdownEmoji(t *testing.T) {
	input := "Mantap :smile:"

	output, err := Markdown(input, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(output, ":smile:") {
		t.Errorf("emoji should have been converted, got: %s", output)
	}

	output, err = Markdown(input, DefaultOptions().WithEmoji(false))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output, ":smile:") {
		t.Errorf("emoji should be left alone, got: %s", output)
	}
}

func TestMarkdownInvalidStyle(t *testing.T) {
	if _, err := Markdown("# Test", DefaultOptions().WithStyle("nonexistent_style_path")); err == nil {
		t.Error("expected error for invalid style path")
	}
}

func TestReply(t *testing.T) {
	out := Reply("Coba ke **Kota Tua**", DefaultOptions())
	if !strings.Contains(out, "Kota Tua") {
		t.Errorf("Reply() = %q", out)
	}
	if strings.HasPrefix(out, "\n") || strings.HasSuffix(out, "\n") {
		t.Errorf("Reply() should trim blank lines, got %q", out)
	}

	raw := "plain **text**"
	if got := Reply(raw, DefaultOptions().WithStyle("no-such-style")); got != raw {
		t.Errorf("Reply() with bad style = %q, want raw text", got)
	}
}
