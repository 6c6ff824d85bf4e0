// Package render turns model replies into terminal output. Replies are
// markdown; they are drawn with glamour inside the chat bubbles of the
// TUI and the one-shot command.
package render

const (
	// BubblePadding is the horizontal space a reply bubble takes from its
	// own width (border plus padding on both sides).
	BubblePadding = 4

	minWrapWidth = 20
)

// Options configures how a reply is rendered. The zero value is not
// usable; start from DefaultOptions or OptionsFromConfig.
type Options struct {
	// Width is the word-wrap column
	Width int

	// Style is a built-in style name or the path of a JSON style file
	Style string

	EnableEmoji      bool
	PreserveNewLines bool

	// TableWrap and InlineTableLinks need glamour v0.10.0+
	TableWrap        bool
	InlineTableLinks bool
}

// DefaultOptions returns the options used when the config has no markdown section.
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            ThemeDark,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// WithWidth returns a copy wrapping at width.
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns a copy using style.
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

// WithEmoji returns a copy with :emoji: shortcodes on or off.
func (o Options) WithEmoji(enabled bool) Options {
	o.EnableEmoji = enabled
	return o
}

// InBubble returns a copy that wraps inside a reply bubble bubbleWidth
// columns wide. Very narrow bubbles still wrap at minWrapWidth.
func (o Options) InBubble(bubbleWidth int) Options {
	w := bubbleWidth - BubblePadding
	if w < minWrapWidth {
		w = minWrapWidth
	}
	o.Width = w
	return o
}
