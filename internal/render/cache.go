package render

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/glamour"
)

// renderers keeps one sync.Pool of glamour renderers per Options value.
// A TermRenderer must not be shared by concurrent Render calls, and the
// TUI re-renders every reply on each resize, so renderers are pooled
// rather than rebuilt.
type rendererCache struct {
	mu    sync.Mutex
	pools map[Options]*sync.Pool
}

var renderers = newRendererCache()

func newRendererCache() *rendererCache {
	return &rendererCache{pools: make(map[Options]*sync.Pool)}
}

func (c *rendererCache) pool(opts Options) *sync.Pool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pools[opts]
	if !ok {
		p = &sync.Pool{}
		c.pools[opts] = p
	}
	return p
}

// render draws content with a pooled renderer, building one on a miss.
// A style that fails to build is reported on every call and never pooled.
func (c *rendererCache) render(content string, opts Options) (string, error) {
	p := c.pool(opts)

	r, _ := p.Get().(*glamour.TermRenderer)
	if r == nil {
		var err error
		if r, err = newRenderer(opts); err != nil {
			return "", err
		}
	}
	defer p.Put(r)

	return r.Render(content)
}

func (c *rendererCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pools)
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	ropts := []glamour.TermRendererOption{
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}

	switch {
	case opts.Style == "":
		ropts = append(ropts, glamour.WithStandardStyle(ThemeDark))
	case IsBuiltinStyle(opts.Style):
		cfg, _ := BuiltinStyle(opts.Style)
		ropts = append(ropts, glamour.WithStyles(cfg))
	case IsStyleFile(opts.Style):
		ropts = append(ropts, glamour.WithStylePath(opts.Style))
	default:
		return nil, fmt.Errorf("unknown markdown style %q", opts.Style)
	}

	if opts.EnableEmoji {
		ropts = append(ropts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		ropts = append(ropts, glamour.WithPreservedNewLines())
	}

	return glamour.NewTermRenderer(ropts...)
}

// ClearCache drops every pooled renderer.
func ClearCache() {
	renderers.mu.Lock()
	renderers.pools = make(map[Options]*sync.Pool)
	renderers.mu.Unlock()
}

// CacheSize returns the number of distinct option sets seen since the last clear.
func CacheSize() int {
	return renderers.size()
}
