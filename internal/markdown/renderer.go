package markdown

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

// DefaultCacheSize bounds the number of rendered bodies kept in memory.
const DefaultCacheSize = 256

// Renderer turns record bodies into HTML with goldmark. A single engine is
// built up front and shared; goldmark.Markdown is safe for concurrent use.
type Renderer struct {
	engine goldmark.Markdown
	cache  *lru.Cache[[sha256.Size]byte, string]
}

var _ interfaces.MarkdownRenderer = (*Renderer)(nil)

// Option customises a Renderer.
type Option func(*rendererConfig)

type rendererConfig struct {
	opts      interfaces.RenderOptions
	cacheSize int
}

// WithRenderOptions replaces the parser options. The zero value renders
// with GFM defaults and safe mode off, so callers normally start from
// DefaultRenderOptions.
func WithRenderOptions(opts interfaces.RenderOptions) Option {
	return func(c *rendererConfig) {
		c.opts = opts
	}
}

// WithCacheSize sets the LRU size. Zero or less disables caching.
func WithCacheSize(size int) Option {
	return func(c *rendererConfig) {
		c.cacheSize = size
	}
}

// DefaultRenderOptions omits raw HTML from record bodies.
func DefaultRenderOptions() interfaces.RenderOptions {
	return interfaces.RenderOptions{SafeMode: true}
}

// NewRenderer builds a renderer. Unknown extension names are ignored.
func NewRenderer(opts ...Option) (*Renderer, error) {
	cfg := rendererConfig{
		opts:      DefaultRenderOptions(),
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Renderer{engine: newEngine(cfg.opts)}
	if cfg.cacheSize > 0 {
		cache, err := lru.New[[sha256.Size]byte, string](cfg.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("markdown: render cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Render converts body into HTML.
func (r *Renderer) Render(ctx context.Context, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var key [sha256.Size]byte
	if r.cache != nil {
		key = sha256.Sum256([]byte(body))
		if cached, ok := r.cache.Get(key); ok {
			return cached, nil
		}
	}

	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	out := buf.String()

	if r.cache != nil {
		r.cache.Add(key, out)
	}
	return out, nil
}

func newEngine(opts interfaces.RenderOptions) goldmark.Markdown {
	rendererOptions := []renderer.Option{}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if !opts.SafeMode {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithExtensions(collectExtensions(opts.Extensions)...),
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}
	return goldmark.New(engineOptions...)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Linkify, extension.TaskList}
	}

	extenders := make([]goldmark.Extender, 0, len(names))
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := seen[key]; dup {
			continue
		}
		if ext, ok := extensionRegistry[key]; ok {
			extenders = append(extenders, ext)
			seen[key] = struct{}{}
		}
	}
	return extenders
}
