// Package site exports the portfolio as static HTML pages.
package site

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/internal/projects"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

//go:embed templates/*.html
var templateFS embed.FS

// Defaults for the page chrome.
const (
	DefaultTitle    = "Portfolio Arquitectura"
	DefaultTagline  = "Proyectos de construcción y restauración"
	DefaultLanguage = "es"
	projectsRoute   = "proyectos"
)

// Lister is the read side of the content store.
type Lister interface {
	ListAll(ctx context.Context) ([]*projects.Record, error)
}

// Config controls a build.
type Config struct {
	OutputDir string
	BasePath  string
	BaseURL   string
	Title     string
	Tagline   string
	Language  string
	// CleanBuild removes OutputDir before writing.
	CleanBuild bool
	// Protected lists directories OutputDir must not equal or contain.
	Protected []string
}

// ErrUnsafeOutputDir is returned when the output directory would hold
// content the build must not touch.
var ErrUnsafeOutputDir = errors.New("site: output directory contains protected content")

// BuildOptions adjusts a single build.
type BuildOptions struct {
	// DryRun renders every page without writing.
	DryRun bool
	// Clean forces a clean build regardless of Config.CleanBuild.
	Clean bool
}

// BuildResult reports what a build produced.
type BuildResult struct {
	PagesBuilt int
	Pages      []string
	Sitemap    bool
	Duration   time.Duration
	DryRun     bool
}

// Builder renders the index and one page per record.
type Builder struct {
	cfg      Config
	records  Lister
	renderer interfaces.MarkdownRenderer
	index    *template.Template
	project  *template.Template
	title    cases.Caser
	logger   interfaces.Logger
	now      func() time.Time
}

// Option customises a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithClock overrides time.Now for build durations.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBuilder parses the embedded templates.
func NewBuilder(cfg Config, records Lister, renderer interfaces.MarkdownRenderer, opts ...Option) (*Builder, error) {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return nil, fmt.Errorf("site: output directory is required")
	}
	if records == nil || renderer == nil {
		return nil, fmt.Errorf("site: record lister and renderer are required")
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.Tagline == "" {
		cfg.Tagline = DefaultTagline
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	cfg.BasePath = "/" + strings.Trim(strings.TrimSpace(cfg.BasePath), "/")
	if cfg.BasePath != "/" {
		cfg.BasePath += "/"
	}

	index, err := template.ParseFS(templateFS, "templates/layout.html", "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("site: parse index template: %w", err)
	}
	project, err := template.ParseFS(templateFS, "templates/layout.html", "templates/project.html")
	if err != nil {
		return nil, fmt.Errorf("site: parse project template: %w", err)
	}

	lang, err := language.Parse(cfg.Language)
	if err != nil {
		lang = language.Spanish
	}

	b := &Builder{
		cfg:      cfg,
		records:  records,
		renderer: renderer,
		index:    index,
		project:  project,
		title:    cases.Title(lang),
		logger:   logging.NoOp(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

type pageData struct {
	Lang      string
	SiteTitle string
	Tagline   string
	Title     string
	Root      string
	Projects  []card
	Project   *projectView
}

type card struct {
	Href     string
	Cover    string
	Category string
	Title    string
	Summary  string
	Date     string
}

type projectView struct {
	Title    string
	Category string
	Date     string
	Summary  string
	Images   []string
	VideoURL string
	HTML     template.HTML
}

// Build renders every page. Records are listed newest first; the first
// render or write error stops the build.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	start := b.now()
	result := &BuildResult{DryRun: opts.DryRun}
	w := writer{dir: b.cfg.OutputDir, dryRun: opts.DryRun}

	if err := checkOutputDir(b.cfg.OutputDir, b.cfg.Protected); err != nil {
		return nil, err
	}

	records, err := b.records.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("site: list records: %w", err)
	}

	if (b.cfg.CleanBuild || opts.Clean) && !opts.DryRun {
		if err := os.RemoveAll(b.cfg.OutputDir); err != nil {
			return nil, fmt.Errorf("site: clean %s: %w", b.cfg.OutputDir, err)
		}
	}

	cards := make([]card, 0, len(records))
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		route := path.Join(projectsRoute, record.Slug)
		view, err := b.projectView(ctx, record)
		if err != nil {
			return nil, err
		}
		if err := b.writePage(w, b.project, buildOutputPath(route), pageData{
			Title:   record.Title,
			Project: view,
		}); err != nil {
			return nil, err
		}
		result.Pages = append(result.Pages, "/"+route+"/")

		cover := ""
		if len(record.Images) > 0 {
			cover = record.Images[0]
		}
		cards = append(cards, card{
			Href:     b.cfg.BasePath + route + "/",
			Cover:    cover,
			Category: view.Category,
			Title:    record.Title,
			Summary:  record.Summary,
			Date:     record.Date,
		})
	}

	if err := b.writePage(w, b.index, buildOutputPath("/"), pageData{Projects: cards}); err != nil {
		return nil, err
	}
	result.Pages = append([]string{"/"}, result.Pages...)

	if b.cfg.BaseURL != "" {
		sitemap := buildSitemap(b.cfg.BaseURL, b.cfg.BasePath, result.Pages, records)
		if err := w.write("sitemap.xml", []byte(sitemap)); err != nil {
			return nil, err
		}
		result.Sitemap = true
	}

	result.PagesBuilt = len(result.Pages)
	result.Duration = b.now().Sub(start)
	b.logger.Info("site.build.completed",
		"pages", result.PagesBuilt,
		"output", b.cfg.OutputDir,
		"dry_run", opts.DryRun,
		"duration", result.Duration,
	)
	return result, nil
}

func (b *Builder) projectView(ctx context.Context, record *projects.Record) (*projectView, error) {
	html, err := b.renderer.Render(ctx, record.Body)
	if err != nil {
		return nil, fmt.Errorf("site: render %s: %w", record.Slug, err)
	}
	return &projectView{
		Title:    record.Title,
		Category: b.title.String(record.Category),
		Date:     record.Date,
		Summary:  record.Summary,
		Images:   record.Images,
		VideoURL: record.VideoURL,
		// Renderer output is trusted; raw HTML in bodies is dropped unless
		// the renderer was configured otherwise.
		HTML: template.HTML(html),
	}, nil
}

func (b *Builder) writePage(w writer, tmpl *template.Template, rel string, data pageData) error {
	data.Lang = b.cfg.Language
	data.SiteTitle = b.cfg.Title
	data.Tagline = b.cfg.Tagline
	data.Root = b.cfg.BasePath

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("site: execute %s: %w", rel, err)
	}
	return w.write(rel, buf.Bytes())
}

type writer struct {
	dir    string
	dryRun bool
}

func (w writer) write(rel string, content []byte) error {
	if w.dryRun {
		return nil
	}
	target := filepath.Join(w.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("site: create dir for %s: %w", rel, err)
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return fmt.Errorf("site: write %s: %w", rel, err)
	}
	return nil
}
