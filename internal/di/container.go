// Package di wires the portfolio services from a runtime configuration.
package di

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-portfolio/internal/commands"
	projectscmd "github.com/goliatone/go-portfolio/internal/commands/projects"
	sitecmd "github.com/goliatone/go-portfolio/internal/commands/site"
	"github.com/goliatone/go-portfolio/internal/httpapi"
	"github.com/goliatone/go-portfolio/internal/journal"
	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/internal/logging/console"
	"github.com/goliatone/go-portfolio/internal/logging/gologger"
	"github.com/goliatone/go-portfolio/internal/markdown"
	"github.com/goliatone/go-portfolio/internal/projects"
	"github.com/goliatone/go-portfolio/internal/publish"
	"github.com/goliatone/go-portfolio/internal/runtimeconfig"
	"github.com/goliatone/go-portfolio/internal/site"
	"github.com/goliatone/go-portfolio/internal/submissions"
	"github.com/goliatone/go-portfolio/internal/uploads"
	"github.com/goliatone/go-portfolio/internal/validation"
	"github.com/goliatone/go-portfolio/internal/vcs"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

// Container holds the wired services. Build it with NewContainer and
// release it with Close.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	vcs            interfaces.VersionControl
	db             *bun.DB
	ownsDB         bool

	store        *projects.Store
	validator    *validation.Validator
	images       *uploads.Store
	renderer     *markdown.Renderer
	synchronizer *publish.Synchronizer
	journal      journal.Journal
	service      *submissions.Service
	builder      *site.Builder
}

// Option overrides a dependency before wiring.
type Option func(*Container)

// WithLoggerProvider replaces the provider selected by cfg.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithVersionControl replaces the git backend.
func WithVersionControl(v interfaces.VersionControl) Option {
	return func(c *Container) {
		if v != nil {
			c.vcs = v
		}
	}
}

// WithBunDB uses db for the journal instead of opening cfg.Journal.DSN. The
// caller keeps ownership of db.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.db = db
	}
}

// NewContainer validates cfg and wires every service.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureJournal(ctx); err != nil {
		return nil, err
	}

	renderer, err := markdown.NewRenderer(
		markdown.WithRenderOptions(interfaces.RenderOptions{
			Extensions: cfg.Markdown.Extensions,
			HardWraps:  cfg.Markdown.HardWraps,
			SafeMode:   cfg.Markdown.SafeMode,
		}),
		markdown.WithCacheSize(cfg.Markdown.CacheSize),
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("di: markdown renderer: %w", err)
	}
	c.renderer = renderer

	c.store = projects.NewStore(cfg.Content.ProjectsDir,
		projects.WithLogger(logging.ProjectsLogger(c.loggerProvider)))
	c.validator = validation.NewValidator(validation.WithMaxImages(cfg.Content.MaxImages))
	c.images = uploads.NewStore(cfg.Content.ImagesDir, cfg.Content.ImagesPublic, cfg.Content.MaxImageBytes)

	publishLogger := logging.PublishLogger(c.loggerProvider)
	if c.vcs == nil {
		c.vcs = vcs.NewGit(cfg.Git.RepoDir,
			vcs.WithBinary(cfg.Git.Binary),
			vcs.WithRemote(cfg.Git.Remote),
			vcs.WithLogger(publishLogger),
		)
	}
	c.synchronizer = publish.NewSynchronizer(c.vcs, publish.Config{
		Enabled:        cfg.Git.Enabled,
		Branch:         cfg.Git.Branch,
		CommandTimeout: cfg.Git.CommandTimeout,
		PushTimeout:    cfg.Git.PushTimeout,
		LockWait:       cfg.Git.LockWait,
	}, publish.WithLogger(publishLogger))

	c.service = submissions.NewService(c.validator, c.store, c.synchronizer,
		submissions.WithImages(c.images),
		submissions.WithJournal(c.journal),
		submissions.WithRenderer(c.renderer),
		submissions.WithLogger(logging.ModuleLogger(c.loggerProvider, "portfolio.submissions")),
	)

	builder, err := site.NewBuilder(site.Config{
		OutputDir:  cfg.Site.OutputDir,
		BasePath:   cfg.Site.BasePath,
		BaseURL:    cfg.Site.BaseURL,
		Title:      cfg.Site.Title,
		Tagline:    cfg.Site.Tagline,
		Language:   cfg.Site.Language,
		CleanBuild: cfg.Site.CleanBuild,
		Protected:  cfg.ProtectedDirs(),
	}, c.store, c.renderer, site.WithLogger(logging.SiteLogger(c.loggerProvider)))
	if err != nil {
		c.Close()
		return nil, err
	}
	c.builder = builder

	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	cfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: logger provider: %w", err)
		}
		c.loggerProvider = provider
	default:
		level := console.ParseLevel(cfg.Level)
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
	}
	return nil
}

func (c *Container) configureJournal(ctx context.Context) error {
	logger := logging.JournalLogger(c.loggerProvider)
	switch {
	case c.db != nil:
		if err := journal.Migrate(ctx, c.db); err != nil {
			return fmt.Errorf("di: journal migrate: %w", err)
		}
	case c.Config.Journal.Enabled:
		db, err := journal.Open(ctx, c.Config.Journal.Driver, c.Config.Journal.DSN)
		if err != nil {
			return err
		}
		c.db = db
		c.ownsDB = true
	default:
		c.journal = journal.Noop{}
		return nil
	}
	c.journal = journal.NewBunJournal(c.db, logger)
	return nil
}

// Close releases the journal database when the container opened it.
func (c *Container) Close() error {
	if c == nil || c.db == nil || !c.ownsDB {
		return nil
	}
	c.ownsDB = false
	return c.db.Close()
}

// LoggerProvider returns the configured provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// Logger returns a module logger.
func (c *Container) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, module)
}

// Store returns the content store.
func (c *Container) Store() *projects.Store { return c.store }

// Service returns the submission service.
func (c *Container) Service() *submissions.Service { return c.service }

// Synchronizer returns the repository synchronizer.
func (c *Container) Synchronizer() *publish.Synchronizer { return c.synchronizer }

// Journal returns the sync journal; a Noop when disabled.
func (c *Container) Journal() journal.Journal { return c.journal }

// Renderer returns the markdown renderer.
func (c *Container) Renderer() *markdown.Renderer { return c.renderer }

// SiteBuilder returns the static exporter.
func (c *Container) SiteBuilder() *site.Builder { return c.builder }

// HTTPHandler builds the API router.
func (c *Container) HTTPHandler() http.Handler {
	opts := []httpapi.Option{
		httpapi.WithJournal(c.journal),
		httpapi.WithLogger(logging.HTTPLogger(c.loggerProvider)),
		httpapi.WithMaxBodyBytes(c.Config.Server.MaxBodyBytes),
	}
	if !c.Config.Server.Metrics {
		opts = append(opts, httpapi.WithoutMetrics())
	}
	return httpapi.New(c.service, opts...).Routes()
}

// SubmitHandler returns the submit command handler.
func (c *Container) SubmitHandler() *projectscmd.SubmitProjectHandler {
	return projectscmd.NewSubmitProjectHandler(c.service, commands.CommandLogger(c.loggerProvider, "projects"))
}

// BuildHandler returns the static export command handler.
func (c *Container) BuildHandler() *sitecmd.BuildSiteHandler {
	return sitecmd.NewBuildSiteHandler(c.builder, commands.CommandLogger(c.loggerProvider, "site"))
}

// ProjectsDir returns the absolute content directory, for display.
func (c *Container) ProjectsDir() string {
	if abs, err := filepath.Abs(c.store.Dir()); err == nil {
		return abs
	}
	return c.store.Dir()
}
