package runtimeconfig

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var ErrProjectsDirRequired = errors.New("portfolio config: content projects directory is required")
var ErrImagesDirRequired = errors.New("portfolio config: content images directory is required")

// ErrImageLimitInvalid rejects negative image caps.
var ErrImageLimitInvalid = errors.New("portfolio config: image limits must be zero or positive")

// ErrGitBranchRequired guards the push target when sync is enabled.
var ErrGitBranchRequired = errors.New("portfolio config: git branch is required when sync is enabled")
var ErrGitTimeoutInvalid = errors.New("portfolio config: git timeouts must be zero or positive")
var ErrJournalDriverUnknown = errors.New("portfolio config: journal driver is invalid")
var ErrJournalDSNRequired = errors.New("portfolio config: journal dsn is required when the journal is enabled")
var ErrServerAddrRequired = errors.New("portfolio config: server address is required")
var ErrSiteOutputDirRequired = errors.New("portfolio config: site output directory is required")

// ErrSiteOutputDirUnsafe rejects output directories whose clean build would
// delete the repository or the content it holds.
var ErrSiteOutputDirUnsafe = errors.New("portfolio config: site output directory contains the repository or content directories")
var ErrLoggingProviderRequired = errors.New("portfolio config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("portfolio config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("portfolio config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("portfolio config: logging format is invalid")

// Config aggregates every setting the portfolio binary reads.
type Config struct {
	Content  ContentConfig  `mapstructure:"content"`
	Git      GitConfig      `mapstructure:"git"`
	Markdown MarkdownConfig `mapstructure:"markdown"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Server   ServerConfig   `mapstructure:"server"`
	Site     SiteConfig     `mapstructure:"site"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ContentConfig locates records and uploaded images.
type ContentConfig struct {
	ProjectsDir   string `mapstructure:"projects_dir"`
	ImagesDir     string `mapstructure:"images_dir"`
	ImagesPublic  string `mapstructure:"images_public_path"`
	MaxImages     int    `mapstructure:"max_images"`
	MaxImageBytes int64  `mapstructure:"max_image_bytes"`
}

// GitConfig controls repository synchronisation.
type GitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RepoDir        string        `mapstructure:"repo_dir"`
	Binary         string        `mapstructure:"binary"`
	Remote         string        `mapstructure:"remote"`
	Branch         string        `mapstructure:"branch"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	PushTimeout    time.Duration `mapstructure:"push_timeout"`
	LockWait       time.Duration `mapstructure:"lock_wait"`
}

// MarkdownConfig mirrors interfaces.RenderOptions plus the render cache size.
type MarkdownConfig struct {
	Extensions []string `mapstructure:"extensions"`
	HardWraps  bool     `mapstructure:"hard_wraps"`
	SafeMode   bool     `mapstructure:"safe_mode"`
	CacheSize  int      `mapstructure:"cache_size"`
}

// JournalConfig selects the sync journal database.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
}

// ServerConfig captures HTTP listener settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	Metrics         bool          `mapstructure:"metrics"`
}

// SiteConfig captures behaviour for the static export.
type SiteConfig struct {
	OutputDir  string `mapstructure:"output_dir"`
	BaseURL    string `mapstructure:"base_url"`
	BasePath   string `mapstructure:"base_path"`
	Title      string `mapstructure:"title"`
	Tagline    string `mapstructure:"tagline"`
	Language   string `mapstructure:"language"`
	CleanBuild bool   `mapstructure:"clean_build"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `mapstructure:"provider"`
	Level     string   `mapstructure:"level"`
	Format    string   `mapstructure:"format"`
	AddSource bool     `mapstructure:"add_source"`
	Focus     []string `mapstructure:"focus"`
}

// DefaultConfig returns defaults for a site checked out in the working
// directory.
func DefaultConfig() Config {
	return Config{
		Content: ContentConfig{
			ProjectsDir:   "content/proyectos",
			ImagesDir:     "public/images/proyectos",
			ImagesPublic:  "/images/proyectos",
			MaxImages:     5,
			MaxImageBytes: 10 << 20,
		},
		Git: GitConfig{
			Enabled:        true,
			RepoDir:        ".",
			Binary:         "git",
			Remote:         "origin",
			Branch:         "main",
			CommandTimeout: 10 * time.Second,
			PushTimeout:    60 * time.Second,
			LockWait:       30 * time.Second,
		},
		Markdown: MarkdownConfig{
			Extensions: []string{"gfm", "linkify", "tasklist"},
			SafeMode:   true,
			CacheSize:  256,
		},
		Journal: JournalConfig{
			Driver: "sqlite3",
			DSN:    "file:portfolio-journal.db?cache=shared&_busy_timeout=5000",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    64 << 20,
			Metrics:         true,
		},
		Site: SiteConfig{
			OutputDir:  "dist",
			BasePath:   "/",
			Title:      "Portfolio Arquitectura",
			Tagline:    "Proyectos de construcción y restauración",
			Language:   "es",
			CleanBuild: true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Content.ProjectsDir) == "" {
		return ErrProjectsDirRequired
	}
	if strings.TrimSpace(cfg.Content.ImagesDir) == "" {
		return ErrImagesDirRequired
	}
	if cfg.Content.MaxImages < 0 {
		return fmt.Errorf("%w: max_images", ErrImageLimitInvalid)
	}
	if cfg.Content.MaxImageBytes < 0 {
		return fmt.Errorf("%w: max_image_bytes", ErrImageLimitInvalid)
	}
	if cfg.Git.Enabled && strings.TrimSpace(cfg.Git.Branch) == "" {
		return ErrGitBranchRequired
	}
	if cfg.Git.CommandTimeout < 0 {
		return fmt.Errorf("%w: command_timeout", ErrGitTimeoutInvalid)
	}
	if cfg.Git.PushTimeout < 0 {
		return fmt.Errorf("%w: push_timeout", ErrGitTimeoutInvalid)
	}
	if cfg.Git.LockWait < 0 {
		return fmt.Errorf("%w: lock_wait", ErrGitTimeoutInvalid)
	}
	if cfg.Journal.Enabled {
		if !isSupportedDriver(cfg.Journal.Driver) {
			return fmt.Errorf("%w: %s", ErrJournalDriverUnknown, cfg.Journal.Driver)
		}
		if strings.TrimSpace(cfg.Journal.DSN) == "" {
			return ErrJournalDSNRequired
		}
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return ErrServerAddrRequired
	}
	if strings.TrimSpace(cfg.Site.OutputDir) == "" {
		return ErrSiteOutputDirRequired
	}
	if err := cfg.checkOutputDir(); err != nil {
		return err
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// ProtectedDirs lists the directories a site build must never remove.
func (cfg Config) ProtectedDirs() []string {
	dirs := []string{cfg.Content.ProjectsDir, cfg.Content.ImagesDir}
	if repo := strings.TrimSpace(cfg.Git.RepoDir); repo != "" {
		dirs = append(dirs, repo)
	}
	return dirs
}

func (cfg Config) checkOutputDir() error {
	out, err := filepath.Abs(cfg.Site.OutputDir)
	if err != nil {
		return fmt.Errorf("portfolio config: site output directory: %w", err)
	}
	for _, dir := range cfg.ProtectedDirs() {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("portfolio config: resolve %s: %w", dir, err)
		}
		if within(out, abs) {
			return fmt.Errorf("%w: %s", ErrSiteOutputDirUnsafe, cfg.Site.OutputDir)
		}
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedDriver(driver string) bool {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite3", "sqlite", "postgres", "pgx":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
