package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: git.push_timeout is read from
// PORTFOLIO_GIT_PUSH_TIMEOUT.
const EnvPrefix = "PORTFOLIO"

// LoadOption adjusts the viper instance before the config is decoded.
type LoadOption func(*viper.Viper) error

// WithOverride sets key after file and environment values are read.
func WithOverride(key string, value any) LoadOption {
	return func(v *viper.Viper) error {
		v.Set(key, value)
		return nil
	}
}

// WithViper exposes the instance, typically to bind command-line flags.
func WithViper(fn func(*viper.Viper) error) LoadOption {
	return func(v *viper.Viper) error {
		if fn == nil {
			return nil
		}
		return fn(v)
	}
}

// Load reads DefaultConfig, then file (when non-empty, or ./portfolio.yaml
// when present), then PORTFOLIO_* variables, then opts, and validates the
// result.
func Load(file string, opts ...LoadOption) (Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("portfolio")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || file != "" {
			return Config{}, fmt.Errorf("portfolio config: read %s: %w", describeFile(file), err)
		}
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(v); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("portfolio config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func describeFile(file string) string {
	if file == "" {
		return "portfolio.yaml"
	}
	return file
}

// setDefaults registers every key so environment variables resolve during
// Unmarshal.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("content.projects_dir", cfg.Content.ProjectsDir)
	v.SetDefault("content.images_dir", cfg.Content.ImagesDir)
	v.SetDefault("content.images_public_path", cfg.Content.ImagesPublic)
	v.SetDefault("content.max_images", cfg.Content.MaxImages)
	v.SetDefault("content.max_image_bytes", cfg.Content.MaxImageBytes)

	v.SetDefault("git.enabled", cfg.Git.Enabled)
	v.SetDefault("git.repo_dir", cfg.Git.RepoDir)
	v.SetDefault("git.binary", cfg.Git.Binary)
	v.SetDefault("git.remote", cfg.Git.Remote)
	v.SetDefault("git.branch", cfg.Git.Branch)
	v.SetDefault("git.command_timeout", cfg.Git.CommandTimeout)
	v.SetDefault("git.push_timeout", cfg.Git.PushTimeout)
	v.SetDefault("git.lock_wait", cfg.Git.LockWait)

	v.SetDefault("markdown.extensions", cfg.Markdown.Extensions)
	v.SetDefault("markdown.hard_wraps", cfg.Markdown.HardWraps)
	v.SetDefault("markdown.safe_mode", cfg.Markdown.SafeMode)
	v.SetDefault("markdown.cache_size", cfg.Markdown.CacheSize)

	v.SetDefault("journal.enabled", cfg.Journal.Enabled)
	v.SetDefault("journal.driver", cfg.Journal.Driver)
	v.SetDefault("journal.dsn", cfg.Journal.DSN)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_bytes", cfg.Server.MaxBodyBytes)
	v.SetDefault("server.metrics", cfg.Server.Metrics)

	v.SetDefault("site.output_dir", cfg.Site.OutputDir)
	v.SetDefault("site.base_url", cfg.Site.BaseURL)
	v.SetDefault("site.base_path", cfg.Site.BasePath)
	v.SetDefault("site.title", cfg.Site.Title)
	v.SetDefault("site.tagline", cfg.Site.Tagline)
	v.SetDefault("site.language", cfg.Site.Language)
	v.SetDefault("site.clean_build", cfg.Site.CleanBuild)

	v.SetDefault("logging.provider", cfg.Logging.Provider)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.add_source", cfg.Logging.AddSource)
	v.SetDefault("logging.focus", cfg.Logging.Focus)
}
