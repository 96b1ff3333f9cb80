package sitecmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-portfolio/internal/commands"
	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/internal/site"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

const buildOperation = "site.build"

// ErrBuilderMissing is returned when no builder was wired.
var ErrBuilderMissing = errors.New("site command: builder not configured")

var _ command.Commander[BuildSiteCommand] = (*BuildSiteHandler)(nil)

// Builder is the part of site.Builder the handler drives.
type Builder interface {
	Build(ctx context.Context, opts site.BuildOptions) (*site.BuildResult, error)
}

// BuildSiteHandler orchestrates static exports using the shared command handler foundation.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler constructs a handler wired to builder.
func NewBuildSiteHandler(builder Builder, logger interfaces.Logger, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		if builder == nil {
			return ErrBuilderMissing
		}
		result, err := builder.Build(ctx, site.BuildOptions{DryRun: msg.DryRun, Clean: msg.Clean})
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"pages":   result.PagesBuilt,
			"sitemap": result.Sitemap,
			"dry_run": result.DryRun,
		}).Info("site.command.build.completed")
		if msg.ResultCallback != nil {
			msg.ResultCallback(result)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](baseLogger),
		commands.WithOperation[BuildSiteCommand](buildOperation),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			fields := map[string]any{}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			if msg.Clean {
				fields["clean"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}
