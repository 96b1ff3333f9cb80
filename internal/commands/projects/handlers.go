package projectscmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-portfolio/internal/commands"
	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/internal/submissions"
	"github.com/goliatone/go-portfolio/internal/uploads"
	"github.com/goliatone/go-portfolio/internal/validation"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

const submitOperation = "projects.submit"

var _ command.Commander[SubmitProjectCommand] = (*SubmitProjectHandler)(nil)

// Submitter is the part of submissions.Service the handler drives.
type Submitter interface {
	Submit(ctx context.Context, sub submissions.Submission) (*submissions.Outcome, error)
}

// SubmitProjectHandler runs submissions through the shared command handler foundation.
type SubmitProjectHandler struct {
	inner *commands.Handler[SubmitProjectCommand]
}

// NewSubmitProjectHandler creates a handler bound to service.
func NewSubmitProjectHandler(service Submitter, logger interfaces.Logger, opts ...commands.HandlerOption[SubmitProjectCommand]) *SubmitProjectHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg SubmitProjectCommand) error {
		sub := submissions.Submission{Input: validation.Input{
			Title:    msg.Title,
			Summary:  msg.Summary,
			Category: msg.Category,
			Date:     msg.Date,
			Body:     msg.Body,
			Images:   msg.Images,
			VideoURL: msg.VideoURL,
		}}

		files := make([]*os.File, 0, len(msg.ImageFiles))
		defer func() {
			for _, f := range files {
				f.Close()
			}
		}()
		for _, name := range msg.ImageFiles {
			f, err := os.Open(name)
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			files = append(files, f)
			sub.Uploads = append(sub.Uploads, uploads.File{Name: filepath.Base(name), Reader: f})
		}

		outcome, err := service.Submit(ctx, sub)
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"slug":      outcome.Slug,
			"committed": outcome.Sync.Committed,
			"pushed":    outcome.Sync.Pushed,
		}).Info("projects.command.submit.completed")

		if msg.ResultCallback != nil {
			msg.ResultCallback(outcome)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[SubmitProjectCommand]{
		commands.WithLogger[SubmitProjectCommand](baseLogger),
		commands.WithOperation[SubmitProjectCommand](submitOperation),
		commands.WithMessageFields(func(msg SubmitProjectCommand) map[string]any {
			fields := map[string]any{
				"title": msg.Title,
			}
			if n := len(msg.Images) + len(msg.ImageFiles); n > 0 {
				fields["image_count"] = n
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SubmitProjectCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SubmitProjectHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SubmitProjectCommand].
func (h *SubmitProjectHandler) Execute(ctx context.Context, msg SubmitProjectCommand) error {
	return h.inner.Execute(ctx, msg)
}
