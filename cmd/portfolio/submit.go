package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/spf13/cobra"

	projectscmd "github.com/goliatone/go-portfolio/internal/commands/projects"
	"github.com/goliatone/go-portfolio/internal/publish"
	"github.com/goliatone/go-portfolio/internal/submissions"
)

func newSubmitCommand(app *cli) *cobra.Command {
	var (
		msg      projectscmd.SubmitProjectCommand
		bodyFile string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Add a project, then commit and push it",
		Example: `  portfolio submit --title "Casa Moderna 2024" --summary "Vivienda unifamiliar" \
    --category construccion --date 2024-05-01 --body-file casa.md --image-file fachada.jpg`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if bodyFile != "" {
				data, err := os.ReadFile(bodyFile)
				if err != nil {
					return fmt.Errorf("read body: %w", err)
				}
				msg.Body = string(data)
			}

			container, err := app.container(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			var outcome *submissions.Outcome
			msg.ResultCallback = func(o *submissions.Outcome) { outcome = o }

			sub := dispatcher.SubscribeCommand(container.SubmitHandler())
			defer sub.Unsubscribe()
			if err := dispatcher.Dispatch(cmd.Context(), msg); err != nil {
				return err
			}
			if outcome == nil {
				return fmt.Errorf("submit: no outcome reported")
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(outcome)
			}
			fmt.Fprintf(out, "saved %s\n", outcome.Path)
			fmt.Fprintf(out, "sync: %s\n", publish.Describe(outcome.Sync))
			fmt.Fprintln(out, outcome.Note())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&msg.Title, "title", "", "project title")
	flags.StringVar(&msg.Summary, "summary", "", "one-line summary")
	flags.StringVar(&msg.Category, "category", "", "construccion or restauracion")
	flags.StringVar(&msg.Date, "date", "", "project date (YYYY-MM-DD)")
	flags.StringVar(&msg.Body, "body", "", "markdown body")
	flags.StringVar(&bodyFile, "body-file", "", "read the markdown body from a file")
	flags.StringSliceVar(&msg.Images, "image", nil, "image URL or public path (repeatable)")
	flags.StringSliceVar(&msg.ImageFiles, "image-file", nil, "local image to upload (repeatable)")
	flags.StringVar(&msg.VideoURL, "video", "", "video URL")
	flags.BoolVar(&asJSON, "json", false, "print the outcome as JSON")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")
	return cmd
}
