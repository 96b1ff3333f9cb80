package main

import (
	"fmt"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/spf13/cobra"

	sitecmd "github.com/goliatone/go-portfolio/internal/commands/site"
	"github.com/goliatone/go-portfolio/internal/site"
)

func newBuildCommand(app *cli) *cobra.Command {
	var msg sitecmd.BuildSiteCommand
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Export the static site",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := app.container(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			var result *site.BuildResult
			msg.ResultCallback = func(r *site.BuildResult) { result = r }

			sub := dispatcher.SubscribeCommand(container.BuildHandler())
			defer sub.Unsubscribe()
			if err := dispatcher.Dispatch(cmd.Context(), msg); err != nil {
				return err
			}
			if result == nil {
				return nil
			}

			out := cmd.OutOrStdout()
			verb := "built"
			if result.DryRun {
				verb = "would build"
			}
			fmt.Fprintf(out, "%s %d page(s) in %s\n", verb, result.PagesBuilt, app.cfg.Site.OutputDir)
			if result.Sitemap && !result.DryRun {
				fmt.Fprintln(out, "sitemap.xml written")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&msg.DryRun, "dry-run", false, "report pages without writing them")
	cmd.Flags().BoolVar(&msg.Clean, "clean", false, "remove the output directory first")
	return cmd
}
