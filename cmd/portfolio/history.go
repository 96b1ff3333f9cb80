package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-portfolio/internal/journal"
)

func newHistoryCommand(app *cli) *cobra.Command {
	var (
		limit  int
		slug   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded sync attempts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := app.container(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			var entries []*journal.Entry
			if slug != "" {
				entries, err = container.Journal().BySlug(cmd.Context(), slug, limit)
			} else {
				entries, err = container.Journal().Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if entries == nil {
					entries = []*journal.Entry{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "no sync attempts recorded")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tSLUG\tSTATE\tCOMMITTED\tPUSHED\tDETAIL")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%s\n",
					e.StartedAt.Format(time.RFC3339), e.Slug, e.State, e.Committed, e.Pushed, e.ErrorDetail)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	cmd.Flags().StringVar(&slug, "slug", "", "only show entries for this project")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}
