package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newShowCommand(app *cli) *cobra.Command {
	var (
		asJSON bool
		asHTML bool
	)
	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Print one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := app.container(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			rendered, err := container.Service().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rendered)
			case asHTML:
				fmt.Fprintln(out, rendered.HTML)
				return nil
			}

			fmt.Fprintf(out, "%s\n%s | %s\n\n%s\n", rendered.Title, rendered.Category, rendered.Date, rendered.Summary)
			if len(rendered.Images) > 0 {
				fmt.Fprintf(out, "images: %s\n", strings.Join(rendered.Images, ", "))
			}
			if rendered.VideoURL != "" {
				fmt.Fprintf(out, "video: %s\n", rendered.VideoURL)
			}
			if rendered.Body != "" {
				fmt.Fprintf(out, "\n%s\n", rendered.Body)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the record as JSON")
	cmd.Flags().BoolVar(&asHTML, "html", false, "print the rendered body only")
	cmd.MarkFlagsMutuallyExclusive("json", "html")
	return cmd
}
