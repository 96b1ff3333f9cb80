package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-portfolio/internal/di"
	"github.com/goliatone/go-portfolio/internal/runtimeconfig"
)

type cli struct {
	configFile string
	cfg        runtimeconfig.Config
}

func newRootCommand() *cobra.Command {
	app := &cli{}
	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "Manage an architecture portfolio stored as markdown in git",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.loadConfig(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.configFile, "config", "", "config file (default ./portfolio.yaml when present)")
	flags.String("content-dir", "", "directory holding project markdown files")
	flags.String("repo-dir", "", "git working tree used for sync")
	flags.Bool("no-sync", false, "write records without committing or pushing")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.String("log-provider", "", "logging provider (console or gologger)")

	root.AddCommand(
		newServeCommand(app),
		newSubmitCommand(app),
		newListCommand(app),
		newShowCommand(app),
		newBuildCommand(app),
		newHistoryCommand(app),
	)
	return root
}

// flagBindings maps persistent flags onto config keys.
var flagBindings = map[string]string{
	"content-dir":  "content.projects_dir",
	"repo-dir":     "git.repo_dir",
	"log-level":    "logging.level",
	"log-provider": "logging.provider",
}

func (app *cli) loadConfig(cmd *cobra.Command) error {
	cfg, err := runtimeconfig.Load(app.configFile, runtimeconfig.WithViper(func(v *viper.Viper) error {
		for name, key := range flagBindings {
			if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
				if err := v.BindPFlag(key, flag); err != nil {
					return err
				}
			}
		}
		if noSync, _ := cmd.Flags().GetBool("no-sync"); noSync {
			v.Set("git.enabled", false)
		}
		return nil
	}))
	if err != nil {
		return err
	}
	app.cfg = cfg
	return nil
}

func (app *cli) container(ctx context.Context) (*di.Container, error) {
	return di.NewContainer(ctx, app.cfg)
}
