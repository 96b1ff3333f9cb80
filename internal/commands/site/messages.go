package sitecmd

import (
	"github.com/goliatone/go-portfolio/internal/site"
)

const buildSiteMessageType = "portfolio.site.build"

// ResultCallback receives the build result. It is optional and invoked
// synchronously from the handler.
type ResultCallback func(*site.BuildResult)

// BuildSiteCommand exports the static site.
type BuildSiteCommand struct {
	DryRun         bool           `json:"dry_run,omitempty"`
	Clean          bool           `json:"clean,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate implements command.Message; every combination of flags is valid.
func (BuildSiteCommand) Validate() error { return nil }
