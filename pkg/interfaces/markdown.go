package interfaces

import "context"

// MarkdownRenderer converts a record body into HTML. Implementations must be
// deterministic: the same body always yields the same output.
type MarkdownRenderer interface {
	Render(ctx context.Context, body string) (string, error)
}

// RenderOptions toggles parser behaviour. Option names stay readable so they
// can be bound from configuration and CLI flags.
type RenderOptions struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
}
