package projectscmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-portfolio/internal/submissions"
	"github.com/goliatone/go-portfolio/internal/uploads"
)

const submitProjectMessageType = "portfolio.projects.submit"

// ResultCallback receives the outcome of a successful submission. It is
// invoked synchronously from the handler.
type ResultCallback func(*submissions.Outcome)

// SubmitProjectCommand adds one project. Required fields, the date format
// and slug derivation are checked by the submission service.
type SubmitProjectCommand struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Category string   `json:"category"`
	Date     string   `json:"date"`
	Body     string   `json:"body,omitempty"`
	Images   []string `json:"images,omitempty"`
	VideoURL string   `json:"videoUrl,omitempty"`
	// ImageFiles are local files stored as uploaded images.
	ImageFiles     []string       `json:"image_files,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (SubmitProjectCommand) Type() string { return submitProjectMessageType }

// Validate checks that image files look like supported images.
func (m SubmitProjectCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ImageFiles, validation.Each(validation.By(func(value any) error {
			name, _ := value.(string)
			if strings.TrimSpace(name) == "" {
				return validation.NewError("portfolio.projects.submit.image_file_empty", "image file paths must not be empty")
			}
			if !uploads.Allowed(name) {
				return validation.NewError("portfolio.projects.submit.image_file_type", "image files must be jpg, png or webp")
			}
			return nil
		}))),
	)
}
