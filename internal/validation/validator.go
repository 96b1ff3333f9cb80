package validation

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-portfolio/internal/projects"
)

// DefaultMaxImages caps the image list of a submission.
const DefaultMaxImages = 5

// DateLayout is the only accepted submission date format. Listing order
// relies on it sorting lexically.
const DateLayout = "2006-01-02"

// Input is a raw submission as received from a form or CLI.
type Input struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Category string   `json:"category"`
	Date     string   `json:"date"`
	Body     string   `json:"body"`
	Images   []string `json:"images"`
	VideoURL string   `json:"videoUrl"`
}

// Validator turns an Input into a record ready to be written.
type Validator struct {
	maxImages int
}

// Option customises a Validator.
type Option func(*Validator)

// WithMaxImages overrides DefaultMaxImages. Values below zero are ignored.
func WithMaxImages(n int) Option {
	return func(v *Validator) {
		if n >= 0 {
			v.maxImages = n
		}
	}
}

// NewValidator returns a validator with the default image cap.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{maxImages: DefaultMaxImages}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MaxImages returns the configured image cap.
func (v *Validator) MaxImages() int {
	return v.maxImages
}

// Validate checks required fields in the order title, summary, category,
// date and reports the first one that is blank. Excess images are dropped
// without error. Invalid UTF-8 in any text field is replaced with U+FFFD and
// the body is otherwise kept byte for byte.
func (v *Validator) Validate(in Input) (*projects.Record, error) {
	title := cleanText(in.Title)
	summary := cleanText(in.Summary)
	category := cleanText(in.Category)
	date := cleanText(in.Date)

	required := []struct {
		name  string
		value string
	}{
		{"title", title},
		{"summary", summary},
		{"category", category},
		{"date", date},
	}
	for _, field := range required {
		if err := validation.Validate(field.value, validation.Required); err != nil {
			return nil, &MissingFieldError{Field: field.name}
		}
	}

	if err := validation.Validate(date, validation.Date(DateLayout)); err != nil {
		return nil, &InvalidFieldError{Field: "date", Err: err}
	}

	slug := DeriveSlug(title)
	if slug == "" {
		return nil, ErrInvalidTitle
	}

	return &projects.Record{
		Slug:     slug,
		Title:    title,
		Summary:  summary,
		Date:     date,
		Category: category,
		Images:   v.CapImages(in.Images),
		VideoURL: cleanText(in.VideoURL),
		Body:     strings.ToValidUTF8(in.Body, replacementChar),
	}, nil
}

const replacementChar = "\uFFFD"

func cleanText(value string) string {
	return strings.TrimSpace(strings.ToValidUTF8(value, replacementChar))
}

// CapImages trims entries, drops blanks and keeps at most MaxImages in their
// original order.
func (v *Validator) CapImages(images []string) []string {
	out := make([]string, 0, min(len(images), v.maxImages))
	for _, image := range images {
		if len(out) == v.maxImages {
			break
		}
		if trimmed := cleanText(image); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
