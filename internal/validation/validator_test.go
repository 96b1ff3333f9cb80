package validation

import (
	"errors"
	"testing"
)

func validInput() Input {
	return Input{
		Title:    "Casa Lomas",
		Summary:  "Vivienda",
		Category: "residencial",
		Date:     "2024-03-01",
		Body:     "Texto",
	}
}

func TestDeriveSlug(t *testing.T) {
	cases := map[string]string{
		"Casa Lomas":            "casa-lomas",
		"  Torre -- Norte!! 2 ": "torre-norte-2",
		"Édificio Ñandú":        "dificio-and",
		"Rehabilitación":        "rehabilitaci-n",
		"###":                   "",
		"already-a-slug":        "already-a-slug",
		"MiXeD_case.Name":       "mixed-case-name",
	}
	for in, want := range cases {
		if got := DeriveSlug(in); got != want {
			t.Fatalf("DeriveSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeriveSlugIsFixedPoint(t *testing.T) {
	for _, title := range []string{"Casa Lomas", "A  b  C", "x!y?z", "2024 Proyecto #1"} {
		slug := DeriveSlug(title)
		if again := DeriveSlug(slug); again != slug {
			t.Fatalf("DeriveSlug not idempotent for %q: %q -> %q", title, slug, again)
		}
	}
}

func TestValidateReportsFirstMissingFieldInOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Input)
		field  string
	}{
		{"title", func(in *Input) { in.Title = "" }, "title"},
		{"summary whitespace", func(in *Input) { in.Summary = "   " }, "summary"},
		{"category before date", func(in *Input) { in.Category = ""; in.Date = "" }, "category"},
		{"date", func(in *Input) { in.Date = "" }, "date"},
		{"all blank", func(in *Input) { *in = Input{} }, "title"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			_, err := NewValidator().Validate(in)
			if !errors.Is(err, ErrMissingField) {
				t.Fatalf("expected ErrMissingField, got %v", err)
			}
			if got := Field(err); got != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, got)
			}
		})
	}
}

func TestValidateRejectsMalformedDate(t *testing.T) {
	in := validInput()
	in.Date = "01/03/2024"

	_, err := NewValidator().Validate(in)
	if !errors.Is(err, ErrInvalidField) || Field(err) != "date" {
		t.Fatalf("expected invalid date field, got %v", err)
	}
}

func TestValidateRejectsSymbolOnlyTitle(t *testing.T) {
	in := validInput()
	in.Title = "###"

	_, err := NewValidator().Validate(in)
	if !errors.Is(err, ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
}

func TestValidateTruncatesImages(t *testing.T) {
	in := validInput()
	in.Images = []string{"1.jpg", " ", "2.jpg", "3.jpg", "4.jpg", "5.jpg", "6.jpg", "7.jpg"}

	record, err := NewValidator().Validate(in)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	want := []string{"1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg"}
	if len(record.Images) != len(want) {
		t.Fatalf("expected %v, got %v", want, record.Images)
	}
	for i := range want {
		if record.Images[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, record.Images)
		}
	}
}

func TestValidateBuildsRecord(t *testing.T) {
	in := validInput()
	in.Title = "  Casa Lomas  "
	in.VideoURL = " https://example.com/v "

	record, err := NewValidator(WithMaxImages(2)).Validate(in)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if record.Slug != "casa-lomas" || record.Title != "Casa Lomas" {
		t.Fatalf("unexpected record %#v", record)
	}
	if record.VideoURL != "https://example.com/v" {
		t.Fatalf("unexpected video url %q", record.VideoURL)
	}
	if record.Images == nil {
		t.Fatalf("expected non-nil images")
	}
}

func TestValidateReplacesInvalidUTF8AndKeepsBody(t *testing.T) {
	in := validInput()
	in.Title = "Casa \xffLomas"
	in.Images = []string{" /img/\xfe.jpg "}
	in.Body = "\n\n## Hi\xff"

	record, err := NewValidator().Validate(in)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if record.Title != "Casa �Lomas" {
		t.Fatalf("unexpected title %q", record.Title)
	}
	if len(record.Images) != 1 || record.Images[0] != "/img/�.jpg" {
		t.Fatalf("unexpected images %q", record.Images)
	}
	if record.Body != "\n\n## Hi�" {
		t.Fatalf("expected body kept apart from the invalid byte, got %q", record.Body)
	}
}
