package projects

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/adrg/frontmatter"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const frontMatterDelimiter = "---"

const dateLayout = "2006-01-02"

const metadataSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title", "summary", "date", "category"],
  "properties": {
    "title":    {"type": "string", "minLength": 1},
    "summary":  {"type": "string", "minLength": 1},
    "date":     {"type": "string", "minLength": 1},
    "category": {"type": "string", "minLength": 1},
    "images":   {"type": "array", "items": {"type": "string"}},
    "videoUrl": {"type": "string"}
  }
}`

var compiledSchema = jsonschema.MustCompileString("portfolio://project-metadata.json", metadataSchema)

// Encode serialises r into the on-disk record format. Every scalar is written
// as a YAML double-quoted string so titles with colons or quotes survive a
// round trip. Slug is not written; it is carried by the file name.
func Encode(r *Record) []byte {
	var buf bytes.Buffer
	buf.WriteString(frontMatterDelimiter + "\n")
	writeScalar(&buf, KeyTitle, r.Title)
	writeScalar(&buf, KeySummary, r.Summary)
	writeScalar(&buf, KeyDate, r.Date)
	writeScalar(&buf, KeyCategory, r.Category)
	if len(r.Images) == 0 {
		buf.WriteString(KeyImages + ": []\n")
	} else {
		buf.WriteString(KeyImages + ":\n")
		for _, image := range r.Images {
			buf.WriteString("  - " + quote(image) + "\n")
		}
	}
	writeScalar(&buf, KeyVideoURL, r.VideoURL)
	buf.WriteString(frontMatterDelimiter + "\n\n")
	buf.WriteString(r.Body)
	return buf.Bytes()
}

func writeScalar(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(quote(value))
	buf.WriteByte('\n')
}

// quote produces a YAML double-quoted scalar. The escape sequences emitted by
// strconv.Quote for valid UTF-8 are a subset of YAML's; invalid bytes would
// come out as \x escapes that YAML reads as different runes, so they are
// replaced first.
func quote(value string) string {
	return strconv.Quote(strings.ToValidUTF8(value, string(utf8.RuneError)))
}

// trimSeparator drops the blank line Encode writes between the closing
// delimiter and the body. Further blank lines belong to the body.
func trimSeparator(body string) string {
	if rest, ok := strings.CutPrefix(body, "\r\n"); ok {
		return rest
	}
	return strings.TrimPrefix(body, "\n")
}

// Decode parses data as the record stored under slug. Any failure is a
// *MalformedRecordError.
func Decode(slug string, data []byte) (*Record, error) {
	raw := map[string]any{}
	body, err := frontmatter.MustParse(bytes.NewReader(data), &raw)
	if err != nil {
		return nil, &MalformedRecordError{Slug: slug, Err: fmt.Errorf("front matter: %w", err)}
	}

	meta, err := normalizeMetadata(raw)
	if err != nil {
		return nil, &MalformedRecordError{Slug: slug, Err: err}
	}

	for _, key := range requiredKeys {
		value, present := meta[key]
		if !present {
			return nil, &MalformedRecordError{Slug: slug, Field: key}
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			return nil, &MalformedRecordError{Slug: slug, Field: key}
		}
	}

	if err := compiledSchema.Validate(meta); err != nil {
		return nil, &MalformedRecordError{Slug: slug, Field: schemaField(err), Err: err}
	}

	record := &Record{
		Slug:     slug,
		Title:    meta[KeyTitle].(string),
		Summary:  meta[KeySummary].(string),
		Date:     meta[KeyDate].(string),
		Category: meta[KeyCategory].(string),
		Images:   []string{},
		Body:     trimSeparator(string(body)),
	}
	if images, ok := meta[KeyImages].([]any); ok {
		for _, image := range images {
			record.Images = append(record.Images, image.(string))
		}
	}
	if videoURL, ok := meta[KeyVideoURL].(string); ok {
		record.VideoURL = videoURL
	}
	return record, nil
}

// normalizeMetadata folds legacy keys onto their current names and turns
// YAML scalars into the string form the schema expects. Current keys win
// over legacy ones when both are present.
func normalizeMetadata(raw map[string]any) (map[string]any, error) {
	meta := make(map[string]any, len(raw))
	for key, value := range raw {
		if _, legacy := legacyKeys[key]; legacy {
			continue
		}
		meta[key] = value
	}
	for legacy, current := range legacyKeys {
		value, ok := raw[legacy]
		if !ok {
			continue
		}
		if _, exists := meta[current]; !exists {
			meta[current] = value
		}
	}

	for key, value := range meta {
		switch v := value.(type) {
		case nil:
			delete(meta, key)
		case []any:
			items := make([]any, len(v))
			for i, item := range v {
				items[i] = scalarString(item)
			}
			meta[key] = items
		case []string:
			items := make([]any, len(v))
			for i, item := range v {
				items[i] = item
			}
			meta[key] = items
		case map[string]any, map[any]any:
			if key == KeyImages || key == KeyVideoURL || isRequired(key) {
				return nil, fmt.Errorf("field %q: unexpected mapping", key)
			}
			delete(meta, key)
		default:
			meta[key] = scalarString(v)
		}
	}
	return meta, nil
}

// scalarString renders YAML scalars as strings. Non-scalars pass through so
// the schema can reject them.
func scalarString(value any) any {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.Format(dateLayout)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return value
	}
}

func isRequired(key string) bool {
	for _, required := range requiredKeys {
		if key == required {
			return true
		}
	}
	return false
}

// schemaField returns the top-level property named by the deepest schema
// violation, or "metadata" when none is available.
func schemaField(err error) string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return "metadata"
	}
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	location := strings.TrimPrefix(verr.InstanceLocation, "/")
	if field, _, _ := strings.Cut(location, "/"); field != "" {
		return field
	}
	return "metadata"
}
