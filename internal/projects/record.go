package projects

// Record is one portfolio project as stored in <slug>.md.
type Record struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Date     string   `json:"date"`
	Category string   `json:"category"`
	Images   []string `json:"images"`
	VideoURL string   `json:"videoUrl"`
	Body     string   `json:"body"`
}

// Metadata keys as written to front matter.
const (
	KeyTitle    = "title"
	KeySummary  = "summary"
	KeyDate     = "date"
	KeyCategory = "category"
	KeyImages   = "images"
	KeyVideoURL = "videoUrl"
)

// requiredKeys is checked in order; the first absent key is reported.
var requiredKeys = []string{KeyTitle, KeySummary, KeyDate, KeyCategory}

// legacyKeys maps front matter written by earlier versions of the site.
var legacyKeys = map[string]string{
	"titulo":      KeyTitle,
	"descripcion": KeySummary,
	"fecha":       KeyDate,
	"tipo":        KeyCategory,
	"imagenes":    KeyImages,
}

// FileName returns the on-disk name for slug.
func FileName(slug string) string {
	return slug + fileExt
}

const fileExt = ".md"
