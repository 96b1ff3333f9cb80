package httpapi

import (
	"context"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-portfolio/internal/journal"
	"github.com/goliatone/go-portfolio/internal/projects"
	"github.com/goliatone/go-portfolio/internal/submissions"
	"github.com/goliatone/go-portfolio/internal/uploads"
	"github.com/goliatone/go-portfolio/internal/validation"
)

// multipartMemory is kept in memory before multipart parts spill to disk.
const multipartMemory = 8 << 20

type submitResponse struct {
	Success      bool     `json:"success"`
	Slug         string   `json:"slug"`
	FilesWritten []string `json:"filesWritten"`
	Committed    bool     `json:"committed"`
	Pushed       bool     `json:"pushed"`
	ErrorDetail  string   `json:"errorDetail,omitempty"`
	Note         string   `json:"note"`
}

func (api *API) listProjects(w http.ResponseWriter, r *http.Request) {
	records, err := api.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []*projects.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (api *API) getProject(w http.ResponseWriter, r *http.Request) {
	value := chi.URLParam(r, "slug")
	if !slug.IsValid(value) {
		writeError(w, &projects.NotFoundError{Slug: value})
		return
	}
	record, err := api.service.Get(r.Context(), value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (api *API) createProject(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, api.maxBodyBytes)

	sub, cleanup, err := readSubmission(r)
	defer cleanup()
	if err != nil {
		writeError(w, err)
		return
	}

	// Submissions run to completion even if the client disconnects.
	ctx := context.WithoutCancel(r.Context())
	outcome, err := api.service.Submit(ctx, sub)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Success:      true,
		Slug:         outcome.Slug,
		FilesWritten: outcome.Sync.FilesWritten,
		Committed:    outcome.Sync.Committed,
		Pushed:       outcome.Sync.Pushed,
		ErrorDetail:  outcome.Sync.ErrorDetail,
		Note:         outcome.Note(),
	})
}

func readSubmission(r *http.Request) (submissions.Submission, func(), error) {
	noop := func() {}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = "application/json"
	}

	switch mediaType {
	case "application/json":
		var in validation.Input
		if err := decodeJSON(r, &in); err != nil {
			return submissions.Submission{}, noop, badRequest("invalid JSON body: " + err.Error())
		}
		return submissions.Submission{Input: in}, noop, nil
	case "multipart/form-data":
		return readMultipart(r)
	default:
		return submissions.Submission{}, noop, badRequest("unsupported content type " + mediaType)
	}
}

func readMultipart(r *http.Request) (submissions.Submission, func(), error) {
	noop := func() {}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return submissions.Submission{}, noop, badRequest("invalid multipart body: " + err.Error())
	}
	form := r.MultipartForm

	value := func(key string) string {
		if vals := form.Value[key]; len(vals) > 0 {
			return vals[0]
		}
		return ""
	}
	sub := submissions.Submission{Input: validation.Input{
		Title:    value("title"),
		Summary:  value("summary"),
		Category: value("category"),
		Date:     value("date"),
		Body:     value("body"),
		VideoURL: value("videoUrl"),
	}}
	for _, img := range form.Value["images"] {
		if trimmed := strings.TrimSpace(img); trimmed != "" {
			sub.Input.Images = append(sub.Input.Images, trimmed)
		}
	}

	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			f.Close()
		}
		form.RemoveAll()
	}
	for _, header := range form.File["images"] {
		f, err := header.Open()
		if err != nil {
			return submissions.Submission{}, cleanup, badRequest("cannot read upload " + header.Filename)
		}
		opened = append(opened, f)
		sub.Uploads = append(sub.Uploads, uploads.File{Name: header.Filename, Reader: f})
	}
	return sub, cleanup, nil
}

func (api *API) syncHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, err)
		return
	}

	var entries []*journal.Entry
	if value := strings.TrimSpace(r.URL.Query().Get("slug")); value != "" {
		entries, err = api.journal.BySlug(r.Context(), value, limit)
	} else {
		entries, err = api.journal.Recent(r.Context(), limit)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []*journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
