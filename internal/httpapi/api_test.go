package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-portfolio/internal/journal"
	"github.com/goliatone/go-portfolio/internal/markdown"
	"github.com/goliatone/go-portfolio/internal/projects"
	"github.com/goliatone/go-portfolio/internal/publish"
	"github.com/goliatone/go-portfolio/internal/submissions"
	"github.com/goliatone/go-portfolio/internal/uploads"
	"github.com/goliatone/go-portfolio/internal/validation"
	"github.com/goliatone/go-portfolio/internal/vcs/vcstest"
	"github.com/goliatone/go-portfolio/pkg/testsupport"
)

type testServer struct {
	handler http.Handler
	fake    *vcstest.Fake
	root    string
}

func setupAPI(t *testing.T) *testServer {
	t.Helper()
	root := t.TempDir()
	fake := vcstest.New()
	renderer, err := markdown.NewRenderer()
	if err != nil {
		t.Fatal(err)
	}

	db, err := journal.Open(context.Background(), journal.DriverSQLite, testsupport.SQLiteMemoryDSN(t))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	j := journal.NewBunJournal(db, nil)

	service := submissions.NewService(
		validation.NewValidator(),
		projects.NewStore(filepath.Join(root, "content", "proyectos")),
		publish.NewSynchronizer(fake, publish.DefaultConfig()),
		submissions.WithImages(uploads.NewStore(filepath.Join(root, "public", "images", "proyectos"), "/images/proyectos", 0)),
		submissions.WithRenderer(renderer),
		submissions.WithJournal(j),
	)
	api := New(service, WithJournal(j))
	return &testServer{handler: api.Routes(), fake: fake, root: root}
}

func doJSONRequest(t *testing.T, handler http.Handler, method, path string, body any, expectStatus int) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != expectStatus {
		t.Fatalf("%s %s: expected status %d got %d: %s", method, path, expectStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
}

func projectBody() map[string]any {
	return map[string]any{
		"title":    "Casa Moderna 2024",
		"summary":  "x",
		"category": "Construcción",
		"date":     "2024-05-01",
		"body":     "## Hi",
	}
}

func TestCreateProjectPublishes(t *testing.T) {
	srv := setupAPI(t)

	rec := doJSONRequest(t, srv.handler, http.MethodPost, "/api/admin/projects", projectBody(), http.StatusOK)
	var resp submitResponse
	decodeJSONBody(t, rec, &resp)
	if !resp.Success || resp.Slug != "casa-moderna-2024" || !resp.Committed || !resp.Pushed {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.ErrorDetail != "" || strings.Contains(rec.Body.String(), "errorDetail") {
		t.Fatalf("expected no errorDetail, got %s", rec.Body.String())
	}
	if len(resp.FilesWritten) != 1 || filepath.Base(resp.FilesWritten[0]) != "casa-moderna-2024.md" {
		t.Fatalf("unexpected files %v", resp.FilesWritten)
	}

	listRec := doJSONRequest(t, srv.handler, http.MethodGet, "/api/projects", nil, http.StatusOK)
	var list []projects.Record
	decodeJSONBody(t, listRec, &list)
	if len(list) != 1 || list[0].Slug != resp.Slug {
		t.Fatalf("unexpected list %+v", list)
	}

	getRec := doJSONRequest(t, srv.handler, http.MethodGet, "/api/projects/"+resp.Slug, nil, http.StatusOK)
	var got struct {
		Title string `json:"title"`
		HTML  string `json:"html"`
	}
	decodeJSONBody(t, getRec, &got)
	if got.Title != "Casa Moderna 2024" || !strings.Contains(got.HTML, "<h2") {
		t.Fatalf("unexpected record %+v", got)
	}

	histRec := doJSONRequest(t, srv.handler, http.MethodGet, "/api/admin/sync/history?limit=5", nil, http.StatusOK)
	var history []journal.Entry
	decodeJSONBody(t, histRec, &history)
	if len(history) != 1 || history[0].Slug != resp.Slug || !history[0].Pushed {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestCreateProjectPushFailureIsStillSuccess(t *testing.T) {
	srv := setupAPI(t)
	srv.fake.PushErr = errors.New("remote rejected")

	rec := doJSONRequest(t, srv.handler, http.MethodPost, "/api/admin/projects", projectBody(), http.StatusOK)
	var resp submitResponse
	decodeJSONBody(t, rec, &resp)
	if !resp.Success || !resp.Committed || resp.Pushed || resp.ErrorDetail == "" {
		t.Fatalf("expected partial sync, got %+v", resp)
	}
	if !strings.Contains(resp.Note, "committed locally") {
		t.Fatalf("unexpected note %q", resp.Note)
	}
}

func TestCreateProjectErrors(t *testing.T) {
	srv := setupAPI(t)

	missing := projectBody()
	delete(missing, "summary")
	rec := doJSONRequest(t, srv.handler, http.MethodPost, "/api/admin/projects", missing, http.StatusBadRequest)
	var resp errorResponse
	decodeJSONBody(t, rec, &resp)
	if resp.Field != "summary" || resp.Success {
		t.Fatalf("expected summary field error, got %+v", resp)
	}

	badTitle := projectBody()
	badTitle["title"] = "###"
	doJSONRequest(t, srv.handler, http.MethodPost, "/api/admin/projects", badTitle, http.StatusBadRequest)

	doJSONRequest(t, srv.handler, http.MethodPost, "/api/admin/projects", projectBody(), http.StatusOK)
	doJSONRequest(t, srv.handler, http.MethodPost, "/api/admin/projects", projectBody(), http.StatusConflict)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/projects", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	raw := httptest.NewRecorder()
	srv.handler.ServeHTTP(raw, req)
	if raw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", raw.Code)
	}

	doJSONRequest(t, srv.handler, http.MethodGet, "/api/projects/missing-project", nil, http.StatusNotFound)
	doJSONRequest(t, srv.handler, http.MethodGet, "/api/admin/sync/history?limit=abc", nil, http.StatusBadRequest)
}

func TestCreateProjectMultipart(t *testing.T) {
	srv := setupAPI(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range map[string]string{
		"title":    "Torre Norte",
		"summary":  "Rehabilitación",
		"category": "restauración",
		"date":     "2023-11-02",
		"body":     "Texto",
	} {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatal(err)
		}
	}
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	for _, name := range []string{"front.png", "side.png"} {
		part, err := mw.CreateFormFile("images", name)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(png)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/projects", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var resp submitResponse
	decodeJSONBody(t, rec, &resp)
	if len(resp.FilesWritten) != 3 {
		t.Fatalf("expected two images and the record, got %v", resp.FilesWritten)
	}

	getRec := doJSONRequest(t, srv.handler, http.MethodGet, "/api/projects/torre-norte", nil, http.StatusOK)
	var got projects.Record
	decodeJSONBody(t, getRec, &got)
	want := "/images/proyectos/torre-norte/imagen-1.png,/images/proyectos/torre-norte/imagen-2.png"
	if strings.Join(got.Images, ",") != want {
		t.Fatalf("unexpected images %v", got.Images)
	}
}

func TestUnsupportedUploadRejected(t *testing.T) {
	srv := setupAPI(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range map[string]string{"title": "Casa", "summary": "s", "category": "c", "date": "2024-01-01"} {
		mw.WriteField(key, value)
	}
	part, _ := mw.CreateFormFile("images", "plan.pdf")
	part.Write([]byte("%PDF-1.4"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/projects", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := projects.NewStore(filepath.Join(srv.root, "content", "proyectos")).GetBySlug(context.Background(), "casa"); !errors.Is(err, projects.ErrNotFound) {
		t.Fatalf("expected no record written, got %v", err)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := setupAPI(t)
	doJSONRequest(t, srv.handler, http.MethodGet, "/healthz", nil, http.StatusOK)
	doJSONRequest(t, srv.handler, http.MethodGet, "/api/projects", nil, http.StatusOK)

	rec := doJSONRequest(t, srv.handler, http.MethodGet, "/metrics", nil, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "portfolio_http_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}
}

func TestHistoryWithoutJournal(t *testing.T) {
	service := submissions.NewService(
		validation.NewValidator(),
		projects.NewStore(t.TempDir()),
		publish.NewSynchronizer(vcstest.New(), publish.DefaultConfig()),
	)
	handler := New(service, WithoutMetrics()).Routes()
	doJSONRequest(t, handler, http.MethodGet, "/api/admin/sync/history", nil, http.StatusServiceUnavailable)
	doJSONRequest(t, handler, http.MethodGet, "/metrics", nil, http.StatusNotFound)
}
