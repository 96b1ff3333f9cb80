// Package httpapi exposes the portfolio over HTTP.
//
// Routes:
//   - Public: GET /api/projects, GET /api/projects/{slug}
//   - Admin: POST /api/admin/projects, GET /api/admin/sync/history
//   - Operations: GET /healthz, GET /metrics
//
// POST /api/admin/projects accepts JSON or multipart/form-data. A failed
// repository sync does not fail the request; the response reports what was
// committed and pushed alongside an errorDetail.
package httpapi
