package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-portfolio/internal/journal"
	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/internal/metrics"
	"github.com/goliatone/go-portfolio/internal/submissions"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

// DefaultMaxBodyBytes bounds a submission request including uploads.
const DefaultMaxBodyBytes int64 = 64 << 20

// API serves the portfolio routes.
type API struct {
	service      *submissions.Service
	journal      journal.Journal
	logger       interfaces.Logger
	maxBodyBytes int64
	metrics      bool
}

// Option mutates the API configuration.
type Option func(*API)

// WithJournal enables the sync history route.
func WithJournal(j journal.Journal) Option {
	return func(api *API) {
		if j != nil {
			api.journal = j
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(api *API) {
		if n > 0 {
			api.maxBodyBytes = n
		}
	}
}

// WithoutMetrics disables the Prometheus middleware and the /metrics route.
func WithoutMetrics() Option {
	return func(api *API) { api.metrics = false }
}

// New constructs an API over service.
func New(service *submissions.Service, opts ...Option) *API {
	api := &API{
		service:      service,
		journal:      journal.Noop{},
		logger:       logging.NoOp(),
		maxBodyBytes: DefaultMaxBodyBytes,
		metrics:      true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// Routes builds the router.
func (api *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(api.requestLogger)
	if api.metrics {
		r.Use(metrics.Middleware())
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", api.listProjects)
		r.Get("/projects/{slug}", api.getProject)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/projects", api.createProject)
			r.Get("/sync/history", api.syncHistory)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method_not_allowed"})
	})
	return r
}

// requestLogger attaches the request id to the context logging fields and
// logs one line per request.
func (api *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ctx := logging.ContextWithFields(r.Context(), map[string]any{
			"request_id": middleware.GetReqID(r.Context()),
		})
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger := api.logger.WithContext(ctx)
		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("http.request.failed", args...)
		case strings.HasPrefix(r.URL.Path, "/metrics"), r.URL.Path == "/healthz":
			logger.Debug("http.request.served", args...)
		default:
			logger.Info("http.request.served", args...)
		}
	})
}
