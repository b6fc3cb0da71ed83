// Package api exposes the HTTP surface: the JSON API, the dashboard, and
// the swagger UI.
package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/pbonnel/backcheck/internal/cache"
	"github.com/pbonnel/backcheck/internal/compliance"
	"github.com/pbonnel/backcheck/internal/config"
	"github.com/pbonnel/backcheck/internal/scheduler"
	"github.com/pbonnel/backcheck/internal/store"
	"github.com/pbonnel/backcheck/templates"

	_ "github.com/pbonnel/backcheck/docs/swagger"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

// Server wires the HTTP handlers to the application services.
type Server struct {
	cfg       *config.Config
	store     *store.Store
	cache     *cache.Cache
	archiver  *compliance.Archiver
	scheduler *scheduler.Scheduler
}

func NewServer(cfg *config.Config, st *store.Store, c *cache.Cache, arch *compliance.Archiver, sched *scheduler.Scheduler) *Server {
	return &Server{
		cfg:       cfg,
		store:     st,
		cache:     c,
		archiver:  arch,
		scheduler: sched,
	}
}

// Handler returns the full middleware-wrapped route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.Handle("GET /swagger/", httpSwagger.Handler())

	mux.HandleFunc("POST /api/login", s.handleLogin)

	mux.HandleFunc("GET /api/compliance", s.handleCompliance)
	mux.HandleFunc("POST /api/compliance/refresh", s.handleComplianceRefresh)
	mux.HandleFunc("GET /api/compliance/trend", s.handleComplianceTrend)

	mux.HandleFunc("GET /api/servers", s.handleListServers)
	mux.HandleFunc("POST /api/servers", s.handleCreateServer)
	mux.HandleFunc("GET /api/servers/{id}", s.handleGetServer)
	mux.HandleFunc("PUT /api/servers/{id}", s.handleUpdateServer)
	mux.HandleFunc("DELETE /api/servers/{id}", s.handleDeleteServer)
	mux.HandleFunc("POST /api/servers/{id}/suspend", s.handleSuspendServer)
	mux.HandleFunc("POST /api/servers/{id}/reactivate", s.handleReactivateServer)

	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("POST /api/import/jobs", s.handleImportJobs)
	mux.HandleFunc("POST /api/import/servers", s.handleImportServers)

	mux.HandleFunc("GET /api/archives", s.handleListArchives)
	mux.HandleFunc("GET /api/archives/{id}", s.handleGetArchive)
	mux.HandleFunc("DELETE /api/archives/{id}", s.handleDeleteArchive)
	mux.HandleFunc("POST /api/archives/force", s.handleForceArchive)

	mux.HandleFunc("GET /api/scheduler/status", s.handleSchedulerStatus)

	return SecurityHeadersMiddleware(RecoveryMiddleware(LoggingMiddleware(s.requireAuth(mux))))
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes into a buffer first so an encoding failure can still
// produce a clean 500 instead of a half-written body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// renderHTML renders a templ component through a buffer so template errors
// surface as a 500, not a truncated page.
func renderHTML(w http.ResponseWriter, r *http.Request, component templ.Component) {
	var buf bytes.Buffer
	if err := component.Render(r.Context(), &buf); err != nil {
		slog.Error("rendering page", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleHealth reports liveness and database reachability.
//
//	@Summary	Health check
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.CountServers(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	res := s.cache.Get(timeNow())
	status := s.scheduler.Status(timeNow())
	renderHTML(w, r, templates.Dashboard(res, status.NextArchiveAt))
}
