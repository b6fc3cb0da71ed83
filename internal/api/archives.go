package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pbonnel/backcheck/internal/ingest"
	"github.com/pbonnel/backcheck/internal/model"
	"github.com/pbonnel/backcheck/internal/store"
)

// handleListArchives returns sealed periods, newest first.
//
//	@Summary	List archives
//	@Tags		archives
//	@Produce	json
//	@Param		limit	query		int	false	"Max entries"	default(30)
//	@Success	200		{array}		model.ComplianceArchive
//	@Failure	500		{object}	errorResponse
//	@Router		/api/archives [get]
func (s *Server) handleListArchives(w http.ResponseWriter, r *http.Request) {
	limit := 30
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be positive")
			return
		}
		limit = n
	}

	archives, err := s.store.ListArchives(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if archives == nil {
		archives = []model.ComplianceArchive{}
	}
	writeJSON(w, http.StatusOK, archives)
}

// handleGetArchive returns one sealed period with its full host lists.
//
//	@Summary	Get archive
//	@Tags		archives
//	@Produce	json
//	@Param		id	path		int	true	"Archive ID"
//	@Success	200	{object}	model.ComplianceArchive
//	@Failure	404	{object}	errorResponse
//	@Router		/api/archives/{id} [get]
func (s *Server) handleGetArchive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	archive, err := s.store.GetArchive(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "archive not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, archive)
}

// handleDeleteArchive removes a sealed period. Operator action.
//
//	@Summary	Delete archive
//	@Tags		archives
//	@Param		id	path	int	true	"Archive ID"
//	@Success	204
//	@Failure	404	{object}	errorResponse
//	@Router		/api/archives/{id} [delete]
func (s *Server) handleDeleteArchive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	err = s.store.DeleteArchive(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "archive not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleForceArchive seals the last 24 hours immediately, bypassing the
// once-per-period check.
//
//	@Summary	Force archive
//	@Tags		archives
//	@Produce	json
//	@Success	200	{object}	model.ArchiveOutcome
//	@Failure	500	{object}	errorResponse
//	@Router		/api/archives/force [post]
func (s *Server) handleForceArchive(w http.ResponseWriter, r *http.Request) {
	outcome := s.archiver.Archive(true, timeNow())
	if outcome.Err != "" {
		writeJSON(w, http.StatusInternalServerError, outcome)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// importBody returns the CSV payload: the "file" part of a multipart form,
// or the raw request body for direct uploads.
func importBody(r *http.Request) (io.ReadCloser, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return r.Body, nil
}

// handleImportJobs ingests a job CSV export.
//
//	@Summary	Import jobs CSV
//	@Tags		jobs
//	@Accept		mpfd
//	@Produce	json
//	@Param		file	formData	file	true	"CSV export"
//	@Success	200		{object}	model.ImportStats
//	@Failure	400		{object}	errorResponse
//	@Router		/api/import/jobs [post]
func (s *Server) handleImportJobs(w http.ResponseWriter, r *http.Request) {
	body, err := importBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	stats, err := ingest.ImportJobs(body, s.store)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.cache.Invalidate()
	writeJSON(w, http.StatusOK, stats)
}

// handleImportServers ingests a registry CSV export.
//
//	@Summary	Import servers CSV
//	@Tags		servers
//	@Accept		mpfd
//	@Produce	json
//	@Param		file	formData	file	true	"CSV export"
//	@Success	200		{object}	model.ImportStats
//	@Failure	400		{object}	errorResponse
//	@Router		/api/import/servers [post]
func (s *Server) handleImportServers(w http.ResponseWriter, r *http.Request) {
	body, err := importBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	stats, err := ingest.ImportServers(body, s.store, r.URL.Query().Get("by"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.cache.Invalidate()
	writeJSON(w, http.StatusOK, stats)
}
