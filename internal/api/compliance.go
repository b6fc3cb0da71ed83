package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pbonnel/backcheck/internal/model"
)

// handleCompliance returns the current compliance result, cached.
//
//	@Summary	Current compliance
//	@Tags		compliance
//	@Produce	json
//	@Success	200	{object}	model.ComplianceResult
//	@Router		/api/compliance [get]
func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Get(timeNow()))
}

// handleComplianceRefresh recomputes immediately, bypassing the cache TTL.
//
//	@Summary	Recompute compliance
//	@Tags		compliance
//	@Produce	json
//	@Success	200	{object}	model.ComplianceResult
//	@Router		/api/compliance/refresh [post]
func (s *Server) handleComplianceRefresh(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Refresh(timeNow()))
}

// handleComplianceTrend returns one rate point per recorded snapshot over
// the requested number of days (default 7, max 365).
//
//	@Summary	Compliance trend
//	@Tags		compliance
//	@Produce	json
//	@Param		days	query		int	false	"Days of history"	default(7)
//	@Success	200		{array}		model.TrendPoint
//	@Failure	500		{object}	errorResponse
//	@Router		/api/compliance/trend [get]
func (s *Server) handleComplianceTrend(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			writeError(w, http.StatusBadRequest, "days must be in [1,365]")
			return
		}
		days = n
	}

	snaps, err := s.store.ListSnapshotsSince(timeNow().AddDate(0, 0, -days))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	points := make([]model.TrendPoint, len(snaps))
	for i, snap := range snaps {
		points[i] = model.TrendPoint{Timestamp: snap.ComputedAt.Unix(), Rate: snap.Rate}
	}
	writeJSON(w, http.StatusOK, points)
}

// handleSchedulerStatus reports the background loop state.
//
//	@Summary	Scheduler status
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	scheduler.Status
//	@Router		/api/scheduler/status [get]
func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.scheduler.Status(timeNow()))
}

// handleListJobs returns raw job records from the last N hours (default 24,
// max 720).
//
//	@Summary	Recent jobs
//	@Tags		jobs
//	@Produce	json
//	@Param		hours	query		int	false	"Window in hours"	default(24)
//	@Success	200		{array}		model.BackupJob
//	@Failure	500		{object}	errorResponse
//	@Router		/api/jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 720 {
			writeError(w, http.StatusBadRequest, "hours must be in [1,720]")
			return
		}
		hours = n
	}

	jobs, err := s.store.ListJobsInRange(timeNow().Add(-time.Duration(hours)*time.Hour), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if jobs == nil {
		jobs = []model.BackupJob{}
	}
	writeJSON(w, http.StatusOK, jobs)
}
