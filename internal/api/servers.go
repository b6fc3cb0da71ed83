package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pbonnel/backcheck/internal/model"
	"github.com/pbonnel/backcheck/internal/store"
)

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// handleListServers returns the full registry.
//
//	@Summary	List servers
//	@Tags		servers
//	@Produce	json
//	@Success	200	{array}		model.ServerEntry
//	@Failure	500	{object}	errorResponse
//	@Router		/api/servers [get]
func (s *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListServers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []model.ServerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleCreateServer registers a server.
//
//	@Summary	Create server
//	@Tags		servers
//	@Accept		json
//	@Produce	json
//	@Param		server	body		model.ServerEntry	true	"Server entry"
//	@Success	201		{object}	model.ServerEntry
//	@Failure	400		{object}	errorResponse
//	@Failure	409		{object}	errorResponse
//	@Router		/api/servers [post]
func (s *Server) handleCreateServer(w http.ResponseWriter, r *http.Request) {
	var entry model.ServerEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entry.Hostname = strings.TrimSpace(entry.Hostname)
	if entry.Hostname == "" {
		writeError(w, http.StatusBadRequest, "hostname is required")
		return
	}

	id, err := s.store.CreateServer(&entry)
	if errors.Is(err, store.ErrDuplicateHostname) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.cache.Invalidate()
	created, err := s.store.GetServer(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleGetServer returns one registry entry.
//
//	@Summary	Get server
//	@Tags		servers
//	@Produce	json
//	@Param		id	path		int	true	"Server ID"
//	@Success	200	{object}	model.ServerEntry
//	@Failure	404	{object}	errorResponse
//	@Router		/api/servers/{id} [get]
func (s *Server) handleGetServer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	entry, err := s.store.GetServer(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleUpdateServer rewrites a registry entry.
//
//	@Summary	Update server
//	@Tags		servers
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int					true	"Server ID"
//	@Param		server	body		model.ServerEntry	true	"Server entry"
//	@Success	200		{object}	model.ServerEntry
//	@Failure	404		{object}	errorResponse
//	@Router		/api/servers/{id} [put]
func (s *Server) handleUpdateServer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var entry model.ServerEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entry.ID = id
	entry.Hostname = strings.TrimSpace(entry.Hostname)
	if entry.Hostname == "" {
		writeError(w, http.StatusBadRequest, "hostname is required")
		return
	}

	err = s.store.UpdateServer(&entry)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "server not found")
		return
	case errors.Is(err, store.ErrDuplicateHostname):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.cache.Invalidate()
	updated, err := s.store.GetServer(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteServer removes a registry entry.
//
//	@Summary	Delete server
//	@Tags		servers
//	@Param		id	path	int	true	"Server ID"
//	@Success	204
//	@Failure	404	{object}	errorResponse
//	@Router		/api/servers/{id} [delete]
func (s *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	err = s.store.DeleteServer(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.cache.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

type suspendRequest struct {
	From   time.Time `json:"from"`
	Until  time.Time `json:"until"`
	Reason string    `json:"reason"`
	By     string    `json:"by"`
}

// handleSuspendServer sets a suspension window on an entry. A suspended
// server drops out of compliance scope for the duration.
//
//	@Summary	Suspend server
//	@Tags		servers
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int				true	"Server ID"
//	@Param		window	body		suspendRequest	true	"Suspension window"
//	@Success	200		{object}	model.ServerEntry
//	@Failure	400		{object}	errorResponse
//	@Failure	404		{object}	errorResponse
//	@Router		/api/servers/{id}/suspend [post]
func (s *Server) handleSuspendServer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req suspendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.From.IsZero() || req.Until.IsZero() || !req.Until.After(req.From) {
		writeError(w, http.StatusBadRequest, "until must be after from")
		return
	}

	err = s.store.SuspendServer(id, req.From, req.Until, req.Reason, req.By)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.cache.Invalidate()
	entry, err := s.store.GetServer(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleReactivateServer clears any suspension window.
//
//	@Summary	Reactivate server
//	@Tags		servers
//	@Produce	json
//	@Param		id	path		int	true	"Server ID"
//	@Success	200	{object}	model.ServerEntry
//	@Failure	404	{object}	errorResponse
//	@Router		/api/servers/{id}/reactivate [post]
func (s *Server) handleReactivateServer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	err = s.store.ReactivateServer(id, r.URL.Query().Get("by"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.cache.Invalidate()
	entry, err := s.store.GetServer(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
