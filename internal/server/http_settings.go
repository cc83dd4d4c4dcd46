package server

import (
	"encoding/json"
	"net/http"

	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// handleGetNewCodePeriod handles GET /v1/settings/new_code_period.
func (s *FacetsServer) handleGetNewCodePeriod(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetNewCodePeriod(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get new code period")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleSetNewCodePeriod handles PUT /v1/settings/new_code_period.
func (s *FacetsServer) handleSetNewCodePeriod(w http.ResponseWriter, r *http.Request) {
	var in model.NewCodePeriod
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := s.setNewCodePeriod(r.Context(), in, r.Header.Get(viewerHeader))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleGetWorkspace handles GET /v1/workspace.
func (s *FacetsServer) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.store.GetWorkspace(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get workspace")
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

// handleSetWorkspace handles PUT /v1/workspace.
func (s *FacetsServer) handleSetWorkspace(w http.ResponseWriter, r *http.Request) {
	var in model.Workspace
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ws, err := s.setWorkspace(r.Context(), in, r.Header.Get(viewerHeader))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, ws)
}
