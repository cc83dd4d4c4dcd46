package server

import (
	"encoding/json"
	"errors"
	"net/http"
)

// viewerHeader names the logged in user for "only mine" searches and event actors.
const viewerHeader = "X-Facets-User"

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except the health probes) must
// include a valid Authorization: Bearer <token> header.
func (s *FacetsServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/issues/search", s.handleSearchIssues)
	mux.HandleFunc("GET /v1/issues/facet_values", s.handleSearchFacetValues)
	mux.HandleFunc("POST /v1/issues", s.handleCreateIssue)
	mux.HandleFunc("GET /v1/issues/{key}", s.handleGetIssue)
	mux.HandleFunc("DELETE /v1/issues/{key}", s.handleDeleteIssue)
	mux.HandleFunc("GET /v1/issues/{key}/events", s.handleGetIssueEvents)
	mux.HandleFunc("GET /v1/settings/new_code_period", s.handleGetNewCodePeriod)
	mux.HandleFunc("PUT /v1/settings/new_code_period", s.handleSetNewCodePeriod)
	mux.HandleFunc("GET /v1/workspace", s.handleGetWorkspace)
	mux.HandleFunc("PUT /v1/workspace", s.handleSetWorkspace)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/liveness", s.handleLiveness)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health. It always answers 200 and reports
// each node check.
func (s *FacetsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.checker.Evaluate(r.Context())
	status := "ok"
	if !report.Alive {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "checks": report.Checks})
}

// handleLiveness handles GET /v1/liveness: 204 when alive, 500 otherwise.
func (s *FacetsServer) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if !s.checker.Liveness(r.Context()) {
		writeError(w, http.StatusInternalServerError, "liveness check failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a service error to 400, 404 or 500.
func writeServiceError(w http.ResponseWriter, err error, notFound string) {
	var ie inputError
	switch {
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, ie.Error())
	case isNotFound(err):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, errNoValueSearch):
		writeError(w, http.StatusNotImplemented, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
