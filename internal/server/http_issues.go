package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// handleSearchIssues handles GET /v1/issues/search. Filters and paging use
// the parameters of facet.Query.Values; "facets" lists the dimensions to
// count, comma separated.
func (s *FacetsServer) handleSearchIssues(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q, err := facet.ParseValues(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var names []string
	if v := params.Get("facets"); v != "" {
		names = strings.Split(v, ",")
	}

	res, err := s.search(r.Context(), q, names, r.Header.Get(viewerHeader))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	if res.Issues == nil {
		res.Issues = []*model.Issue{}
	}
	writeJSON(w, http.StatusOK, res)
}

// handleSearchFacetValues handles GET /v1/issues/facet_values. "facet"
// names the facet and "q" the text to look for; the remaining parameters
// are the current query, as for search.
func (s *FacetsServer) handleSearchFacetValues(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q, err := facet.ParseValues(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := params.Get("facet")
	if name == "" {
		writeError(w, http.StatusBadRequest, "facet is required")
		return
	}

	matches, err := s.searchValues(r.Context(), q, name, params.Get("q"), r.Header.Get(viewerHeader))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"facet": name, "values": matches})
}

// handleCreateIssue handles POST /v1/issues.
func (s *FacetsServer) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	var in model.Issue
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	is, err := s.createIssue(r.Context(), &in, r.Header.Get(viewerHeader))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, is)
}

// handleGetIssue handles GET /v1/issues/{key}.
func (s *FacetsServer) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	is, err := s.store.GetIssue(r.Context(), key)
	if err != nil {
		writeServiceError(w, err, "issue not found")
		return
	}
	writeJSON(w, http.StatusOK, is)
}

// handleDeleteIssue handles DELETE /v1/issues/{key}.
func (s *FacetsServer) handleDeleteIssue(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	if err := s.deleteIssue(r.Context(), key, r.Header.Get(viewerHeader)); err != nil {
		writeServiceError(w, err, "issue not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetIssueEvents handles GET /v1/issues/{key}/events.
func (s *FacetsServer) handleGetIssueEvents(w http.ResponseWriter, r *http.Request) {
	evts, err := s.store.ListEvents(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if evts == nil {
		evts = []*model.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": evts})
}
