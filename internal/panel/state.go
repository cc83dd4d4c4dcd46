// Package panel drives the issues page: it owns the facet selection, sends
// one search per selection change, tracks which facets are expanded, and
// discards responses that a newer request superseded.
package panel

import (
	"fmt"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/model"
	"github.com/alfredjeanlab/issuefacets/internal/provider"
)

// State is the display state of one facet.
type State int

const (
	Collapsed State = iota
	ExpandedLoading
	ExpandedLoaded
)

func (s State) String() string {
	switch s {
	case Collapsed:
		return "collapsed"
	case ExpandedLoading:
		return "loading"
	case ExpandedLoaded:
		return "loaded"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Expanded reports whether the facet's value list is shown.
func (s State) Expanded() bool { return s != Collapsed }

// facetState is owned by the run loop.
type facetState struct {
	state  State
	stale  bool   // selection changed since counts were fetched
	loaded bool   // counts were fetched at least once
	gen    uint64 // request whose counts this facet waits for
	counts []facet.Count
	search searchState
}

// searchState is a facet value search; the zero value means none.
type searchState struct {
	text    string
	gen     uint64
	matches []provider.ValueMatch
	err     error
}

// ValueSearch is the rendered state of a facet value search.
type ValueSearch struct {
	Text    string
	Loading bool
	Matches []provider.ValueMatch
	Err     error
}

// FacetView is the rendered state of one facet.
type FacetView struct {
	Dimension facet.Dimension
	State     State
	Stale     bool
	Visible   bool
	Counts    []facet.Count
	// Search is nil unless a value search is active.
	Search *ValueSearch
}

// View is an immutable snapshot of the panel and the issue list.
type View struct {
	Selection facet.Selection
	Query     facet.Query
	Flags     facet.Flags

	Issues  []*model.Issue
	Total   int
	Loading bool
	// Err is the last provider failure for the current query. The
	// selection is kept so the query can be retried.
	Err error

	Facets []FacetView
}

// Facet returns the view of d.
func (v View) Facet(d facet.Dimension) (FacetView, bool) {
	for _, f := range v.Facets {
		if f.Dimension == d {
			return f, true
		}
	}
	return FacetView{}, false
}

// Keys returns the keys of the listed issues.
func (v View) Keys() []string {
	out := make([]string, len(v.Issues))
	for i, is := range v.Issues {
		out[i] = is.Key
	}
	return out
}
