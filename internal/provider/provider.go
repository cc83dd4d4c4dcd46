// Package provider defines the Results Provider contract used by the facet
// panel and a reference implementation that matches a query against an
// in-memory issue set.
package provider

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/model"
)

const (
	// DefaultPageSize is used when a query carries no page size.
	DefaultPageSize = 100
	// MaxPageSize caps the page size a caller may request.
	MaxPageSize = 500
)

var (
	// ErrNoViewer is returned for "only mine" queries without a viewer.
	ErrNoViewer = errors.New("assignedToMe requires a logged in viewer")

	// ErrInvalidRequest wraps paging and sort errors.
	ErrInvalidRequest = errors.New("invalid search request")
)

// Request is one search: the composed query, the facets whose counts the
// caller wants, and the login of the viewer for "only mine" queries.
type Request struct {
	Query  facet.Query       `json:"query"`
	Facets []facet.Dimension `json:"facets,omitempty"`
	Viewer string            `json:"viewer,omitempty"`
}

// Result is the answer to a Request.
type Result struct {
	Issues []*model.Issue `json:"issues"`
	Total  int            `json:"total"`
	Facets facet.Counts   `json:"facets,omitempty"`
}

// Provider returns the issues matching a request together with aggregate
// counts for the requested facets. Implementations must return the same
// result for the same request as long as the underlying data is unchanged.
type Provider interface {
	Search(ctx context.Context, req Request) (*Result, error)
}

// Func adapts an ordinary function to the Provider interface.
type Func func(ctx context.Context, req Request) (*Result, error)

// Search calls f(ctx, req).
func (f Func) Search(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}
