package provider

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// MaxValueMatches caps the values one facet value search returns.
const MaxValueMatches = 100

// ValueRequest searches the values of one multi-valued facet. Only values
// carried by issues matching Query, with Dimension's own constraint
// removed, are candidates; Text filters them by a case-insensitive
// substring of the value or its label.
type ValueRequest struct {
	Dimension facet.Dimension `json:"facet"`
	Text      string          `json:"q"`
	Query     facet.Query     `json:"query"`
	Viewer    string          `json:"viewer,omitempty"`
}

// ValueMatch is one facet value found by a value search. Label is the
// display name, e.g. a rule's name for its key.
type ValueMatch struct {
	Value string `json:"val"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ValueSearcher is implemented by providers that can search facet values.
type ValueSearcher interface {
	SearchValues(ctx context.Context, req ValueRequest) ([]ValueMatch, error)
}

// EvaluateValues runs req against issues.
func EvaluateValues(issues []*model.Issue, req ValueRequest) ([]ValueMatch, error) {
	if req.Dimension.Kind() != facet.Multi {
		return nil, fmt.Errorf("%w: %q has no searchable values", facet.ErrUnknownDimension, req.Dimension)
	}
	if req.Query.AssignedToMe && req.Viewer == "" {
		return nil, ErrNoViewer
	}
	q := req.Query.Filters().Without(req.Dimension)
	text := strings.ToLower(strings.TrimSpace(req.Text))

	byValue := map[string]*ValueMatch{}
	for _, is := range filter(issues, q, req.Viewer) {
		for _, v := range attr(is, req.Dimension) {
			m, ok := byValue[v]
			if !ok {
				label := valueLabel(is, req.Dimension, v)
				if text != "" && !strings.Contains(strings.ToLower(v), text) &&
					!strings.Contains(strings.ToLower(label), text) {
					continue
				}
				m = &ValueMatch{Value: v, Label: label}
				byValue[v] = m
			}
			m.Count++
		}
	}

	out := make([]ValueMatch, 0, len(byValue))
	for _, m := range byValue {
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b ValueMatch) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Label, b.Label), cmp.Compare(a.Value, b.Value))
	})
	if len(out) > MaxValueMatches {
		out = out[:MaxValueMatches]
	}
	return out, nil
}

func valueLabel(is *model.Issue, d facet.Dimension, v string) string {
	if d == facet.Rule && is.RuleName != "" {
		return is.RuleName
	}
	return facet.Label(d, v)
}

// SearchValues implements ValueSearcher.
func (m *Memory) SearchValues(ctx context.Context, req ValueRequest) ([]ValueMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return EvaluateValues(m.issues, req)
}

// SearchValues implements ValueSearcher.
func (s *Stored) SearchValues(ctx context.Context, req ValueRequest) ([]ValueMatch, error) {
	issues, err := s.lister.ListIssues(ctx)
	if err != nil {
		return nil, err
	}
	return EvaluateValues(issues, req)
}
