package provider

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// Sort keys accepted in facet.Paging.Sort.
const (
	SortCreationDate = "CREATION_DATE"
	SortSeverity     = "SEVERITY"
)

var severityRank = map[model.Severity]int{
	model.SeverityBlocker:  0,
	model.SeverityCritical: 1,
	model.SeverityMajor:    2,
	model.SeverityMinor:    3,
	model.SeverityInfo:     4,
}

// Evaluate runs req against issues. Facet counts for a dimension are
// computed with that dimension's own constraint removed, so a facet keeps
// listing its unselected values.
func Evaluate(issues []*model.Issue, req Request) (*Result, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	q := req.Query

	matched := filter(issues, q.Filters(), req.Viewer)
	if err := sortIssues(matched, q.Paging); err != nil {
		return nil, err
	}

	res := &Result{Total: len(matched), Issues: page(matched, q.Paging)}
	if len(req.Facets) > 0 {
		res.Facets = make(facet.Counts, len(req.Facets))
		for _, d := range req.Facets {
			res.Facets[d] = countFacet(issues, q.Filters(), req.Viewer, d)
		}
	}
	return res, nil
}

func checkRequest(req Request) error {
	if req.Query.AssignedToMe && req.Viewer == "" {
		return ErrNoViewer
	}
	for _, d := range req.Facets {
		if d != facet.CreationDate && d.Kind() != facet.Multi {
			return fmt.Errorf("%w: %q has no counts", facet.ErrUnknownDimension, d)
		}
	}
	if req.Query.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page size %d exceeds maximum %d", ErrInvalidRequest, req.Query.PageSize, MaxPageSize)
	}
	return nil
}

func filter(issues []*model.Issue, q facet.Query, viewer string) []*model.Issue {
	var out []*model.Issue
	for _, is := range issues {
		if matches(is, q, viewer) {
			out = append(out, is)
		}
	}
	return out
}

// matches ANDs every constraint in q; within a multi-valued dimension any
// selected value matches.
func matches(is *model.Issue, q facet.Query, viewer string) bool {
	for _, d := range facet.MultiValued() {
		want := q.Multi(d)
		if len(want) == 0 {
			continue
		}
		if !slices.ContainsFunc(attr(is, d), func(v string) bool { return slices.Contains(want, v) }) {
			return false
		}
	}
	created := is.CreatedAt.UTC().Format(facet.DateLayout)
	if q.CreatedAfter != "" && created < q.CreatedAfter {
		return false
	}
	if q.CreatedBefore != "" && created > q.CreatedBefore {
		return false
	}
	if q.InNewCodePeriod && !is.InNewCodePeriod {
		return false
	}
	if q.AssignedToMe && is.Assignee != viewer {
		return false
	}
	return true
}

// attr returns the values issue carries for a multi-valued dimension.
func attr(is *model.Issue, d facet.Dimension) []string {
	one := func(s string) []string {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	switch d {
	case facet.Type:
		return one(string(is.Type))
	case facet.Severity:
		return one(string(is.Severity))
	case facet.Scope:
		return one(string(is.Scope))
	case facet.Resolution:
		return one(string(is.Resolution))
	case facet.Status:
		return one(string(is.Status))
	case facet.Rule:
		return one(is.Rule)
	case facet.Tag:
		return is.Tags
	case facet.Project:
		return one(is.Project)
	case facet.Assignee:
		return one(is.Assignee)
	case facet.Author:
		return one(is.Author)
	case facet.Language:
		return one(is.Language)
	case facet.CodeVariant:
		return is.CodeVariants
	case facet.OWASPTop10_2021:
		return is.OWASPTop10_2021
	}
	return nil
}

func countFacet(issues []*model.Issue, q facet.Query, viewer string, d facet.Dimension) []facet.Count {
	if d == facet.CreationDate {
		q = q.Without(facet.CreationDateFrom).Without(facet.CreationDateTo)
	} else {
		q = q.Without(d)
	}

	counts := map[string]int{}
	for _, is := range filter(issues, q, viewer) {
		if d == facet.CreationDate {
			counts[is.CreatedAt.UTC().Format("2006-01")]++
			continue
		}
		for _, v := range attr(is, d) {
			counts[v]++
		}
	}

	out := make([]facet.Count, 0, len(counts))
	for v, n := range counts {
		out = append(out, facet.Count{Value: v, Count: n})
	}
	if d == facet.CreationDate {
		slices.SortFunc(out, func(a, b facet.Count) int { return cmp.Compare(a.Value, b.Value) })
		return out
	}
	slices.SortFunc(out, func(a, b facet.Count) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Value, b.Value))
	})
	return out
}

func sortIssues(issues []*model.Issue, p facet.Paging) error {
	var less func(a, b *model.Issue) int
	switch p.Sort {
	case "":
		return nil
	case SortCreationDate:
		less = func(a, b *model.Issue) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortSeverity:
		less = func(a, b *model.Issue) int { return cmp.Compare(severityRank[a.Severity], severityRank[b.Severity]) }
	default:
		return fmt.Errorf("%w: unknown sort %q", ErrInvalidRequest, p.Sort)
	}
	slices.SortStableFunc(issues, func(a, b *model.Issue) int {
		if p.Asc {
			return less(a, b)
		}
		return less(b, a)
	})
	return nil
}

func page(issues []*model.Issue, p facet.Paging) []*model.Issue {
	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	n := max(p.Page, 1)
	start := (n - 1) * size
	if start >= len(issues) {
		return []*model.Issue{}
	}
	return issues[start:min(start+size, len(issues))]
}
