package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/issuetest"
	"github.com/alfredjeanlab/issuefacets/internal/model"
)

func TestSearchRuleValuesScopedByType(t *testing.T) {
	m := NewMemory(issuetest.Fixture())

	got, err := m.SearchValues(context.Background(), ValueRequest{Dimension: facet.Rule, Text: "rule"})
	if err != nil {
		t.Fatal(err)
	}
	want := []ValueMatch{
		{Value: "advancedRuleId", Label: "Advanced rule", Count: 2},
		{Value: "simpleRuleId", Label: "Simple rule", Count: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rule search mismatch (-want +got):\n%s", diff)
	}

	// A selected rule does not narrow its own search; the type does.
	got, err = m.SearchValues(context.Background(), ValueRequest{
		Dimension: facet.Rule,
		Text:      "RULE",
		Query:     facet.Query{Types: []string{"VULNERABILITY"}, Rules: []string{"simpleRuleId"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	want = []ValueMatch{{Value: "advancedRuleId", Label: "Advanced rule", Count: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rule search for vulnerabilities mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchValuesMatchesKeysAndLabels(t *testing.T) {
	m := NewMemory(issuetest.Fixture())
	for _, tc := range []struct {
		name string
		req  ValueRequest
		want []string
	}{
		{"RuleKey", ValueRequest{Dimension: facet.Rule, Text: "other"}, []string{"other"}},
		{"EmptyTextListsAll", ValueRequest{Dimension: facet.Rule}, []string{"other", "advancedRuleId", "simpleRuleId"}},
		{"Tag", ValueRequest{Dimension: facet.Tag, Text: "conv"}, []string{"convention"}},
		{"OWASPLabel", ValueRequest{Dimension: facet.OWASPTop10_2021, Text: "injection"}, []string{"a3"}},
		{"NoMatch", ValueRequest{Dimension: facet.Author, Text: "nobody"}, []string{}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := m.SearchValues(context.Background(), tc.req)
			if err != nil {
				t.Fatal(err)
			}
			vals := make([]string, len(got))
			for i, v := range got {
				vals[i] = v.Value
			}
			if diff := cmp.Diff(tc.want, vals); diff != "" {
				t.Errorf("values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearchValuesErrors(t *testing.T) {
	m := NewMemory(issuetest.Fixture())
	for _, tc := range []struct {
		name string
		req  ValueRequest
		want error
	}{
		{"DateFacet", ValueRequest{Dimension: facet.CreationDateFrom}, facet.ErrUnknownDimension},
		{"Unknown", ValueRequest{Dimension: "color"}, facet.ErrUnknownDimension},
		{"OnlyMineAnonymous", ValueRequest{Dimension: facet.Rule, Query: facet.Query{AssignedToMe: true}}, ErrNoViewer},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := m.SearchValues(context.Background(), tc.req); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestOWASPTop10_2021(t *testing.T) {
	m := NewMemory(issuetest.Fixture())
	res, err := m.Search(context.Background(), Request{
		Query:  facet.Query{OWASPTop10_2021: []string{"a1"}},
		Facets: []facet.Dimension{facet.OWASPTop10_2021},
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"issue2"}, issuetest.Keys(res.Issues)); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}
	want := []facet.Count{{Value: "a3", Count: 2}, {Value: "a1", Count: 1}}
	if diff := cmp.Diff(want, res.Facets[facet.OWASPTop10_2021]); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestStoredSearchValues(t *testing.T) {
	p := NewStored(listerFunc(func(context.Context) ([]*model.Issue, error) {
		return issuetest.Fixture(), nil
	}))
	got, err := p.SearchValues(context.Background(), ValueRequest{Dimension: facet.Rule, Text: "simple"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Label != "Simple rule" {
		t.Errorf("got %+v", got)
	}

	boom := errors.New("boom")
	p = NewStored(listerFunc(func(context.Context) ([]*model.Issue, error) { return nil, boom }))
	if _, err := p.SearchValues(context.Background(), ValueRequest{Dimension: facet.Rule}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

var (
	_ ValueSearcher = (*Memory)(nil)
	_ ValueSearcher = (*Stored)(nil)
)
