package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/model"
	"github.com/alfredjeanlab/issuefacets/internal/panel"
	"github.com/alfredjeanlab/issuefacets/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// viewJSON is the machine-readable form of a panel view.
type viewJSON struct {
	Query  map[string]any `json:"query"`
	Total  int            `json:"total"`
	Issues []*model.Issue `json:"issues"`
	Facets facet.Counts   `json:"facets"`
}

func printViewJSON(w io.Writer, v panel.View) error {
	out := viewJSON{Query: v.Query.Params(), Total: v.Total, Issues: v.Issues, Facets: facet.Counts{}}
	if out.Issues == nil {
		out.Issues = []*model.Issue{}
	}
	for _, f := range v.Facets {
		if f.Visible && f.State == panel.ExpandedLoaded {
			out.Facets[f.Dimension] = f.Counts
		}
	}
	return printJSON(w, out)
}

// printView renders the expanded facets followed by the issue list.
// Selected facet values are marked with "*".
func printView(w io.Writer, v panel.View) {
	for _, f := range v.Facets {
		if !f.Visible || !f.State.Expanded() {
			continue
		}
		fmt.Fprintln(w, ui.RenderAccent(string(f.Dimension)))
		selected := v.Selection.Values(f.Dimension)
		for _, c := range f.Counts {
			marker, value := " ", fmt.Sprintf("%-30s", facet.Label(f.Dimension, c.Value))
			if slices.Contains(selected, c.Value) {
				marker, value = "*", ui.RenderSelected(value)
			}
			fmt.Fprintf(w, "  %s %s %s\n", marker, value, ui.RenderMuted(fmt.Sprint(c.Count)))
		}
	}
	if len(v.Facets) > 0 {
		fmt.Fprintln(w)
	}
	printIssueTable(w, v.Issues, v.Total)
}

func printIssueTable(w io.Writer, issues []*model.Issue, total int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTYPE\tSEVERITY\tSTATUS\tRULE\tMESSAGE")
	for _, is := range issues {
		msg := is.Message
		if len(msg) > 50 {
			msg = msg[:47] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", is.Key, is.Type, is.Severity, is.Status, is.Rule, msg)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d issues (%d total)\n", len(issues), total)
}

func printIssue(w io.Writer, is *model.Issue) {
	fmt.Fprintf(w, "Key:         %s\n", is.Key)
	fmt.Fprintf(w, "Message:     %s\n", is.Message)
	fmt.Fprintf(w, "Type:        %s\n", is.Type)
	fmt.Fprintf(w, "Severity:    %s\n", is.Severity)
	fmt.Fprintf(w, "Scope:       %s\n", is.Scope)
	fmt.Fprintf(w, "Status:      %s\n", is.Status)
	if is.Resolution != "" {
		fmt.Fprintf(w, "Resolution:  %s\n", is.Resolution)
	}
	fmt.Fprintf(w, "Rule:        %s\n", is.Rule)
	fmt.Fprintf(w, "Project:     %s\n", is.Project)
	if is.Language != "" {
		fmt.Fprintf(w, "Language:    %s\n", is.Language)
	}
	if len(is.Tags) > 0 {
		fmt.Fprintf(w, "Tags:        %s\n", strings.Join(is.Tags, ", "))
	}
	if len(is.CodeVariants) > 0 {
		fmt.Fprintf(w, "Variants:    %s\n", strings.Join(is.CodeVariants, ", "))
	}
	if is.Assignee != "" {
		fmt.Fprintf(w, "Assignee:    %s\n", is.Assignee)
	}
	if is.Author != "" {
		fmt.Fprintf(w, "Author:      %s\n", is.Author)
	}
	fmt.Fprintf(w, "New code:    %t\n", is.InNewCodePeriod)
	if !is.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created At:  %s\n", is.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printEvents(w io.Writer, evts []*model.Event) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTOPIC\tACTOR\tAT")
	for _, e := range evts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Topic, e.Actor, e.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()
}

func printNewCodePeriod(w io.Writer, p *model.NewCodePeriod) {
	switch p.Type {
	case model.NewCodeNumberOfDays:
		fmt.Fprintf(w, "%s: %s days\n", p.Type, p.Value)
	case model.NewCodeReferenceBranch:
		fmt.Fprintf(w, "%s: %s\n", p.Type, p.Value)
	default:
		fmt.Fprintln(w, p.Type)
	}
}
