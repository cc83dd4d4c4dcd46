package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/panel"
	"github.com/alfredjeanlab/issuefacets/internal/provider"
	"github.com/alfredjeanlab/issuefacets/internal/ui"
)

var valuesFilters *filterFlags

var valuesCmd = &cobra.Command{
	Use:   "values <facet> <text>",
	Short: "Find the values of a facet matching a text",
	Long: `Find the values of a facet whose key or label contains the text.

Only issues matching the filters on the other facets are counted, so
"facets values rule sql --type VULNERABILITY" lists the rules that
raised vulnerabilities.`,
	GroupID: "issues",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := facet.ParseDimension(args[0])
		if err != nil {
			return err
		}
		acts, err := valuesFilters.actions()
		if err != nil {
			return err
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		opts := panel.Options{Expanded: []facet.Dimension{}, Viewer: viewer}
		matches, err := valuesOnce(ctx, facetsClient, opts, acts, d, args[1])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"facet": d, "values": matches})
		}
		printValueMatches(cmd.OutOrStdout(), matches)
		return nil
	},
}

// valuesOnce mounts a panel, applies acts and runs one value search on d.
func valuesOnce(ctx context.Context, p provider.Provider, opts panel.Options, acts []facet.Action, d facet.Dimension, text string) ([]provider.ValueMatch, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pn := panel.New(p, opts, slog.Default())
	done := make(chan error, 1)
	go func() { done <- pn.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	for _, a := range acts {
		if err := pn.Do(ctx, a); err != nil {
			return nil, fmt.Errorf("%s %s: %w", a.Op, a.Dimension, err)
		}
	}
	if err := pn.SearchValues(ctx, d, text); err != nil {
		return nil, err
	}
	v, err := pn.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for {
		if f, ok := v.Facet(d); ok && f.Search != nil && !f.Search.Loading {
			return f.Search.Matches, f.Search.Err
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("value search did not complete: %w", ctx.Err())
		case v = <-pn.Views():
		}
	}
}

func printValueMatches(w io.Writer, matches []provider.ValueMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("no matching values"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, m := range matches {
		label := m.Label
		if label == m.Value {
			label = ""
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Value, label, ui.RenderMuted(fmt.Sprint(m.Count)))
	}
	tw.Flush()
}

func init() {
	valuesFilters = addFilterFlags(valuesCmd)
	valuesCmd.Flags().Duration("timeout", 30*time.Second, "give up after this long")
}
