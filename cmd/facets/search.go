package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/issuefacets/internal/config"
	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/panel"
	"github.com/alfredjeanlab/issuefacets/internal/provider"
)

var searchFilters *filterFlags

var searchCmd = &cobra.Command{
	Use:     "search",
	Short:   "Search issues and show facet counts",
	GroupID: "issues",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		acts, err := searchFilters.actions()
		if err != nil {
			return err
		}
		opts, err := panelOptions(cmd)
		if err != nil {
			return err
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		v, err := searchOnce(ctx, facetsClient, opts, acts)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printViewJSON(cmd.OutOrStdout(), v)
		}
		printView(cmd.OutOrStdout(), v)
		return nil
	},
}

// panelOptions reads the panel config file, then applies --expand and
// --page-size on top of it.
func panelOptions(cmd *cobra.Command) (panel.Options, error) {
	pc, err := config.LoadPanel(os.Getenv("FACETS_PANEL_CONFIG"))
	if err != nil {
		return panel.Options{}, err
	}
	expanded, err := pc.ExpandedFacets()
	if err != nil {
		return panel.Options{}, err
	}
	if cmd.Flags().Changed("expand") {
		names, _ := cmd.Flags().GetStringSlice("expand")
		if expanded, err = parseDimensions(names); err != nil {
			return panel.Options{}, err
		}
		if expanded == nil {
			expanded = []facet.Dimension{}
		}
	}
	pageSize := pc.PageSize
	if cmd.Flags().Changed("page-size") {
		pageSize, _ = cmd.Flags().GetInt("page-size")
	}
	return panel.Options{Expanded: expanded, PageSize: pageSize, Viewer: viewer}, nil
}

// searchOnce mounts a panel, applies acts and returns the first view in
// which the issue list and every expanded facet have loaded.
func searchOnce(ctx context.Context, p provider.Provider, opts panel.Options, acts []facet.Action) (panel.View, error) {
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
			return panel.View{}, fmt.Errorf("%s %s: %w", a.Op, a.Dimension, err)
		}
	}
	v, err := awaitSettled(ctx, pn)
	if err != nil {
		return panel.View{}, err
	}
	if v.Err != nil {
		return v, v.Err
	}
	return v, nil
}

// settled reports whether v has no outstanding request.
func settled(v panel.View) bool {
	if v.Loading {
		return false
	}
	for _, f := range v.Facets {
		if f.State == panel.ExpandedLoading {
			return false
		}
	}
	return true
}

func awaitSettled(ctx context.Context, pn *panel.Panel) (panel.View, error) {
	v, err := pn.Snapshot(ctx)
	if err != nil {
		return panel.View{}, err
	}
	for !settled(v) {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return panel.View{}, fmt.Errorf("search did not complete: %w", ctx.Err())
			}
			return panel.View{}, ctx.Err()
		case v = <-pn.Views():
		}
	}
	return v, nil
}

func addPanelFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("expand", nil, "facets to show with counts (default from the panel config)")
	cmd.Flags().Int("page-size", 0, "number of issues to list")
}

func init() {
	searchFilters = addFilterFlags(searchCmd)
	addPanelFlags(searchCmd)
	searchCmd.Flags().Duration("timeout", 30*time.Second, "give up after this long")
}
