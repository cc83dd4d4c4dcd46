package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"go.uber.org/goleak"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/issuetest"
	"github.com/alfredjeanlab/issuefacets/internal/model"
	"github.com/alfredjeanlab/issuefacets/internal/panel"
	"github.com/alfredjeanlab/issuefacets/internal/provider"
	"github.com/alfredjeanlab/issuefacets/internal/ui"
)

func TestSearchOnce(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ui.ForceNoColor()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mem := provider.NewMemory(issuetest.Fixture())
	opts := panel.Options{Expanded: []facet.Dimension{facet.Type, facet.Language}}
	acts := []facet.Action{facet.Clicked(facet.Type, string(model.TypeCodeSmell), true)}

	v, err := searchOnce(ctx, mem, opts, acts)
	if err != nil {
		t.Fatalf("searchOnce: %v", err)
	}
	if v.Total != 5 {
		t.Errorf("total = %d, want 5", v.Total)
	}
	keys := v.Keys()
	slices.Sort(keys)
	if diff := cmp.Diff([]string{"issue3", "issue4", "issue5", "issue6", "issue7"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	lang, _ := v.Facet(facet.Language)
	wantLang := []facet.Count{{Value: "java", Count: 4}, {Value: "ts", Count: 1}}
	if diff := cmp.Diff(wantLang, lang.Counts); diff != "" {
		t.Errorf("language counts mismatch (-want +got):\n%s", diff)
	}
	typ, _ := v.Facet(facet.Type)
	wantType := []facet.Count{{Value: "CODE_SMELL", Count: 5}, {Value: "BUG", Count: 1}, {Value: "VULNERABILITY", Count: 1}}
	if diff := cmp.Diff(wantType, typ.Counts); diff != "" {
		t.Errorf("type counts mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	printView(&buf, v)
	out := buf.String()
	for _, want := range []string{"type\n", "* CODE_SMELL", "  BUG", "language\n", "5 issues (5 total)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "severity\n") {
		t.Errorf("collapsed facet rendered:\n%s", out)
	}
}

func TestSearchOnceOnlyMineWithoutViewer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mem := provider.NewMemory(issuetest.Fixture())
	acts := []facet.Action{facet.ScalarSet(facet.OnlyMine, facet.FlagValue(true))}

	_, err := searchOnce(ctx, mem, panel.Options{}, acts)
	if !errors.Is(err, provider.ErrNoViewer) {
		t.Fatalf("expected ErrNoViewer, got %v", err)
	}

	v, err := searchOnce(ctx, mem, panel.Options{Viewer: issuetest.CurrentUser}, acts)
	if err != nil {
		t.Fatalf("searchOnce: %v", err)
	}
	if diff := cmp.Diff([]string{"issue3"}, v.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchOnceTimeout(t *testing.T) {
	block := provider.Func(func(ctx context.Context, _ provider.Request) (*provider.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := searchOnce(ctx, block, panel.Options{}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPrintViewJSON(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mem := provider.NewMemory(issuetest.Fixture())
	acts := []facet.Action{facet.Clicked(facet.CodeVariant, "variant 1", false)}
	v, err := searchOnce(ctx, mem, panel.Options{Expanded: []facet.Dimension{}}, acts)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := printViewJSON(&buf, v); err != nil {
		t.Fatal(err)
	}
	var got viewJSON
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if got.Total != 1 || got.Issues[0].Key != "issue7" {
		t.Errorf("unexpected result %+v", got)
	}
	if diff := cmp.Diff(map[string]any{"codeVariants": []any{"variant 1"}}, got.Query); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
	if len(got.Facets) != 0 {
		t.Errorf("expected no expanded facets, got %v", got.Facets)
	}
}

func TestPanelOptions(t *testing.T) {
	t.Setenv("FACETS_PANEL_CONFIG", "")

	newCmd := func(args ...string) *cobra.Command {
		cmd := &cobra.Command{Use: "test"}
		addPanelFlags(cmd)
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatal(err)
		}
		return cmd
	}

	opts, err := panelOptions(newCmd())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]facet.Dimension{facet.Type, facet.Severity}, opts.Expanded); diff != "" {
		t.Errorf("default expanded mismatch (-want +got):\n%s", diff)
	}
	if opts.PageSize != provider.DefaultPageSize {
		t.Errorf("page size = %d", opts.PageSize)
	}

	opts, err = panelOptions(newCmd("--expand", "language,rules", "--page-size", "5"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]facet.Dimension{facet.Language, facet.Rule}, opts.Expanded); diff != "" {
		t.Errorf("expanded mismatch (-want +got):\n%s", diff)
	}
	if opts.PageSize != 5 {
		t.Errorf("page size = %d, want 5", opts.PageSize)
	}

	opts, err = panelOptions(newCmd("--expand", ""))
	if err != nil {
		t.Fatal(err)
	}
	if opts.Expanded == nil || len(opts.Expanded) != 0 {
		t.Errorf("expected explicit empty expansion, got %v", opts.Expanded)
	}

	if _, err := panelOptions(newCmd("--expand", "color")); err == nil {
		t.Error("expected error for unknown facet")
	}
}
