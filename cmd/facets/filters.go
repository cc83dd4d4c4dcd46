package main

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
)

// filterFlags binds one flag per facet dimension.
type filterFlags struct {
	multi   map[facet.Dimension]*[]string
	from    string
	to      string
	newCode bool
	mine    bool
}

// flagName turns a dimension name into a kebab-case flag name,
// e.g. codeVariant -> code-variant.
func flagName(d facet.Dimension) string {
	var b strings.Builder
	for _, r := range string(d) {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func addFilterFlags(cmd *cobra.Command) *filterFlags {
	f := &filterFlags{multi: make(map[facet.Dimension]*[]string)}
	for _, d := range facet.MultiValued() {
		var vals []string
		cmd.Flags().StringSliceVar(&vals, flagName(d), nil, fmt.Sprintf("filter on %s (repeatable, comma separated)", d))
		f.multi[d] = &vals
	}
	cmd.Flags().StringVar(&f.from, "created-after", "", "only issues created on or after this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "created-before", "", "only issues created on or before this day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.newCode, "new-code", false, "only issues in the new code period")
	cmd.Flags().BoolVar(&f.mine, "mine", false, "only issues assigned to the viewer")
	return f
}

// actions translates the flags into panel actions, in canonical dimension
// order. Multi values are added with extending clicks so that several
// values of one facet are combined.
func (f *filterFlags) actions() ([]facet.Action, error) {
	var out []facet.Action
	for _, d := range facet.MultiValued() {
		for _, v := range *f.multi[d] {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, facet.Clicked(d, v, true))
			}
		}
	}
	dates := []struct {
		dim  facet.Dimension
		flag string
		val  string
	}{
		{facet.CreationDateFrom, "created-after", f.from},
		{facet.CreationDateTo, "created-before", f.to},
	}
	for _, dt := range dates {
		if dt.val == "" {
			continue
		}
		t, err := time.Parse(facet.DateLayout, dt.val)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", dt.flag, err)
		}
		out = append(out, facet.ScalarSet(dt.dim, facet.DateValue(t)))
	}
	if f.newCode {
		out = append(out, facet.ScalarSet(facet.OnlyNewCode, facet.FlagValue(true)))
	}
	if f.mine {
		out = append(out, facet.ScalarSet(facet.OnlyMine, facet.FlagValue(true)))
	}
	return out, nil
}

// selection folds the actions into a selection without a server round trip.
func (f *filterFlags) selection() (facet.Selection, error) {
	acts, err := f.actions()
	if err != nil {
		return facet.Selection{}, err
	}
	var sel facet.Selection
	for _, a := range acts {
		if sel, err = facet.Reduce(sel, a); err != nil {
			return facet.Selection{}, err
		}
	}
	return sel, nil
}

// parseDimensions resolves dimension or parameter names.
func parseDimensions(names []string) ([]facet.Dimension, error) {
	var out []facet.Dimension
	for _, n := range names {
		if n = strings.TrimSpace(n); n == "" {
			continue
		}
		d, err := facet.ParseDimension(n)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
