package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alfredjeanlab/issuefacets/internal/ui"
	"github.com/spf13/cobra"
)

// helpRule restyles every match of re. Submatch 0 is the whole match.
type helpRule struct {
	re     *regexp.Regexp
	render func(m []string) string
}

var helpRules = []helpRule{
	// Group titles such as "Issues:" or "Flags:".
	{regexp.MustCompile(`(?m)^[A-Z][^\n]*:[ \t]*$`), func(m []string) string {
		return ui.RenderAccent(strings.TrimSpace(m[0]))
	}},
	// Subcommand names in the command listing.
	{regexp.MustCompile(`(?m)^(  )(\S+)(  )`), func(m []string) string {
		return m[1] + ui.RenderCommand(m[2]) + m[3]
	}},
	// Value types after a flag name, e.g. "--types strings".
	{regexp.MustCompile(`(--?\S+\s+)(strings|string|int|duration)\b`), func(m []string) string {
		return m[1] + ui.RenderMuted(m[2])
	}},
	{regexp.MustCompile(`\(default [^)]*\)`), func(m []string) string {
		return ui.RenderMuted(m[0])
	}},
}

// colorizedHelpFunc renders Cobra's usage text, styled when stdout is a
// color terminal.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelpOutput(buf.String()))
	}
}

func colorizeHelpOutput(s string) string {
	for _, r := range helpRules {
		s = r.re.ReplaceAllStringFunc(s, func(match string) string {
			return r.render(r.re.FindStringSubmatch(match))
		})
	}
	return s
}
