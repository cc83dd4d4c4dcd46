package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Show server health",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := facetsClient.Health(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), rep)
		}
		fmt.Fprintln(cmd.OutOrStdout(), rep.Status)
		names := make([]string, 0, len(rep.Checks))
		for name := range rep.Checks {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-8s %s\n", name, strings.ToLower(rep.Checks[name]))
		}
		if rep.Status != "ok" {
			return fmt.Errorf("server is %s", rep.Status)
		}
		return nil
	},
}
