package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/issuefacets/internal/model"
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Short:   "Show or change workspace flags",
	GroupID: "settings",
}

var workspaceShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the workspace flags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := facetsClient.GetWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), ws)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reindexing: %t\n", ws.NeedIssueSync)
		return nil
	},
}

var workspaceReindexCmd = &cobra.Command{
	Use:       "reindex on|off",
	Short:     "Mark issue reindexing as started or finished",
	Long:      "While reindexing, facets whose data is unreliable are hidden from the panel.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var syncing bool
		switch args[0] {
		case "on":
			syncing = true
		case "off":
		default:
			return fmt.Errorf("expected on or off, got %q", args[0])
		}
		ws, err := facetsClient.SetWorkspace(cmd.Context(), model.Workspace{NeedIssueSync: syncing})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), ws)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reindexing: %t\n", ws.NeedIssueSync)
		return nil
	},
}

func init() {
	workspaceCmd.AddCommand(workspaceShowCmd)
	workspaceCmd.AddCommand(workspaceReindexCmd)
}
