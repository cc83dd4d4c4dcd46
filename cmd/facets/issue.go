package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/issuefacets/internal/client"
	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/model"
)

var issueCmd = &cobra.Command{
	Use:     "issue",
	Short:   "Create, show and delete issues",
	GroupID: "issues",
}

var issueCreateCmd = &cobra.Command{
	Use:   "create <message>",
	Short: "Create an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := issueFromFlags(cmd, args[0])
		if err != nil {
			return err
		}
		is, err := facetsClient.CreateIssue(cmd.Context(), in)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), is)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", is.Key)
		return nil
	},
}

func issueFromFlags(cmd *cobra.Command, message string) (*model.Issue, error) {
	f := cmd.Flags()
	str := func(name string) string { v, _ := f.GetString(name); return v }
	strs := func(name string) []string { v, _ := f.GetStringSlice(name); return v }

	is := &model.Issue{
		Key:          str("key"),
		Message:      message,
		Type:         model.IssueType(str("type")),
		Severity:     model.Severity(str("severity")),
		Scope:        model.Scope(str("scope")),
		Status:       model.Status(str("status")),
		Resolution:   model.Resolution(str("resolution")),
		Rule:         str("rule"),
		Tags:         strs("tag"),
		Project:      str("project"),
		Assignee:     str("assignee"),
		Author:       str("author"),
		Language:     str("language"),
		CodeVariants: strs("code-variant"),
	}
	is.InNewCodePeriod, _ = f.GetBool("new-code")
	if s := str("created"); s != "" {
		t, err := time.Parse(facet.DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("--created: %w", err)
		}
		is.CreatedAt = t
	}
	return is, nil
}

var issueShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		is, err := facetsClient.GetIssue(cmd.Context(), args[0])
		if client.IsNotFound(err) {
			return fmt.Errorf("issue %q not found", args[0])
		}
		if err != nil {
			return err
		}
		withEvents, _ := cmd.Flags().GetBool("events")
		if !withEvents {
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), is)
			}
			printIssue(cmd.OutOrStdout(), is)
			return nil
		}

		evts, err := facetsClient.GetIssueEvents(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"issue": is, "events": evts})
		}
		printIssue(cmd.OutOrStdout(), is)
		fmt.Fprintln(cmd.OutOrStdout())
		printEvents(cmd.OutOrStdout(), evts)
		return nil
	},
}

var issueDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := facetsClient.DeleteIssue(cmd.Context(), args[0]); err != nil {
			if client.IsNotFound(err) {
				return fmt.Errorf("issue %q not found", args[0])
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	f := issueCreateCmd.Flags()
	f.String("key", "", "issue key (generated when empty)")
	f.String("type", string(model.TypeCodeSmell), "BUG, VULNERABILITY or CODE_SMELL")
	f.String("severity", string(model.SeverityMajor), "INFO, MINOR, MAJOR, CRITICAL or BLOCKER")
	f.String("scope", "", "MAIN or TEST (default MAIN)")
	f.String("status", "", "issue status (default OPEN)")
	f.String("resolution", "", "resolution of a resolved issue")
	f.String("rule", "", "rule key (required)")
	f.String("project", "", "project key (required)")
	f.StringSlice("tag", nil, "tags")
	f.String("assignee", "", "assignee login")
	f.String("author", "", "SCM author")
	f.String("language", "", "language key")
	f.StringSlice("code-variant", nil, "code variants")
	f.Bool("new-code", false, "issue is in the new code period")
	f.String("created", "", "creation day (YYYY-MM-DD, default now)")

	issueShowCmd.Flags().Bool("events", false, "also list the issue's events")

	issueCmd.AddCommand(issueCreateCmd)
	issueCmd.AddCommand(issueShowCmd)
	issueCmd.AddCommand(issueDeleteCmd)
}
