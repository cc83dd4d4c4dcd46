package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/issuefacets/internal/tutorial"
	"github.com/alfredjeanlab/issuefacets/internal/ui"
)

var tutorialCmd = &cobra.Command{
	Use:     "tutorial",
	Short:   "CI onboarding tutorials",
	GroupID: "settings",
	// Tutorials render locally and need no client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		return nil
	},
}

var tutorialBitbucketCmd = &cobra.Command{
	Use:   "bitbucket",
	Short: "Set up analysis with Bitbucket Pipelines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		branch, _ := cmd.Flags().GetString("branch")
		tool, _ := cmd.Flags().GetString("build-tool")
		if project == "" {
			return fmt.Errorf("--project is required")
		}

		wiz := tutorial.NewWizard(project, branch, serverURL)
		if tool != "" {
			if err := wiz.SelectBuildTool(tutorial.BuildTool(tool)); err != nil {
				return err
			}
		}
		return renderTutorial(cmd.OutOrStdout(), wiz)
	},
}

func renderTutorial(w io.Writer, wiz *tutorial.Wizard) error {
	for i, step := range wiz.Steps() {
		fmt.Fprintf(w, "%s\n", ui.RenderAccent(fmt.Sprintf("%d. %s", i+1, step)))
		switch step {
		case tutorial.StepRepositoryVariables:
			for _, v := range wiz.Variables() {
				fmt.Fprintf(w, "  %s = %s\n", v.Name, v.Value)
			}
		case tutorial.StepYAML:
			if !wiz.Done() {
				fmt.Fprintln(w, "  choose a build tool with --build-tool:")
				for _, bt := range tutorial.BuildTools() {
					fmt.Fprintf(w, "    %s\n", ui.RenderCommand(string(bt)))
				}
				continue
			}
			yml, err := wiz.Pipeline()
			if err != nil {
				return err
			}
			fmt.Fprintln(w, ui.RenderMuted("  bitbucket-pipelines.yml:"))
			fmt.Fprintln(w, string(yml))
			if wiz.ShowExampleRepositories() {
				fmt.Fprintln(w, "  see the sonarsource-cfamily-examples repositories for complete C/C++ setups")
			}
		case tutorial.StepAllSet:
			fmt.Fprintln(w, "  commit the file; the next pipeline run analyses the project")
		}
	}
	return nil
}

func init() {
	tutorialBitbucketCmd.Flags().String("project", "", "project key")
	tutorialBitbucketCmd.Flags().String("branch", "main", "main branch name")
	tutorialBitbucketCmd.Flags().String("build-tool", "", "maven, gradle, dotnet, cfamily or other")
	tutorialCmd.AddCommand(tutorialBitbucketCmd)
}
