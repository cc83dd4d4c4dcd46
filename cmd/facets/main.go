package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/issuefacets/internal/client"
	"github.com/alfredjeanlab/issuefacets/internal/ui"
)

var (
	serverURL  string
	authToken  string
	viewer     string
	jsonOutput bool
	noColor    bool

	facetsClient client.FacetsClient
)

// defaultViewer is the git user name, used as "me" for --mine and as the
// actor of settings changes.
func defaultViewer() string {
	if v := os.Getenv("FACETS_VIEWER"); v != "" {
		return v
	}
	if v := loadActiveRemote().Viewer; v != "" {
		return v
	}
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		return strings.TrimSpace(string(out))
	}
	return ""
}

func defaultServerURL() string {
	if s := os.Getenv("FACETS_URL"); s != "" {
		return s
	}
	if u := loadActiveRemote().URL; u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if t := os.Getenv("FACETS_TOKEN"); t != "" {
		return t
	}
	return loadActiveRemote().Token
}

var rootCmd = &cobra.Command{
	Use:           "facets <command>",
	Short:         "Browse issues through facet filters",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		if serverURL == "" {
			return fmt.Errorf("no server URL; pass --url or run 'facets remote use <name>'")
		}
		facetsClient = client.NewHTTPClient(serverURL, authToken, client.WithViewer(viewer))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if facetsClient != nil {
			facetsClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", defaultServerURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token")
	rootCmd.PersistentFlags().StringVar(&viewer, "viewer", defaultViewer(), "login of the current user")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "issues", Title: "Issues:"},
		&cobra.Group{ID: "settings", Title: "Settings:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Issues
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(valuesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(issueCmd)

	// Settings
	rootCmd.AddCommand(newCodeCmd)
	rootCmd.AddCommand(workspaceCmd)
	rootCmd.AddCommand(tutorialCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
