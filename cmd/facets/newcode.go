package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/issuefacets/internal/config"
	"github.com/alfredjeanlab/issuefacets/internal/model"
	"github.com/alfredjeanlab/issuefacets/internal/newcode"
	"github.com/alfredjeanlab/issuefacets/internal/ui"
)

var newCodeCmd = &cobra.Command{
	Use:     "newcode",
	Short:   "Show or change the new code period",
	GroupID: "settings",
}

var newCodeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the new code period",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := facetsClient.GetNewCodePeriod(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		printNewCodePeriod(cmd.OutOrStdout(), p)
		return nil
	},
}

var newCodeSetCmd = &cobra.Command{
	Use:   "set previous|days <n>|branch <name>",
	Short: "Change the new code period",
	Long: `Change the new code period.

  previous       compare with the previous version
  days <n>       issues created in the last n days
  branch <name>  compare with a reference branch

A number of days above the compliance limit is rejected, unless it is the
value already saved, which is kept with a warning.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		saved, err := facetsClient.GetNewCodePeriod(cmd.Context())
		if err != nil {
			return err
		}
		pc, err := config.LoadPanel(os.Getenv("FACETS_PANEL_CONFIG"))
		if err != nil {
			return err
		}
		form := newcode.NewForm(*saved, pc.Bounds())
		if err := fillForm(form, args); err != nil {
			return err
		}
		return saveForm(cmd.Context(), cmd.OutOrStdout(), form, facetsClient)
	},
}

// fillForm applies the set arguments to the form.
func fillForm(form *newcode.Form, args []string) error {
	arg := func() (string, error) {
		if len(args) < 2 {
			return "", fmt.Errorf("%s requires a value", args[0])
		}
		return args[1], nil
	}
	switch strings.ToLower(args[0]) {
	case "previous", "previous_version":
		if len(args) > 1 {
			return fmt.Errorf("previous takes no value")
		}
		form.SelectType(model.NewCodePreviousVersion)
	case "days", "number_of_days":
		v, err := arg()
		if err != nil {
			return err
		}
		form.SelectType(model.NewCodeNumberOfDays)
		form.SetDays(v)
	case "branch", "reference_branch":
		v, err := arg()
		if err != nil {
			return err
		}
		form.SelectType(model.NewCodeReferenceBranch)
		form.SetBranch(v)
	default:
		return fmt.Errorf("unknown new code definition %q", args[0])
	}
	return nil
}

// saveForm saves the draft, reporting a compliance warning or why the
// draft cannot be saved.
func saveForm(ctx context.Context, w io.Writer, form *newcode.Form, s newcode.Saver) error {
	if form.Selected() == model.NewCodeNumberOfDays {
		switch r := form.Validation(); r.Level {
		case newcode.Invalid:
			return fmt.Errorf("invalid number of days %q (%s)", form.Days(), r.Message)
		case newcode.Warning:
			fmt.Fprintln(w, ui.RenderWarning(fmt.Sprintf("warning: %d days is above the compliance limit (%s)", r.Days, r.Message)))
		}
	}
	if !form.Dirty() {
		fmt.Fprintln(w, "new code period unchanged")
		return nil
	}
	if err := form.Save(ctx, s); err != nil {
		if errors.Is(err, newcode.ErrCannotSave) {
			return fmt.Errorf("cannot save %s: %w", form.Draft().Type, err)
		}
		return err
	}
	fmt.Fprint(w, "saved ")
	p := form.Draft()
	printNewCodePeriod(w, &p)
	return nil
}

func init() {
	newCodeCmd.AddCommand(newCodeGetCmd)
	newCodeCmd.AddCommand(newCodeSetCmd)
}
