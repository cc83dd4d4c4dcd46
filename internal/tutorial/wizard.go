// Package tutorial generates the Bitbucket Pipelines onboarding steps: the
// repository variables to define and the bitbucket-pipelines.yml to commit.
package tutorial

import (
	"errors"
	"fmt"
)

// Step is one stage of the tutorial.
type Step int

const (
	StepRepositoryVariables Step = iota + 1
	StepYAML
	StepAllSet
)

func (s Step) String() string {
	switch s {
	case StepRepositoryVariables:
		return "repository variables"
	case StepYAML:
		return "yaml"
	case StepAllSet:
		return "all set"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// ErrNoBuildTool is returned when the pipeline is requested before a build
// tool was chosen.
var ErrNoBuildTool = errors.New("no build tool selected")

// Variable is a secured repository variable the pipeline reads.
type Variable struct {
	Name  string
	Value string
}

// Wizard tracks progress through the tutorial.
type Wizard struct {
	ProjectKey string
	MainBranch string
	BaseURL    string

	buildTool BuildTool
}

// NewWizard returns a wizard for a project analysed on baseURL.
func NewWizard(projectKey, mainBranch, baseURL string) *Wizard {
	return &Wizard{ProjectKey: projectKey, MainBranch: mainBranch, BaseURL: baseURL}
}

// SelectBuildTool picks the build tool, which completes the YAML step.
func (w *Wizard) SelectBuildTool(bt BuildTool) error {
	if !bt.IsValid() {
		return fmt.Errorf("unknown build tool %q", bt)
	}
	w.buildTool = bt
	return nil
}

// BuildTool returns the selected build tool, empty before selection.
func (w *Wizard) BuildTool() BuildTool { return w.buildTool }

// Done reports whether the YAML step was completed.
func (w *Wizard) Done() bool { return w.buildTool != "" }

// Steps returns the steps to display. The final step appears once the YAML
// step is done.
func (w *Wizard) Steps() []Step {
	steps := []Step{StepRepositoryVariables, StepYAML}
	if w.Done() {
		steps = append(steps, StepAllSet)
	}
	return steps
}

// Variables lists the repository variables to create. The token value is
// left for the user to generate.
func (w *Wizard) Variables() []Variable {
	return []Variable{
		{Name: "SONAR_TOKEN", Value: "<generate a token>"},
		{Name: "SONAR_HOST_URL", Value: w.BaseURL},
	}
}

// ShowExampleRepositories reports whether the C/C++ example repositories
// note is shown next to the pipeline.
func (w *Wizard) ShowExampleRepositories() bool {
	return w.buildTool == BuildToolCFamily
}

// Pipeline renders bitbucket-pipelines.yml for the selected build tool.
func (w *Wizard) Pipeline() ([]byte, error) {
	if !w.Done() {
		return nil, ErrNoBuildTool
	}
	return PipelineYAML(w.buildTool, w.MainBranch, w.ProjectKey)
}
