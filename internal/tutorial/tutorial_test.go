package tutorial

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type pipelineDoc struct {
	Image     string `yaml:"image"`
	Pipelines struct {
		Branches     map[string][]struct{ Step pipelineStep } `yaml:"branches"`
		PullRequests map[string][]struct{ Step pipelineStep } `yaml:"pull-requests"`
	} `yaml:"pipelines"`
	Definitions struct {
		Caches map[string]string `yaml:"caches"`
	} `yaml:"definitions"`
}

type pipelineStep struct {
	Name   string   `yaml:"name"`
	Caches []string `yaml:"caches"`
	Script []any    `yaml:"script"`
}

func decode(t *testing.T, data []byte) pipelineDoc {
	t.Helper()
	var doc pipelineDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("generated YAML does not parse: %v\n%s", err, data)
	}
	return doc
}

func TestPipelineYAML(t *testing.T) {
	for _, tc := range []struct {
		tool      BuildTool
		image     string
		firstLine string
		cache     string
	}{
		{BuildToolMaven, "maven:3-eclipse-temurin-17", "mvn verify sonar:sonar -Dsonar.projectKey=my-project", "maven"},
		{BuildToolGradle, "eclipse-temurin:17", "bash ./gradlew sonar", "gradle"},
		{BuildToolDotNet, "mcr.microsoft.com/dotnet/sdk:7.0", "apt-get update && apt-get install --yes --no-install-recommends openjdk-17-jre", "sonar"},
		{BuildToolCFamily, "gcc:13", "curl -sSLo build-wrapper-linux-x86.zip ${SONAR_HOST_URL}/static/cpp/build-wrapper-linux-x86.zip", "build-wrapper"},
	} {
		t.Run(string(tc.tool), func(t *testing.T) {
			data, err := PipelineYAML(tc.tool, "develop", "my-project")
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Contains(data, []byte("&build-step")) || !bytes.Contains(data, []byte("*build-step")) {
				t.Errorf("step anchor missing:\n%s", data)
			}

			doc := decode(t, data)
			if doc.Image != tc.image {
				t.Errorf("image = %q, want %q", doc.Image, tc.image)
			}
			steps := doc.Pipelines.Branches["develop"]
			if len(steps) != 1 {
				t.Fatalf("branch steps = %+v", doc.Pipelines.Branches)
			}
			step := steps[0].Step
			if len(step.Script) == 0 || step.Script[0] != tc.firstLine {
				t.Errorf("script[0] = %v, want %q", step.Script, tc.firstLine)
			}
			if !slices.Contains(step.Caches, tc.cache) {
				t.Errorf("caches = %v, want %q", step.Caches, tc.cache)
			}
			if len(doc.Pipelines.PullRequests["**"]) != 1 {
				t.Errorf("pull request trigger missing: %+v", doc.Pipelines.PullRequests)
			}
			if doc.Definitions.Caches["sonar"] != "~/.sonar" {
				t.Errorf("sonar cache = %q", doc.Definitions.Caches["sonar"])
			}
		})
	}
}

func TestPipelineYAMLOtherUsesScanPipe(t *testing.T) {
	data, err := PipelineYAML(BuildToolOther, "", "p")
	if err != nil {
		t.Fatal(err)
	}
	doc := decode(t, data)
	if doc.Image != "" {
		t.Errorf("image = %q, want none", doc.Image)
	}
	steps := doc.Pipelines.Branches["main"]
	if len(steps) != 1 || len(steps[0].Step.Script) != 1 {
		t.Fatalf("unexpected steps: %+v", steps)
	}
	pipe, ok := steps[0].Step.Script[0].(map[string]any)
	if !ok || !strings.HasPrefix(pipe["pipe"].(string), "sonarsource/sonarqube-scan") {
		t.Errorf("script[0] = %v, want scan pipe", steps[0].Step.Script[0])
	}
}

func TestPipelineYAMLUnknownTool(t *testing.T) {
	if _, err := PipelineYAML("ant", "main", "p"); err == nil {
		t.Error("expected error for unknown build tool")
	}
}

func TestWizardSteps(t *testing.T) {
	w := NewWizard("my-project", "main", "https://sonarqube.example.com")

	if got := w.Steps(); !slices.Equal(got, []Step{StepRepositoryVariables, StepYAML}) {
		t.Fatalf("Steps() = %v before build tool selection", got)
	}
	if _, err := w.Pipeline(); !errors.Is(err, ErrNoBuildTool) {
		t.Fatalf("Pipeline() err = %v, want ErrNoBuildTool", err)
	}
	if err := w.SelectBuildTool("ant"); err == nil {
		t.Fatal("expected error for unknown build tool")
	}
	if w.Done() {
		t.Fatal("invalid selection should not complete the step")
	}

	if err := w.SelectBuildTool(BuildToolCFamily); err != nil {
		t.Fatal(err)
	}
	if got := w.Steps(); !slices.Equal(got, []Step{StepRepositoryVariables, StepYAML, StepAllSet}) {
		t.Fatalf("Steps() = %v after selection", got)
	}
	if !w.ShowExampleRepositories() {
		t.Error("C family projects should show example repositories")
	}
	if _, err := w.Pipeline(); err != nil {
		t.Fatal(err)
	}

	vars := w.Variables()
	if len(vars) != 2 || vars[1].Name != "SONAR_HOST_URL" || vars[1].Value != "https://sonarqube.example.com" {
		t.Errorf("Variables() = %+v", vars)
	}
}
