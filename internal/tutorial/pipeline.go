package tutorial

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// BuildTool is the build system of the analysed project.
type BuildTool string

const (
	BuildToolMaven   BuildTool = "maven"
	BuildToolGradle  BuildTool = "gradle"
	BuildToolDotNet  BuildTool = "dotnet"
	BuildToolCFamily BuildTool = "cfamily"
	BuildToolOther   BuildTool = "other"
)

// BuildTools lists the supported build tools in display order.
func BuildTools() []BuildTool {
	return []BuildTool{BuildToolMaven, BuildToolGradle, BuildToolDotNet, BuildToolCFamily, BuildToolOther}
}

// IsValid checks whether the build tool is supported.
func (b BuildTool) IsValid() bool {
	switch b {
	case BuildToolMaven, BuildToolGradle, BuildToolDotNet, BuildToolCFamily, BuildToolOther:
		return true
	}
	return false
}

const stepAnchor = "build-step"

type recipe struct {
	image  string
	caches []string
	// extra cache definitions beyond the sonar cache
	cacheDefs [][2]string
	script    []string
	// pipe replaces script with the scan pipe for tools without a build
	// wrapper.
	pipe bool
}

func recipeFor(bt BuildTool, projectKey string) (recipe, error) {
	switch bt {
	case BuildToolMaven:
		return recipe{
			image:  "maven:3-eclipse-temurin-17",
			caches: []string{"maven", "sonar"},
			script: []string{"mvn verify sonar:sonar -Dsonar.projectKey=" + projectKey},
		}, nil
	case BuildToolGradle:
		return recipe{
			image:  "eclipse-temurin:17",
			caches: []string{"gradle", "sonar"},
			script: []string{"bash ./gradlew sonar"},
		}, nil
	case BuildToolDotNet:
		return recipe{
			image:  "mcr.microsoft.com/dotnet/sdk:7.0",
			caches: []string{"sonar"},
			script: []string{
				"apt-get update && apt-get install --yes --no-install-recommends openjdk-17-jre",
				"dotnet tool install --global dotnet-sonarscanner",
				`export PATH="$PATH:/root/.dotnet/tools"`,
				fmt.Sprintf(`dotnet sonarscanner begin /k:"%s" /d:sonar.token="${SONAR_TOKEN}" /d:sonar.host.url="${SONAR_HOST_URL}"`, projectKey),
				"dotnet build",
				`dotnet sonarscanner end /d:sonar.token="${SONAR_TOKEN}"`,
			},
		}, nil
	case BuildToolCFamily:
		return recipe{
			image:     "gcc:13",
			caches:    []string{"sonar", "build-wrapper"},
			cacheDefs: [][2]string{{"build-wrapper", "build-wrapper-linux-x86"}},
			script: []string{
				"curl -sSLo build-wrapper-linux-x86.zip ${SONAR_HOST_URL}/static/cpp/build-wrapper-linux-x86.zip",
				"unzip -o build-wrapper-linux-x86.zip",
				"build-wrapper-linux-x86/build-wrapper-linux-x86-64 --out-dir bw-output make clean all",
			},
			pipe: true,
		}, nil
	case BuildToolOther:
		return recipe{caches: []string{"sonar"}, pipe: true}, nil
	}
	return recipe{}, fmt.Errorf("unknown build tool %q", bt)
}

// PipelineYAML renders a bitbucket-pipelines.yml that analyses mainBranch
// and pull requests. The analysis step is defined once under an anchor and
// referenced from each trigger.
func PipelineYAML(bt BuildTool, mainBranch, projectKey string) ([]byte, error) {
	if mainBranch == "" {
		mainBranch = "main"
	}
	r, err := recipeFor(bt, projectKey)
	if err != nil {
		return nil, err
	}

	script := seq()
	for _, line := range r.script {
		script.Content = append(script.Content, str(line))
	}
	if r.pipe {
		script.Content = append(script.Content, mapping(
			"pipe", str("sonarsource/sonarqube-scan:2.0.1"),
			"variables", mapping(
				"SONAR_HOST_URL", str("${SONAR_HOST_URL}"),
				"SONAR_TOKEN", str("${SONAR_TOKEN}"),
			),
		))
	}

	caches := seq()
	for _, c := range r.caches {
		caches.Content = append(caches.Content, str(c))
	}

	step := mapping(
		"name", str("Build and analyze on SonarQube"),
		"caches", caches,
		"script", script,
	)
	step.Anchor = stepAnchor

	cacheDefs := mapping("sonar", str("~/.sonar"))
	for _, kv := range r.cacheDefs {
		cacheDefs.Content = append(cacheDefs.Content, str(kv[0]), str(kv[1]))
	}

	alias := func() *yaml.Node {
		return seq(mapping("step", &yaml.Node{Kind: yaml.AliasNode, Value: stepAnchor, Alias: step}))
	}

	var doc []any
	if r.image != "" {
		doc = append(doc, "image", str(r.image))
	}
	doc = append(doc,
		"definitions", mapping(
			"steps", seq(mapping("step", step)),
			"caches", cacheDefs,
		),
		"clone", mapping("depth", str("full")),
		"pipelines", mapping(
			"branches", mapping(mainBranch, alias()),
			"pull-requests", mapping("**", alias()),
		),
	)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapping(doc...)); err != nil {
		return nil, fmt.Errorf("encoding pipeline: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding pipeline: %w", err)
	}
	return buf.Bytes(), nil
}

func str(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func seq(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Content: items}
}

// mapping builds a mapping node from alternating string keys and nodes.
func mapping(kv ...any) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Content = append(n.Content, str(kv[i].(string)), kv[i+1].(*yaml.Node))
	}
	return n
}
