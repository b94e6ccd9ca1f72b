// Package deployconfig parses a Deploy Task's YAML document into a
// normalized form: an app name, one of three plan shapes (docker_run,
// docker_compose, steps), and an ordered target list, per spec.md §4.7.
// The scalar-or-map union handling follows bx/build/marshal.go's
// ComposeBuild.UnmarshalYAML.
package deployconfig

import (
	"strings"

	"gopkg.in/yaml.v3"

	"forgecd.dev/core/model"
)

// TargetSpec is one {name, host_type, host_name} entry of the targets
// list, before host_name has been resolved against the host directory.
type TargetSpec struct {
	Name     string
	HostType model.HostType
	HostName string
}

// Document is the normalized form of a deploy_config YAML document.
type Document struct {
	Version string
	AppName string
	Plan    model.DeployConfig
	Targets []TargetSpec
}

type rawDockerBlock struct {
	Command  string `yaml:"command"`
	Redeploy bool   `yaml:"redeploy"`
}

type rawPlan struct {
	Type           string       `yaml:"type"`
	Command        string       `yaml:"command"`
	ComposeContent string       `yaml:"compose_content"`
	Redeploy       bool         `yaml:"redeploy"`
	Steps          []model.Step `yaml:"steps"`
}

type rawTarget struct {
	Name     string          `yaml:"name"`
	HostType string          `yaml:"host_type"`
	HostName string          `yaml:"host_name"`
	Docker   *rawDockerBlock `yaml:"docker,omitempty"`
}

type rawDocument struct {
	Version string `yaml:"version"`
	App     struct {
		Name string `yaml:"name"`
	} `yaml:"app"`
	Deploy  *rawPlan    `yaml:"deploy"`
	Targets []rawTarget `yaml:"targets"`
}

// Parse decodes a full deploy_config YAML document (the {version, app,
// deploy, targets} shape of spec.md §4.7) into a Document.
func Parse(data []byte) (*Document, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, model.Wrap(model.KindValidation, "parsing deploy config YAML", err)
	}
	if raw.App.Name == "" {
		return nil, model.NewError(model.KindValidation, "app.name is required")
	}
	if len(raw.Targets) == 0 {
		return nil, model.NewError(model.KindValidation, "at least one target is required")
	}

	plan := raw.Deploy
	if plan == nil {
		// Backward compatibility: no top-level deploy block, derive one
		// from the first target's legacy docker sub-block.
		first := raw.Targets[0]
		if first.Docker == nil {
			return nil, model.NewError(model.KindValidation, "deploy block is required (or a legacy docker block on the first target)")
		}
		plan = &rawPlan{Type: string(model.PlanDockerRun), Command: first.Docker.Command, Redeploy: first.Docker.Redeploy}
	}

	cfg, err := buildPlan(plan)
	if err != nil {
		return nil, err
	}

	targets := make([]TargetSpec, 0, len(raw.Targets))
	for i, t := range raw.Targets {
		if t.HostName == "" {
			return nil, model.NewError(model.KindValidation, "targets require a host_name")
		}
		ht := model.HostType(t.HostType)
		switch ht {
		case model.HostTypeAgent, model.HostTypePortainer, model.HostTypeSSH:
		default:
			return nil, model.NewError(model.KindValidation, "target host_type must be one of agent, portainer, ssh")
		}
		name := t.Name
		if name == "" {
			name = t.HostName
		}
		_ = i
		targets = append(targets, TargetSpec{Name: name, HostType: ht, HostName: t.HostName})
	}

	return &Document{Version: raw.Version, AppName: raw.App.Name, Plan: *cfg, Targets: targets}, nil
}

func buildPlan(p *rawPlan) (*model.DeployConfig, error) {
	if len(p.Steps) > 0 {
		return &model.DeployConfig{Kind: model.PlanSteps, Steps: &model.StepsPlan{Steps: p.Steps, Redeploy: p.Redeploy}}, nil
	}

	switch model.DeployPlanKind(p.Type) {
	case model.PlanDockerRun:
		if strings.TrimSpace(p.Command) == "" {
			return nil, model.NewError(model.KindValidation, "type=docker_run requires a non-empty command")
		}
		return &model.DeployConfig{Kind: model.PlanDockerRun, Run: &model.DockerRunPlan{
			Args:     stripLeadingDockerRun(p.Command),
			Redeploy: p.Redeploy,
		}}, nil
	case model.PlanDockerCompose:
		if strings.TrimSpace(p.ComposeContent) == "" {
			return nil, model.NewError(model.KindValidation, "type=docker_compose requires compose_content")
		}
		command := p.Command
		if command == "" {
			command = "up -d"
		}
		return &model.DeployConfig{Kind: model.PlanDockerCompose, Compose: &model.DockerComposePlan{
			ComposeContent: p.ComposeContent,
			Command:        command,
			Redeploy:       p.Redeploy,
		}}, nil
	default:
		return nil, model.NewError(model.KindValidation, "deploy plan requires type docker_run, type docker_compose, or a steps list")
	}
}

// stripLeadingDockerRun removes a literal leading "docker run" from a
// docker_run plan's command, since spec.md §4.7 treats command as the
// arg string handed to "docker run", not the full invocation.
func stripLeadingDockerRun(command string) string {
	trimmed := strings.TrimSpace(command)
	if rest, ok := strings.CutPrefix(trimmed, "docker run"); ok {
		return strings.TrimSpace(rest)
	}
	return trimmed
}
