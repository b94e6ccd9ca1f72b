package model

import "time"

// HostType is the deploy target's execution backend, spec.md §3/§4.7.
// Only HostTypeSSH is actually executed by this module; agent and
// portainer are accepted and stored but rejected at execution time with
// KindHostNotFound, matching spec.md's explicit scope cut.
type HostType string

const (
	HostTypeSSH       HostType = "ssh"
	HostTypeAgent     HostType = "agent"
	HostTypePortainer HostType = "portainer"
)

// DeployPlanKind selects which shape deploy_config.plan has, spec.md §4.7.
type DeployPlanKind string

const (
	PlanDockerRun     DeployPlanKind = "docker_run"
	PlanDockerCompose DeployPlanKind = "docker_compose"
	PlanSteps         DeployPlanKind = "steps"
)

// DeployTargetSpec is one unresolved (host_type, host_name) pair taken
// straight from a deploy config's targets list, spec.md §4.9 step 1:
// host lookup happens at execute time, not at task creation, so an
// unknown host only fails its own target instead of the whole task.
type DeployTargetSpec struct {
	HostType HostType `json:"host_type"`
	HostName string   `json:"host_name"`
}

// DeployHost is one remote target a Deploy Task executes against.
type DeployHost struct {
	HostID   string   `json:"host_id"`
	Name     string   `json:"name"`
	Type     HostType `json:"type"`
	Address  string   `json:"address,omitempty"`
	User     string   `json:"user,omitempty"`
	KeyPath  string   `json:"key_path,omitempty"`
	Port     int      `json:"port,omitempty"`
}

// DockerRunPlan is the docker_run deploy shape: a single container run
// from a rendered argument string, spec.md §4.7.1.
type DockerRunPlan struct {
	Args      string `json:"args"`
	Redeploy  bool   `json:"redeploy"`
}

// DockerComposePlan is the docker_compose deploy shape: a compose file
// body plus the compose subcommand to run, spec.md §4.7.2.
type DockerComposePlan struct {
	ComposeContent string `json:"compose_content"`
	Command        string `json:"command"`
	Redeploy       bool   `json:"redeploy"`
}

// Step is one ordered command in a PlanSteps deploy, spec.md §4.7.3.
type Step struct {
	Name    string `json:"name"`
	Command string `json:"command"`
}

// StepsPlan is the steps deploy shape: an ordered script, spec.md §4.7.3.
type StepsPlan struct {
	Steps    []Step `json:"steps"`
	Redeploy bool   `json:"redeploy"`
}

// DeployConfig names which plan shape is active; exactly one of the
// plan pointers is non-nil for a given Kind.
type DeployConfig struct {
	Kind    DeployPlanKind     `json:"kind"`
	Run     *DockerRunPlan     `json:"run,omitempty"`
	Compose *DockerComposePlan `json:"compose,omitempty"`
	Steps   *StepsPlan         `json:"steps,omitempty"`
}

// TargetResult is the per-host outcome of a Deploy Task, spec.md §3.
type TargetResult struct {
	HostID      string     `json:"host_id"`
	HostName    string     `json:"host_name"`
	Status      TaskStatus `json:"status"`
	Messages    []string   `json:"-"`
	ErrorKind   Kind       `json:"error_kind,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// DeployTask is one execution of a deploy configuration against one or
// more hosts, spec.md §3.
type DeployTask struct {
	TaskID string `json:"task_id"`
	Name   string `json:"name"`

	// ConfigContent is the canonical YAML document this task was
	// created from, stored verbatim; Config is derived from it on
	// parse and may be recomputed if the parser evolves (spec.md §3).
	ConfigContent string             `json:"config_content"`
	ImageRef      string             `json:"image_ref,omitempty"`
	Config        DeployConfig       `json:"config"`
	TargetSpecs   []DeployTargetSpec `json:"target_specs"`

	Status  TaskStatus     `json:"status"`
	Targets []TargetResult `json:"targets"`

	RequestedBy string     `json:"requested_by,omitempty"`
	QueuedAt    time.Time  `json:"queued_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsTerminal reports whether every target has reached a terminal state.
func (t *DeployTask) IsTerminal() bool {
	switch t.Status {
	case StatusCompleted, StatusFailed, StatusStopped:
		return true
	default:
		return false
	}
}

// AggregateStatus derives the task-level status from its per-target
// results: failed if any target failed, completed only if all did,
// running/pending otherwise. Spec.md §4.9 ("a deploy task succeeds only
// if every target succeeds").
func AggregateStatus(targets []TargetResult) TaskStatus {
	if len(targets) == 0 {
		return StatusPending
	}
	allCompleted := true
	anyFailed := false
	anyRunning := false
	for _, t := range targets {
		switch t.Status {
		case StatusFailed, StatusStopped:
			anyFailed = true
			allCompleted = false
		case StatusRunning, StatusPending:
			anyRunning = true
			allCompleted = false
		}
	}
	switch {
	case anyFailed:
		return StatusFailed
	case allCompleted:
		return StatusCompleted
	case anyRunning:
		return StatusRunning
	default:
		return StatusPending
	}
}
