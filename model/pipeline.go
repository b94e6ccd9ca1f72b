package model

import (
	"encoding/json"
	"time"
)

// ProjectType is the pipeline's declared language/ecosystem, used to pick
// a Dockerfile template when use_project_dockerfile is false.
type ProjectType string

const (
	ProjectTypeJar    ProjectType = "jar"
	ProjectTypeNodeJS ProjectType = "nodejs"
	ProjectTypePython ProjectType = "python"
	ProjectTypeGo     ProjectType = "go"
	ProjectTypeWeb    ProjectType = "web"
)

// PushMode selects whether a pipeline ships exactly one image or a set of
// named services out of a multi-stage build.
type PushMode string

const (
	PushModeSingle PushMode = "single"
	PushModeMulti  PushMode = "multi"
)

// BranchStrategy decides which webhook pushes trigger a build and which
// ref the resulting Build Task uses, per spec.md §4.6.
type BranchStrategy string

const (
	BranchStrategyUsePush       BranchStrategy = "use_push"
	BranchStrategyFilterMatch   BranchStrategy = "filter_match"
	BranchStrategyUseConfigured BranchStrategy = "use_configured"
)

// ResourcePackageConfig is one {package_id, target_path} entry injected
// into the build workspace before the image is built (spec.md §4.2 step 4).
type ResourcePackageConfig struct {
	PackageID  string `json:"package_id" yaml:"package_id"`
	TargetPath string `json:"target_path" yaml:"target_path"`
}

// ServicePushConfig is the canonical (object) form of
// pipeline.service_push_config[service]; spec.md §9 requires the parser
// to upgrade a legacy bare boolean to this shape on read.
type ServicePushConfig struct {
	Push      bool   `json:"push" yaml:"push"`
	ImageName string `json:"imageName,omitempty" yaml:"imageName,omitempty"`
	Tag       string `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// UnmarshalJSON accepts both the object form and a legacy bare boolean,
// which becomes {push: <bool>} with no image name or tag override.
func (c *ServicePushConfig) UnmarshalJSON(data []byte) error {
	var push bool
	if err := json.Unmarshal(data, &push); err == nil {
		*c = ServicePushConfig{Push: push}
		return nil
	}
	type plain ServicePushConfig
	return json.Unmarshal(data, (*plain)(c))
}

// LastBuildSnapshot is the cheap summary of the most recent Build Task
// embedded in GET /pipelines so the UI doesn't need a second round trip.
type LastBuildSnapshot struct {
	TaskID      string     `json:"task_id"`
	Status      TaskStatus `json:"status"`
	Branch      string     `json:"branch"`
	Tag         string     `json:"tag"`
	TriggeredAt time.Time  `json:"triggered_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// QueueSignals are the scheduler-observability fields spec.md §4.4/§6
// requires GET /pipelines to expose so the UI can render the "queued"
// badge and disable the run button.
type QueueSignals struct {
	HasQueuedTasks    bool       `json:"has_queued_tasks"`
	QueueLength       int        `json:"queue_length"`
	CurrentTaskStatus TaskStatus `json:"current_task_status,omitempty"`
}

// Pipeline is a reusable "how to build repo R into image I:T" definition,
// spec.md §3.
type Pipeline struct {
	PipelineID string `json:"pipeline_id" yaml:"pipeline_id"`

	GitURL   string `json:"git_url" yaml:"git_url"`
	SourceID string `json:"source_id,omitempty" yaml:"source_id,omitempty"`
	Branch   string `json:"branch,omitempty" yaml:"branch,omitempty"`
	SubPath  string `json:"sub_path,omitempty" yaml:"sub_path,omitempty"`

	ProjectType          ProjectType `json:"project_type" yaml:"project_type"`
	UseProjectDockerfile bool        `json:"use_project_dockerfile" yaml:"use_project_dockerfile"`
	DockerfileName       string      `json:"dockerfile_name,omitempty" yaml:"dockerfile_name,omitempty"`
	Template             string      `json:"template,omitempty" yaml:"template,omitempty"`
	ImageName            string      `json:"image_name" yaml:"image_name"`
	Tag                  string      `json:"tag" yaml:"tag"`
	Push                 bool        `json:"push" yaml:"push"`

	PushMode              PushMode                     `json:"push_mode" yaml:"push_mode"`
	SelectedServices      []string                     `json:"selected_services,omitempty" yaml:"selected_services,omitempty"`
	ServicePushConfig     map[string]ServicePushConfig `json:"service_push_config,omitempty" yaml:"service_push_config,omitempty"`
	ServiceTemplateParams map[string]any               `json:"service_template_params,omitempty" yaml:"service_template_params,omitempty"`

	ResourcePackageConfigs []ResourcePackageConfig `json:"resource_package_configs,omitempty" yaml:"resource_package_configs,omitempty"`

	Enabled               bool              `json:"enabled" yaml:"enabled"`
	WebhookToken          string            `json:"webhook_token" yaml:"webhook_token"`
	WebhookSecret         string            `json:"webhook_secret,omitempty" yaml:"webhook_secret,omitempty"`
	WebhookBranchStrategy BranchStrategy    `json:"webhook_branch_strategy" yaml:"webhook_branch_strategy"`
	BranchTagMapping      []BranchTagRule   `json:"branch_tag_mapping,omitempty" yaml:"branch_tag_mapping,omitempty"`
	CronExpression        string            `json:"cron_expression,omitempty" yaml:"cron_expression,omitempty"`

	TriggerCount    int                `json:"trigger_count"`
	LastTriggeredAt *time.Time         `json:"last_triggered_at,omitempty"`
	SuccessCount    int                `json:"success_count"`
	FailedCount     int                `json:"failed_count"`
	LastBuild       *LastBuildSnapshot `json:"last_build,omitempty"`

	QueueSignals `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BranchTagRule is one entry of branch_tag_mapping; Branch is either a
// literal branch name or a trailing-glob pattern ("prefix/*"). Rules are
// stored and matched in declaration order (spec.md §4.6 step 5).
type BranchTagRule struct {
	Branch string `json:"branch" yaml:"branch"`
	Tag    string `json:"tag" yaml:"tag"`
}

// Clone returns a deep-enough copy of p for snapshotting into a Build
// Task's resolved parameters, so later edits to the pipeline never
// mutate a historical task's record.
func (p *Pipeline) Clone() *Pipeline {
	cp := *p
	cp.SelectedServices = append([]string(nil), p.SelectedServices...)
	cp.BranchTagMapping = append([]BranchTagRule(nil), p.BranchTagMapping...)
	cp.ResourcePackageConfigs = append([]ResourcePackageConfig(nil), p.ResourcePackageConfigs...)
	if p.ServicePushConfig != nil {
		cp.ServicePushConfig = make(map[string]ServicePushConfig, len(p.ServicePushConfig))
		for k, v := range p.ServicePushConfig {
			cp.ServicePushConfig[k] = v
		}
	}
	return &cp
}

// Validate enforces the invariants of spec.md §3.
func (p *Pipeline) Validate() error {
	if p.GitURL == "" {
		return NewError(KindValidation, "git_url is required")
	}
	if p.UseProjectDockerfile && p.Template != "" {
		return NewError(KindValidation, "use_project_dockerfile and template are mutually exclusive")
	}
	if !p.UseProjectDockerfile && p.Template == "" {
		return NewError(KindValidation, "template is required when use_project_dockerfile is false")
	}
	if p.UseProjectDockerfile && p.DockerfileName == "" {
		return NewError(KindValidation, "dockerfile_name is required when use_project_dockerfile is true")
	}
	if p.PushMode == PushModeSingle && len(p.SelectedServices) > 1 {
		return NewError(KindValidation, "push_mode=single allows at most one selected service")
	}
	if p.CronExpression != "" {
		if _, err := ParseCron(p.CronExpression); err != nil {
			return Wrap(KindValidation, "invalid cron_expression", err)
		}
	}
	return nil
}
