package model

import "time"

// TaskStatus is the state-machine position of a Build Task or a Deploy
// Task's per-target execution, spec.md §4.4.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
	StatusStopped   TaskStatus = "stopped"
)

// TriggerType is how a Build Task came to exist, spec.md §4.3.
type TriggerType string

const (
	TriggerWebhook TriggerType = "webhook"
	TriggerCron    TriggerType = "cron"
	TriggerManual  TriggerType = "manual"
)

// TriggerInfo records what caused a task to be enqueued, preserved
// verbatim on the task for later audit/debugging.
type TriggerInfo struct {
	Type          TriggerType `json:"type"`
	WebhookBranch string      `json:"webhook_branch,omitempty"`
	WebhookCommit string      `json:"webhook_commit,omitempty"`
	WebhookAuthor string      `json:"webhook_author,omitempty"`
	CronSchedule  string      `json:"cron_schedule,omitempty"`
	RequestedBy   string      `json:"requested_by,omitempty"`
}

// ServiceBuildResult is the per-service outcome of a multi-service build
// (push_mode=multi), spec.md §3 BuildTask.services.
type ServiceBuildResult struct {
	Name      string     `json:"name"`
	ImageName string     `json:"image_name,omitempty"`
	Tag       string     `json:"tag,omitempty"`
	Pushed    bool       `json:"pushed"`
	Status    TaskStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
}

// BuildTask is one immutable-once-completed execution record of a
// pipeline's build, spec.md §3.
type BuildTask struct {
	TaskID     string `json:"task_id"`
	PipelineID string `json:"pipeline_id"`

	Trigger TriggerInfo `json:"trigger"`

	// ResolvedBranch/ResolvedTag are what the branch-strategy/tag-mapping
	// resolution in spec.md §4.6 decided for this specific run; they are
	// snapshotted here so a later pipeline edit never changes history.
	ResolvedBranch string `json:"resolved_branch"`
	ResolvedTag    string `json:"resolved_tag"`
	CommitSHA      string `json:"commit_sha,omitempty"`

	// PipelineSnapshot is the pipeline definition at the moment this task
	// was created, per spec.md §4.3 ("the task captures the pipeline
	// configuration it will run with, so later edits don't retroactively
	// change a queued or running task").
	PipelineSnapshot *Pipeline `json:"pipeline_snapshot"`

	Status TaskStatus `json:"status"`

	Services []ServiceBuildResult `json:"services,omitempty"`

	ImageName string `json:"image_name,omitempty"`
	ImageTag  string `json:"image_tag,omitempty"`
	Pushed    bool   `json:"pushed"`

	ErrorKind    Kind   `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	QueuedAt    time.Time  `json:"queued_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// LogPath is where the append-only build log lives on disk; the log
	// body itself is never embedded in the JSON record (spec.md §6).
	LogPath string `json:"-"`
}

// IsTerminal reports whether the task has finished and will never
// transition again.
func (t *BuildTask) IsTerminal() bool {
	switch t.Status {
	case StatusCompleted, StatusFailed, StatusStopped:
		return true
	default:
		return false
	}
}

// Snapshot returns the cheap view embedded in Pipeline.last_build.
func (t *BuildTask) Snapshot() *LastBuildSnapshot {
	return &LastBuildSnapshot{
		TaskID:      t.TaskID,
		Status:      t.Status,
		Branch:      t.ResolvedBranch,
		Tag:         t.ResolvedTag,
		TriggeredAt: t.QueuedAt,
		CompletedAt: t.CompletedAt,
	}
}
