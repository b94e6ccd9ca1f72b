package httpapi

import "forgecd.dev/core/model"

// pipelineDTO flattens a Pipeline's scheduler-observability fields
// into the JSON body GET /pipelines returns (spec.md §6: "each pipeline
// carries its stats, last_build snapshot, and queue signals"). The
// embedded model.Pipeline.QueueSignals field carries json:"-" since a
// pipeline record on disk never stores these — they're live scheduler
// state joined in at request time.
type pipelineDTO struct {
	*model.Pipeline
	HasQueuedTasks    bool             `json:"has_queued_tasks"`
	QueueLength       int              `json:"queue_length"`
	CurrentTaskStatus model.TaskStatus `json:"current_task_status,omitempty"`
}

func newPipelineDTO(p *model.Pipeline, sig model.QueueSignals) pipelineDTO {
	return pipelineDTO{
		Pipeline:          p,
		HasQueuedTasks:    sig.HasQueuedTasks,
		QueueLength:       sig.QueueLength,
		CurrentTaskStatus: sig.CurrentTaskStatus,
	}
}
