package trigger

import "forgecd.dev/core/model"

// NewManualTrigger builds the TriggerInfo for an operator-initiated
// run, spec.md §4.3.
func NewManualTrigger(requestedBy string) model.TriggerInfo {
	return model.TriggerInfo{Type: model.TriggerManual, RequestedBy: requestedBy}
}

// NewCronTrigger builds the TriggerInfo for a cron-initiated run.
func NewCronTrigger(expression string) model.TriggerInfo {
	return model.TriggerInfo{Type: model.TriggerCron, CronSchedule: expression}
}

// NewWebhookTrigger builds the TriggerInfo for a webhook-initiated run.
func NewWebhookTrigger(ev *PushEvent) model.TriggerInfo {
	branch := ev.Branch
	return model.TriggerInfo{
		Type:          model.TriggerWebhook,
		WebhookBranch: branch,
		WebhookCommit: ev.CommitSHA,
		WebhookAuthor: ev.CommitAuthor,
	}
}

// QueueSignalsSource is the subset of scheduler.Scheduler manual-run
// dedup needs, kept as an interface so trigger never imports scheduler.
type QueueSignalsSource interface {
	QueueSignals(pipelineID string) model.QueueSignals
}

// CheckManualRunAllowed enforces spec.md §4.8: a manual run request is
// rejected with KindConflict if the pipeline already has a build queued
// or running, unless force is set.
func CheckManualRunAllowed(q QueueSignalsSource, pipelineID string, force bool) error {
	if force {
		return nil
	}
	sig := q.QueueSignals(pipelineID)
	if sig.HasQueuedTasks {
		return model.NewError(model.KindConflict, "pipeline already has a build queued or running")
	}
	return nil
}
