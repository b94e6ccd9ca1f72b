package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgecd.dev/core/model"
)

func TestNewManualTrigger(t *testing.T) {
	info := NewManualTrigger("alice")
	assert.Equal(t, model.TriggerManual, info.Type)
	assert.Equal(t, "alice", info.RequestedBy)
}

func TestNewCronTrigger(t *testing.T) {
	info := NewCronTrigger("*/5 * * * *")
	assert.Equal(t, model.TriggerCron, info.Type)
	assert.Equal(t, "*/5 * * * *", info.CronSchedule)
}

func TestNewWebhookTrigger(t *testing.T) {
	ev := &PushEvent{Branch: "main", CommitSHA: "abc123", CommitAuthor: "bob"}
	info := NewWebhookTrigger(ev)
	assert.Equal(t, model.TriggerWebhook, info.Type)
	assert.Equal(t, "main", info.WebhookBranch)
	assert.Equal(t, "abc123", info.WebhookCommit)
	assert.Equal(t, "bob", info.WebhookAuthor)
}

type fakeQueueSignals struct {
	sig model.QueueSignals
}

func (f fakeQueueSignals) QueueSignals(pipelineID string) model.QueueSignals {
	return f.sig
}

func TestCheckManualRunAllowed_ForceAlwaysAllowed(t *testing.T) {
	q := fakeQueueSignals{sig: model.QueueSignals{HasQueuedTasks: true}}
	assert.NoError(t, CheckManualRunAllowed(q, "p1", true))
}

func TestCheckManualRunAllowed_RejectsWhenQueued(t *testing.T) {
	q := fakeQueueSignals{sig: model.QueueSignals{HasQueuedTasks: true}}
	err := CheckManualRunAllowed(q, "p1", false)
	require.Error(t, err)
	e, ok := model.AsError(err)
	require.True(t, ok)
	assert.Equal(t, model.KindConflict, e.Kind)
}

func TestCheckManualRunAllowed_AllowsWhenIdle(t *testing.T) {
	q := fakeQueueSignals{sig: model.QueueSignals{HasQueuedTasks: false}}
	assert.NoError(t, CheckManualRunAllowed(q, "p1", false))
}
