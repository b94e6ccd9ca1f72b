package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forgecd.dev/core/model"
)

func TestResolveBranch_UsePush(t *testing.T) {
	p := &model.Pipeline{WebhookBranchStrategy: model.BranchStrategyUsePush}
	branch, ok := ResolveBranch(p, "feature/x")
	assert.True(t, ok)
	assert.Equal(t, "feature/x", branch)
}

func TestResolveBranch_UseConfigured(t *testing.T) {
	p := &model.Pipeline{WebhookBranchStrategy: model.BranchStrategyUseConfigured, Branch: "main"}
	branch, ok := ResolveBranch(p, "feature/x")
	assert.True(t, ok)
	assert.Equal(t, "main", branch)
}

func TestResolveBranch_FilterMatch(t *testing.T) {
	p := &model.Pipeline{
		WebhookBranchStrategy: model.BranchStrategyFilterMatch,
		BranchTagMapping: []model.BranchTagRule{
			{Branch: "release/*", Tag: "stable"},
			{Branch: "main", Tag: "latest"},
		},
	}

	branch, ok := ResolveBranch(p, "main")
	assert.True(t, ok)
	assert.Equal(t, "main", branch)

	branch, ok = ResolveBranch(p, "release/2.0")
	assert.True(t, ok)
	assert.Equal(t, "release/2.0", branch)

	_, ok = ResolveBranch(p, "unrelated")
	assert.False(t, ok)
}

func TestResolveTag_ExactThenGlobThenDefault(t *testing.T) {
	p := &model.Pipeline{
		Tag: "default-tag",
		BranchTagMapping: []model.BranchTagRule{
			{Branch: "main", Tag: "latest"},
			{Branch: "release/*", Tag: "stable"},
		},
	}
	assert.Equal(t, "latest", ResolveTag(p, "main"))
	assert.Equal(t, "stable", ResolveTag(p, "release/3.1"))
	assert.Equal(t, "default-tag", ResolveTag(p, "feature/y"))
}

func TestCheckManualRunAllowed(t *testing.T) {
	idle := fakeQueueSignals{sig: model.QueueSignals{HasQueuedTasks: false}}
	busy := fakeQueueSignals{sig: model.QueueSignals{HasQueuedTasks: true}}

	assert.NoError(t, CheckManualRunAllowed(idle, "p1", false))
	assert.Error(t, CheckManualRunAllowed(busy, "p1", false))
	assert.NoError(t, CheckManualRunAllowed(busy, "p1", true))
}
