package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildTask_IsTerminal(t *testing.T) {
	for _, status := range []TaskStatus{StatusCompleted, StatusFailed, StatusStopped} {
		assert.True(t, (&BuildTask{Status: status}).IsTerminal(), status)
	}
	for _, status := range []TaskStatus{StatusPending, StatusRunning} {
		assert.False(t, (&BuildTask{Status: status}).IsTerminal(), status)
	}
}

func TestBuildTask_Snapshot(t *testing.T) {
	now := time.Now()
	task := &BuildTask{
		TaskID:         "t1",
		Status:         StatusCompleted,
		ResolvedBranch: "main",
		ResolvedTag:    "latest",
		QueuedAt:       now,
		CompletedAt:    &now,
	}
	snap := task.Snapshot()
	assert.Equal(t, "t1", snap.TaskID)
	assert.Equal(t, "main", snap.Branch)
	assert.Equal(t, "latest", snap.Tag)
	assert.Equal(t, StatusCompleted, snap.Status)
}
