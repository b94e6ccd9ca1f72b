package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeployTask_IsTerminal(t *testing.T) {
	for _, status := range []TaskStatus{StatusCompleted, StatusFailed, StatusStopped} {
		assert.True(t, (&DeployTask{Status: status}).IsTerminal(), status)
	}
	assert.False(t, (&DeployTask{Status: StatusRunning}).IsTerminal())
	assert.False(t, (&DeployTask{Status: StatusPending}).IsTerminal())
}
