package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgecd.dev/core/model"
)

func TestDeployTaskStore_CreateGetUpdateDelete(t *testing.T) {
	s, err := NewDeployTaskStore(t.TempDir())
	require.NoError(t, err)

	task := &model.DeployTask{TaskID: "d1", Name: "demo", Status: model.StatusPending, QueuedAt: time.Now()}
	require.NoError(t, s.Create(task))

	got, err := s.Get("d1")
	require.NoError(t, err)
	assert.Equal(t, "demo", got.Name)

	task.Status = model.StatusRunning
	require.NoError(t, s.Update(task))
	got, err = s.Get("d1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, got.Status)

	require.NoError(t, s.Delete("d1"))
	_, err = s.Get("d1")
	require.Error(t, err)
}

func TestDeployTaskStore_ListNewestFirst(t *testing.T) {
	s, err := NewDeployTaskStore(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(&model.DeployTask{TaskID: "d1", QueuedAt: base}))
	require.NoError(t, s.Create(&model.DeployTask{TaskID: "d2", QueuedAt: base.Add(time.Hour)}))

	all, err := s.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "d2", all[0].TaskID)
	assert.Equal(t, "d1", all[1].TaskID)
}

func TestDeployTaskStore_TargetMessages(t *testing.T) {
	s, err := NewDeployTaskStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.AppendTargetMessage("d1", "h1", "stopping old container"))
	require.NoError(t, s.AppendTargetMessage("d1", "h1", "starting new container"))

	lines, err := s.ReadTargetMessages("d1", "h1")
	require.NoError(t, err)
	assert.Equal(t, []string{"stopping old container", "starting new container"}, lines)
}

func TestDeployTaskStore_SweepStaleOnlyTouchesRunning(t *testing.T) {
	s, err := NewDeployTaskStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Create(&model.DeployTask{
		TaskID: "d1",
		Status: model.StatusRunning,
		Targets: []model.TargetResult{
			{HostID: "h1", Status: model.StatusRunning},
			{HostID: "h2", Status: model.StatusCompleted},
		},
	}))
	require.NoError(t, s.Create(&model.DeployTask{TaskID: "d2", Status: model.StatusPending}))

	n, err := s.SweepStale()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	d1, err := s.Get("d1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, d1.Status)
	assert.Equal(t, model.StatusFailed, d1.Targets[0].Status)
	assert.Equal(t, model.StatusCompleted, d1.Targets[1].Status)

	d2, err := s.Get("d2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, d2.Status)
}
