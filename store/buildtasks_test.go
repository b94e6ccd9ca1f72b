package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgecd.dev/core/model"
)

func TestBuildTaskStore_CreateGetUpdate(t *testing.T) {
	s, err := NewBuildTaskStore(t.TempDir())
	require.NoError(t, err)

	task := &model.BuildTask{TaskID: "t1", PipelineID: "p1", Status: model.StatusPending, QueuedAt: time.Now()}
	require.NoError(t, s.Create(task))

	got, err := s.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)

	task.Status = model.StatusCompleted
	require.NoError(t, s.Update(task))
	got, err = s.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
}

func TestBuildTaskStore_ListByPipelineNewestFirstPaginated(t *testing.T) {
	s, err := NewBuildTaskStore(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, s.Create(&model.BuildTask{
			TaskID:     id,
			PipelineID: "p1",
			Status:     model.StatusCompleted,
			QueuedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	ids, total, err := s.ListByPipeline("p1", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"t3", "t2"}, ids)

	ids, total, err = s.ListByPipeline("p1", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"t1"}, ids)
}

func TestBuildTaskStore_AppendAndReadLog(t *testing.T) {
	s, err := NewBuildTaskStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.AppendLog("t1", []byte("line one\n")))
	require.NoError(t, s.AppendLog("t1", []byte("line two\n")))

	body, err := s.ReadLog("t1")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(body))

	var lines []string
	require.NoError(t, s.TailLog("t1", func(line string) error {
		lines = append(lines, line)
		return nil
	}))
	assert.Equal(t, []string{"line one", "line two"}, lines)
}

func TestBuildTaskStore_SweepStaleMarksRunningAndPendingFailed(t *testing.T) {
	s, err := NewBuildTaskStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Create(&model.BuildTask{TaskID: "running", PipelineID: "p1", Status: model.StatusRunning, QueuedAt: time.Now()}))
	require.NoError(t, s.Create(&model.BuildTask{TaskID: "pending", PipelineID: "p1", Status: model.StatusPending, QueuedAt: time.Now()}))
	require.NoError(t, s.Create(&model.BuildTask{TaskID: "done", PipelineID: "p1", Status: model.StatusCompleted, QueuedAt: time.Now()}))

	n, err := s.SweepStale()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	running, err := s.Get("running")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, running.Status)
	assert.Equal(t, model.KindInternal, running.ErrorKind)

	pending, err := s.Get("pending")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, pending.Status)

	done, err := s.Get("done")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)
}

func TestBuildTaskStore_All(t *testing.T) {
	s, err := NewBuildTaskStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Create(&model.BuildTask{TaskID: "t1", PipelineID: "p1", Status: model.StatusPending, QueuedAt: time.Now()}))
	require.NoError(t, s.Create(&model.BuildTask{TaskID: "t2", PipelineID: "p1", Status: model.StatusPending, QueuedAt: time.Now()}))

	all, err := s.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
