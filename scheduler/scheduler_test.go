package scheduler

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgecd.dev/core/model"
	"forgecd.dev/core/store"
)

func newTestScheduler(t *testing.T) (*Scheduler, *store.PipelineStore) {
	t.Helper()
	dir := t.TempDir()
	pipelines, err := store.NewPipelineStore(dir)
	require.NoError(t, err)
	tasks, err := store.NewBuildTaskStore(dir)
	require.NoError(t, err)

	log := logrus.NewEntry(logrus.New())
	// No workers are started in these tests, so queued tasks never
	// dispatch into the (nil) builder — this exercises queue/cancel
	// bookkeeping without needing a real docker daemon.
	s := New(log, pipelines, tasks, nil, nil, 1)
	return s, pipelines
}

func testPipeline(t *testing.T, pipelines *store.PipelineStore, id string) *model.Pipeline {
	t.Helper()
	p := &model.Pipeline{
		PipelineID: id,
		GitURL:     "https://example.com/repo.git",
		Branch:     "main",
		ImageName:  "repo",
	}
	require.NoError(t, pipelines.Create(p))
	return p
}

func TestScheduler_EnqueueBehindARunningTaskTracksQueueLength(t *testing.T) {
	s, pipelines := newTestScheduler(t)
	p := testPipeline(t, pipelines, "p1")

	// Simulate a first task already occupying the pipeline's one
	// concurrent build slot so the second Enqueue lands in pipelineQ
	// instead of being dispatched straight to the (absent) worker pool.
	s.mu.Lock()
	s.running["already-running"] = &runningTask{taskID: "already-running", pipelineID: p.PipelineID}
	s.mu.Unlock()

	_, err := s.Enqueue(p, model.TriggerInfo{Type: model.TriggerManual}, "main", "latest", "")
	require.NoError(t, err)

	sig := s.QueueSignals(p.PipelineID)
	assert.Equal(t, 1, sig.QueueLength)
	assert.True(t, sig.HasQueuedTasks)
}

func TestScheduler_StopPendingRemovesFromQueueWithoutWorker(t *testing.T) {
	s, pipelines := newTestScheduler(t)
	p := testPipeline(t, pipelines, "p1")

	s.mu.Lock()
	s.running["already-running"] = &runningTask{taskID: "already-running", pipelineID: p.PipelineID}
	s.mu.Unlock()

	task, err := s.Enqueue(p, model.TriggerInfo{Type: model.TriggerManual}, "main", "latest", "")
	require.NoError(t, err)

	ok := s.Stop(task.TaskID)
	assert.True(t, ok)

	sig := s.QueueSignals(p.PipelineID)
	assert.Equal(t, 0, sig.QueueLength)

	stopped, err := s.tasks.Get(task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusStopped, stopped.Status)
}

func TestScheduler_StopUnknownTaskReturnsFalse(t *testing.T) {
	s, _ := newTestScheduler(t)
	assert.False(t, s.Stop("does-not-exist"))
}

func TestScheduler_QueueSignalsEmptyForUnknownPipeline(t *testing.T) {
	s, _ := newTestScheduler(t)
	sig := s.QueueSignals("nope")
	assert.False(t, sig.HasQueuedTasks)
	assert.Equal(t, 0, sig.QueueLength)
}
