// Package scheduler implements the Build Task Scheduler & Executor
// (C3/C4): a bounded worker pool drains per-pipeline FIFO queues,
// running each Build Task through imagebuilder and driving its
// pending -> running -> completed/failed/stopped state machine. The
// worker-pool-over-channel shape follows the concurrency patterns the
// teacher's own socket.Hub uses for its register/unregister loop,
// generalized here to bounded concurrent work instead of connection
// bookkeeping.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"forgecd.dev/core/imagebuilder"
	"forgecd.dev/core/model"
	"forgecd.dev/core/store"
	"forgecd.dev/core/wsstream"
)

// Scheduler owns one pipeline-keyed FIFO queue set and a bounded pool
// of workers draining them.
type Scheduler struct {
	log *logrus.Entry

	pipelines *store.PipelineStore
	tasks     *store.BuildTaskStore
	builder   *imagebuilder.Builder
	hub       *wsstream.Hub

	workers int
	work    chan string // task ids ready to run

	mu          sync.Mutex
	pipelineQ   map[string][]string // pipeline_id -> queued task ids, FIFO
	running     map[string]*runningTask
	cancelFuncs map[string]context.CancelFunc
}

type runningTask struct {
	taskID     string
	pipelineID string
}

// New builds a Scheduler with the given worker pool size.
func New(log *logrus.Entry, pipelines *store.PipelineStore, tasks *store.BuildTaskStore, builder *imagebuilder.Builder, hub *wsstream.Hub, workers int) *Scheduler {
	s := &Scheduler{
		log:         log,
		pipelines:   pipelines,
		tasks:       tasks,
		builder:     builder,
		hub:         hub,
		workers:     workers,
		work:        make(chan string, 1024),
		pipelineQ:   make(map[string][]string),
		running:     make(map[string]*runningTask),
		cancelFuncs: make(map[string]context.CancelFunc),
	}
	return s
}

// Start launches the worker pool. Call once at boot, after RecoverQueue.
func (s *Scheduler) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		go s.workerLoop(ctx)
	}
}

// RecoverQueue re-enqueues any task passed in as still pending after a
// restart. In practice this is always called with an empty slice:
// store.BuildTaskStore.SweepStale has already swept every running and
// pending task to failed by the time boot reaches this call, so queues
// always rebuild empty (spec.md §4.4). The method exists so a future
// boot sequence that chooses to preserve some pending tasks has
// somewhere to feed them back in.
func (s *Scheduler) RecoverQueue(pending []*model.BuildTask) {
	for _, t := range pending {
		s.enqueue(t.PipelineID, t.TaskID)
	}
}

// Enqueue creates a new Build Task for pipeline p from trigger info and
// puts it at the back of that pipeline's queue. Pipeline-level
// serialization (spec.md §4.4: "a pipeline never has two builds running
// at once") is enforced by dispatch, not by refusing to queue here.
func (s *Scheduler) Enqueue(p *model.Pipeline, trigger model.TriggerInfo, resolvedBranch, resolvedTag, commitSHA string) (*model.BuildTask, error) {
	task := &model.BuildTask{
		TaskID:           uuid.NewString(),
		PipelineID:       p.PipelineID,
		Trigger:          trigger,
		ResolvedBranch:   resolvedBranch,
		ResolvedTag:      resolvedTag,
		CommitSHA:        commitSHA,
		PipelineSnapshot: p.Clone(),
		Status:           model.StatusPending,
		QueuedAt:         time.Now(),
	}
	if err := s.tasks.Create(task); err != nil {
		return nil, err
	}
	s.enqueue(p.PipelineID, task.TaskID)
	return task, nil
}

func (s *Scheduler) enqueue(pipelineID, taskID string) {
	s.mu.Lock()
	s.pipelineQ[pipelineID] = append(s.pipelineQ[pipelineID], taskID)
	alreadyRunning := s.pipelineHasRunning(pipelineID)
	s.mu.Unlock()

	if !alreadyRunning {
		s.dispatchNext(pipelineID)
	}
}

func (s *Scheduler) pipelineHasRunning(pipelineID string) bool {
	for _, r := range s.running {
		if r.pipelineID == pipelineID {
			return true
		}
	}
	return false
}

// dispatchNext pops the head of pipelineID's queue (if nothing of that
// pipeline is already running) and hands it to the worker pool.
func (s *Scheduler) dispatchNext(pipelineID string) {
	s.mu.Lock()
	queue := s.pipelineQ[pipelineID]
	if len(queue) == 0 || s.pipelineHasRunning(pipelineID) {
		s.mu.Unlock()
		return
	}
	taskID := queue[0]
	s.pipelineQ[pipelineID] = queue[1:]
	s.running[taskID] = &runningTask{taskID: taskID, pipelineID: pipelineID}
	s.mu.Unlock()

	s.work <- taskID
}

func (s *Scheduler) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case taskID := <-s.work:
			s.runTask(ctx, taskID)
		}
	}
}

// Stop ends a task's life early. A running task's context is cancelled,
// honored between services and at the next log flush rather than
// killed mid-process (the decision recorded for the
// cancellation-semantics open question). A still-pending task is
// instead removed from its pipeline's queue and marked stopped
// directly, without ever consuming a worker (spec.md §4.4).
func (s *Scheduler) Stop(taskID string) bool {
	s.mu.Lock()
	cancel, ok := s.cancelFuncs[taskID]
	s.mu.Unlock()
	if ok {
		cancel()
		return true
	}
	return s.stopPending(taskID)
}

func (s *Scheduler) stopPending(taskID string) bool {
	task, err := s.tasks.Get(taskID)
	if err != nil || task.IsTerminal() {
		return false
	}

	s.mu.Lock()
	queue := s.pipelineQ[task.PipelineID]
	idx := -1
	for i, id := range queue {
		if id == taskID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		s.pipelineQ[task.PipelineID] = append(queue[:idx], queue[idx+1:]...)
	}
	s.mu.Unlock()
	if idx < 0 {
		return false
	}

	now := time.Now()
	task.Status = model.StatusStopped
	task.CompletedAt = &now
	_ = s.tasks.Update(task)
	if s.hub != nil {
		s.hub.BroadcastStatus(taskID, string(model.StatusStopped))
	}
	return true
}

// QueueSignals reports the observability fields spec.md §6 requires
// for a pipeline's GET response.
func (s *Scheduler) QueueSignals(pipelineID string) model.QueueSignals {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig := model.QueueSignals{QueueLength: len(s.pipelineQ[pipelineID])}
	for _, r := range s.running {
		if r.pipelineID == pipelineID {
			sig.CurrentTaskStatus = model.StatusRunning
			break
		}
	}
	sig.HasQueuedTasks = sig.QueueLength > 0 || sig.CurrentTaskStatus == model.StatusRunning
	return sig
}
