package deployexec

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"forgecd.dev/core/model"
	"forgecd.dev/core/store"
)

// Executor runs a DeployTask against its targets one at a time, in
// declaration order, and persists per-target progress as it goes.
// Spec.md §4.9: "the core does not parallelize across targets of one
// task; parallelism is across tasks" — concurrency across Deploy Tasks
// comes from each call to Run happening on its own goroutine, started
// by the HTTP handler that triggers execution.
type Executor struct {
	log      *logrus.Entry
	tasks    *store.DeployTaskStore
	hosts    *store.HostStore
	registry *Registry
}

// New builds an Executor.
func New(log *logrus.Entry, tasks *store.DeployTaskStore, hosts *store.HostStore, registry *Registry) *Executor {
	return &Executor{log: log, tasks: tasks, hosts: hosts, registry: registry}
}

// Run executes task against every configured target in declaration
// order, updating the task record after each target finishes and once
// more with the aggregate status when all have.
func (e *Executor) Run(task *model.DeployTask) {
	now := time.Now()
	task.Status = model.StatusRunning
	task.StartedAt = &now
	task.Targets = make([]model.TargetResult, len(task.TargetSpecs))
	for i, spec := range task.TargetSpecs {
		task.Targets[i] = model.TargetResult{HostName: spec.HostName, Status: model.StatusPending}
	}
	_ = e.tasks.Update(task)

	for i, spec := range task.TargetSpecs {
		e.runOne(task, i, spec)
	}

	completed := time.Now()
	task.Status = model.AggregateStatus(task.Targets)
	task.CompletedAt = &completed
	_ = e.tasks.Update(task)
}

// runOne resolves spec's host and runs the task's plan against it,
// spec.md §4.9 step 1: "Missing host → target marked failed with
// HostNotFound; executor continues to the next target."
func (e *Executor) runOne(task *model.DeployTask, idx int, spec model.DeployTargetSpec) {
	started := time.Now()
	task.Targets[idx].Status = model.StatusRunning
	task.Targets[idx].StartedAt = &started
	_ = e.tasks.Update(task)

	host, err := e.hosts.Resolve(spec.HostType, spec.HostName)
	if err != nil {
		e.failTarget(task, idx, err)
		return
	}
	task.Targets[idx].HostID = host.HostID

	w := targetLogWriter{tasks: e.tasks, taskID: task.TaskID, hostID: host.HostID}
	onStep := func(name string) {
		_ = e.tasks.AppendTargetMessage(task.TaskID, host.HostID, "step: "+name)
	}

	name := task.Name + "-" + host.HostID
	if err := e.registry.Execute(*host, name, task.ImageRef, task.Config, w, onStep); err != nil {
		e.failTarget(task, idx, err)
		return
	}

	completed := time.Now()
	task.Targets[idx].CompletedAt = &completed
	task.Targets[idx].Status = model.StatusCompleted
	_ = e.tasks.Update(task)
}

func (e *Executor) failTarget(task *model.DeployTask, idx int, err error) {
	completed := time.Now()
	task.Targets[idx].CompletedAt = &completed
	task.Targets[idx].Status = model.StatusFailed
	if e, ok := model.AsError(err); ok {
		task.Targets[idx].ErrorKind = e.Kind
		task.Targets[idx].Error = e.Message
	} else {
		task.Targets[idx].ErrorKind = model.KindInternal
		task.Targets[idx].Error = err.Error()
	}
	_ = e.tasks.Update(task)
}

// targetLogWriter adapts DeployTaskStore.AppendTargetMessage to io.Writer
// so deployexec's per-host command output is recorded line by line.
type targetLogWriter struct {
	tasks  *store.DeployTaskStore
	taskID string
	hostID string
}

func (w targetLogWriter) Write(p []byte) (int, error) {
	if err := w.tasks.AppendTargetMessage(w.taskID, w.hostID, string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

var _ io.Writer = targetLogWriter{}
