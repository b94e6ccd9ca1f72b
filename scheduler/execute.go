package scheduler

import (
	"context"
	"time"

	"forgecd.dev/core/imagebuilder"
	"forgecd.dev/core/model"
)

// runTask drives one Build Task from pending through to a terminal
// state, then dispatches the next queued task for its pipeline.
func (s *Scheduler) runTask(ctx context.Context, taskID string) {
	defer s.finish(taskID)

	task, err := s.tasks.Get(taskID)
	if err != nil {
		s.log.WithError(err).WithField("task_id", taskID).Error("could not load queued task")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelFuncs[taskID] = cancel
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.cancelFuncs, taskID)
		s.mu.Unlock()
	}()

	now := time.Now()
	task.Status = model.StatusRunning
	task.StartedAt = &now
	_ = s.tasks.Update(task)
	if s.hub != nil {
		s.hub.BroadcastStatus(taskID, string(model.StatusRunning))
	}

	sink := imagebuilder.NewTaskLogWriter(func(chunk []byte) error {
		if s.hub != nil {
			s.hub.BroadcastLog(taskID, string(chunk))
		}
		return s.tasks.AppendLog(taskID, chunk)
	})

	plan := planFromTask(task)
	results, buildErr := s.builder.Build(runCtx, taskID, plan, sink)

	s.finalize(task, results, buildErr, runCtx)
}

func (s *Scheduler) finalize(task *model.BuildTask, results []imagebuilder.Result, buildErr error, runCtx context.Context) {
	now := time.Now()
	task.CompletedAt = &now

	for _, r := range results {
		svcResult := model.ServiceBuildResult{
			Name:      r.ServiceName,
			ImageName: r.ImageName,
			Tag:       r.Tag,
			Pushed:    r.Pushed,
			Status:    model.StatusCompleted,
		}
		if r.Error != nil {
			svcResult.Status = model.StatusFailed
			svcResult.Error = r.Error.Error()
		}
		task.Services = append(task.Services, svcResult)
	}

	switch {
	case runCtx.Err() == context.Canceled:
		task.Status = model.StatusStopped
	case buildErr != nil:
		task.Status = model.StatusFailed
		if e, ok := model.AsError(buildErr); ok {
			task.ErrorKind = e.Kind
			task.ErrorMessage = e.Message
		} else {
			task.ErrorKind = model.KindInternal
			task.ErrorMessage = buildErr.Error()
		}
	case anyServiceFailed(task.Services):
		task.Status = model.StatusFailed
		task.ErrorKind = model.KindBuildFailed
		task.ErrorMessage = "one or more services failed to build"
	default:
		task.Status = model.StatusCompleted
		if len(results) > 0 {
			task.ImageName = results[0].ImageName
			task.ImageTag = results[0].Tag
			task.Pushed = results[0].Pushed
		}
	}

	_ = s.tasks.Update(task)
	if s.hub != nil {
		s.hub.BroadcastStatus(task.TaskID, string(task.Status))
	}
	s.updatePipelineStats(task)
}

func anyServiceFailed(services []model.ServiceBuildResult) bool {
	for _, svc := range services {
		if svc.Status == model.StatusFailed {
			return true
		}
	}
	return false
}

func (s *Scheduler) updatePipelineStats(task *model.BuildTask) {
	p, err := s.pipelines.Get(task.PipelineID)
	if err != nil {
		return
	}
	p.LastBuild = task.Snapshot()
	if task.Status == model.StatusCompleted {
		p.SuccessCount++
	} else if task.Status == model.StatusFailed {
		p.FailedCount++
	}
	_ = s.pipelines.Update(p)
}

// finish removes taskID from the running set and dispatches the next
// task queued for its pipeline, if any.
func (s *Scheduler) finish(taskID string) {
	s.mu.Lock()
	r, ok := s.running[taskID]
	delete(s.running, taskID)
	s.mu.Unlock()

	if ok {
		s.dispatchNext(r.pipelineID)
	}
}

// planFromTask builds an imagebuilder.Plan from a task's resolved
// parameters and its pipeline snapshot.
func planFromTask(task *model.BuildTask) imagebuilder.Plan {
	p := task.PipelineSnapshot
	return imagebuilder.Plan{
		GitURL:                p.GitURL,
		Branch:                task.ResolvedBranch,
		CommitSHA:             task.CommitSHA,
		SubPath:               p.SubPath,
		UseProjectDockerfile:  p.UseProjectDockerfile,
		DockerfileName:        p.DockerfileName,
		Template:              p.Template,
		ServiceTemplateParams: p.ServiceTemplateParams,
		PushMode:              p.PushMode,
		SelectedServices:      p.SelectedServices,
		ServicePush:           p.ServicePushConfig,
		ImageName:             p.ImageName,
		Tag:                   task.ResolvedTag,
		Push:                  p.Push,
		ResourcePackages:      p.ResourcePackageConfigs,
	}
}
