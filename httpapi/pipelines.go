package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"forgecd.dev/core/model"
	"forgecd.dev/core/trigger"
)

// ListPipelines handles GET /pipelines.
func (a *App) ListPipelines(c *gin.Context) {
	pipelines, err := a.Pipelines.List()
	if err != nil {
		writeError(c, model.Wrap(model.KindInternal, "listing pipelines", err))
		return
	}
	out := make([]pipelineDTO, 0, len(pipelines))
	for _, p := range pipelines {
		out = append(out, newPipelineDTO(p, a.Scheduler.QueueSignals(p.PipelineID)))
	}
	c.JSON(http.StatusOK, gin.H{"pipelines": out})
}

// CreatePipeline handles POST /pipelines. webhook_token/webhook_secret
// are auto-generated when blank, per spec.md §4.5.
func (a *App) CreatePipeline(c *gin.Context) {
	var p model.Pipeline
	if err := c.ShouldBindJSON(&p); err != nil {
		writeError(c, model.Wrap(model.KindValidation, "invalid pipeline body", err))
		return
	}

	p.PipelineID = uuid.NewString()
	if p.WebhookToken == "" {
		p.WebhookToken = uuid.NewString()
	}
	if p.WebhookSecret == "" {
		p.WebhookSecret = uuid.NewString()
	}
	if p.WebhookBranchStrategy == "" {
		p.WebhookBranchStrategy = model.BranchStrategyUsePush
	}
	if p.PushMode == "" {
		p.PushMode = model.PushModeSingle
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := p.Validate(); err != nil {
		writeError(c, err)
		return
	}
	if err := a.Pipelines.Create(&p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newPipelineDTO(&p, a.Scheduler.QueueSignals(p.PipelineID)))
}

// UpdatePipeline handles PUT /pipelines/{id}. Stats fields
// (trigger_count, success_count, failed_count, last_build) are
// engine-maintained and never accepted from the request body.
func (a *App) UpdatePipeline(c *gin.Context) {
	id := c.Param("id")
	existing, err := a.Pipelines.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}

	var body model.Pipeline
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, model.Wrap(model.KindValidation, "invalid pipeline body", err))
		return
	}
	body.PipelineID = existing.PipelineID
	body.TriggerCount = existing.TriggerCount
	body.LastTriggeredAt = existing.LastTriggeredAt
	body.SuccessCount = existing.SuccessCount
	body.FailedCount = existing.FailedCount
	body.LastBuild = existing.LastBuild
	body.CreatedAt = existing.CreatedAt
	body.UpdatedAt = time.Now()
	if body.WebhookToken == "" {
		body.WebhookToken = existing.WebhookToken
	}
	if body.WebhookSecret == "" {
		body.WebhookSecret = existing.WebhookSecret
	}

	if err := body.Validate(); err != nil {
		writeError(c, err)
		return
	}
	if err := a.Pipelines.Update(&body); err != nil {
		writeError(c, err)
		return
	}
	a.Inspector.Invalidate(body.GitURL)
	c.JSON(http.StatusOK, newPipelineDTO(&body, a.Scheduler.QueueSignals(body.PipelineID)))
}

// DeletePipeline handles DELETE /pipelines/{id}. Historical Build
// Tasks are left in place, dissociated but not deleted (spec.md §3).
func (a *App) DeletePipeline(c *gin.Context) {
	id := c.Param("id")
	if err := a.Pipelines.Delete(id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RunPipeline handles POST /pipelines/{id}/run, spec.md §4.6's Manual
// trigger entry point.
func (a *App) RunPipeline(c *gin.Context) {
	id := c.Param("id")
	p, err := a.Pipelines.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}

	var body struct {
		Branch string `json:"branch"`
		Force  bool   `json:"force"`
	}
	_ = c.ShouldBindJSON(&body)

	branch := body.Branch
	if branch == "" {
		branch = p.Branch
	}
	if branch == "" {
		writeError(c, model.NewError(model.KindValidation, "no branch configured and none supplied"))
		return
	}
	tag := trigger.ResolveTag(p, branch)

	if err := trigger.CheckManualRunAllowed(a.Scheduler, p.PipelineID, body.Force); err != nil {
		sig := a.Scheduler.QueueSignals(p.PipelineID)
		c.JSON(http.StatusConflict, gin.H{"status": "queued", "queue_length": sig.QueueLength, "branch": branch})
		return
	}

	sigBefore := a.Scheduler.QueueSignals(p.PipelineID)
	wasIdle := !sigBefore.HasQueuedTasks

	task, err := a.Scheduler.Enqueue(p, trigger.NewManualTrigger("operator"), branch, tag, "")
	if err != nil {
		writeError(c, err)
		return
	}
	a.bumpTriggerStats(p)

	if wasIdle {
		c.JSON(http.StatusOK, gin.H{"task_id": task.TaskID, "branch": branch})
		return
	}
	sig := a.Scheduler.QueueSignals(p.PipelineID)
	c.JSON(http.StatusOK, gin.H{"status": "queued", "queue_length": sig.QueueLength, "branch": branch})
}

// ListPipelineTasks handles GET /pipelines/{id}/tasks, spec.md §6's
// paginated/filtered build-task listing, served from the sqlite
// secondary index (A.3.4).
func (a *App) ListPipelineTasks(c *gin.Context) {
	id := c.Param("id")
	status := c.Query("status")
	triggerSource := c.Query("trigger_source")
	limit := clampLimit(queryInt(c, "limit", defaultTaskListLimit))
	offset := queryInt(c, "offset", 0)

	ids, total, err := a.Index.ListBuildTasks(id, status, triggerSource, offset, limit)
	if err != nil {
		writeError(c, model.Wrap(model.KindInternal, "querying task index", err))
		return
	}
	tasks := make([]*model.BuildTask, 0, len(ids))
	for _, taskID := range ids {
		t, err := a.BuildTasks.Get(taskID)
		if err != nil {
			continue
		}
		tasks = append(tasks, t)
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks":    tasks,
		"total":    total,
		"has_more": int64(offset+len(tasks)) < total,
	})
}

func (a *App) bumpTriggerStats(p *model.Pipeline) {
	now := time.Now()
	p.TriggerCount++
	p.LastTriggeredAt = &now
	_ = a.Pipelines.Update(p)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n := 0
	for _, r := range v {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	return n
}
