package httpapi

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"forgecd.dev/core/deployconfig"
	"forgecd.dev/core/model"
)

// ListDeployTasks handles GET /deploy-tasks.
func (a *App) ListDeployTasks(c *gin.Context) {
	tasks, err := a.DeployTasks.List()
	if err != nil {
		writeError(c, model.Wrap(model.KindInternal, "listing deploy tasks", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deploy_tasks": tasks})
}

// GetDeployTask handles GET /deploy-tasks/{id}.
func (a *App) GetDeployTask(c *gin.Context) {
	t, err := a.DeployTasks.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// CreateDeployTask handles POST /deploy-tasks
// {config_content, registry?, tag?}, spec.md §6: creates after C7
// validation but does not execute.
func (a *App) CreateDeployTask(c *gin.Context) {
	var body struct {
		ConfigContent string `json:"config_content" binding:"required"`
		Registry      string `json:"registry"`
		Tag           string `json:"tag"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, model.Wrap(model.KindValidation, "invalid request body", err))
		return
	}
	task, err := a.buildDeployTask(body.ConfigContent, body.Registry, body.Tag)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := a.DeployTasks.Create(task); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// ImportDeployTask handles POST /deploy-tasks/import, a multipart YAML
// file upload carrying the same document CreateDeployTask accepts
// inline, spec.md §6.
func (a *App) ImportDeployTask(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		writeError(c, model.Wrap(model.KindValidation, "file form field is required", err))
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(c, model.Wrap(model.KindValidation, "reading uploaded file", err))
		return
	}

	task, err := a.buildDeployTask(string(content), c.PostForm("registry"), c.PostForm("tag"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := a.DeployTasks.Create(task); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// buildDeployTask parses a deploy config document and renders an image
// reference from registry/tag, producing a task in StatusPending with
// no targets executed yet. Target host names are carried through
// unresolved: spec.md §4.9 step 1 resolves each host at execute time,
// so a target naming a host that doesn't exist (yet) only fails that
// one target instead of blocking task creation.
func (a *App) buildDeployTask(configContent, registry, tag string) (*model.DeployTask, error) {
	doc, err := deployconfig.Parse([]byte(configContent))
	if err != nil {
		return nil, err
	}

	specs := make([]model.DeployTargetSpec, 0, len(doc.Targets))
	for _, target := range doc.Targets {
		specs = append(specs, model.DeployTargetSpec{HostType: target.HostType, HostName: target.HostName})
	}

	imageRef := doc.AppName
	if registry != "" {
		imageRef = registry + "/" + imageRef
	}
	if tag != "" {
		imageRef = imageRef + ":" + tag
	}

	return &model.DeployTask{
		TaskID:        uuid.NewString(),
		Name:          doc.AppName,
		ConfigContent: configContent,
		ImageRef:      imageRef,
		Config:        doc.Plan,
		TargetSpecs:   specs,
		Status:        model.StatusPending,
		QueuedAt:      time.Now(),
	}, nil
}

// ExecuteDeployTask handles POST /deploy-tasks/{id}/execute, running
// the task via C9. Execution runs in the background so the handler
// returns immediately with the task's pending snapshot; progress is
// polled through GetDeployTask or the status fields Executor.Run
// updates as each target advances.
func (a *App) ExecuteDeployTask(c *gin.Context) {
	task, err := a.DeployTasks.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if task.Status == model.StatusRunning {
		writeError(c, model.NewError(model.KindConflict, "deploy task is already running"))
		return
	}

	go a.Executor.Run(task)
	c.JSON(http.StatusAccepted, task)
}

// DeleteDeployTask handles DELETE /deploy-tasks/{id}.
func (a *App) DeleteDeployTask(c *gin.Context) {
	if err := a.DeployTasks.Delete(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportDeployTask handles GET /deploy-tasks/{id}/export, returning the
// task's canonical YAML document verbatim.
func (a *App) ExportDeployTask(c *gin.Context) {
	task, err := a.DeployTasks.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/x-yaml", []byte(task.ConfigContent))
}
