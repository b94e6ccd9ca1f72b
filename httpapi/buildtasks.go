package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"forgecd.dev/core/model"
)

// GetBuildTask handles GET /build-tasks/{id}.
func (a *App) GetBuildTask(c *gin.Context) {
	t, err := a.BuildTasks.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// GetBuildTaskLogs handles GET /build-tasks/{id}/logs: the append-only
// log as text/plain, readable while the build is still running
// (spec.md §6).
func (a *App) GetBuildTaskLogs(c *gin.Context) {
	id := c.Param("id")
	if _, err := a.BuildTasks.Get(id); err != nil {
		writeError(c, err)
		return
	}
	body, err := a.BuildTasks.ReadLog(id)
	if err != nil {
		writeError(c, model.Wrap(model.KindInternal, "reading build log", err))
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", body)
}

// StreamBuildTaskLogs handles GET /build-tasks/{id}/logs/stream,
// upgrading to a websocket that narrates log_chunk/build_status events
// as the build proceeds (A.3.1, supplemental to the required plain-text
// polling endpoint above).
func (a *App) StreamBuildTaskLogs(c *gin.Context) {
	id := c.Param("id")
	if _, err := a.BuildTasks.Get(id); err != nil {
		writeError(c, err)
		return
	}
	if err := a.WSServer.ServeTask(c.Writer, c.Request, id); err != nil {
		a.Log.WithError(err).WithField("task_id", id).Warn("websocket upgrade failed")
	}
}

// StopBuildTask handles POST /build-tasks/{id}/stop, requesting
// cancellation per spec.md §4.4's cancel transition.
func (a *App) StopBuildTask(c *gin.Context) {
	id := c.Param("id")
	if _, err := a.BuildTasks.Get(id); err != nil {
		writeError(c, err)
		return
	}
	if !a.Scheduler.Stop(id) {
		writeError(c, model.NewError(model.KindConflict, "task is not pending or running"))
		return
	}
	c.Status(http.StatusAccepted)
}
