package httpapi

import (
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// NewRouter wires every route spec.md §6 names plus A.3's supplemented
// endpoints, the way server/api/routes.go's SetupRouter assembles the
// teacher's route groups. pprof is mounted unconditionally for operator
// diagnostics, matching cmd/main.go.
func NewRouter(a *App) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), ginLogger(a))
	pprof.Register(router)

	api := router.Group("/api")

	api.POST("/auth/token", a.IssueToken)
	// The webhook receiver authenticates via its own per-pipeline HMAC
	// secret (spec.md §4.6 step 2), not the operator bearer token.
	api.POST("/webhook/:token", a.HandleWebhook)

	authed := api.Group("")
	authed.Use(a.RequireOperator)
	{
		authed.GET("/pipelines", a.ListPipelines)
		authed.POST("/pipelines", a.CreatePipeline)
		authed.PUT("/pipelines/:id", a.UpdatePipeline)
		authed.DELETE("/pipelines/:id", a.DeletePipeline)
		authed.POST("/pipelines/:id/run", a.RunPipeline)
		authed.GET("/pipelines/:id/tasks", a.ListPipelineTasks)

		authed.GET("/build-tasks/:id", a.GetBuildTask)
		authed.GET("/build-tasks/:id/logs", a.GetBuildTaskLogs)
		authed.GET("/build-tasks/:id/logs/stream", a.StreamBuildTaskLogs)
		authed.POST("/build-tasks/:id/stop", a.StopBuildTask)

		authed.POST("/verify-git-repo", a.VerifyGitRepo)
		authed.POST("/git-sources/scan-dockerfiles", a.ScanDockerfiles)
		authed.POST("/parse-dockerfile-services", a.ParseDockerfileServices)
		authed.GET("/template-params", a.TemplateParams)

		authed.GET("/hosts", a.ListHosts)
		authed.POST("/hosts", a.CreateHost)
		authed.DELETE("/hosts/:id", a.DeleteHost)

		authed.GET("/deploy-tasks", a.ListDeployTasks)
		authed.GET("/deploy-tasks/:id", a.GetDeployTask)
		authed.POST("/deploy-tasks", a.CreateDeployTask)
		authed.POST("/deploy-tasks/import", a.ImportDeployTask)
		authed.POST("/deploy-tasks/:id/execute", a.ExecuteDeployTask)
		authed.DELETE("/deploy-tasks/:id", a.DeleteDeployTask)
		authed.GET("/deploy-tasks/:id/export", a.ExportDeployTask)
	}

	return router
}

func ginLogger(a *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		a.Log.WithField("status", c.Writer.Status()).
			WithField("method", c.Request.Method).
			Info(c.Request.URL.Path)
	}
}
