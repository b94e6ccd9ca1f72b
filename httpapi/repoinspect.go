package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"forgecd.dev/core/imagebuilder"
	"forgecd.dev/core/model"
)

// VerifyGitRepo handles POST /verify-git-repo, spec.md §4.1's
// ResolveBranchesAndTags operation surfaced over HTTP.
func (a *App) VerifyGitRepo(c *gin.Context) {
	var body struct {
		GitURL string `json:"git_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, model.Wrap(model.KindValidation, "invalid request body", err))
		return
	}

	inspection, err := a.Inspector.Inspect(c.Request.Context(), body.GitURL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"branches":       inspection.Branches,
		"tags":           inspection.Tags,
		"default_branch": inspection.DefaultBranch,
	})
}

// ScanDockerfiles handles POST /git-sources/scan-dockerfiles, spec.md
// §4.1's ScanDockerfiles operation: always clones fresh at the named
// branch rather than serving a cached HEAD inspection.
func (a *App) ScanDockerfiles(c *gin.Context) {
	var body struct {
		GitURL string `json:"git_url" binding:"required"`
		Branch string `json:"branch"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, model.Wrap(model.KindValidation, "invalid request body", err))
		return
	}

	entries, err := a.Inspector.ScanDockerfiles(c.Request.Context(), body.GitURL, body.Branch)
	if err != nil {
		writeError(c, err)
		return
	}
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	c.JSON(http.StatusOK, paths)
}

// ParseDockerfileServices handles POST /parse-dockerfile-services,
// spec.md §4.1's AnalyzeServices operation.
func (a *App) ParseDockerfileServices(c *gin.Context) {
	var body struct {
		GitURL         string `json:"git_url" binding:"required"`
		Branch         string `json:"branch"`
		DockerfileName string `json:"dockerfile_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, model.Wrap(model.KindValidation, "invalid request body", err))
		return
	}

	services, err := a.Inspector.AnalyzeServices(c.Request.Context(), body.GitURL, body.Branch, body.DockerfileName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// TemplateParams handles GET /template-params?template=&project_type=,
// reporting the default build-arg/template parameters C2 would fill in
// for a project type, spec.md §4.2.
func (a *App) TemplateParams(c *gin.Context) {
	projectType := model.ProjectType(c.Query("project_type"))
	params, ok := imagebuilder.TemplateParams(projectType)
	if !ok {
		writeError(c, model.NewError(model.KindValidation, "unknown project_type: "+string(projectType)))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"services": []model.ServiceDefinition{},
		"params":   params,
	})
}
