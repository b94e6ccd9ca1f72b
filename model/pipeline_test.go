package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPipeline() *Pipeline {
	return &Pipeline{
		PipelineID: "p1",
		GitURL:     "https://example.com/acme/app.git",
		Template:   "go",
		ImageName:  "acme/app",
		PushMode:   PushModeSingle,
	}
}

func TestPipeline_Validate_RequiresGitURL(t *testing.T) {
	p := validPipeline()
	p.GitURL = ""
	err := p.Validate()
	require.Error(t, err)
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindValidation, e.Kind)
}

func TestPipeline_Validate_TemplateAndProjectDockerfileAreMutuallyExclusive(t *testing.T) {
	p := validPipeline()
	p.UseProjectDockerfile = true
	p.DockerfileName = "Dockerfile"
	require.Error(t, p.Validate())
}

func TestPipeline_Validate_RequiresTemplateWhenNotUsingProjectDockerfile(t *testing.T) {
	p := validPipeline()
	p.Template = ""
	require.Error(t, p.Validate())
}

func TestPipeline_Validate_ProjectDockerfileRequiresName(t *testing.T) {
	p := validPipeline()
	p.Template = ""
	p.UseProjectDockerfile = true
	require.Error(t, p.Validate())

	p.DockerfileName = "Dockerfile"
	assert.NoError(t, p.Validate())
}

func TestPipeline_Validate_SingleModeRejectsMultipleSelectedServices(t *testing.T) {
	p := validPipeline()
	p.SelectedServices = []string{"api", "worker"}
	require.Error(t, p.Validate())
}

func TestPipeline_Validate_InvalidCronExpression(t *testing.T) {
	p := validPipeline()
	p.CronExpression = "not a cron"
	require.Error(t, p.Validate())
}

func TestPipeline_Validate_Valid(t *testing.T) {
	p := validPipeline()
	assert.NoError(t, p.Validate())
}

func TestPipeline_Clone_DeepCopiesSlicesAndMaps(t *testing.T) {
	p := validPipeline()
	p.SelectedServices = []string{"api"}
	p.BranchTagMapping = []BranchTagRule{{Branch: "main", Tag: "latest"}}
	p.ServicePushConfig = map[string]ServicePushConfig{"api": {Push: true}}

	clone := p.Clone()
	clone.SelectedServices[0] = "worker"
	clone.BranchTagMapping[0].Tag = "stable"
	clone.ServicePushConfig["api"] = ServicePushConfig{Push: false}

	assert.Equal(t, "api", p.SelectedServices[0])
	assert.Equal(t, "latest", p.BranchTagMapping[0].Tag)
	assert.True(t, p.ServicePushConfig["api"].Push)
}
