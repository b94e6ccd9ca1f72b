package deployconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgecd.dev/core/model"
)

func TestParse_DockerRun(t *testing.T) {
	yaml := `
version: "1"
app:
  name: myapp
deploy:
  type: docker_run
  command: docker run -d --name myapp -p 8080:8080 myapp:latest
  redeploy: true
targets:
  - name: prod
    host_type: ssh
    host_name: prod-1
`
	doc, err := Parse([]byte(yaml))
	require.NoError(t, err)
	assert.Equal(t, "myapp", doc.AppName)
	assert.Equal(t, model.PlanDockerRun, doc.Plan.Kind)
	require.NotNil(t, doc.Plan.Run)
	assert.Equal(t, "-d --name myapp -p 8080:8080 myapp:latest", doc.Plan.Run.Args)
	assert.True(t, doc.Plan.Run.Redeploy)
	require.Len(t, doc.Targets, 1)
	assert.Equal(t, model.HostTypeSSH, doc.Targets[0].HostType)
	assert.Equal(t, "prod-1", doc.Targets[0].HostName)
}

func TestParse_DockerCompose(t *testing.T) {
	yaml := `
version: "1"
app:
  name: stack
deploy:
  type: docker_compose
  compose_content: |
    services:
      web:
        image: stack:latest
targets:
  - host_type: ssh
    host_name: prod-1
`
	doc, err := Parse([]byte(yaml))
	require.NoError(t, err)
	assert.Equal(t, model.PlanDockerCompose, doc.Plan.Kind)
	require.NotNil(t, doc.Plan.Compose)
	assert.Equal(t, "up -d", doc.Plan.Compose.Command)
}

func TestParse_Steps(t *testing.T) {
	yaml := `
version: "1"
app:
  name: stepsapp
deploy:
  steps:
    - name: pull
      command: docker pull stepsapp:latest
    - name: restart
      command: docker restart stepsapp
targets:
  - host_type: ssh
    host_name: host-a
`
	doc, err := Parse([]byte(yaml))
	require.NoError(t, err)
	assert.Equal(t, model.PlanSteps, doc.Plan.Kind)
	require.NotNil(t, doc.Plan.Steps)
	require.Len(t, doc.Plan.Steps.Steps, 2)
	assert.Equal(t, "pull", doc.Plan.Steps.Steps[0].Name)
}

func TestParse_LegacyDockerBlockOnFirstTarget(t *testing.T) {
	yaml := `
version: "1"
app:
  name: legacyapp
targets:
  - host_type: ssh
    host_name: host-a
    docker:
      command: docker run -d legacyapp:latest
      redeploy: true
`
	doc, err := Parse([]byte(yaml))
	require.NoError(t, err)
	assert.Equal(t, model.PlanDockerRun, doc.Plan.Kind)
	require.NotNil(t, doc.Plan.Run)
	assert.True(t, doc.Plan.Run.Redeploy)
}

func TestParse_MissingAppName(t *testing.T) {
	_, err := Parse([]byte(`version: "1"
targets:
  - host_type: ssh
    host_name: host-a
`))
	require.Error(t, err)
	e, ok := model.AsError(err)
	require.True(t, ok)
	assert.Equal(t, model.KindValidation, e.Kind)
}

func TestParse_NoTargets(t *testing.T) {
	_, err := Parse([]byte(`version: "1"
app:
  name: noTargets
deploy:
  type: docker_run
  command: docker run x
`))
	require.Error(t, err)
}

func TestParse_InvalidHostType(t *testing.T) {
	_, err := Parse([]byte(`version: "1"
app:
  name: badhost
deploy:
  type: docker_run
  command: docker run x
targets:
  - host_type: kubernetes
    host_name: host-a
`))
	require.Error(t, err)
}

func TestParse_UnknownPlanType(t *testing.T) {
	_, err := Parse([]byte(`version: "1"
app:
  name: badplan
deploy:
  type: something_else
targets:
  - host_type: ssh
    host_name: host-a
`))
	require.Error(t, err)
}
