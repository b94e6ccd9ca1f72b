package imagebuilder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgecd.dev/core/model"
)

func TestTemplateParams_KnownAndUnknown(t *testing.T) {
	params, ok := TemplateParams(model.ProjectTypeGo)
	require.True(t, ok)
	assert.Equal(t, "1.22", params["GoVersion"])

	_, ok = TemplateParams(model.ProjectType("cobol"))
	assert.False(t, ok)
}

func TestRenderTemplate_GoUsesDefaultsWhenParamsOmitted(t *testing.T) {
	out, err := renderTemplate(model.ProjectTypeGo, nil)
	require.NoError(t, err)
	body := string(out)
	assert.Contains(t, body, "FROM golang:1.22-alpine")
	assert.Contains(t, body, "EXPOSE 8080")
}

func TestRenderTemplate_NodeJSHonorsOverrides(t *testing.T) {
	out, err := renderTemplate(model.ProjectTypeNodeJS, map[string]any{
		"NodeVersion":  "22",
		"Port":         4000,
		"BuildCommand": "npm run build",
	})
	require.NoError(t, err)
	body := string(out)
	assert.True(t, strings.Contains(body, "FROM node:22-alpine"))
	assert.Contains(t, body, "EXPOSE 4000")
	assert.Contains(t, body, "RUN npm run build")
}

func TestRenderTemplate_UnknownProjectType(t *testing.T) {
	_, err := renderTemplate(model.ProjectType("cobol"), nil)
	require.Error(t, err)
	e, ok := model.AsError(err)
	require.True(t, ok)
	assert.Equal(t, model.KindTemplateRender, e.Kind)
}
