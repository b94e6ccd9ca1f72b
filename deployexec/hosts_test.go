package deployexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgecd.dev/core/model"
)

func TestRegistry_AgentAndPortainerAreUnimplementedStubs(t *testing.T) {
	r := NewRegistry()

	err := r.Execute(model.DeployHost{Name: "a", Type: model.HostTypeAgent}, "name", "img", model.DeployConfig{}, discard{}, func(string) {})
	require.Error(t, err)
	e, ok := model.AsError(err)
	require.True(t, ok)
	assert.Equal(t, model.KindHostNotFound, e.Kind)

	err = r.Execute(model.DeployHost{Name: "p", Type: model.HostTypePortainer}, "name", "img", model.DeployConfig{}, discard{}, func(string) {})
	require.Error(t, err)
	e, ok = model.AsError(err)
	require.True(t, ok)
	assert.Equal(t, model.KindHostNotFound, e.Kind)
}

func TestRegistry_UnknownHostType(t *testing.T) {
	r := NewRegistry()
	err := r.Execute(model.DeployHost{Name: "x", Type: model.HostType("nonsense")}, "name", "img", model.DeployConfig{}, discard{}, func(string) {})
	require.Error(t, err)
	e, ok := model.AsError(err)
	require.True(t, ok)
	assert.Equal(t, model.KindHostNotFound, e.Kind)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
