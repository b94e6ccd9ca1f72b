package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsError_UnwrapsNestedError(t *testing.T) {
	inner := NewError(KindNotFound, "missing")
	wrapped := Wrap(KindInternal, "outer", inner)

	e, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindInternal, e.Kind)
}

func TestAsError_FalseForPlainError(t *testing.T) {
	_, ok := AsError(errors.New("plain"))
	assert.False(t, ok)
}

func TestAsError_FalseForNil(t *testing.T) {
	_, ok := AsError(nil)
	assert.False(t, ok)
}

func TestWrapBuildFailed_CarriesCommandAndOutput(t *testing.T) {
	err := WrapBuildFailed(KindBuildFailed, "docker build .", "tail of output", errors.New("exit 1"))
	assert.Equal(t, "docker build .", err.Command)
	assert.Equal(t, "tail of output", err.Output)
	assert.ErrorContains(t, err, "exit 1")
}
