package deployexec

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, home, expandTilde("~"))
	assert.Equal(t, filepath.Join(home, ".ssh", "id_ed25519"), expandTilde("~/.ssh/id_ed25519"))
	assert.Equal(t, "/etc/forge/key", expandTilde("/etc/forge/key"))
}

func TestHostKeyCallback_FallsBackToInsecureWhenKnownHostsMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cb, err := hostKeyCallback()
	require.NoError(t, err)
	assert.NotNil(t, cb)
}
