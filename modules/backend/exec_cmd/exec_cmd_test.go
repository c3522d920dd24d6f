package exec_cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExec(t *testing.T) {
	res, err := Exec("sh", "-c", "echo on stdout; echo on stderr >&2")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "on stdout\n", res.Stdout)
	assert.Equal(t, "on stderr\n", res.Stderr)
}

func TestExecNonZeroExit(t *testing.T) {
	res, err := Exec("sh", "-c", "exit 3")
	require.Error(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestExecCommandNotStarted(t *testing.T) {
	res, err := Exec("no-such-tool-on-path")
	require.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
}

func TestLookPath(t *testing.T) {
	p, err := LookPath("sh")
	require.NoError(t, err)
	assert.NotEmpty(t, p)

	_, err = LookPath("no-such-tool-on-path")
	assert.Error(t, err)
}
