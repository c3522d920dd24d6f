package exec_cmd

import (
	"bytes"
	"os"
	"os/exec"
)

// result contains command exec result
type result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Exec runs command and waits for it to finish. Used for short checks
// only; supervised stages go through the watchdog instead.
func Exec(command string, args ...string) (result, error) {

	var stderr, stdout bytes.Buffer

	cmd := exec.Command(command, args...)

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmd.Env = os.Environ()

	err := cmd.Run()

	res := result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
	}
	// ProcessState is nil when the command could not be started
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	return res, err
}

// LookPath reports whether the named tool can be resolved on PATH.
func LookPath(tool string) (string, error) {
	return exec.LookPath(tool)
}
