package backup

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rpi-ops/sd-backup/modules/logger"
	"github.com/rpi-ops/sd-backup/modules/watchdog"
)

// CopyError reports a copy subprocess that exited non-zero.
type CopyError struct {
	Code int
}

func (e CopyError) Error() string {
	return fmt.Sprintf("copy process failed with exit code %d", e.Code)
}

// runCopy streams the raw device into the uncompressed image file under
// watchdog supervision bound to the growing image.
func (j *Job) runCopy(logCh chan logger.LogRecord) error {

	name := j.copyTool
	args := []string{
		"if=" + j.device,
		"of=" + j.ImagePath(),
		fmt.Sprintf("bs=%d", j.blockSize),
	}
	if j.useSudo {
		args = append([]string{name}, args...)
		name = "sudo"
	}

	var stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stderr = &stderr
	cmd.Env = os.Environ()

	logCh <- logger.Log(j.deviceName, StageCopy).Debugf("Copy cmd: %s", cmd.String())

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to start copy process: %w", err)
	}

	err := watchdog.Supervise(logCh, watchdog.CmdProcess{Cmd: cmd}, watchdog.Opts{
		Device:    j.deviceName,
		Stage:     StageCopy,
		WatchPath: j.ImagePath(),
		Timeout:   j.timeout,
		Poll:      j.poll,
		KillGrace: j.killGrace,
	})
	if err != nil {
		if errors.Is(err, watchdog.ErrStalled) {
			return err
		}
		logCh <- logger.Log(j.deviceName, StageCopy).Debugf("STDERR: %s", stderr.String())

		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return CopyError{Code: ee.ExitCode()}
		}
		return err
	}

	return nil
}
