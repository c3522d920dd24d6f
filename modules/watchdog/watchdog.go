package watchdog

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/rpi-ops/sd-backup/modules/logger"
)

// ErrStalled is returned when the supervised process was killed because
// its output file stopped growing for longer than the base timeout.
var ErrStalled = errors.New("process stalled, killed by watchdog")

// Process is the supervised subprocess surface. exec.Cmd is adapted via
// CmdProcess; in-process stages provide their own implementation.
type Process interface {
	Wait() error
	Signal(sig os.Signal) error
	Kill() error
}

type Opts struct {
	Device    string
	Stage     string
	WatchPath string
	Timeout   time.Duration
	Poll      time.Duration
	KillGrace time.Duration
}

// Supervise blocks until the process exits on its own or is killed for
// lack of progress. The deadline is recomputed from wall-clock time on
// every observed growth of the watched file, so only stalls are
// penalized, never total duration. A watched file that never appears
// reads as size 0 and fires the deadline at the base timeout.
func Supervise(logCh chan logger.LogRecord, p Process, o Opts) error {

	done := make(chan error, 1)
	go func() { done <- p.Wait() }()

	deadline := time.Now().Add(o.Timeout)
	lastSize := fileSize(o.WatchPath)

	ticker := time.NewTicker(o.Poll)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			if size := fileSize(o.WatchPath); size > lastSize {
				lastSize = size
				deadline = time.Now().Add(o.Timeout)
				continue
			}
			if time.Now().Before(deadline) {
				continue
			}

			logCh <- logger.Log(o.Device, o.Stage).Errorf("No progress on %s for %v, killing process.", o.WatchPath, o.Timeout)

			_ = p.Signal(syscall.SIGTERM)
			select {
			case <-done:
			case <-time.After(o.KillGrace):
				_ = p.Kill()
				<-done
			}
			return ErrStalled
		}
	}
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

// CmdProcess adapts a started exec.Cmd to the Process interface.
type CmdProcess struct {
	Cmd *exec.Cmd
}

func (c CmdProcess) Wait() error {
	return c.Cmd.Wait()
}

func (c CmdProcess) Signal(sig os.Signal) error {
	return c.Cmd.Process.Signal(sig)
}

func (c CmdProcess) Kill() error {
	return c.Cmd.Process.Kill()
}
