package watchdog

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpi-ops/sd-backup/modules/logger"
)

type fakeProcess struct {
	mu          sync.Mutex
	exit        chan error
	signaled    []os.Signal
	killed      bool
	dieOnSignal bool
}

func newFakeProcess(dieOnSignal bool) *fakeProcess {
	return &fakeProcess{
		exit:        make(chan error, 1),
		dieOnSignal: dieOnSignal,
	}
}

func (f *fakeProcess) Wait() error {
	return <-f.exit
}

func (f *fakeProcess) Signal(sig os.Signal) error {
	f.mu.Lock()
	f.signaled = append(f.signaled, sig)
	die := f.dieOnSignal
	f.mu.Unlock()
	if die {
		f.exit <- errors.New("terminated")
	}
	return nil
}

func (f *fakeProcess) Kill() error {
	f.mu.Lock()
	f.killed = true
	f.mu.Unlock()
	f.exit <- errors.New("killed")
	return nil
}

func (f *fakeProcess) wasSignaled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.signaled) > 0
}

func (f *fakeProcess) wasKilled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.killed
}

func drainLog() chan logger.LogRecord {
	ch := make(chan logger.LogRecord, 64)
	go func() {
		for range ch {
		}
	}()
	return ch
}

func TestSuperviseNaturalExit(t *testing.T) {
	p := newFakeProcess(false)
	p.exit <- nil

	err := Supervise(drainLog(), p, Opts{
		WatchPath: filepath.Join(t.TempDir(), "absent"),
		Timeout:   time.Second,
		Poll:      10 * time.Millisecond,
		KillGrace: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.False(t, p.wasSignaled())
}

func TestSuperviseNaturalExitError(t *testing.T) {
	p := newFakeProcess(false)
	p.exit <- errors.New("exit status 3")

	err := Supervise(drainLog(), p, Opts{
		WatchPath: filepath.Join(t.TempDir(), "absent"),
		Timeout:   time.Second,
		Poll:      10 * time.Millisecond,
		KillGrace: 10 * time.Millisecond,
	})
	require.EqualError(t, err, "exit status 3")
}

func TestSuperviseProgressExtendsDeadline(t *testing.T) {
	watch := filepath.Join(t.TempDir(), "out.img")
	p := newFakeProcess(true)

	// Grow the file faster than the poll interval for well past the
	// base timeout, then let the process finish naturally.
	stop := make(chan struct{})
	go func() {
		buf := []byte("x")
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-time.After(5 * time.Millisecond):
			}
			f, err := os.OpenFile(watch, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
			if err == nil {
				_, _ = f.Write(buf)
				_ = f.Close()
			}
		}
	}()

	go func() {
		// Total runtime is 6x the base timeout.
		time.Sleep(300 * time.Millisecond)
		close(stop)
		p.exit <- nil
	}()

	err := Supervise(drainLog(), p, Opts{
		WatchPath: watch,
		Timeout:   50 * time.Millisecond,
		Poll:      10 * time.Millisecond,
		KillGrace: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.False(t, p.wasSignaled(), "watchdog must not fire while the file keeps growing")
}

func TestSuperviseStallTriggersKill(t *testing.T) {
	watch := filepath.Join(t.TempDir(), "out.img")
	require.NoError(t, os.WriteFile(watch, []byte("static"), 0600))

	p := newFakeProcess(true)

	start := time.Now()
	err := Supervise(drainLog(), p, Opts{
		WatchPath: watch,
		Timeout:   50 * time.Millisecond,
		Poll:      10 * time.Millisecond,
		KillGrace: 20 * time.Millisecond,
	})
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrStalled)
	assert.True(t, p.wasSignaled())
	// Killed within roughly one poll interval of the deadline.
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestSuperviseNeverGrownFileFiresAtTimeout(t *testing.T) {
	p := newFakeProcess(true)

	err := Supervise(drainLog(), p, Opts{
		WatchPath: filepath.Join(t.TempDir(), "never-created.img"),
		Timeout:   50 * time.Millisecond,
		Poll:      10 * time.Millisecond,
		KillGrace: 20 * time.Millisecond,
	})
	require.ErrorIs(t, err, ErrStalled)
}

func TestSuperviseEscalatesToKill(t *testing.T) {
	p := newFakeProcess(false) // ignores SIGTERM

	err := Supervise(drainLog(), p, Opts{
		WatchPath: filepath.Join(t.TempDir(), "absent"),
		Timeout:   30 * time.Millisecond,
		Poll:      10 * time.Millisecond,
		KillGrace: 30 * time.Millisecond,
	})
	require.ErrorIs(t, err, ErrStalled)
	assert.True(t, p.wasSignaled())
	assert.True(t, p.wasKilled())
}
