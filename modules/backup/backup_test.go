package backup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpi-ops/sd-backup/misc"
	"github.com/rpi-ops/sd-backup/modules/lockguard"
	"github.com/rpi-ops/sd-backup/modules/logger"
	"github.com/rpi-ops/sd-backup/modules/watchdog"
)

// The orchestrator contract is subprocess supervision, so these tests
// run real shell scripts standing in for the copy and compress tools.

func writeTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body), 0755))
	return p
}

// copyToolOK writes the output file in ten growing increments.
const copyToolOK = `
for a in "$@"; do case "$a" in of=*) out="${a#of=}";; esac; done
i=0
while [ "$i" -lt 10 ]; do
  printf '0123456789' >> "$out"
  i=$((i+1))
done
exit 0
`

// compressToolOK mimics gzip -f: produces <src>.gz, removes <src>.
const compressToolOK = `
src="$2"
printf 'compressed' > "$src.gz"
rm -f "$src"
exit 0
`

func newTestJob(t *testing.T, o JobOpts) *Job {
	t.Helper()

	if o.Device == "" {
		o.Device = "/dev/testsrc"
	}
	if o.DeviceName == "" {
		o.DeviceName = "device1"
	}
	if o.DestDir == "" {
		o.DestDir = t.TempDir()
	}
	if o.BlockSize == 0 {
		o.BlockSize = 4096
	}
	if o.Timeout == 0 {
		o.Timeout = 2 * time.Second
	}
	if o.Poll == 0 {
		o.Poll = 50 * time.Millisecond
	}
	if o.KillGrace == 0 {
		o.KillGrace = 200 * time.Millisecond
	}
	if o.LockPath == "" {
		o.LockPath = filepath.Join(t.TempDir(), "sd-backup.lck")
	}

	j, err := Init(o)
	require.NoError(t, err)
	return j
}

// collectLog drains Perform's event channel into a slice.
func collectLog() (chan logger.LogRecord, func() []logger.LogRecord) {
	ch := make(chan logger.LogRecord, 256)
	return ch, func() []logger.LogRecord {
		var recs []logger.LogRecord
		for {
			select {
			case r := <-ch:
				recs = append(recs, r)
			default:
				return recs
			}
		}
	}
}

func hasRecord(recs []logger.LogRecord, level logrus.Level, substr string) bool {
	for _, r := range recs {
		if r.Level == level && strings.Contains(r.Message, substr) {
			return true
		}
	}
	return false
}

func TestPerformHappyPath(t *testing.T) {
	tools := t.TempDir()
	dest := t.TempDir()

	j := newTestJob(t, JobOpts{
		DestDir:      dest,
		CopyTool:     writeTool(t, tools, "fakedd", copyToolOK),
		CompressTool: writeTool(t, tools, "fakegzip", compressToolOK),
	})

	logCh, drain := collectLog()
	require.NoError(t, Perform(logCh, j))

	recs := drain()
	assert.True(t, hasRecord(recs, logrus.InfoLevel, "Starting backup"))
	assert.True(t, hasRecord(recs, logrus.InfoLevel, "DONE"))

	assert.NoFileExists(t, j.ImagePath())
	assert.FileExists(t, j.ArchivePath())
	assert.Contains(t, j.ArchivePath(), "device1-backup.img.gz")
}

func TestPerformInProcessCompression(t *testing.T) {
	tools := t.TempDir()

	j := newTestJob(t, JobOpts{
		CopyTool:      writeTool(t, tools, "fakedd", copyToolOK),
		InProcessGzip: true,
	})

	logCh, _ := collectLog()
	require.NoError(t, Perform(logCh, j))

	assert.NoFileExists(t, j.ImagePath())
	assert.FileExists(t, j.ArchivePath())
}

func TestGzipProcInterrupted(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "img")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0600))

	p := newGzipProc(src, filepath.Join(dir, "img.gz"))
	require.NoError(t, p.Signal(syscall.SIGTERM))
	require.NoError(t, p.Kill())

	err := p.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")

	// Source stays in place for the orchestrator's cleanup.
	assert.FileExists(t, src)
}

func TestInProcessCompressionStalledKilled(t *testing.T) {
	j := newTestJob(t, JobOpts{
		Timeout:       150 * time.Millisecond,
		InProcessGzip: true,
	})

	// A FIFO whose writer stops feeding data stands in for a source
	// that makes no progress.
	require.NoError(t, syscall.Mkfifo(j.ImagePath(), 0600))

	logCh, drain := collectLog()
	res := make(chan error, 1)
	go func() { res <- j.runCompress(logCh) }()

	w, err := os.OpenFile(j.ImagePath(), os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = w.Write([]byte("stuck"))
	require.NoError(t, err)

	time.Sleep(600 * time.Millisecond)
	require.NoError(t, w.Close())

	select {
	case err = <-res:
	case <-time.After(5 * time.Second):
		t.Fatal("compression was not killed")
	}
	require.ErrorIs(t, err, watchdog.ErrStalled)

	recs := drain()
	assert.True(t, hasRecord(recs, logrus.ErrorLevel, "No progress"))
	assert.FileExists(t, j.ImagePath())
}

func TestPerformCopyFailure(t *testing.T) {
	tools := t.TempDir()

	copyFail := `
for a in "$@"; do case "$a" in of=*) out="${a#of=}";; esac; done
printf 'partial' > "$out"
exit 3
`
	j := newTestJob(t, JobOpts{
		CopyTool:     writeTool(t, tools, "fakedd", copyFail),
		CompressTool: writeTool(t, tools, "fakegzip", compressToolOK),
	})

	logCh, drain := collectLog()
	err := Perform(logCh, j)
	require.Error(t, err)

	var ce CopyError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 3, ce.Code)

	recs := drain()
	assert.True(t, hasRecord(recs, logrus.ErrorLevel, "Backup process failed"))

	// No partial artifacts remain at either target path.
	assert.NoFileExists(t, j.ImagePath())
	assert.NoFileExists(t, j.ArchivePath())
}

func TestPerformStalledCopyKilled(t *testing.T) {
	tools := t.TempDir()

	// Touches the output once, then makes no further progress.
	copyStall := `
for a in "$@"; do case "$a" in of=*) out="${a#of=}";; esac; done
printf 'stuck' > "$out"
exec sleep 30
`
	j := newTestJob(t, JobOpts{
		Timeout:      300 * time.Millisecond,
		CopyTool:     writeTool(t, tools, "fakedd", copyStall),
		CompressTool: writeTool(t, tools, "fakegzip", compressToolOK),
	})

	logCh, drain := collectLog()
	start := time.Now()
	err := Perform(logCh, j)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, watchdog.ErrStalled)
	assert.Less(t, elapsed, 5*time.Second)

	recs := drain()
	assert.True(t, hasRecord(recs, logrus.ErrorLevel, "stalled"))

	assert.NoFileExists(t, j.ImagePath())
	assert.NoFileExists(t, j.ArchivePath())
}

func TestPerformCompressFailure(t *testing.T) {
	tools := t.TempDir()

	compressFail := `
src="$2"
printf 'broken' > "$src.gz"
exit 4
`
	j := newTestJob(t, JobOpts{
		CopyTool:     writeTool(t, tools, "fakedd", copyToolOK),
		CompressTool: writeTool(t, tools, "fakegzip", compressFail),
	})

	logCh, drain := collectLog()
	err := Perform(logCh, j)
	require.Error(t, err)

	var ce CompressError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 4, ce.Code)

	recs := drain()
	assert.True(t, hasRecord(recs, logrus.ErrorLevel, "Compression process failed"))

	assert.NoFileExists(t, j.ImagePath())
	assert.NoFileExists(t, j.ArchivePath())
}

func TestPerformLockBusy(t *testing.T) {
	tools := t.TempDir()
	lockPath := filepath.Join(t.TempDir(), "sd-backup.lck")

	guard, err := lockguard.Acquire(lockPath)
	require.NoError(t, err)
	defer guard.Release()

	j := newTestJob(t, JobOpts{
		LockPath:     lockPath,
		CopyTool:     writeTool(t, tools, "fakedd", copyToolOK),
		CompressTool: writeTool(t, tools, "fakegzip", compressToolOK),
	})

	logCh, drain := collectLog()
	err = Perform(logCh, j)
	require.ErrorIs(t, err, misc.ErrLockHeld)

	recs := drain()
	assert.True(t, hasRecord(recs, logrus.InfoLevel, "already running"))
	assert.False(t, hasRecord(recs, logrus.InfoLevel, "Starting backup"))

	// The busy run performed no filesystem writes.
	assert.NoFileExists(t, j.ImagePath())
	assert.NoFileExists(t, j.ArchivePath())
}
