package backup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/klauspost/pgzip"

	"github.com/rpi-ops/sd-backup/modules/logger"
	"github.com/rpi-ops/sd-backup/modules/watchdog"
)

// CompressError reports a compress subprocess that exited non-zero.
type CompressError struct {
	Code int
}

func (e CompressError) Error() string {
	return fmt.Sprintf("compression process failed with exit code %d", e.Code)
}

// runCompress turns the uncompressed image into the final `.gz` artifact
// with compress-in-place semantics: on success the source image is gone
// and only the archive remains. Supervision is bound to the growing
// archive either way.
func (j *Job) runCompress(logCh chan logger.LogRecord) error {

	wdOpts := watchdog.Opts{
		Device:    j.deviceName,
		Stage:     StageCompress,
		WatchPath: j.ArchivePath(),
		Timeout:   j.timeout,
		Poll:      j.poll,
		KillGrace: j.killGrace,
	}

	if j.inProcessGzip {
		logCh <- logger.Log(j.deviceName, StageCompress).Debugf("Compressing in-process: %s", j.ImagePath())
		return watchdog.Supervise(logCh, newGzipProc(j.ImagePath(), j.ArchivePath()), wdOpts)
	}

	name := j.compressTool
	args := []string{"-f", j.ImagePath()}
	if j.useSudo {
		args = append([]string{name}, args...)
		name = "sudo"
	}

	var stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stderr = &stderr
	cmd.Env = os.Environ()

	logCh <- logger.Log(j.deviceName, StageCompress).Debugf("Compress cmd: %s", cmd.String())

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to start compression process: %w", err)
	}

	err := watchdog.Supervise(logCh, watchdog.CmdProcess{Cmd: cmd}, wdOpts)
	if err != nil {
		if errors.Is(err, watchdog.ErrStalled) {
			return err
		}
		logCh <- logger.Log(j.deviceName, StageCompress).Debugf("STDERR: %s", stderr.String())

		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return CompressError{Code: ee.ExitCode()}
		}
		return err
	}

	return nil
}

const gzipChunkSize = 1 << 20

// gzipProc runs pgzip compression behind the watchdog process surface,
// so the stall handling stays identical to the subprocess path. Signal
// and Kill both cancel the copy loop at the next chunk boundary.
type gzipProc struct {
	src, dst string
	stop     chan struct{}
	stopOnce sync.Once
}

func newGzipProc(src, dst string) *gzipProc {
	return &gzipProc{
		src:  src,
		dst:  dst,
		stop: make(chan struct{}),
	}
}

func (p *gzipProc) Wait() error {
	in, err := os.Open(p.src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(p.dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	gzw, err := pgzip.NewWriterLevel(out, pgzip.BestCompression)
	if err != nil {
		return err
	}

	buf := make([]byte, gzipChunkSize)
	for {
		select {
		case <-p.stop:
			_ = gzw.Close()
			return errors.New("compression interrupted")
		default:
		}

		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := gzw.Write(buf[:n]); werr != nil {
				_ = gzw.Close()
				return werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			_ = gzw.Close()
			return rerr
		}
	}

	select {
	case <-p.stop:
		_ = gzw.Close()
		return errors.New("compression interrupted")
	default:
	}

	if err = gzw.Close(); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	_ = in.Close()

	return os.Remove(p.src)
}

func (p *gzipProc) Signal(_ os.Signal) error {
	p.stopOnce.Do(func() { close(p.stop) })
	return nil
}

func (p *gzipProc) Kill() error {
	p.stopOnce.Do(func() { close(p.stop) })
	return nil
}
