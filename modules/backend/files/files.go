package files

import (
	"io"
	"os"

	"github.com/juju/ratelimit"
)

// LimitedFileReader reads a file through an optional disk rate limit.
type LimitedFileReader struct {
	file *os.File
	r    io.Reader
}

// GetLimitedFileReader opens path for reading. A rateLimit above zero
// caps throughput at that many bytes per second.
func GetLimitedFileReader(path string, rateLimit int64) (*LimitedFileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := io.Reader(f)
	if rateLimit > 0 {
		r = ratelimit.Reader(f, ratelimit.NewBucketWithRate(float64(rateLimit), rateLimit))
	}

	return &LimitedFileReader{file: f, r: r}, nil
}

func (l *LimitedFileReader) Read(p []byte) (int, error) {
	return l.r.Read(p)
}

func (l *LimitedFileReader) Close() error {
	return l.file.Close()
}

func (l *LimitedFileReader) Size() (int64, error) {
	fi, err := l.file.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// DeleteIfExists removes path, reporting success when it was already gone.
func DeleteIfExists(path string) (bool, error) {
	err := os.Remove(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
