package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rpi-ops/sd-backup/interfaces"
	"github.com/rpi-ops/sd-backup/misc"
	"github.com/rpi-ops/sd-backup/modules/lockguard"
	"github.com/rpi-ops/sd-backup/modules/metrics"
)

const (
	StageCopy     = "copy"
	StageCompress = "compress"

	defaultCopyTool     = "dd"
	defaultCompressTool = "gzip"
	defaultPoll         = 5 * time.Second
	defaultKillGrace    = 10 * time.Second
)

// Job describes one backup execution. Immutable after Init.
type Job struct {
	device        string
	deviceName    string
	destDir       string
	blockSize     int64
	timeout       time.Duration
	poll          time.Duration
	killGrace     time.Duration
	copyTool      string
	compressTool  string
	useSudo       bool
	inProcessGzip bool
	lockPath      string
	date          time.Time
	storages      interfaces.Storages
	metricsData   *metrics.Data
}

type JobOpts struct {
	Device        string
	DeviceName    string
	DestDir       string
	BlockSize     int64
	Timeout       time.Duration
	Poll          time.Duration
	KillGrace     time.Duration
	CopyTool      string
	CompressTool  string
	UseSudo       bool
	InProcessGzip bool
	LockPath      string
	Date          time.Time
	Storages      interfaces.Storages
	MetricsData   *metrics.Data
}

func Init(o JobOpts) (*Job, error) {

	if o.Device == "" {
		return nil, fmt.Errorf("backup job init: source device not defined")
	}
	if o.DeviceName == "" {
		return nil, fmt.Errorf("backup job init: device name not defined")
	}
	if o.BlockSize <= 0 {
		return nil, fmt.Errorf("backup job init: incorrect block size")
	}
	if o.Timeout <= 0 {
		return nil, fmt.Errorf("backup job init: incorrect timeout")
	}

	fi, err := os.Stat(o.DestDir)
	if err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("backup job init: destination '%s' does not exist or is not a directory", o.DestDir)
	}

	j := &Job{
		device:        o.Device,
		deviceName:    o.DeviceName,
		destDir:       misc.DirNormalize(o.DestDir),
		blockSize:     o.BlockSize,
		timeout:       o.Timeout,
		poll:          o.Poll,
		killGrace:     o.KillGrace,
		copyTool:      o.CopyTool,
		compressTool:  o.CompressTool,
		useSudo:       o.UseSudo,
		inProcessGzip: o.InProcessGzip,
		lockPath:      o.LockPath,
		date:          o.Date,
		storages:      o.Storages,
		metricsData:   o.MetricsData,
	}

	if j.poll <= 0 {
		j.poll = defaultPoll
	}
	if j.killGrace <= 0 {
		j.killGrace = defaultKillGrace
	}
	if j.copyTool == "" {
		j.copyTool = defaultCopyTool
	}
	if j.compressTool == "" {
		j.compressTool = defaultCompressTool
	}
	if j.lockPath == "" {
		j.lockPath = lockguard.DefaultPath()
	}
	if j.date.IsZero() {
		j.date = time.Now()
	}

	return j, nil
}

func (j *Job) DeviceName() string {
	return j.deviceName
}

// ImagePath is the uncompressed image destination,
// `<dest>/YYYY-MM-DD_<device_name>-backup.img`.
func (j *Job) ImagePath() string {
	return filepath.Join(j.destDir, fmt.Sprintf("%s_%s-backup.img", misc.DateStamp(j.date), j.deviceName))
}

// ArchivePath is the final compressed artifact, ImagePath plus `.gz`.
func (j *Job) ArchivePath() string {
	return j.ImagePath() + ".gz"
}

func (j *Job) fillMetrics(values map[string]float64) {
	if j.metricsData == nil {
		return
	}
	j.metricsData.AddDeviceMetrics(j.deviceName, values)
}
