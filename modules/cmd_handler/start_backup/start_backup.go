package start_backup

import (
	"errors"

	"github.com/rpi-ops/sd-backup/misc"
	"github.com/rpi-ops/sd-backup/modules/backup"
	"github.com/rpi-ops/sd-backup/modules/logger"
	"github.com/rpi-ops/sd-backup/modules/metrics"
)

type Opts struct {
	InitErr     error
	Done        chan error
	EvCh        chan logger.LogRecord
	Job         *backup.Job
	MetricsData *metrics.Data
}

type startBackup struct {
	initErr     error
	done        chan error
	evCh        chan logger.LogRecord
	job         *backup.Job
	metricsData *metrics.Data
}

func Init(o Opts) *startBackup {
	return &startBackup{
		initErr:     o.InitErr,
		done:        o.Done,
		evCh:        o.EvCh,
		job:         o.Job,
		metricsData: o.MetricsData,
	}
}

func (sb *startBackup) Run() {

	if sb.initErr != nil {
		name := ""
		if sb.job != nil {
			name = sb.job.DeviceName()
		}
		sb.evCh <- logger.Log(name, "").Errorf("Backup initialised with errors: %v", sb.initErr)
		sb.done <- sb.initErr
		return
	}

	err := backup.Perform(sb.evCh, sb.job)

	if sb.metricsData != nil && !errors.Is(err, misc.ErrLockHeld) {
		if serr := sb.metricsData.SaveFile(); serr != nil {
			sb.evCh <- logger.Log(sb.job.DeviceName(), "").Warnf("Failed to save metrics file: %v", serr)
		}
	}

	sb.done <- err
}
