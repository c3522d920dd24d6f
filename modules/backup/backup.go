package backup

import (
	"errors"
	"os"
	"time"

	"github.com/docker/go-units"

	"github.com/rpi-ops/sd-backup/misc"
	"github.com/rpi-ops/sd-backup/modules/backend/files"
	"github.com/rpi-ops/sd-backup/modules/lockguard"
	"github.com/rpi-ops/sd-backup/modules/logger"
	"github.com/rpi-ops/sd-backup/modules/metrics"
	"github.com/rpi-ops/sd-backup/modules/watchdog"
)

// Perform runs one backup job end to end: run lock, copy stage,
// compress stage, optional artifact delivery. Any stage failure deletes
// whatever partial artifacts remain before the error propagates.
// A lock held by another live run returns misc.ErrLockHeld untouched;
// callers treat that as a clean no-op.
func Perform(logCh chan logger.LogRecord, j *Job) error {

	guard, err := lockguard.Acquire(j.lockPath)
	if err != nil {
		if errors.Is(err, misc.ErrLockHeld) {
			logCh <- logger.Log(j.deviceName, "").Info("Another backup is already running. Nothing to do.")
			return err
		}
		logCh <- logger.Log(j.deviceName, "").Errorf("Unable to create lock file: %v", err)
		return err
	}
	defer guard.Release()

	logCh <- logger.Log(j.deviceName, "").Infof("Starting backup for device `%s`.", j.device)

	startTime := time.Now()
	if err = j.runCopy(logCh); err != nil {
		j.fillMetrics(map[string]float64{
			metrics.BackupOk:   0,
			metrics.BackupTime: msSince(startTime),
		})
		logCh <- logger.Log(j.deviceName, StageCopy).Errorf("Backup process failed: %v", failReason(err))
		j.cleanup(logCh)
		return err
	}
	j.fillMetrics(map[string]float64{
		metrics.BackupOk:   1,
		metrics.BackupTime: msSince(startTime),
	})
	logCh <- logger.Log(j.deviceName, StageCopy).Info("Backup process completed.")

	startTime = time.Now()
	if err = j.runCompress(logCh); err != nil {
		j.fillMetrics(map[string]float64{
			metrics.CompressOk:   0,
			metrics.CompressTime: msSince(startTime),
		})
		logCh <- logger.Log(j.deviceName, StageCompress).Errorf("Compression process failed: %v", failReason(err))
		j.cleanup(logCh)
		return err
	}
	j.fillMetrics(map[string]float64{
		metrics.CompressOk:   1,
		metrics.CompressTime: msSince(startTime),
	})
	logCh <- logger.Log(j.deviceName, StageCompress).Info("Compression process completed.")

	artifactSize := "unknown size"
	if fi, serr := os.Stat(j.ArchivePath()); serr == nil {
		artifactSize = units.HumanSize(float64(fi.Size()))
		j.fillMetrics(map[string]float64{metrics.BackupSize: float64(fi.Size())})
	}

	logCh <- logger.Log(j.deviceName, "").Infof("DONE - Backup for device `%s` completed successfully: %s (%s)",
		j.deviceName, j.ArchivePath(), artifactSize)

	if len(j.storages) > 0 {
		startTime = time.Now()
		if err = j.storages.Delivery(logCh, j.deviceName, j.ArchivePath()); err != nil {
			j.fillMetrics(map[string]float64{
				metrics.DeliveryOk:   0,
				metrics.DeliveryTime: msSince(startTime),
			})
			// The local artifact is complete, keep it.
			logCh <- logger.Log(j.deviceName, "").Errorf("Artifact delivery failed: %v", err)
			return err
		}
		j.fillMetrics(map[string]float64{
			metrics.DeliveryOk:   1,
			metrics.DeliveryTime: msSince(startTime),
		})
	}

	return nil
}

// cleanup deletes whichever partial artifacts a failed or killed stage
// left behind. Deletion failures are logged and never mask the stage
// error the caller is already propagating.
func (j *Job) cleanup(logCh chan logger.LogRecord) {
	logCh <- logger.Log(j.deviceName, "").Info("FAIL - Backup was not completed successfully, rolling back changes...")

	for _, p := range []string{j.ImagePath(), j.ArchivePath()} {
		removed, err := files.DeleteIfExists(p)
		if err != nil {
			logCh <- logger.Log(j.deviceName, "").Errorf("Failed to delete incomplete backup file '%s': %v", p, err)
			continue
		}
		if removed {
			logCh <- logger.Log(j.deviceName, "").Infof("Incomplete backup file '%s' deleted.", p)
		}
	}
}

func failReason(err error) string {
	if errors.Is(err, watchdog.ErrStalled) {
		return "process stalled and was killed"
	}
	return err.Error()
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Nanoseconds() / 1e6)
}
