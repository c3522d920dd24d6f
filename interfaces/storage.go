package interfaces

import (
	"github.com/hashicorp/go-multierror"

	"github.com/rpi-ops/sd-backup/modules/logger"
)

// Storage delivers a finished artifact to a remote target.
type Storage interface {
	DeliveryBackup(logCh chan logger.LogRecord, deviceName, artifactPath string) error
	GetName() string
	Close() error
}

type Storages []Storage

func (s Storages) Delivery(logCh chan logger.LogRecord, deviceName, artifactPath string) error {
	var errs *multierror.Error

	for _, st := range s {
		if err := st.DeliveryBackup(logCh, deviceName, artifactPath); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	return errs.ErrorOrNil()
}

func (s Storages) Close() error {
	for _, st := range s {
		_ = st.Close()
	}
	return nil
}
