package interfaces

import (
	"github.com/sirupsen/logrus"

	"github.com/rpi-ops/sd-backup/modules/logger"
)

type Notifier interface {
	Send(log *logrus.Logger, n logger.LogRecord)
}
