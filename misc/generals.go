package misc

import (
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rpi-ops/sd-backup/modules/logger"
)

// DateLayout is the date stamp used in artifact file names.
const DateLayout = "2006-01-02"

// GetMessage generates notification message from event log record
func GetMessage(n logger.LogRecord, project, server string) (m string) {

	switch n.Level {
	case logrus.DebugLevel:
		m += "[DEBUG]\n\n"
	case logrus.InfoLevel:
		m += "[INFO]\n\n"
	case logrus.WarnLevel:
		m += "⚠️[WARNING]\n\n"
	case logrus.ErrorLevel:
		m += "‼️[ERROR]\n\n"
	case logrus.PanicLevel:
	case logrus.FatalLevel:
	case logrus.TraceLevel:
	}

	if project != "" {
		m += fmt.Sprintf("Project: %s\n", project)
	}
	if server != "" {
		m += fmt.Sprintf("Server: %s\n\n", server)
	}

	if n.Device != "" {
		m += fmt.Sprintf("Device: %s\n", n.Device)
	}
	if n.Stage != "" {
		m += fmt.Sprintf("Stage: %s\n", n.Stage)
	}
	m += fmt.Sprintf("\nMessage: %s\n", n.Message)

	return
}

// DateStamp renders the artifact date prefix for a point in time
func DateStamp(t time.Time) string {
	return t.Format(DateLayout)
}

// PathNormalize normalizes the path
func PathNormalize(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		usr, err := user.Current()
		if err != nil {
			return path, err
		}

		path = usr.HomeDir + "/" + strings.TrimPrefix(path, "~/")
	}

	return path, nil
}

// DirNormalize normalizes the directory path
func DirNormalize(path string) string {
	for strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	path += "/"

	return path
}
