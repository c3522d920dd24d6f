package mailer

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/rpi-ops/sd-backup/modules/logger"
)

// Opts contains mail notifier options
type Opts struct {
	From         string
	SmtpServer   string
	SmtpPort     int
	SmtpUser     string
	SmtpPassword string
	Recipients   []string
	MessageLevel logrus.Level
	ProjectName  string
	ServerName   string
}

type mailer struct {
	opts Opts
}

func Init(opts Opts) (*mailer, error) {
	m := &mailer{opts: opts}

	if opts.SmtpServer != "" {
		d := gomail.NewDialer(opts.SmtpServer, opts.SmtpPort, opts.SmtpUser, opts.SmtpPassword)
		sc, err := d.Dial()
		if err != nil {
			return nil, fmt.Errorf("Failed to dial SMTP server. Error: %v ", err)
		}
		defer func() { _ = sc.Close() }()
	}

	return m, nil
}

// Send sends notification via Email
func (m *mailer) Send(log *logrus.Logger, n logger.LogRecord) {
	if n.Level > m.opts.MessageLevel {
		return
	}

	var (
		sc  gomail.SendCloser
		err error
	)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.opts.From)
	msg.SetHeader("To", m.opts.Recipients...)

	subjStr := fmt.Sprintf("[%s] sd-backup notification: server %q", n.Level, m.opts.ServerName)
	if m.opts.ProjectName != "" {
		subjStr += fmt.Sprintf(" of project %q", m.opts.ProjectName)
	}
	msg.SetHeader("Subject", subjStr)

	msg.SetBody("text/html", m.getMailBody(n))

	if m.opts.SmtpServer != "" {
		d := gomail.NewDialer(m.opts.SmtpServer, m.opts.SmtpPort, m.opts.SmtpUser, m.opts.SmtpPassword)
		sc, err = d.Dial()
		if err != nil {
			log.Errorf("Failed to dial SMTP server. Error: %v", err)
			return
		}
	} else {
		sc = localMail{}
	}
	defer func() { _ = sc.Close() }()

	if err = gomail.Send(sc, msg); err != nil {
		log.Errorf("Could not send email: %v", err)
	}
}

func (m *mailer) getMailBody(n logger.LogRecord) (b string) {
	switch n.Level {
	case logrus.DebugLevel:
		b += "[DEBUG]:\n\n"
	case logrus.InfoLevel:
		b += "[INFO]:\n\n"
	case logrus.WarnLevel:
		b += "[WARNING]:\n\n"
	case logrus.ErrorLevel:
		b += "[ERROR]:\n\n"
	}

	if m.opts.ProjectName != "" {
		b += fmt.Sprintf("Project: %s\n", m.opts.ProjectName)
	}
	if m.opts.ServerName != "" {
		b += fmt.Sprintf("Server: %s\n\n", m.opts.ServerName)
	}

	if n.Device != "" {
		b += fmt.Sprintf("Device: %s\n", n.Device)
	}
	if n.Stage != "" {
		b += fmt.Sprintf("Stage: %s\n", n.Stage)
	}
	b += fmt.Sprintf("Message: %s\n", n.Message)

	return
}

type localMail struct {
}

func (l localMail) Send(_ string, _ []string, msg io.WriterTo) error {
	buf := bytes.Buffer{}
	_, _ = msg.WriteTo(&buf)
	cmd := exec.Command("/usr/sbin/sendmail", "-t", "-oi", buf.String())
	return cmd.Run()
}

func (l localMail) Close() error {
	return nil
}
