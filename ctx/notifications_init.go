package ctx

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/rpi-ops/sd-backup/interfaces"
	"github.com/rpi-ops/sd-backup/modules/notifier/mailer"
	"github.com/rpi-ops/sd-backup/modules/notifier/telegram"
	"github.com/rpi-ops/sd-backup/modules/notifier/webhooker"
)

var messageLevels = map[string]logrus.Level{
	"ERR":     logrus.ErrorLevel,
	"ERROR":   logrus.ErrorLevel,
	"WARN":    logrus.WarnLevel,
	"WARNING": logrus.WarnLevel,
	"INF":     logrus.InfoLevel,
	"INFO":    logrus.InfoLevel,
}

func notifiersInit(c *Ctx, conf confOpts) error {
	var errs *multierror.Error
	var ns []interfaces.Notifier

	if conf.Notifications.Telegram.Enabled {
		ml, ok := messageLevels[strings.ToUpper(conf.Notifications.Telegram.MessageLevel)]
		if ok {
			botToken, chatID, err := conf.Notifications.Telegram.telegramCredentials()
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("Telegram init fail. %v ", err))
			} else {
				tg, err := telegram.Init(telegram.Opts{
					BotToken:     botToken,
					ChatID:       chatID,
					MessageLevel: ml,
					ProjectName:  conf.ProjectName,
					ServerName:   conf.ServerName,
				})
				if err != nil {
					errs = multierror.Append(errs, err)
				} else {
					ns = append(ns, tg)
				}
			}
		} else {
			errs = multierror.Append(errs, fmt.Errorf("Telegram init fail. Unknown message level. Available levels: 'INFO', 'WARN', 'ERR' "))
		}
	}

	if conf.Notifications.Mail.Enabled {
		var mailErrs *multierror.Error
		mailList := conf.Notifications.Mail.Recipients
		for _, a := range mailList {
			_, err := mail.ParseAddress(a)
			if err != nil {
				mailErrs = multierror.Append(mailErrs, fmt.Errorf("Email init fail. Failed to parse email \"%s\". %v ", a, err))
			}
		}
		if _, err := mail.ParseAddress(conf.Notifications.Mail.From); err != nil {
			mailErrs = multierror.Append(mailErrs, fmt.Errorf("Email init fail. Failed to parse `mail_from` \"%s\". %v ", conf.Notifications.Mail.From, err))
		}

		ml, ok := messageLevels[strings.ToUpper(conf.Notifications.Mail.MessageLevel)]
		if ok {
			if mailErrs != nil {
				errs = multierror.Append(errs, mailErrs.Errors...)
			} else {
				m, err := mailer.Init(mailer.Opts{
					From:         conf.Notifications.Mail.From,
					SmtpServer:   conf.Notifications.Mail.SmtpServer,
					SmtpPort:     conf.Notifications.Mail.SmtpPort,
					SmtpUser:     conf.Notifications.Mail.SmtpUser,
					SmtpPassword: conf.Notifications.Mail.SmtpPassword,
					Recipients:   conf.Notifications.Mail.Recipients,
					MessageLevel: ml,
					ProjectName:  conf.ProjectName,
					ServerName:   conf.ServerName,
				})
				if err != nil {
					errs = multierror.Append(errs, err)
				} else {
					ns = append(ns, m)
				}
			}
		} else {
			errs = multierror.Append(errs, fmt.Errorf("Email init fail. Unknown message level. Available levels: 'INFO', 'WARN', 'ERR' "))
		}
	}

	for _, wh := range conf.Notifications.Webhooks {
		if wh.Enabled {
			ml, ok := messageLevels[strings.ToUpper(wh.MessageLevel)]
			if ok {
				a, err := webhooker.Init(webhooker.Opts{
					WebhookURL:        wh.WebhookURL,
					InsecureTLS:       wh.InsecureTLS,
					ExtraHeaders:      wh.ExtraHeaders,
					PayloadMessageKey: wh.PayloadMessageKey,
					ExtraPayload:      wh.ExtraPayload,
					MessageLevel:      ml,
					ProjectName:       conf.ProjectName,
					ServerName:        conf.ServerName,
				})
				if err != nil {
					errs = multierror.Append(errs, err)
				} else {
					ns = append(ns, a)
				}
			} else {
				errs = multierror.Append(errs, fmt.Errorf("Webhook init fail. Unknown message level. Available levels: 'INFO', 'WARN', 'ERR' "))
			}
		}
	}

	c.Notifiers = ns

	return errs.ErrorOrNil()
}
