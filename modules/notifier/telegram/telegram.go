package telegram

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rpi-ops/sd-backup/misc"
	"github.com/rpi-ops/sd-backup/modules/logger"
)

const defaultAPIBase = "https://api.telegram.org"

// Opts contains telegram notifier options
type Opts struct {
	BotToken     string
	ChatID       string
	APIBase      string // Bot API endpoint override, e.g. a local proxy
	MessageLevel logrus.Level
	ProjectName  string
	ServerName   string
}

type telegram struct {
	opts Opts
	hc   *http.Client
}

func Init(opts Opts) (*telegram, error) {

	if opts.BotToken == "" || opts.ChatID == "" {
		return nil, fmt.Errorf("telegram init fail: bot token or chat ID not defined")
	}
	if opts.APIBase == "" {
		opts.APIBase = defaultAPIBase
	}

	d := &net.Dialer{
		Timeout: 5 * time.Second,
	}

	return &telegram{
		opts: opts,
		hc: &http.Client{
			Transport: &http.Transport{
				DialContext: d.DialContext,
			},
		},
	}, nil
}

// Send posts the event to the Telegram Bot API. Delivery errors are
// logged only and never surface to the backup run.
func (t *telegram) Send(log *logrus.Logger, n logger.LogRecord) {
	if n.Level > t.opts.MessageLevel {
		return
	}

	v := url.Values{}
	v.Set("chat_id", t.opts.ChatID)
	v.Set("parse_mode", "Markdown")
	v.Set("text", misc.GetMessage(n, t.opts.ProjectName, t.opts.ServerName))

	resp, err := t.hc.PostForm(fmt.Sprintf("%s/bot%s/sendMessage", t.opts.APIBase, t.opts.BotToken), v)
	if err != nil {
		log.Errorf("Failed to send notification to Telegram: %v", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	log.Tracef("Telegram response code: %d, body: %v", resp.StatusCode, string(body))

	if resp.StatusCode != 200 {
		log.Errorf("Failed to send notification to Telegram, status code: %d", resp.StatusCode)
	}
}
