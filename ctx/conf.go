package ctx

import (
	"fmt"
	"time"

	conf "github.com/nixys/nxs-go-conf"
	"gopkg.in/ini.v1"

	"github.com/rpi-ops/sd-backup/misc"
)

type confOpts struct {
	ProjectName string `conf:"project_name"`
	ServerName  string `conf:"server_name" conf_extraopts:"default=localhost"`

	Device     string `conf:"device" conf_extraopts:"required"`
	DeviceName string `conf:"device_name" conf_extraopts:"default=device1"`
	BackupDest string `conf:"backup_dest" conf_extraopts:"required"`
	BlockSize  string `conf:"block_size" conf_extraopts:"default=4K"`

	// Durations are set in seconds
	Timeout      time.Duration `conf:"timeout" conf_extraopts:"default=3600"`
	PollInterval time.Duration `conf:"poll_interval" conf_extraopts:"default=5"`
	KillGrace    time.Duration `conf:"kill_grace" conf_extraopts:"default=10"`

	CopyTool      string `conf:"copy_tool" conf_extraopts:"default=dd"`
	CompressTool  string `conf:"compress_tool" conf_extraopts:"default=gzip"`
	UseSudo       bool   `conf:"use_sudo" conf_extraopts:"default=false"`
	InProcessGzip bool   `conf:"in_process_gzip" conf_extraopts:"default=false"`

	LockFile string `conf:"lockfile"`

	Notifications notifications `conf:"notifications"`
	S3            *s3Params     `conf:"s3"`
	Server        serverConf    `conf:"server"`

	LogFile  string `conf:"logfile" conf_extraopts:"default=backup_manager.log"`
	LogLevel string `conf:"loglevel" conf_extraopts:"default=info"`
	ConfPath string
}

type notifications struct {
	Telegram telegramConf  `conf:"telegram"`
	Mail     mailConf      `conf:"mail"`
	Webhooks []webhookConf `conf:"webhooks"`
}

type telegramConf struct {
	Enabled      bool   `conf:"enabled" conf_extraopts:"default=false"`
	AuthFile     string `conf:"auth_file"`
	BotToken     string `conf:"bot_token"`
	ChatID       string `conf:"chat_id"`
	MessageLevel string `conf:"message_level" conf_extraopts:"default=info"`
}

type mailConf struct {
	Enabled      bool     `conf:"enabled" conf_extraopts:"default=false"`
	From         string   `conf:"mail_from"`
	SmtpServer   string   `conf:"smtp_server"`
	SmtpPort     int      `conf:"smtp_port"`
	SmtpUser     string   `conf:"smtp_user"`
	SmtpPassword string   `conf:"smtp_password"`
	Recipients   []string `conf:"recipients"`
	MessageLevel string   `conf:"message_level" conf_extraopts:"default=err"`
}

type webhookConf struct {
	Enabled           bool                   `conf:"enabled" conf_extraopts:"default=true"`
	WebhookURL        string                 `conf:"webhook_url" conf_extraopts:"required"`
	PayloadMessageKey string                 `conf:"payload_message_key" conf_extraopts:"required"`
	ExtraPayload      map[string]interface{} `conf:"extra_payload"`
	ExtraHeaders      map[string]string      `conf:"extra_headers"`
	InsecureTLS       bool                   `conf:"insecure_tls" conf_extraopts:"default=false"`
	MessageLevel      string                 `conf:"message_level" conf_extraopts:"default=warn"`
}

type s3Params struct {
	BucketName  string `conf:"bucket_name" conf_extraopts:"required"`
	AccessKeyID string `conf:"access_key_id"`
	SecretKey   string `conf:"secret_access_key"`
	Endpoint    string `conf:"endpoint" conf_extraopts:"required"`
	Secure      bool   `conf:"secure" conf_extraopts:"default=true"`
	BackupPath  string `conf:"backup_path"`
	RateLimit   string `conf:"rate_limit" conf_extraopts:"default=0"`
}

type serverConf struct {
	Bind    string      `conf:"bind" conf_extraopts:"default=:8080"`
	Metrics metricsConf `conf:"metrics"`
}

type metricsConf struct {
	Enabled  bool   `conf:"enabled" conf_extraopts:"default=false"`
	FilePath string `conf:"file_path" conf_extraopts:"default=/tmp/sd-backup-metrics"`
}

func readConfig(confPath string) (confOpts, error) {

	var c confOpts

	p, err := misc.PathNormalize(confPath)
	if err != nil {
		return c, err
	}

	err = conf.Load(&c, conf.Settings{
		ConfPath:    p,
		ConfType:    conf.ConfigTypeYAML,
		UnknownDeny: true,
	})
	if err != nil {
		return c, err
	}

	c.ConfPath = confPath

	return c, nil
}

// telegramCredentials resolves bot token and chat id either inline or
// from the legacy INI credentials file (`[Telegram]` section).
func (tg telegramConf) telegramCredentials() (botToken, chatID string, err error) {

	botToken = tg.BotToken
	chatID = tg.ChatID

	if tg.AuthFile != "" {
		var f *ini.File
		f, err = ini.Load(tg.AuthFile)
		if err != nil {
			return "", "", fmt.Errorf("telegram auth file: %w", err)
		}
		sec := f.Section("Telegram")
		if botToken == "" {
			botToken = sec.Key("bot_token").String()
		}
		if chatID == "" {
			chatID = sec.Key("chat_id").String()
		}
	}

	if botToken == "" || chatID == "" {
		return "", "", fmt.Errorf("telegram bot token or chat ID not found")
	}

	return botToken, chatID, nil
}
