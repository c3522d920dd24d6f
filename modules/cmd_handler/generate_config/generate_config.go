package generate_config

import (
	"fmt"
	"os"
	"path"

	"github.com/alexflint/go-arg"
	"gopkg.in/yaml.v3"
)

type cfgYml struct {
	ProjectName string   `yaml:"project_name"`
	ServerName  string   `yaml:"server_name"`
	Device      string   `yaml:"device"`
	DeviceName  string   `yaml:"device_name"`
	BackupDest  string   `yaml:"backup_dest"`
	BlockSize   string   `yaml:"block_size"`
	Timeout     int      `yaml:"timeout"`
	PollPeriod  int      `yaml:"poll_interval"`
	UseSudo     bool     `yaml:"use_sudo"`
	Logfile     string   `yaml:"logfile"`
	Loglevel    string   `yaml:"loglevel"`
	Notify      notifYml `yaml:"notifications"`
}

type notifYml struct {
	Telegram telegramYml `yaml:"telegram"`
}

type telegramYml struct {
	Enabled      bool   `yaml:"enabled"`
	AuthFile     string `yaml:"auth_file,omitempty"`
	BotToken     string `yaml:"bot_token,omitempty"`
	ChatID       string `yaml:"chat_id,omitempty"`
	MessageLevel string `yaml:"message_level"`
}

type Opts struct {
	Done    chan error
	OutPath string
	Arg     *arg.Parser
}

type generateConfig struct {
	done    chan error
	outPath string
	arg     *arg.Parser
}

func Init(o Opts) *generateConfig {
	return &generateConfig{
		done:    o.Done,
		outPath: o.OutPath,
		arg:     o.Arg,
	}
}

func (gc *generateConfig) Run() {

	cfg := cfgYml{
		ProjectName: "PROJECT",
		ServerName:  "localhost",
		Device:      "/dev/mmcblk0",
		DeviceName:  "device1",
		BackupDest:  "/var/backups/sd-backup",
		BlockSize:   "4K",
		Timeout:     3600,
		PollPeriod:  5,
		UseSudo:     true,
		Logfile:     "/var/log/backup_manager.log",
		Loglevel:    "info",
		Notify: notifYml{
			Telegram: telegramYml{
				Enabled:      true,
				AuthFile:     "/etc/sd-backup/telegram.ini",
				MessageLevel: "info",
			},
		},
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		gc.fail(err)
		return
	}

	if gc.outPath == "" || gc.outPath == "-" {
		fmt.Print(string(data))
		gc.done <- nil
		return
	}

	if err = os.MkdirAll(path.Dir(gc.outPath), os.ModePerm); err != nil {
		gc.fail(err)
		return
	}
	if err = os.WriteFile(gc.outPath, data, 0600); err != nil {
		gc.fail(err)
		return
	}

	fmt.Printf("Sample config written to %s\n", gc.outPath)
	gc.done <- nil
}

func (gc *generateConfig) fail(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Can't generate config: %v\n", err)
	_ = gc.arg.FailSubcommand(err.Error(), "generate")
	gc.done <- err
}
