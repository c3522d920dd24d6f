package ctx

import (
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/hashicorp/go-multierror"
	appctx "github.com/nixys/nxs-go-appctx/v3"
	"github.com/sirupsen/logrus"

	"github.com/rpi-ops/sd-backup/interfaces"
	"github.com/rpi-ops/sd-backup/modules/backup"
	"github.com/rpi-ops/sd-backup/modules/cmd_handler/api_server"
	"github.com/rpi-ops/sd-backup/modules/cmd_handler/generate_config"
	"github.com/rpi-ops/sd-backup/modules/cmd_handler/start_backup"
	"github.com/rpi-ops/sd-backup/modules/cmd_handler/test_config"
	"github.com/rpi-ops/sd-backup/modules/logger"
	"github.com/rpi-ops/sd-backup/modules/metrics"
	"github.com/rpi-ops/sd-backup/modules/storage/s3"
)

// Ctx defines application custom context
type Ctx struct {
	Cmd       interfaces.Handler
	Log       *logrus.Logger
	Done      chan error
	EventCh   chan logger.LogRecord
	EventsWG  *sync.WaitGroup
	Notifiers []interfaces.Notifier
}

type app struct {
	job          *backup.Job
	device       string
	deviceName   string
	copyTool     string
	compressTool string
	notifiers    []string
	initErrs     *multierror.Error
	metricsData  *metrics.Data
	serverBind   string
}

func AppCtxInit() (any, error) {
	c := &Ctx{
		EventsWG: &sync.WaitGroup{},
		EventCh:  make(chan logger.LogRecord),
		Done:     make(chan error),
	}

	ra, err := ReadArgs()
	if err != nil {
		return nil, err
	}

	l, _ := appctx.DefaultLogInit(os.Stderr, logrus.InfoLevel, &logrus.TextFormatter{})
	c.Log = l

	switch ra.Cmd {
	case generate:
		cp := ra.CmdParams.(*GenerateCmd)
		c.Cmd = generate_config.Init(
			generate_config.Opts{
				Done:    c.Done,
				OutPath: cp.OutPath,
				Arg:     ra.Arg,
			},
		)
	case testCfg:
		a, err := appInit(c, ra.ConfigPath)
		if err != nil {
			return nil, err
		}
		c.Cmd = test_config.Init(
			test_config.Opts{
				InitErr:      a.initErrs.ErrorOrNil(),
				Done:         c.Done,
				Device:       a.device,
				DeviceName:   a.deviceName,
				CopyTool:     a.copyTool,
				CompressTool: a.compressTool,
				Notifiers:    a.notifiers,
			},
		)
	case start:
		a, err := appInit(c, ra.ConfigPath)
		if err != nil {
			return nil, err
		}
		c.Cmd = start_backup.Init(
			start_backup.Opts{
				InitErr:     a.initErrs.ErrorOrNil(),
				Done:        c.Done,
				EvCh:        c.EventCh,
				Job:         a.job,
				MetricsData: a.metricsData,
			},
		)
	case server:
		a, err := appInit(c, ra.ConfigPath)
		if err != nil {
			return nil, err
		}
		if a.metricsData == nil || !a.metricsData.Enabled {
			err = fmt.Errorf("server metrics disabled by config")
			printInitError("Init err:\n%s", err)
			return nil, err
		}
		c.Cmd, err = api_server.Init(
			api_server.Opts{
				Bind:           a.serverBind,
				MetricFilePath: a.metricsData.MetricFilePath(),
				Log:            c.Log,
				Done:           c.Done,
			},
		)
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

func printInitError(ft string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, ft, err)
}

func appInit(c *Ctx, cfgPath string) (app, error) {

	a := app{}

	conf, err := readConfig(cfgPath)
	if err != nil {
		printInitError("Failed to read configuration file: %v\n", err)
		return a, err
	}

	a.serverBind = conf.Server.Bind
	a.device = conf.Device
	a.deviceName = conf.DeviceName
	a.copyTool = conf.CopyTool
	a.compressTool = conf.CompressTool

	if conf.Notifications.Telegram.Enabled {
		a.notifiers = append(a.notifiers, "telegram")
	}
	if conf.Notifications.Mail.Enabled {
		a.notifiers = append(a.notifiers, "mail")
	}
	for _, wh := range conf.Notifications.Webhooks {
		if wh.Enabled {
			a.notifiers = append(a.notifiers, "webhook")
		}
	}

	a.metricsData = metrics.InitData(
		metrics.DataOpts{
			Project:     conf.ProjectName,
			Server:      conf.ServerName,
			MetricsFile: conf.Server.Metrics.FilePath,
			Enabled:     conf.Server.Metrics.Enabled,
		},
	)

	if err = logInit(c, conf.LogFile, conf.LogLevel); err != nil {
		printInitError("Failed to init log file: %v\n", err)
		return a, err
	}

	// Notifications init
	if err = notifiersInit(c, conf); err != nil {
		a.initErrs = multierror.Append(a.initErrs, err.(*multierror.Error).WrappedErrors()...)
	}

	storages, err := storagesInit(conf)
	if err != nil {
		a.initErrs = multierror.Append(a.initErrs, err)
	}

	blockSize, err := units.RAMInBytes(conf.BlockSize)
	if err != nil {
		a.initErrs = multierror.Append(a.initErrs, fmt.Errorf("Failed to parse block size: %w ", err))
	}

	job, err := backup.Init(
		backup.JobOpts{
			Device:        conf.Device,
			DeviceName:    conf.DeviceName,
			DestDir:       conf.BackupDest,
			BlockSize:     blockSize,
			Timeout:       conf.Timeout * time.Second,
			Poll:          conf.PollInterval * time.Second,
			KillGrace:     conf.KillGrace * time.Second,
			CopyTool:      conf.CopyTool,
			CompressTool:  conf.CompressTool,
			UseSudo:       conf.UseSudo,
			InProcessGzip: conf.InProcessGzip,
			LockPath:      conf.LockFile,
			Date:          time.Now(),
			Storages:      storages,
			MetricsData:   a.metricsData,
		},
	)
	if err != nil {
		a.initErrs = multierror.Append(a.initErrs, err)
	}
	a.job = job

	return a, nil
}

func storagesInit(conf confOpts) (interfaces.Storages, error) {

	var storages interfaces.Storages

	if conf.S3 == nil {
		return storages, nil
	}

	rl, err := units.FromHumanSize(conf.S3.RateLimit)
	if err != nil {
		return storages, fmt.Errorf("Failed to parse rate limit: %w ", err)
	}

	st, err := s3.Init(s3.Params{
		Name:        "s3",
		BucketName:  conf.S3.BucketName,
		AccessKeyID: conf.S3.AccessKeyID,
		SecretKey:   conf.S3.SecretKey,
		Endpoint:    conf.S3.Endpoint,
		Secure:      conf.S3.Secure,
		BackupPath:  conf.S3.BackupPath,
		RateLimit:   rl,
	})
	if err != nil {
		return storages, err
	}

	return append(storages, st), nil
}

func logInit(c *Ctx, file, level string) error {
	var (
		f   *os.File
		l   logrus.Level
		err error
	)

	switch file {
	case "stdout":
		f = os.Stdout
	case "stderr":
		f = os.Stderr
	default:
		if err = os.MkdirAll(path.Dir(file), os.ModePerm); err != nil {
			return err
		}
		if f, err = os.OpenFile(file, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600); err != nil {
			return err
		}
	}

	// Validate log level
	if l, err = logrus.ParseLevel(level); err != nil {
		return fmt.Errorf("log init: %w", err)
	}

	c.Log, err = appctx.DefaultLogInit(f, l, &logger.LogFormatter{})
	return err
}
