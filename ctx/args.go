package ctx

import (
	"fmt"
	"os"
	"strings"

	"github.com/alexflint/go-arg"

	"github.com/rpi-ops/sd-backup/misc"
)

type command string

const (
	start    command = "start"
	server   command = "server"
	generate command = "generate"
	testCfg  command = "test_cfg"
	unknown  command = "unknown"
)

// ArgsParams contains parameters read from command line, command parameters and command handler
type ArgsParams struct {
	ConfigPath string
	Cmd        command
	CmdParams  interface{}
	Arg        *arg.Parser
}

// StartCmd "Running the backup job"
type StartCmd struct{}

// ServerCmd "Running the metrics server"
type ServerCmd struct{}

type GenerateCmd struct {
	OutPath string `arg:"-O,--out-path" help:"Path for the generated configuration file, '-' for stdout" placeholder:"PATH"`
}

type args struct {
	Start    *StartCmd    `arg:"subcommand:start"`
	Server   *ServerCmd   `arg:"subcommand:server"`
	Generate *GenerateCmd `arg:"subcommand:generate"`
	ConfPath string       `arg:"-c,--config" help:"Path to config file" default:"/etc/sd-backup/sd-backup.conf" placeholder:"PATH"`
	TestConf bool         `arg:"-t,--test-config" help:"Check if configuration correct"`
}

// ReadArgs reads arguments from command line
func ReadArgs() (p ArgsParams, err error) {

	var a args

	curArgs := arg.MustParse(&a)

	p.ConfigPath = a.ConfPath

	if a.TestConf {
		p.Cmd = testCfg
		return
	}

	subCmds := curArgs.SubcommandNames()
	if len(subCmds) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "Command not defined")
		curArgs.WriteHelp(os.Stderr)
		return p, misc.ErrArg
	}

	cmd := getCmd(strings.Join(subCmds, "_"))
	if cmd == unknown {
		_, _ = fmt.Fprintln(os.Stderr, "Unknown command")
		curArgs.WriteHelp(os.Stderr)
		return p, misc.ErrArg
	}
	p.Cmd = cmd
	p.CmdParams = curArgs.Subcommand()
	p.Arg = curArgs

	return
}

func (args) Version() string {
	return "sd-backup " + misc.VERSION
}

func getCmd(argCmd string) command {
	switch command(argCmd) {
	case start:
		return start
	case server:
		return server
	case generate:
		return generate
	case testCfg:
		return testCfg
	default:
		return unknown
	}
}
