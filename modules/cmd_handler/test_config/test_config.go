package test_config

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/rpi-ops/sd-backup/modules/backend/exec_cmd"
)

type Opts struct {
	InitErr      error
	Done         chan error
	Device       string
	DeviceName   string
	CopyTool     string
	CompressTool string
	Notifiers    []string
}

type testConfig struct {
	initErr      error
	done         chan error
	device       string
	deviceName   string
	copyTool     string
	compressTool string
	notifiers    []string
}

func Init(o Opts) *testConfig {
	return &testConfig{
		initErr:      o.InitErr,
		done:         o.Done,
		device:       o.Device,
		deviceName:   o.DeviceName,
		copyTool:     o.CopyTool,
		compressTool: o.CompressTool,
		notifiers:    o.Notifiers,
	}
}

func (tc *testConfig) Run() {

	if tc.initErr != nil {
		color.HiRed("[WARNING!] The configuration has next errors:")
		fmt.Printf("%v\n", tc.initErr)
		tc.done <- tc.initErr
		return
	}

	color.HiGreen("The configuration is correct.")
	fmt.Printf("\nBackup job: device `%s` (%s)\n", tc.deviceName, tc.device)

	for _, tool := range []string{tc.copyTool, tc.compressTool} {
		p, err := exec_cmd.LookPath(tool)
		if err != nil {
			color.HiRed("  %s: not found in PATH", tool)
			continue
		}
		res, err := exec_cmd.Exec(tool, "--version")
		if err != nil {
			fmt.Printf("  %s: %s\n", tool, p)
			continue
		}
		fmt.Printf("  %s: %s (%s)\n", tool, p, firstLine(res.Stdout))
	}

	if len(tc.notifiers) > 0 {
		fmt.Println("Notification channels:")
		for _, n := range tc.notifiers {
			fmt.Printf("  %s\n", n)
		}
	} else {
		fmt.Println("No notification channels configured.")
	}

	tc.done <- nil
}

func firstLine(s string) string {
	return strings.SplitN(strings.TrimSpace(s), "\n", 2)[0]
}
