package cmd_handler

import (
	"errors"

	appctx "github.com/nixys/nxs-go-appctx/v3"
	"github.com/sirupsen/logrus"

	"github.com/rpi-ops/sd-backup/ctx"
	"github.com/rpi-ops/sd-backup/misc"
)

func Runtime(app appctx.App) error {
	var err error

	cc := app.ValueGet().(*ctx.Ctx)

	cc.Log.Trace("cmd routine: start")
	go cc.Cmd.Run()

	for {
		select {
		case <-app.SelfCtxDone():
			cc.Log.Trace("cmd routine: shutdown")
			return nil
		case err = <-cc.Done:
			if err != nil {
				if errors.Is(err, misc.ErrLockHeld) {
					cc.Log.Info("cmd routine: previous backup still in progress, exiting")
					app.Shutdown(err)
					return err
				}
				cc.Log.WithFields(logrus.Fields{"details": err}).Errorf("cmd routine fail:")
				app.Shutdown(err)
				return err
			}
			cc.Log.Trace("cmd routine: done")
			app.RoutineShutdown("notification")
			return err
		}
	}
}
