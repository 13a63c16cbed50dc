//go:build tray

package main

import "earshot/tray"

func initTray() {
	trayMode = true
	t := tray.New(requestToggle)
	sink = multiSink{tuiSink{}, t}
	quitUI = t.Quit
	t.Run(run)
	gracefulShutdown()
}
