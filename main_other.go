//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// -gui must be seen before flag.Parse so fyne can own the main thread.
	for _, arg := range os.Args[1:] {
		if arg == "-gui" {
			initGUI() // takes main thread, calls run() in goroutine
			return
		}
		if arg == "-tray" {
			initTray()
			return
		}
	}
	// The hotkey backend needs the main thread on macOS.
	mainthread.Init(run)
}
