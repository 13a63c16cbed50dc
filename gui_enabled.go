//go:build gui

package main

import (
	"fmt"
	"os"
	"runtime"

	"earshot/audio"
	"earshot/gui"
)

var guiApp *gui.App

// Created on the main thread before fyne starts; Core Audio capture on
// macOS misbehaves otherwise.
var guiAudioCtx audio.Context

func initGUI() {
	guiMode = true

	var err error
	guiAudioCtx, err = audio.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}

	// fyne and GLFW must stay on this thread.
	runtime.LockOSThread()

	guiApp = gui.NewApp(row, run, requestToggle)
	sink = guiApp
	quitUI = guiApp.Quit
	if err := gui.Run(guiApp); err != nil {
		guiAudioCtx.Close()
		panic(err)
	}
	gracefulShutdown()
}
