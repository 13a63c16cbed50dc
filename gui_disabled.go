//go:build !gui

package main

import "earshot/audio"

// Never set without the gui build tag.
var guiAudioCtx audio.Context

func initGUI() {
	panic("earshot: built without GUI support (rebuild with -tags gui)")
}
