//go:build !tray

package main

func initTray() {
	panic("earshot: built without tray support (rebuild with -tags tray)")
}
