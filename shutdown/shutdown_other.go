//go:build !windows

// Package shutdown subscribes to the signals that should end a session
// cleanly.
package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

// Notify relays the termination signals to ch.
func Notify(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}
