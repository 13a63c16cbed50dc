// Package tray mirrors the listening state in the system tray: the icon is a
// small four-dot row colored by state, and the menu can start and stop a
// session.
package tray

import (
	"fmt"
	"sync"
)

type State int

const (
	StateIdle State = iota
	StateListening
	StateSpeaking
	StateQuiet
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateSpeaking:
		return "speaking"
	case StateQuiet:
		return "no voice detected"
	default:
		return "standby"
	}
}

// model is the platform-independent part of the tray. Every transition
// returns whether the visible state changed.
type model struct {
	mu     sync.Mutex
	state  State
	device string
}

func (m *model) set(s State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == s {
		return false
	}
	m.state = s
	return true
}

// quiet applies a no-voice warning. It never overrides speaking, which
// latches for the rest of the session.
func (m *model) quiet(active bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.state
	switch {
	case m.state == StateIdle || m.state == StateSpeaking:
		return false
	case active:
		next = StateQuiet
	default:
		next = StateListening
	}
	if next == m.state {
		return false
	}
	m.state = next
	return true
}

func (m *model) setDevice(text string) {
	m.mu.Lock()
	m.device = text
	m.mu.Unlock()
}

func (m *model) snapshot() (State, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.device
}

func tooltip(s State, device string) string {
	if device == "" {
		return "earshot: " + s.String()
	}
	return fmt.Sprintf("earshot: %s\n%s", s, device)
}

func listenTitle(s State) string {
	if s == StateIdle {
		return "Listen"
	}
	return "Stop listening"
}
