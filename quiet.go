package main

import "time"

const (
	quietTick      = 100 * time.Millisecond
	quietWarnEvery = 8 * time.Second
	quietAutoClose = 30 * time.Second
)

type QuietEvent int

const (
	QuietNone      QuietEvent = iota
	QuietWarn                 // nothing heard yet
	QuietWarnClear            // speech arrived after a warning
	QuietRepeat               // still nothing, every 8s (toggle mode)
	QuietAutoClose            // 30s without speech (toggle mode)
)

// quietMonitor watches a session for the user never starting to speak.
// Speaking is latched by the detector, so once it is seen the monitor has
// nothing more to say.
type quietMonitor struct {
	warnAt  int
	closeAt int

	isToggle func() bool

	ticks    int
	warned   bool
	heard    bool
	lastBeep int
}

func newQuietMonitor(isToggle func() bool) *quietMonitor {
	return &quietMonitor{
		warnAt:   int(quietWarnEvery / quietTick),
		closeAt:  int(quietAutoClose / quietTick),
		isToggle: isToggle,
	}
}

func (m *quietMonitor) Tick(speaking bool) QuietEvent {
	if m.heard {
		return QuietNone
	}
	if speaking {
		m.heard = true
		if m.warned {
			m.warned = false
			return QuietWarnClear
		}
		return QuietNone
	}
	m.ticks++

	if m.ticks >= m.warnAt && !m.warned {
		m.warned = true
		m.lastBeep = m.ticks
		return QuietWarn
	}

	if !m.isToggle() {
		return QuietNone
	}
	// Checked before repeat so the close wins when both are due.
	if m.ticks >= m.closeAt {
		return QuietAutoClose
	}
	if m.warned && m.ticks-m.lastBeep >= m.warnAt {
		m.lastBeep = m.ticks
		return QuietRepeat
	}
	return QuietNone
}
