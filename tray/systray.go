//go:build tray

package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray owns the system tray icon. Its event methods can be called from any
// goroutine; they are dropped until the tray is ready.
type Tray struct {
	model
	onToggle func()

	readyMu sync.Mutex
	ready   bool
	listen  *systray.MenuItem
}

func New(onToggle func()) *Tray {
	return &Tray{onToggle: onToggle}
}

// Run blocks on the platform event loop until Quit. onReady runs in its own
// goroutine once the icon is up.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		systray.SetTitle("")
		t.listen = systray.AddMenuItem(listenTitle(StateIdle), "Start or stop listening")
		systray.AddSeparator()
		quit := systray.AddMenuItem("Quit", "Quit earshot")

		t.readyMu.Lock()
		t.ready = true
		t.readyMu.Unlock()
		t.refresh()

		go func() {
			for {
				select {
				case <-t.listen.ClickedCh:
					if t.onToggle != nil {
						t.onToggle()
					}
				case <-quit.ClickedCh:
					systray.Quit()
					return
				}
			}
		}()
		go onReady()
	}, func() {})
}

func (t *Tray) Quit() { systray.Quit() }

func (t *Tray) refresh() {
	t.readyMu.Lock()
	defer t.readyMu.Unlock()
	if !t.ready {
		return
	}
	s, device := t.snapshot()
	systray.SetIcon(icons[s])
	systray.SetTooltip(tooltip(s, device))
	t.listen.SetTitle(listenTitle(s))
}

func (t *Tray) ListeningStart() {
	if t.set(StateListening) {
		t.refresh()
	}
}

func (t *Tray) ListeningStop() {
	if t.set(StateIdle) {
		t.refresh()
	}
}

func (t *Tray) Speaking() {
	if t.set(StateSpeaking) {
		t.refresh()
	}
}

func (t *Tray) NoSpeech(active bool) {
	if t.quiet(active) {
		t.refresh()
	}
}

func (t *Tray) DeviceLine(text string) {
	t.setDevice(text)
	t.refresh()
}
