package hotkey

import (
	"sync"
	"time"
)

type Mode string

const (
	ModeHold   Mode = "hold"
	ModeToggle Mode = "toggle"
)

// Toggle turns raw key edges into listening start/stop signals. Every press
// from idle starts listening. Releasing after longPress stops it (hold to
// listen); releasing sooner leaves it running until the next full press.
type Toggle struct {
	startCh chan struct{}
	stopCh  chan struct{}
	done    chan struct{}
	once    sync.Once

	mu   sync.Mutex
	mode Mode
}

func NewToggle(hk Hotkey, longPress time.Duration) *Toggle {
	t := &Toggle{
		startCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go t.run(hk, longPress)
	return t
}

func (t *Toggle) Start() <-chan struct{} { return t.startCh }
func (t *Toggle) Stop() <-chan struct{}  { return t.stopCh }

// Mode reports how the current or last session was held.
func (t *Toggle) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

func (t *Toggle) setMode(m Mode) {
	t.mu.Lock()
	t.mode = m
	t.mu.Unlock()
}

func (t *Toggle) Close() {
	t.once.Do(func() { close(t.done) })
}

func (t *Toggle) closed() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Toggle) wait(ch <-chan struct{}) bool {
	if t.closed() {
		return false
	}
	select {
	case <-ch:
		return true
	case <-t.done:
		return false
	}
}

func (t *Toggle) emit(ch chan struct{}) bool {
	if t.closed() {
		return false
	}
	select {
	case ch <- struct{}{}:
		return true
	case <-t.done:
		return false
	}
}

func (t *Toggle) run(hk Hotkey, longPress time.Duration) {
	for {
		if !t.wait(hk.Keydown()) {
			return
		}
		t.setMode(ModeHold)
		if !t.emit(t.startCh) {
			return
		}

		timer := time.NewTimer(longPress)
		select {
		case <-t.done:
			timer.Stop()
			return
		case <-timer.C:
			if !t.wait(hk.Keyup()) {
				return
			}
		case <-hk.Keyup():
			timer.Stop()
			t.setMode(ModeToggle)
			// The next press stops on its release.
			if !t.wait(hk.Keydown()) || !t.wait(hk.Keyup()) {
				return
			}
		}
		if !t.emit(t.stopCh) {
			return
		}
	}
}
