package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"earshot/audio"
	"earshot/beep"
	"earshot/dots"
	"earshot/indicator"
	"earshot/log"
	"earshot/loudness"
	"earshot/timer"
)

// listener runs listening sessions: one indicator per session, drawn on a
// row that outlives them.
type listener struct {
	clock  timer.Clock
	cfg    indicator.Config
	row    *dots.Row
	hub    *loudness.Hub
	meter  *audio.Meter
	sounds bool
	logger zerolog.Logger
	events EventSink

	count atomic.Int64
}

func newListener(cfg indicator.Config, gain float64, sounds bool, row *dots.Row, events EventSink) *listener {
	hub := loudness.NewHub()
	return &listener{
		clock:  timer.Real(),
		cfg:    cfg,
		row:    row,
		hub:    hub,
		meter:  audio.NewMeter(hub, gain),
		sounds: sounds,
		logger: log.Logger(),
		events: events,
	}
}

// listen runs one session on capture until stop fires, or until a toggle
// session has heard nothing for too long. The indicator is torn down before
// the capture stops so no late sample reaches it.
func (l *listener) listen(capture audio.CaptureDevice, stop <-chan struct{}, isToggle func() bool) error {
	l.row.Reset()
	ind := indicator.New(l.clock, l.cfg, l.logger)

	start := time.Now()
	var spoke atomic.Bool
	ind.OnSpeaking(func() {
		spoke.Store(true)
		log.Speaking(time.Since(start))
		l.events.Speaking()
	})

	if err := ind.Start(l.row, l.hub); err != nil {
		return fmt.Errorf("starting indicator: %w", err)
	}

	l.cue(beep.PlayStart)
	capture.SetCallback(l.meter.Write)
	if err := capture.Start(); err != nil {
		ind.Stop()
		capture.ClearCallback()
		l.cue(beep.PlayError)
		return fmt.Errorf("starting capture: %w", err)
	}

	autoClose := make(chan struct{})
	watch := timer.NewSet(l.clock)
	mon := newQuietMonitor(isToggle)
	watch.Every(quietTick, quietTick, func(id timer.ID) {
		switch mon.Tick(ind.Speaking()) {
		case QuietWarn:
			log.Warn("no_speech")
			l.events.NoSpeech(true)
			l.cue(beep.PlayError)
		case QuietRepeat:
			l.cue(beep.PlayError)
		case QuietWarnClear:
			l.events.NoSpeech(false)
		case QuietAutoClose:
			log.Info("no_speech_auto_close")
			watch.Cancel(id)
			close(autoClose)
		}
	})

	l.count.Add(1)
	log.ListenStart(capture.DeviceName())
	l.events.ListeningStart()

	select {
	case <-stop:
	case <-autoClose:
	}

	watch.Stop()
	ind.Stop()
	capture.Stop()
	capture.ClearCallback()
	l.row.Reset()

	log.ListenStop(time.Since(start), spoke.Load())
	l.events.ListeningStop()
	l.cue(beep.PlayEnd)
	return nil
}

func (l *listener) cue(play func()) {
	if l.sounds {
		play()
	}
}

func (l *listener) sessions() int {
	return int(l.count.Load())
}

// mergeStop returns a channel that closes when any source fires.
func mergeStop(sources ...<-chan struct{}) chan struct{} {
	out := make(chan struct{})
	var once sync.Once
	for _, s := range sources {
		if s == nil {
			continue
		}
		go func(ch <-chan struct{}) {
			select {
			case <-ch:
				once.Do(func() { close(out) })
			case <-out:
			}
		}(s)
	}
	return out
}
