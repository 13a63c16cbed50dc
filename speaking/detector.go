// Package speaking latches a "user is speaking" flag from a stream of
// loudness samples.
//
// The threshold starts elevated so the start beep, which plays into the
// same microphone, is not taken for speech. After a short grace period it
// drops once, for good, to the steady threshold.
package speaking

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"earshot/loudness"
	"earshot/timer"
)

type Config struct {
	ElevatedThreshold float64       `yaml:"elevated_threshold" validate:"gt=0,lte=1"`
	SteadyThreshold   float64       `yaml:"steady_threshold" validate:"gt=0,ltfield=ElevatedThreshold"`
	Grace             time.Duration `yaml:"grace" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		ElevatedThreshold: 1.0,
		SteadyThreshold:   0.3,
		Grace:             300 * time.Millisecond,
	}
}

type ThresholdState struct {
	Current  float64
	Elevated bool
}

type Detector struct {
	cfg    Config
	timers *timer.Set
	log    zerolog.Logger

	speaking atomic.Bool

	mu         sync.Mutex
	threshold  ThresholdState
	level      float64
	started    bool
	stopped    bool
	sub        loudness.Subscription
	onSpeaking func()
	onLevel    func(float64)
}

func New(clock timer.Clock, cfg Config, logger zerolog.Logger) *Detector {
	return &Detector{
		cfg:       cfg,
		timers:    timer.NewSet(clock),
		log:       logger.With().Str("component", "speaking").Logger(),
		threshold: ThresholdState{Current: cfg.ElevatedThreshold, Elevated: true},
	}
}

// OnSpeaking registers fn to run once, when the flag latches.
func (d *Detector) OnSpeaking(fn func()) {
	d.mu.Lock()
	d.onSpeaking = fn
	d.mu.Unlock()
}

// OnLevel registers fn to receive each sample level once speaking. Levels
// seen before the flag latches are never passed on.
func (d *Detector) OnLevel(fn func(float64)) {
	d.mu.Lock()
	d.onLevel = fn
	d.mu.Unlock()
}

// Start arms the grace timer and, when src is non-nil, subscribes to it.
func (d *Detector) Start(src loudness.Source) {
	d.mu.Lock()
	if d.started || d.stopped {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.threshold = ThresholdState{Current: d.cfg.ElevatedThreshold, Elevated: true}
	d.timers.After(d.cfg.Grace, d.settle)
	d.mu.Unlock()

	if src == nil {
		return
	}
	sub := src.Subscribe(d.OnSample)
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	d.sub = sub
	d.mu.Unlock()
}

func (d *Detector) settle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || !d.threshold.Elevated {
		return
	}
	d.threshold = ThresholdState{Current: d.cfg.SteadyThreshold}
	d.log.Debug().Float64("threshold", d.cfg.SteadyThreshold).Msg("threshold_lowered")
}

func (d *Detector) OnSample(s loudness.Sample) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.level = s.Level
	latched := false
	if !d.speaking.Load() && s.Level > d.threshold.Current {
		d.speaking.Store(true)
		latched = true
		d.log.Info().
			Float64("level", s.Level).
			Float64("threshold", d.threshold.Current).
			Msg("speaking")
	}
	onSpeaking, onLevel := d.onSpeaking, d.onLevel
	d.mu.Unlock()

	if latched && onSpeaking != nil {
		onSpeaking()
	}
	if onLevel != nil && d.speaking.Load() {
		onLevel(s.Level)
	}
}

func (d *Detector) IsSpeaking() bool {
	return d.speaking.Load()
}

// Level returns the latest observed level. The bool is false until the
// user is speaking, and callers must ignore the level in that case.
func (d *Detector) Level() (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.level, d.speaking.Load()
}

func (d *Detector) Threshold() ThresholdState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.threshold
}

// Stop cancels the pending grace timer and releases the subscription.
func (d *Detector) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	sub := d.sub
	d.sub = nil
	d.mu.Unlock()

	d.timers.Stop()
	if sub != nil {
		sub.Unsubscribe()
	}
}
