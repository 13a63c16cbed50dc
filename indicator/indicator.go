// Package indicator runs one listening session's worth of dot behaviour:
// the waiting animation until the user speaks, then the live level.
package indicator

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"earshot/dots"
	"earshot/loudness"
	"earshot/speaking"
	"earshot/timer"
	"earshot/waiting"
)

type Config struct {
	Detector  speaking.Config `yaml:"detector"`
	Animation waiting.Config  `yaml:"animation"`
	LevelGain float64         `yaml:"level_gain" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		Detector:  speaking.DefaultConfig(),
		Animation: waiting.DefaultConfig(),
		LevelGain: 1.5,
	}
}

// Per-dot share of the level so the row reads as a small waveform rather
// than four identical bars.
var levelWeights = []float64{0.6, 1.0, 0.8, 0.5}

const (
	levelAttack  = 0.8
	levelRelease = 0.3
)

type Indicator struct {
	clock timer.Clock
	cfg   Config
	log   zerolog.Logger

	mu        sync.Mutex
	container dots.Container
	det       *speaking.Detector
	anim      *waiting.Animation
	started   bool
	stopped   bool
	notify    func()

	levelMu  sync.Mutex
	smoothed float64
}

func New(clock timer.Clock, cfg Config, logger zerolog.Logger) *Indicator {
	return &Indicator{
		clock: clock,
		cfg:   cfg,
		log:   logger.With().Str("component", "indicator").Logger(),
	}
}

// Start runs the indicator on c, fed by src. If c is unavailable it returns
// an error wrapping waiting.ErrReferenceUnavailable and starts nothing.
func (i *Indicator) Start(c dots.Container, src loudness.Source) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.started || i.stopped {
		return fmt.Errorf("indicator: already used")
	}

	if c != nil && c.Attached() {
		c.SetAttr(dots.AttrSpeaking, false)
	}
	isSpeaking := func() bool { return c.Attr(dots.AttrSpeaking) }
	anim, err := waiting.NewScheduler(i.clock, i.cfg.Animation, i.log).Start(c, isSpeaking)
	if err != nil {
		return fmt.Errorf("indicator: %w", err)
	}

	det := speaking.New(i.clock, i.cfg.Detector, i.log)
	notify := i.notify
	det.OnSpeaking(func() {
		c.SetAttr(dots.AttrSpeaking, true)
		if notify != nil {
			notify()
		}
	})
	det.OnLevel(func(level float64) { i.renderLevel(c, level) })

	i.started = true
	i.container = c
	i.det = det
	i.anim = anim
	det.Start(src)
	return nil
}

// OnSpeaking registers fn to run once speech is detected, after the
// container has been told. It must be called before Start.
func (i *Indicator) OnSpeaking(fn func()) {
	i.mu.Lock()
	i.notify = fn
	i.mu.Unlock()
}

func (i *Indicator) renderLevel(c dots.Container, level float64) {
	i.levelMu.Lock()
	if level > i.smoothed {
		i.smoothed = i.smoothed*(1-levelAttack) + level*levelAttack
	} else {
		i.smoothed = i.smoothed*(1-levelRelease) + level*levelRelease
	}
	v := i.smoothed
	i.levelMu.Unlock()

	for n, d := range c.Dots() {
		w := levelWeights[n%len(levelWeights)]
		d.SetScale(1 + v*w*i.cfg.LevelGain)
	}
}

func (i *Indicator) Speaking() bool {
	i.mu.Lock()
	det := i.det
	i.mu.Unlock()
	return det != nil && det.IsSpeaking()
}

func (i *Indicator) Animation() *waiting.Animation {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.anim
}

// Stop releases the sample subscription and cancels every timer. It is
// safe to call repeatedly and after a failed Start.
func (i *Indicator) Stop() {
	i.mu.Lock()
	if i.stopped {
		i.mu.Unlock()
		return
	}
	i.stopped = true
	det, anim := i.det, i.anim
	i.mu.Unlock()

	if det != nil {
		det.Stop()
	}
	if anim != nil {
		anim.Stop()
	}
}
