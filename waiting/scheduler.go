// Package waiting animates the dots while the indicator waits for speech.
//
// After a shared reveal delay each dot starts its own periodic oscillation,
// staggered by its index. Every tick polls the speaking flag first. Once the
// flag is set the dot returns to rest and its timer cancels itself, so the
// level-driven renderer takes over from a neutral row.
package waiting

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"earshot/dots"
	"earshot/timer"
)

// ErrReferenceUnavailable is returned when the dot container is missing or
// not attached. No timers are created in that case.
var ErrReferenceUnavailable = errors.New("waiting: dot container unavailable")

type Config struct {
	RevealDelay time.Duration `yaml:"reveal_delay" validate:"gte=0"`
	Stagger     time.Duration `yaml:"stagger" validate:"gte=0"`
	Period      time.Duration `yaml:"period" validate:"gt=0"`
	Amplitude   float64       `yaml:"amplitude" validate:"gt=0"`
	Transition  time.Duration `yaml:"transition" validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		RevealDelay: 500 * time.Millisecond,
		Stagger:     120 * time.Millisecond,
		Period:      800 * time.Millisecond,
		Amplitude:   2,
		Transition:  800 * time.Millisecond,
	}
}

type State int

const (
	Pending State = iota
	Oscillating
	Neutral
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Oscillating:
		return "oscillating"
	case Neutral:
		return "neutral"
	default:
		return "unknown"
	}
}

type Scheduler struct {
	clock timer.Clock
	cfg   Config
	log   zerolog.Logger
}

func NewScheduler(clock timer.Clock, cfg Config, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		clock: clock,
		cfg:   cfg,
		log:   logger.With().Str("component", "waiting").Logger(),
	}
}

// handle is the per-dot animation state.
type handle struct {
	index int
	dot   dots.Dot
	sign  float64
	timer timer.ID
	state State
}

// Start begins the waiting animation on c. isSpeaking is polled on every
// tick of every dot.
func (s *Scheduler) Start(c dots.Container, isSpeaking func() bool) (*Animation, error) {
	if c == nil || !c.Attached() || isSpeaking == nil {
		return nil, ErrReferenceUnavailable
	}

	a := &Animation{
		cfg:        s.cfg,
		log:        s.log,
		timers:     timer.NewSet(s.clock),
		isSpeaking: isSpeaking,
	}
	for i, d := range c.Dots() {
		d.SetTransition(s.cfg.Transition)
		a.handles = append(a.handles, &handle{index: i, dot: d, sign: 1})
	}

	a.mu.Lock()
	a.reveal = a.timers.After(s.cfg.RevealDelay, a.revealDots)
	a.mu.Unlock()

	s.log.Debug().Int("dots", len(a.handles)).Msg("waiting_start")
	return a, nil
}

// Animation is the owner's handle on a running waiting animation.
type Animation struct {
	cfg        Config
	log        zerolog.Logger
	timers     *timer.Set
	isSpeaking func() bool

	mu      sync.Mutex
	handles []*handle
	reveal  timer.ID
	stopped bool
}

func (a *Animation) revealDots() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	for _, h := range a.handles {
		delay := time.Duration(h.index) * a.cfg.Stagger
		h.timer = a.timers.Every(delay, a.cfg.Period, a.ticker(h))
	}
}

// ticker drives one dot. The handle owns the dot's timer ID; revealDots
// stores it under a.mu before any tick can take the lock.
func (a *Animation) ticker(h *handle) func(timer.ID) {
	return func(timer.ID) {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.stopped || h.state == Neutral {
			return
		}
		if a.isSpeaking() {
			h.dot.SetOffset(0, 0)
			h.state = Neutral
			a.timers.Cancel(h.timer)
			a.log.Debug().Int("dot", h.index).Msg("dot_neutral")
			return
		}
		h.state = Oscillating
		h.sign = -h.sign
		h.dot.SetOffset(0, a.cfg.Amplitude*h.sign)
	}
}

// Timers returns every timer the animation has created so far, the reveal
// timer first.
func (a *Animation) Timers() []timer.ID {
	return a.timers.IDs()
}

// Active returns how many of the animation's timers are still scheduled.
func (a *Animation) Active() int {
	return a.timers.Active()
}

func (a *Animation) States() []State {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]State, len(a.handles))
	for i, h := range a.handles {
		out[i] = h.state
	}
	return out
}

// Stop cancels every outstanding timer. Safe to call more than once, and
// after the dots have already gone neutral.
func (a *Animation) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	a.mu.Unlock()

	n := a.timers.Stop()
	a.log.Debug().Int("cancelled", n).Msg("waiting_stop")
}

// DotTimers returns the periodic timer owned by each dot, in dot order. A
// zero ID means the dot has not been revealed.
func (a *Animation) DotTimers() []timer.ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]timer.ID, len(a.handles))
	for i, h := range a.handles {
		out[i] = h.timer
	}
	return out
}
