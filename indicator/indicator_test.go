package indicator

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earshot/dots"
	"earshot/loudness"
	"earshot/timer"
	"earshot/waiting"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type rig struct {
	clock *timer.Manual
	hub   *loudness.Hub
	row   *dots.Row
	ind   *Indicator
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		clock: timer.NewManual(epoch),
		hub:   loudness.NewHub(),
		row:   dots.NewRow(),
	}
	r.row.Attach()
	r.ind = New(r.clock, DefaultConfig(), zerolog.Nop())
	require.NoError(t, r.ind.Start(r.row, r.hub))
	t.Cleanup(r.ind.Stop)
	return r
}

func (r *rig) sampleAt(offset time.Duration, level float64) {
	r.clock.Advance(offset - r.clock.Now().Sub(epoch))
	r.hub.Publish(loudness.Sample{Level: level, At: r.clock.Now()})
}

func TestIndicatorBeepIgnoredThenSpeech(t *testing.T) {
	r := newRig(t)

	r.sampleAt(100*time.Millisecond, 0.9)
	assert.False(t, r.ind.Speaking())
	assert.False(t, r.row.Attr(dots.AttrSpeaking))

	r.sampleAt(350*time.Millisecond, 0.5)
	assert.True(t, r.ind.Speaking())
	assert.True(t, r.row.Attr(dots.AttrSpeaking))

	// The reveal has not happened yet: every dot goes straight to neutral.
	r.clock.Advance(2 * time.Second)
	anim := r.ind.Animation()
	assert.Equal(t, []waiting.State{waiting.Neutral, waiting.Neutral, waiting.Neutral, waiting.Neutral}, anim.States())
	assert.Equal(t, 0, anim.Active())
	for _, p := range r.row.Snapshot() {
		assert.Equal(t, 0.0, p.TargetY)
	}
}

func TestIndicatorLevelDrivesScaleOnlyWhenSpeaking(t *testing.T) {
	r := newRig(t)

	r.sampleAt(50*time.Millisecond, 0.8)
	for _, p := range r.row.Snapshot() {
		assert.Equal(t, 1.0, p.Scale, "level ignored before speaking")
	}

	r.sampleAt(400*time.Millisecond, 0.5)
	pts := r.row.Snapshot()
	// attack: 0*0.2 + 0.5*0.8
	smoothed := 0.4
	for n, p := range pts {
		assert.InDelta(t, 1+smoothed*levelWeights[n]*1.5, p.Scale, 1e-9)
	}
	assert.Greater(t, pts[1].Scale, pts[3].Scale)

	r.sampleAt(450*time.Millisecond, 0)
	// release: 0.4*0.7
	assert.InDelta(t, 1+0.28*levelWeights[1]*1.5, r.row.Snapshot()[1].Scale, 1e-9)
}

func TestIndicatorWaitsThenHandsOff(t *testing.T) {
	r := newRig(t)

	r.clock.Advance(900 * time.Millisecond)
	anim := r.ind.Animation()
	assert.Equal(t, []waiting.State{waiting.Oscillating, waiting.Oscillating, waiting.Oscillating, waiting.Oscillating}, anim.States())

	r.sampleAt(1000*time.Millisecond, 0.6)
	r.clock.Advance(time.Second)
	assert.Equal(t, []waiting.State{waiting.Neutral, waiting.Neutral, waiting.Neutral, waiting.Neutral}, anim.States())
	assert.Equal(t, 0, r.clock.Pending())
}

func TestIndicatorStopIsIdempotent(t *testing.T) {
	r := newRig(t)
	r.clock.Advance(600 * time.Millisecond)

	r.ind.Stop()
	r.ind.Stop()

	assert.Equal(t, 0, r.hub.Len())
	assert.Equal(t, 0, r.clock.Pending())
	assert.Equal(t, 0, r.ind.Animation().Active())

	r.hub.Publish(loudness.Sample{Level: 1})
	assert.False(t, r.ind.Speaking())
}

func TestIndicatorUnavailableContainer(t *testing.T) {
	clock := timer.NewManual(epoch)
	hub := loudness.NewHub()
	ind := New(clock, DefaultConfig(), zerolog.Nop())

	err := ind.Start(dots.NewRow(), hub)
	require.ErrorIs(t, err, waiting.ErrReferenceUnavailable)
	assert.Equal(t, 0, clock.Pending())
	assert.Equal(t, 0, hub.Len())

	ind.Stop()
	ind.Stop()
	assert.Error(t, ind.Start(dots.NewRow(), hub))
}

func TestIndicatorTypedNilContainer(t *testing.T) {
	clock := timer.NewManual(epoch)
	hub := loudness.NewHub()
	ind := New(clock, DefaultConfig(), zerolog.Nop())

	var row *dots.Row
	err := ind.Start(row, hub)
	require.ErrorIs(t, err, waiting.ErrReferenceUnavailable)
	assert.Equal(t, 0, clock.Pending())
	assert.Equal(t, 0, hub.Len())
	ind.Stop()
}

func TestIndicatorDetachedAfterStartKeepsRunning(t *testing.T) {
	r := newRig(t)
	r.clock.Advance(600 * time.Millisecond)
	r.row.Detach()

	r.clock.Advance(time.Second)
	assert.Equal(t, dots.Count, r.ind.Animation().Active())

	r.ind.Stop()
	assert.Equal(t, 0, r.clock.Pending())
}

func TestIndicatorOnSpeakingFiresOnce(t *testing.T) {
	clock := timer.NewManual(epoch)
	hub := loudness.NewHub()
	row := dots.NewRow()
	row.Attach()

	ind := New(clock, DefaultConfig(), zerolog.Nop())
	calls := 0
	ind.OnSpeaking(func() {
		assert.True(t, row.Attr(dots.AttrSpeaking), "container is told first")
		calls++
	})
	require.NoError(t, ind.Start(row, hub))
	defer ind.Stop()

	clock.Advance(400 * time.Millisecond)
	hub.Publish(loudness.Sample{Level: 0.6, At: clock.Now()})
	hub.Publish(loudness.Sample{Level: 0.9, At: clock.Now()})
	assert.Equal(t, 1, calls)
}
