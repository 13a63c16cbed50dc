package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManualFiresInDueOrder(t *testing.T) {
	m := NewManual(epoch)
	var got []string
	m.AfterFunc(30*time.Millisecond, func() { got = append(got, "c") })
	m.AfterFunc(10*time.Millisecond, func() { got = append(got, "a") })
	m.AfterFunc(10*time.Millisecond, func() { got = append(got, "b") })

	m.Advance(9 * time.Millisecond)
	assert.Empty(t, got)

	m.Advance(25 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, epoch.Add(34*time.Millisecond), m.Now())
	assert.Equal(t, 0, m.Pending())
}

func TestManualFiresCallbacksScheduledWhileAdvancing(t *testing.T) {
	m := NewManual(epoch)
	var at []time.Duration
	m.AfterFunc(5*time.Millisecond, func() {
		at = append(at, m.Now().Sub(epoch))
		m.AfterFunc(0, func() { at = append(at, m.Now().Sub(epoch)) })
		m.AfterFunc(10*time.Millisecond, func() { at = append(at, m.Now().Sub(epoch)) })
	})

	m.Advance(10 * time.Millisecond)
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond}, at)

	m.Advance(5 * time.Millisecond)
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond, 15 * time.Millisecond}, at)
}

func TestManualStop(t *testing.T) {
	m := NewManual(epoch)
	fired := false
	st := m.AfterFunc(time.Millisecond, func() { fired = true })

	assert.True(t, st.Stop())
	assert.False(t, st.Stop())
	m.Advance(time.Second)
	assert.False(t, fired)

	st = m.AfterFunc(time.Millisecond, func() {})
	m.Advance(time.Millisecond)
	assert.False(t, st.Stop(), "stopping a fired timer reports false")
}

func TestSetAfter(t *testing.T) {
	m := NewManual(epoch)
	s := NewSet(m)
	n := 0
	id := s.After(10*time.Millisecond, func() { n++ })

	require.NotZero(t, id)
	assert.True(t, s.Live(id))
	assert.Equal(t, 1, s.Active())

	m.Advance(10 * time.Millisecond)
	assert.Equal(t, 1, n)
	assert.False(t, s.Live(id))
	assert.Equal(t, 0, s.Active())
	assert.False(t, s.Cancel(id), "cancelling a fired timer is a no-op")
}

func TestSetEveryFirstTickAtDelay(t *testing.T) {
	m := NewManual(epoch)
	s := NewSet(m)
	var ticks []time.Duration
	s.Every(50*time.Millisecond, 100*time.Millisecond, func(ID) {
		ticks = append(ticks, m.Now().Sub(epoch))
	})

	m.Advance(360 * time.Millisecond)
	assert.Equal(t, []time.Duration{
		50 * time.Millisecond,
		150 * time.Millisecond,
		250 * time.Millisecond,
		350 * time.Millisecond,
	}, ticks)
}

func TestSetEverySelfCancel(t *testing.T) {
	m := NewManual(epoch)
	s := NewSet(m)
	n := 0
	id := s.Every(0, 10*time.Millisecond, func(self ID) {
		n++
		if n == 3 {
			assert.True(t, s.Cancel(self))
		}
	})

	m.Advance(time.Second)
	assert.Equal(t, 3, n)
	assert.False(t, s.Live(id))
	assert.Equal(t, 0, m.Pending())
}

func TestSetStopIsIdempotentAndFinal(t *testing.T) {
	m := NewManual(epoch)
	s := NewSet(m)
	fired := 0
	s.After(10*time.Millisecond, func() { fired++ })
	s.Every(0, 10*time.Millisecond, func(ID) { fired++ })

	assert.Equal(t, 2, s.Stop())
	assert.Equal(t, 0, s.Stop())
	assert.Equal(t, 0, s.Active())

	assert.Zero(t, s.After(time.Millisecond, func() { fired++ }))
	assert.Zero(t, s.Every(0, time.Millisecond, func(ID) { fired++ }))

	m.Advance(time.Second)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 0, m.Pending())
	assert.Len(t, s.IDs(), 2)
}

func TestSetIDsInCreationOrder(t *testing.T) {
	s := NewSet(NewManual(epoch))
	a := s.After(time.Second, func() {})
	b := s.Every(time.Second, time.Second, func(ID) {})
	c := s.After(time.Second, func() {})
	assert.Equal(t, []ID{a, b, c}, s.IDs())
}

func TestRealClockAfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real().AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for real timer")
	}
}
