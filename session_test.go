package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earshot/audio"
	"earshot/dots"
	"earshot/hotkey"
	"earshot/indicator"
	"earshot/loudness"
	"earshot/timer"
)

type recordingSink struct {
	started  chan struct{}
	speaking chan struct{}
	stopped  chan struct{}
	noSpeech chan bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		started:  make(chan struct{}, 4),
		speaking: make(chan struct{}, 4),
		stopped:  make(chan struct{}, 4),
		noSpeech: make(chan bool, 4),
	}
}

func (r *recordingSink) ListeningStart()   { r.started <- struct{}{} }
func (r *recordingSink) ListeningStop()    { r.stopped <- struct{}{} }
func (r *recordingSink) Speaking()         { r.speaking <- struct{}{} }
func (r *recordingSink) NoSpeech(v bool)   { r.noSpeech <- v }
func (r *recordingSink) DeviceLine(string) {}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func newTestListener(events EventSink) (*listener, *timer.Manual, *dots.Row) {
	clock := timer.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	r := dots.NewRow()
	r.Attach()
	l := newListener(indicator.DefaultConfig(), audio.DefaultGain, false, r, events)
	l.clock = clock
	l.logger = zerolog.Nop()
	return l, clock, r
}

func TestListenSessionLifecycle(t *testing.T) {
	events := newRecordingSink()
	l, clock, r := newTestListener(events)
	capture, err := audio.NewFakeContextPCM(nil, false).NewCapture(nil, audio.DefaultCaptureConfig())
	require.NoError(t, err)

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- l.listen(capture, stop, alwaysToggle) }()
	waitFor(t, events.started, "listening start")

	// The start beep is ignored during the grace period.
	clock.Advance(100 * time.Millisecond)
	l.hub.Publish(loudness.Sample{Level: 0.9, At: clock.Now()})
	assert.False(t, r.Attr(dots.AttrSpeaking))

	clock.Advance(300 * time.Millisecond)
	l.hub.Publish(loudness.Sample{Level: 0.5, At: clock.Now()})
	waitFor(t, events.speaking, "speaking")
	assert.True(t, r.Attr(dots.AttrSpeaking))

	close(stop)
	require.NoError(t, <-done)
	waitFor(t, events.stopped, "listening stop")

	assert.False(t, r.Attr(dots.AttrSpeaking), "row is reset after the session")
	assert.Zero(t, clock.Pending(), "no timers survive the session")
	assert.Equal(t, 1, l.sessions())
}

func TestListenQuietToggleSessionCloses(t *testing.T) {
	events := newRecordingSink()
	l, clock, _ := newTestListener(events)
	capture, err := audio.NewFakeContextPCM(nil, false).NewCapture(nil, audio.DefaultCaptureConfig())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- l.listen(capture, make(chan struct{}), alwaysToggle) }()
	waitFor(t, events.started, "listening start")

	clock.Advance(quietWarnEvery)
	select {
	case v := <-events.noSpeech:
		assert.True(t, v)
	default:
		t.Fatal("expected a no-speech warning")
	}

	clock.Advance(quietAutoClose - quietWarnEvery)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("toggle session did not close itself")
	}
	waitFor(t, events.stopped, "listening stop")
	assert.Zero(t, clock.Pending())
}

func TestListenQuietHoldSessionStaysOpen(t *testing.T) {
	events := newRecordingSink()
	l, clock, _ := newTestListener(events)
	capture, err := audio.NewFakeContextPCM(nil, false).NewCapture(nil, audio.DefaultCaptureConfig())
	require.NoError(t, err)

	stop := make(chan struct{})
	done := make(chan error, 1)
	hold := func() bool { return false }
	go func() { done <- l.listen(capture, stop, hold) }()
	waitFor(t, events.started, "listening start")

	clock.Advance(2 * quietAutoClose)
	select {
	case <-done:
		t.Fatal("hold session closed without a key release")
	default:
	}

	close(stop)
	require.NoError(t, <-done)
}

func TestListenUnavailableRow(t *testing.T) {
	events := newRecordingSink()
	l, _, r := newTestListener(events)
	r.Detach()
	capture, err := audio.NewFakeContextPCM(nil, false).NewCapture(nil, audio.DefaultCaptureConfig())
	require.NoError(t, err)

	err = l.listen(capture, make(chan struct{}), alwaysToggle)
	require.Error(t, err)
	assert.Zero(t, l.sessions())
	assert.Zero(t, l.hub.Len(), "nothing stays subscribed")
}

func TestMergeStop(t *testing.T) {
	a := make(chan struct{}, 1)
	b := make(chan struct{}, 1)
	out := mergeStop(a, nil, b)

	select {
	case <-out:
		t.Fatal("closed before any source fired")
	default:
	}
	b <- struct{}{}
	waitFor(t, out, "merged stop")
}

func TestScriptSinkAndCommands(t *testing.T) {
	var out bytes.Buffer
	s := newScriptSink(&out)
	s.ListeningStart()
	s.Speaking()
	s.ListeningStop()

	select {
	case <-toggleChan:
	default:
	}
	script := strings.NewReader("START\nWAIT_SPEAKING\nWAIT\nBOGUS\nQUIT\nSTOP\n")
	runScript(script, s, hotkey.NewFake(), nil)

	select {
	case <-toggleChan:
	default:
		t.Fatal("START should request a toggle")
	}
	assert.Equal(t, "LISTENING\nSPEAKING\nSTOPPED\nUNKNOWN BOGUS\n", out.String())
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := newRecordingSink(), newRecordingSink()
	m := multiSink{a, b}
	m.ListeningStart()
	m.NoSpeech(true)
	m.Speaking()
	m.ListeningStop()

	for _, r := range []*recordingSink{a, b} {
		waitFor(t, r.started, "start")
		assert.True(t, <-r.noSpeech)
		waitFor(t, r.speaking, "speaking")
		waitFor(t, r.stopped, "stop")
	}
}
