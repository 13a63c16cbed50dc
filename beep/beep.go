// Package beep plays the short cue tones around a listening session.
//
// The start tone goes out through the speakers right as capture begins,
// so the microphone hears it. The speaking detector's elevated threshold
// during its grace period exists because of it.
package beep

import (
	"math"
	"sync"
	"sync/atomic"
)

var disabled atomic.Bool

// Disable silences every tone, e.g. in headless test mode.
func Disable() { disabled.Store(true) }

const (
	sampleRate = 44100

	// Start: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// End: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Error: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

var (
	startSamples []int16
	endSamples   []int16
	errorSamples []int16
	soundOnce    sync.Once
)

func initSound() {
	startSamples = generateTick(startFreq, 0.12, startVolume, startDecay)
	endSamples = generateTick(endFreq, 0.2, endVolume, endDecay)
	errorSamples = generateDoubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay)
	initOutput()
}

// generateTick returns a mono sine with an exponential decay envelope.
func generateTick(freq, duration, volume, decay float64) []int16 {
	n := int(sampleRate * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / sampleRate
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(freq, beepDur, gapDur, volume, decay float64) []int16 {
	tick := generateTick(freq, beepDur, volume, decay)
	gap := make([]int16, int(sampleRate*gapDur))
	out := make([]int16, 0, len(tick)*2+len(gap))
	out = append(out, tick...)
	out = append(out, gap...)
	return append(out, tick...)
}

// Init prepares the tones and the output device ahead of the first play.
func Init() {
	soundOnce.Do(initSound)
}

func PlayStart() { play(&startSamples) }
func PlayEnd()   { play(&endSamples) }
func PlayError() { play(&errorSamples) }

func play(samples *[]int16) {
	if disabled.Load() {
		return
	}
	soundOnce.Do(initSound)
	go playSamples(*samples)
}
