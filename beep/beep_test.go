package beep

import (
	"math"
	"testing"
)

func peak(samples []int16) float64 {
	var p float64
	for _, s := range samples {
		p = math.Max(p, math.Abs(float64(s)))
	}
	return p
}

func TestGenerateTickDecays(t *testing.T) {
	s := generateTick(startFreq, 0.12, startVolume, startDecay)
	if len(s) != int(sampleRate*0.12) {
		t.Fatalf("got %d samples, want %d", len(s), int(sampleRate*0.12))
	}
	head := peak(s[:len(s)/4])
	tail := peak(s[len(s)*3/4:])
	if tail >= head/10 {
		t.Errorf("expected tail peak %.0f to be well below head peak %.0f", tail, head)
	}
	if head > 32767*startVolume {
		t.Errorf("peak %.0f exceeds volume", head)
	}
}

func TestGenerateDoubleBeepHasGap(t *testing.T) {
	tick := generateTick(errorFreq, 0.08, errorVolume, errorDecay)
	s := generateDoubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay)
	gap := int(sampleRate * 0.05)
	if len(s) != len(tick)*2+gap {
		t.Fatalf("got %d samples, want %d", len(s), len(tick)*2+gap)
	}
	if peak(s[len(tick):len(tick)+gap]) != 0 {
		t.Error("expected silence between the two beeps")
	}
}

func TestDisableSkipsPlayback(t *testing.T) {
	Disable()
	// Must return without touching any audio device.
	PlayStart()
	PlayEnd()
	PlayError()
}
