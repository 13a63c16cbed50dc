package audio

import (
	"encoding/binary"
	"math"
	"time"

	"earshot/loudness"
)

// DefaultGain lifts typical speech RMS (around 0.05-0.2 on a laptop mic)
// into the upper half of the 0..1 range.
const DefaultGain = 4.0

// Meter turns capture callbacks into loudness samples. Its Write method is
// a DataCallback.
type Meter struct {
	hub  *loudness.Hub
	gain float64
	now  func() time.Time
}

func NewMeter(hub *loudness.Hub, gain float64) *Meter {
	if gain <= 0 {
		gain = DefaultGain
	}
	return &Meter{hub: hub, gain: gain, now: time.Now}
}

func (m *Meter) Write(data []byte, _ uint32) {
	if len(data) < 2 {
		return
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.hub.Publish(loudness.Sample{
		Level:  min(1, RMS(buf)*m.gain),
		At:     m.now(),
		Buffer: buf,
	})
}

// RMS returns the root mean square of PCM16LE samples, normalized to 0..1.
func RMS(data []byte) float64 {
	n := len(data) / 2
	if n == 0 {
		return 0
	}
	var sumSquares float64
	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(data[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(n))
}
