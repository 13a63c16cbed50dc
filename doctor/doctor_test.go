package doctor

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earshot/audio"
	"earshot/config"
)

func TestRunChecksStopsAtFirstFailure(t *testing.T) {
	var out bytes.Buffer
	var ran []string
	step := func(name string, pass bool) check {
		return check{name, func(io.Writer) bool {
			ran = append(ran, name)
			return pass
		}}
	}

	ok := runChecks(&out, []check{step("one", true), step("two", false), step("three", true)})
	assert.False(t, ok)
	assert.Equal(t, []string{"one", "two"}, ran)
	assert.Contains(t, out.String(), "[2/3] two")
	assert.NotContains(t, out.String(), "three")
}

func TestCheckConfig(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, checkConfig(&out, config.Default()))
	assert.Contains(t, out.String(), "PASS: gain 4.0")

	bad := config.Default()
	bad.Indicator.Detector.SteadyThreshold = 2
	out.Reset()
	assert.False(t, checkConfig(&out, bad))
	assert.Contains(t, out.String(), "FAIL: invalid configuration")
}

// tone returns n frames of a constant PCM16LE value.
func tone(frames int, value int16) []byte {
	buf := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(value))
	}
	return buf
}

func TestMeasureDetectsVoice(t *testing.T) {
	cfg := config.Default()
	cfg.Indicator.Detector.Grace = 10 * time.Millisecond
	capture, err := audio.NewFakeContextPCM(tone(1024*200, 8000), false).
		NewCapture(nil, audio.DefaultCaptureConfig())
	require.NoError(t, err)

	res, err := measure(capture, cfg, 300*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, res.spoke)
	assert.Positive(t, res.samples)
	assert.InDelta(t, 0.98, res.peak, 0.03)
}

func TestMeasureSilence(t *testing.T) {
	cfg := config.Default()
	cfg.Indicator.Detector.Grace = 10 * time.Millisecond
	capture, err := audio.NewFakeContextPCM(nil, false).NewCapture(nil, audio.DefaultCaptureConfig())
	require.NoError(t, err)

	res, err := measure(capture, cfg, 100*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, res.spoke)
	assert.Zero(t, res.peak)
}

func TestReport(t *testing.T) {
	cfg := config.Default()
	var out bytes.Buffer

	assert.False(t, report(&out, levelResult{}, cfg))
	assert.Contains(t, out.String(), "no audio captured")

	out.Reset()
	assert.False(t, report(&out, levelResult{peak: 0.1, samples: 30}, cfg))
	assert.Contains(t, out.String(), "no voice above 0.30")

	out.Reset()
	assert.True(t, report(&out, levelResult{peak: 0.7, samples: 30, spoke: true}, cfg))
	assert.Contains(t, out.String(), "PASS: voice detected")
}
