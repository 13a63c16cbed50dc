//go:build !linux

package beep

import (
	"encoding/binary"
	"sync"

	"github.com/gen2brain/malgo"
)

var (
	malgoCtx *malgo.AllocatedContext

	playMu  sync.Mutex
	pending []byte
)

func initOutput() {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return
	}
	malgoCtx = ctx
}

// playSamples starts a playback device for one tone and tears it down once
// the tone has drained.
func playSamples(samples []int16) {
	if malgoCtx == nil || len(samples) == 0 {
		return
	}
	playMu.Lock()
	defer playMu.Unlock()

	pending = make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pending[i*2:], uint16(s))
	}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	drained := make(chan struct{})
	var once sync.Once
	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			n := copy(out, pending)
			pending = pending[n:]
			clear(out[n:])
			if len(pending) == 0 {
				once.Do(func() { close(drained) })
			}
		},
	}
	device, err := malgo.InitDevice(malgoCtx.Context, config, callbacks)
	if err != nil {
		return
	}
	defer device.Uninit()
	if err := device.Start(); err != nil {
		return
	}
	<-drained
	_ = device.Stop()
}
