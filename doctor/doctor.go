// Package doctor runs interactive checks of the pieces a listening session
// depends on: configuration, the global hotkey and the microphone level.
package doctor

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"earshot/audio"
	"earshot/config"
	"earshot/hotkey"
	"earshot/loudness"
	"earshot/shutdown"
	"earshot/speaking"
	"earshot/timer"
)

const (
	hotkeyTimeout = 10 * time.Second
	micWindow     = 3 * time.Second
)

type check struct {
	name string
	run  func(out io.Writer) bool
}

// Run executes the checks against cfg and returns an exit code (0=all pass, 1=any fail).
func Run(cfg config.Config) int {
	resetTerminal()
	setupInterruptHandler()

	out := os.Stdout
	fmt.Fprintln(out, "earshot doctor - interactive system diagnostics")
	fmt.Fprintln(out, "===============================================")

	ok := runChecks(out, []check{
		{"Configuration", func(w io.Writer) bool { return checkConfig(w, cfg) }},
		{"Hotkey detection", checkHotkey},
		{"Microphone level", func(w io.Writer) bool { return checkMicrophone(w, cfg) }},
	})

	fmt.Fprintln(out)
	if !ok {
		fmt.Fprintln(out, "Some checks failed. See details above.")
		return 1
	}
	fmt.Fprintln(out, "All checks passed!")
	return 0
}

// runChecks stops at the first failing check; later ones depend on it.
func runChecks(out io.Writer, checks []check) bool {
	for i, c := range checks {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "[%d/%d] %s\n", i+1, len(checks), c.name)
		if !c.run(out) {
			return false
		}
	}
	return true
}

func checkConfig(out io.Writer, cfg config.Config) bool {
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(out, "  FAIL: %v\n", err)
		return false
	}
	det := cfg.Indicator.Detector
	fmt.Fprintf(out, "  PASS: gain %.1f, thresholds %.2f then %.2f after %v\n",
		cfg.Gain, det.ElevatedThreshold, det.SteadyThreshold, det.Grace)
	return true
}

func checkHotkey(out io.Writer) bool {
	info, err := hotkey.Diagnose()
	if err != nil {
		fmt.Fprintf(out, "  FAIL: %v\n", err)
		return false
	}
	fmt.Fprintf(out, "  %s\n", info)
	fmt.Fprintf(out, "Press %s...\n", hotkey.Combo)

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		fmt.Fprintf(out, "  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Fprintln(out, "  PASS: hotkey detected")
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// The evdev reader can leave the terminal in raw mode.
		resetTerminal()
		return true
	case <-time.After(hotkeyTimeout):
		fmt.Fprintln(out, "  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkMicrophone(out io.Writer, cfg config.Config) bool {
	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Fprintf(out, "  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	device := audio.FindDevice(ctx, cfg.Device)
	capture, err := ctx.NewCapture(device, audio.DefaultCaptureConfig())
	if err != nil {
		fmt.Fprintf(out, "  FAIL: cannot open microphone: %v\n", err)
		return false
	}
	defer capture.Close()

	fmt.Fprintf(out, "Using %s. Speak for %v...\n", capture.DeviceName(), micWindow)
	res, err := measure(capture, cfg, micWindow)
	if err != nil {
		fmt.Fprintf(out, "  FAIL: %v\n", err)
		return false
	}
	return report(out, res, cfg)
}

type levelResult struct {
	peak    float64
	samples int
	spoke   bool
}

// measure runs capture through a meter and a fresh speaking detector for d.
func measure(capture audio.CaptureDevice, cfg config.Config, d time.Duration) (levelResult, error) {
	hub := loudness.NewHub()
	meter := audio.NewMeter(hub, cfg.Gain)
	det := speaking.New(timer.Real(), cfg.Indicator.Detector, zerolog.Nop())

	var res levelResult
	levels := make(chan float64, 64)
	sub := hub.Subscribe(func(s loudness.Sample) {
		select {
		case levels <- s.Level:
		default:
		}
	})
	defer sub.Unsubscribe()

	det.Start(hub)
	defer det.Stop()

	capture.SetCallback(meter.Write)
	defer capture.ClearCallback()
	if err := capture.Start(); err != nil {
		return res, fmt.Errorf("starting capture: %w", err)
	}

	deadline := time.After(d)
	for done := false; !done; {
		select {
		case l := <-levels:
			res.samples++
			res.peak = max(res.peak, l)
		case <-deadline:
			done = true
		}
	}
	capture.Stop()
	res.spoke = det.IsSpeaking()
	return res, nil
}

func report(out io.Writer, res levelResult, cfg config.Config) bool {
	if res.samples == 0 {
		fmt.Fprintln(out, "  FAIL: no audio captured")
		return false
	}
	fmt.Fprintf(out, "  Peak level %.2f over %d buffers\n", res.peak, res.samples)
	if !res.spoke {
		fmt.Fprintf(out, "  FAIL: no voice above %.2f (raise -gain, now %.1f)\n",
			cfg.Indicator.Detector.SteadyThreshold, cfg.Gain)
		return false
	}
	fmt.Fprintln(out, "  PASS: voice detected")
	return true
}

func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted")
		os.Exit(1)
	}()
}
