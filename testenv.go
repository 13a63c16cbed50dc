package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"earshot/audio"
	"earshot/beep"
	"earshot/config"
	"earshot/hotkey"
	"earshot/log"
)

// scriptSink prints every event as a line on out so a driving script can
// follow along, and lets WAIT commands block on them.
type scriptSink struct {
	mu  sync.Mutex
	out io.Writer

	speaking chan struct{}
	stopped  chan struct{}
}

func newScriptSink(out io.Writer) *scriptSink {
	return &scriptSink{
		out:      out,
		speaking: make(chan struct{}, 1),
		stopped:  make(chan struct{}, 1),
	}
}

func (s *scriptSink) println(a ...any) {
	s.mu.Lock()
	fmt.Fprintln(s.out, a...)
	s.mu.Unlock()
}

func (s *scriptSink) ListeningStart() { s.println("LISTENING") }

func (s *scriptSink) ListeningStop() {
	s.println("STOPPED")
	notify(s.stopped)
}

func (s *scriptSink) Speaking() {
	s.println("SPEAKING")
	notify(s.speaking)
}

func (s *scriptSink) NoSpeech(active bool) {
	if active {
		s.println("NO_SPEECH")
	} else {
		s.println("NO_SPEECH_CLEAR")
	}
}

func (s *scriptSink) DeviceLine(text string) { s.println("DEVICE", text) }

const scriptWaitTimeout = 10 * time.Second

func waitOrTimeout(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-time.After(scriptWaitTimeout):
		return false
	}
}

// runScript executes driver commands from in until QUIT or EOF.
func runScript(in io.Reader, s *scriptSink, fk *hotkey.FakeHotkey, capture *audio.FakeCapture) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "":
		case "START", "STOP":
			requestToggle()
		case "KEYDOWN":
			fk.SimKeydown()
		case "KEYUP":
			fk.SimKeyup()
		case "WAIT":
			if !waitOrTimeout(s.stopped) {
				s.println("TIMEOUT", cmd)
			}
		case "WAIT_SPEAKING":
			if !waitOrTimeout(s.speaking) {
				s.println("TIMEOUT", cmd)
			}
		case "WAIT_AUDIO_DONE":
			<-capture.AudioDone()
		case "DOTS":
			var b strings.Builder
			b.WriteString("DOTS")
			for _, p := range row.Snapshot() {
				fmt.Fprintf(&b, " %.1f/%.2f", p.TargetY, p.Scale)
			}
			s.println(b.String())
		case "QUIT":
			return
		default:
			if ms, ok := strings.CutPrefix(cmd, "SLEEP "); ok {
				if n, err := strconv.Atoi(ms); err == nil {
					time.Sleep(time.Duration(n) * time.Millisecond)
				}
				continue
			}
			s.println("UNKNOWN", cmd)
		}
	}
}

func runTestMode(wavPath string, cfg config.Config) {
	beep.Disable()
	defer log.Close()

	fakeCtx, err := audio.NewFakeContext(wavPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}
	capture, err := fakeCtx.NewCapture(nil, audio.DefaultCaptureConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()

	s := newScriptSink(os.Stdout)
	sink = s
	row.Attach()
	activeListener = newListener(cfg.Indicator, cfg.Gain, false, row, s)

	fk := hotkey.NewFake()
	tg := hotkey.NewToggle(fk, 350*time.Millisecond)
	defer tg.Close()

	go func() {
		runScript(os.Stdin, s, fk, capture.(*audio.FakeCapture))
		log.SessionEnd(activeListener.sessions())
		log.Close()
		os.Exit(0)
	}()

	// Same loop shape as run(), minus devices.
	for {
		select {
		case <-tg.Start():
			isToggle := func() bool { return tg.Mode() == hotkey.ModeToggle }
			if err := activeListener.listen(capture, mergeStop(tg.Stop(), toggleChan), isToggle); err != nil {
				log.Errorf("listening error: %v", err)
			}
		case <-toggleChan:
			if err := activeListener.listen(capture, mergeStop(toggleChan, tg.Start()), alwaysToggle); err != nil {
				log.Errorf("listening error: %v", err)
			}
		}
	}
}
