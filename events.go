package main

// EventSink abstracts the display layer so both the Bubble Tea TUI and the
// fyne GUI receive the same listening events. The dots themselves are drawn
// from the shared row, not pushed through here.
type EventSink interface {
	ListeningStart()
	ListeningStop()
	Speaking()
	NoSpeech(active bool)
	DeviceLine(text string)
}

// sink is the TUI unless the GUI or tray replaced it at startup.
var sink EventSink = tuiSink{}

type tuiSink struct{}

func (tuiSink) ListeningStart()        { tuiSend(ListeningStartMsg{}) }
func (tuiSink) ListeningStop()         { tuiSend(ListeningStopMsg{}) }
func (tuiSink) Speaking()              { tuiSend(SpeakingMsg{}) }
func (tuiSink) NoSpeech(active bool)   { tuiSend(NoSpeechMsg{Active: active}) }
func (tuiSink) DeviceLine(text string) { tuiSend(DeviceLineMsg{Text: text}) }

// multiSink fans every event out to each sink in order.
type multiSink []EventSink

func (m multiSink) ListeningStart() {
	for _, s := range m {
		s.ListeningStart()
	}
}

func (m multiSink) ListeningStop() {
	for _, s := range m {
		s.ListeningStop()
	}
}

func (m multiSink) Speaking() {
	for _, s := range m {
		s.Speaking()
	}
}

func (m multiSink) NoSpeech(active bool) {
	for _, s := range m {
		s.NoSpeech(active)
	}
}

func (m multiSink) DeviceLine(text string) {
	for _, s := range m {
		s.DeviceLine(text)
	}
}
