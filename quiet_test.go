package main

import "testing"

func holdMonitor() *quietMonitor {
	return newQuietMonitor(func() bool { return false })
}

func toggleMonitor() *quietMonitor {
	return newQuietMonitor(func() bool { return true })
}

func feedN(m *quietMonitor, speaking bool, n int) QuietEvent {
	var last QuietEvent
	for i := 0; i < n; i++ {
		last = m.Tick(speaking)
	}
	return last
}

func TestQuietWarnAfter8s(t *testing.T) {
	m := holdMonitor()
	for i := 0; i < 79; i++ {
		if ev := m.Tick(false); ev != QuietNone {
			t.Fatalf("unexpected event at tick %d: %d", i, ev)
		}
	}
	if ev := m.Tick(false); ev != QuietWarn {
		t.Fatalf("expected QuietWarn at tick 80, got %d", ev)
	}
}

func TestQuietWarnClearsOnSpeech(t *testing.T) {
	m := holdMonitor()
	feedN(m, false, 80)
	if ev := m.Tick(true); ev != QuietWarnClear {
		t.Fatalf("expected QuietWarnClear, got %d", ev)
	}
	if ev := feedN(m, true, 10); ev != QuietNone {
		t.Fatalf("expected silence after clear, got %d", ev)
	}
}

func TestQuietNothingOnceSpeaking(t *testing.T) {
	m := toggleMonitor()
	m.Tick(true)
	for i := 0; i < 400; i++ {
		if ev := m.Tick(false); ev != QuietNone {
			t.Fatalf("unexpected event %d at tick %d after speech", ev, i)
		}
	}
}

func TestQuietToggleRepeat(t *testing.T) {
	m := toggleMonitor()
	feedN(m, false, 80)
	for i := 0; i < 100; i++ {
		if ev := m.Tick(false); ev == QuietRepeat {
			if i != 79 {
				t.Fatalf("repeat at tick %d, want 79", i)
			}
			return
		}
	}
	t.Fatal("expected QuietRepeat in toggle mode")
}

func TestQuietAutoClosePriorityOverRepeat(t *testing.T) {
	m := toggleMonitor()
	for i := 1; i <= 400; i++ {
		ev := m.Tick(false)
		if ev == QuietAutoClose {
			if i != 300 {
				t.Fatalf("auto-close at tick %d, want 300", i)
			}
			return
		}
		if i >= 300 && ev == QuietRepeat {
			t.Fatalf("QuietRepeat fired at tick %d instead of QuietAutoClose", i)
		}
	}
	t.Fatal("expected QuietAutoClose within 400 ticks")
}

func TestQuietHoldNeverClosesOrRepeats(t *testing.T) {
	m := holdMonitor()
	warns := 0
	for i := 0; i < 400; i++ {
		switch m.Tick(false) {
		case QuietAutoClose, QuietRepeat:
			t.Fatalf("unexpected toggle-only event in hold mode at tick %d", i)
		case QuietWarn:
			warns++
		}
	}
	if warns != 1 {
		t.Fatalf("expected exactly 1 QuietWarn, got %d", warns)
	}
}
