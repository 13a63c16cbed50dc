package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earshot/dots"
)

func glyphsPerLine(s string) []int {
	lines := strings.Split(s, "\n")
	out := make([]int, len(lines))
	for i, l := range lines {
		out[i] = strings.Count(l, dotGlyph)
	}
	return out
}

func TestRenderDotsAtRest(t *testing.T) {
	counts := glyphsPerLine(renderDots(dots.NewRow().Snapshot(), tuiStateIdle))
	require.Len(t, counts, gridHeight)
	for y, n := range counts {
		if y == gridCenter {
			assert.Equal(t, dots.Count, n)
		} else {
			assert.Zero(t, n, "line %d", y)
		}
	}
}

func TestRenderDotsOffsetAndScale(t *testing.T) {
	row := dots.NewRow()
	ds := row.Dots()
	ds[1].SetOffset(0, 2)
	ds[3].SetScale(2)

	counts := glyphsPerLine(renderDots(row.Snapshot(), tuiStateListening))
	// dot 3 spans center±2, dot 1 sits two lines down, dots 0 and 2 at center.
	assert.Equal(t, []int{0, 0, 1, 1, 3, 1, 2, 0, 0}, counts)
}

func TestRenderDotsClipsToGrid(t *testing.T) {
	row := dots.NewRow()
	row.Dots()[0].SetOffset(0, -40)
	counts := glyphsPerLine(renderDots(row.Snapshot(), tuiStateIdle))
	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, dots.Count-1, total)
}

func TestTUIModelStates(t *testing.T) {
	var m tea.Model = tuiModel{row: dots.NewRow()}

	m, _ = m.Update(ListeningStartMsg{})
	assert.Equal(t, tuiStateListening, m.(tuiModel).state)
	assert.Equal(t, 1, m.(tuiModel).sessions)

	m, _ = m.Update(SpeakingMsg{})
	assert.Equal(t, tuiStateSpeaking, m.(tuiModel).state)

	m, _ = m.Update(ListeningStopMsg{})
	assert.Equal(t, tuiStateIdle, m.(tuiModel).state)

	// A late speaking event after stop does not revive the session.
	m, _ = m.Update(SpeakingMsg{})
	assert.Equal(t, tuiStateIdle, m.(tuiModel).state)

	m, _ = m.Update(DeviceLineMsg{Text: "mic: USB Mic"})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Contains(t, m.View(), "mic: USB Mic")
}

func TestTUISpaceRequestsToggle(t *testing.T) {
	select {
	case <-toggleChan:
	default:
	}
	m := tuiModel{row: dots.NewRow()}
	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	select {
	case <-toggleChan:
	default:
		t.Fatal("expected a toggle request")
	}
}

func TestTUITickAdvancesRow(t *testing.T) {
	row := dots.NewRow()
	d := row.Dots()[0]
	d.SetTransition(4 * tuiFrame)
	d.SetOffset(0, 2)

	m := tuiModel{row: row}
	_, cmd := m.Update(tickMsg{})
	assert.NotNil(t, cmd)
	assert.InDelta(t, 0.5, row.Snapshot()[0].Y, 1e-9)
}

func TestTUINoSpeechWarning(t *testing.T) {
	var m tea.Model = tuiModel{row: dots.NewRow()}
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(ListeningStartMsg{})
	m, _ = m.Update(NoSpeechMsg{Active: true})
	assert.Contains(t, m.View(), "no voice detected")

	m, _ = m.Update(NoSpeechMsg{Active: false})
	assert.NotContains(t, m.View(), "no voice detected")

	m, _ = m.Update(NoSpeechMsg{Active: true})
	m, _ = m.Update(SpeakingMsg{})
	assert.NotContains(t, m.View(), "no voice detected", "hidden once speaking")

	m, _ = m.Update(ListeningStopMsg{})
	assert.False(t, m.(tuiModel).noSpeech)
}
