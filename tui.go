package main

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"earshot/dots"
	"earshot/hotkey"
)

// TUI message types
type ListeningStartMsg struct{}
type ListeningStopMsg struct{}
type SpeakingMsg struct{}
type NoSpeechMsg struct{ Active bool }
type DeviceLineMsg struct{ Text string }
type tickMsg time.Time

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateListening
	tuiStateSpeaking
)

const tuiFrame = 33 * time.Millisecond

// Dot grid geometry: each offset unit is one line, each dot owns a column.
const (
	gridHeight  = 9
	gridCenter  = gridHeight / 2
	dotColumn   = 4
	scaleLines  = 2.0
	dotGlyph    = "●"
	gridPadding = 2
)

type tuiModel struct {
	row           *dots.Row
	state         tuiState
	sessions      int
	deviceLine    string
	noSpeech      bool
	width, height int
}

var (
	tuiProgram   *tea.Program
	tuiMu        sync.Mutex
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once

	// Space/enter in the TUI and the GUI tray item both toggle listening.
	toggleChan       = make(chan struct{}, 1)
	deviceSelectChan = make(chan struct{}, 1)
)

var (
	dotStyleIdle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	dotStyleListening = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dotStyleSpeaking  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldHelpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
)

func NewTUIProgram(row *dots.Row) *tea.Program {
	return tea.NewProgram(tuiModel{row: row}, tea.WithAltScreen())
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func requestToggle() {
	select {
	case toggleChan <- struct{}{}:
	default:
	}
}

func tuiTick() tea.Cmd {
	return tea.Tick(tuiFrame, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	m.row.Attach()
	tuiReadyOnce.Do(func() { close(tuiReady) })
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.row.Detach()
			return m, tea.Quit
		case " ", "space", "enter":
			requestToggle()
		case "ctrl+g":
			select {
			case deviceSelectChan <- struct{}{}:
			default:
			}
		}

	case tickMsg:
		m.row.Advance(tuiFrame)
		return m, tuiTick()

	case ListeningStartMsg:
		m.state = tuiStateListening
		m.sessions++
		m.noSpeech = false

	case SpeakingMsg:
		if m.state == tuiStateListening {
			m.state = tuiStateSpeaking
		}

	case NoSpeechMsg:
		m.noSpeech = msg.Active

	case ListeningStopMsg:
		m.state = tuiStateIdle
		m.noSpeech = false

	case DeviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var lines []string
	lines = append(lines, renderDots(m.row.Snapshot(), m.state))

	var status string
	switch m.state {
	case tuiStateListening:
		status = dotStyleListening.Bold(true).Render(fmt.Sprintf("● LISTENING #%d", m.sessions))
	case tuiStateSpeaking:
		status = dotStyleSpeaking.Bold(true).Render("● SPEAKING")
	default:
		status = dimStyle.Render("○ STANDBY")
	}
	lines = append(lines, status)
	if m.noSpeech && m.state == tuiStateListening {
		lines = append(lines, warnStyle.Render("  ⚠ no voice detected"))
	}
	if m.deviceLine != "" {
		lines = append(lines, dimStyle.Render(m.deviceLine))
	}
	lines = append(lines, "")
	lines = append(lines,
		boldHelpStyle.Render(hotkey.Combo)+helpStyle.Render(" or space to listen"),
		helpStyle.Render("earshot "+version),
	)

	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

// renderDots draws the row as a character grid. A dot's vertical offset
// moves it by whole lines and its scale stretches it into a bar.
func renderDots(pts []dots.Point, state tuiState) string {
	style := dotStyleIdle
	switch state {
	case tuiStateListening:
		style = dotStyleListening
	case tuiStateSpeaking:
		style = dotStyleSpeaking
	}

	width := gridPadding*2 + dotColumn*len(pts)
	grid := make([][]string, gridHeight)
	for y := range grid {
		grid[y] = make([]string, width)
		for x := range grid[y] {
			grid[y][x] = " "
		}
	}

	for i, p := range pts {
		x := gridPadding + i*dotColumn + dotColumn/2
		y := gridCenter + int(math.Round(p.Y))
		half := int(math.Round((p.Scale - 1) * scaleLines))
		if half < 0 {
			half = 0
		}
		for dy := -half; dy <= half; dy++ {
			if yy := y + dy; yy >= 0 && yy < gridHeight {
				grid[yy][x] = style.Render(dotGlyph)
			}
		}
	}

	rows := make([]string, gridHeight)
	for y := range grid {
		rows[y] = strings.Join(grid[y], "")
	}
	return strings.Join(rows, "\n")
}
