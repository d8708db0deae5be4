// Package monitor is an interactive terminal front end for the emulator.
package monitor

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ezrec/ucvm/config"
	"github.com/ezrec/ucvm/display"
	"github.com/ezrec/ucvm/emulator"
)

const (
	HISTORY_SIZE = 12 // Instructions kept in the history.
	MEMORY_ROWS  = 8  // Rows of the memory window.
	MEMORY_COLS  = 8  // Bytes per memory window row.
)

type tickMsg time.Time

// Model is the bubbletea model of a monitored emulator.
type Model struct {
	emu    *emulator.Emulator
	cfg    config.Machine
	screen *display.Terminal

	running bool
	history []string
	status  string
	err     error
}

// New creates a monitor for an emulator, paused at its current state.
func New(emu *emulator.Emulator, cfg config.Machine) Model {
	return Model{
		emu: emu,
		cfg: cfg,
		screen: &display.Terminal{
			Width:  emu.Video.Width,
			Height: emu.Video.Height,
		},
		history: make([]string, 0, HISTORY_SIZE),
		status:  "paused",
	}
}

func (m Model) tick() tea.Cmd {
	rate := max(m.cfg.FrameRate, 1)
	return tea.Tick(time.Second/time.Duration(rate), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "s":
			if !m.running {
				m.step()
			}
		case " ":
			if m.running {
				m.running = false
				m.status = "paused"
			} else if !m.emu.Halted && m.err == nil {
				m.running = true
				m.status = "running"
			}
		case "r":
			m.running = false
			m.history = m.history[:0]
			m.err = m.emu.Reset()
			m.status = "reset"
		}
	case tickMsg:
		if m.running {
			for range max(m.cfg.StepsPerFrame, 1) {
				if !m.step() {
					break
				}
			}
		}
		return m, m.tick()
	}
	return m, nil
}

// step executes a single instruction, and returns false when execution
// cannot continue.
func (m *Model) step() (ok bool) {
	if m.err != nil {
		return
	}

	if m.emu.Halted {
		m.running = false
		m.status = "halted"
		return
	}

	pc := m.emu.Pc
	text := fmt.Sprintf("%02X: %v", pc, m.emu.Decode())

	done, err := m.emu.Tick()
	if err != nil {
		m.err = err
		m.running = false
		m.status = "stopped"
		return
	}

	if len(m.history) == HISTORY_SIZE {
		m.history = append(m.history[:0], m.history[1:]...)
	}
	m.history = append(m.history, text)

	if done {
		m.running = false
		m.status = "halted"
		return
	}

	ok = true
	return
}

func (m Model) buildInstructionHistory() string {
	var stateBuilder strings.Builder
	curr := len(m.history) - 1
	for i, text := range m.history {
		if curr != i {
			fmt.Fprintf(&stateBuilder, "   %s\n", text)
		} else {
			fmt.Fprintf(&stateBuilder, "*  %s\n", text)
		}
	}
	return stateBuilder.String()
}

// buildMemoryState shows a window of general memory around the program
// counter. The byte at pc is bracketed.
func (m Model) buildMemoryState() string {
	var stateBuilder strings.Builder

	pc := m.emu.Pc
	bottom := (pc &^ (MEMORY_COLS - 1)) - MEMORY_COLS*2
	for row := range MEMORY_ROWS {
		addr := bottom + uint8(row*MEMORY_COLS)
		fmt.Fprintf(&stateBuilder, "%02X:", addr)
		for col := range MEMORY_COLS {
			at := addr + uint8(col)
			if at == pc {
				fmt.Fprintf(&stateBuilder, "[%02X]", m.emu.Peek(at))
			} else {
				fmt.Fprintf(&stateBuilder, " %02X ", m.emu.Peek(at))
			}
		}
		stateBuilder.WriteString("\n")
	}

	return stateBuilder.String()
}

func (m Model) buildStatus() string {
	line := fmt.Sprintf("%s, %d ticks, line %d", m.status, m.emu.Ticks, m.emu.LineNo())
	if m.err != nil {
		return statusStyle.Render(line) + "\n" + errorStyle.Render(m.err.Error())
	}
	return statusStyle.Render(line)
}

func (m Model) View() string {
	titleContent := titleStyle.
		Align(lipgloss.Left).
		Render("μCVM monitor")

	frame, err := m.screen.View(m.emu.Video.Snapshot())
	if err != nil {
		frame = err.Error()
	}

	regContent := titleStyle.Render("Registers") + "\n" + boxStyle.Render(m.emu.Cpu.String())
	instContent := titleStyle.Render("Instruction History") + "\n" + boxStyle.Render(m.buildInstructionHistory())
	memContent := titleStyle.Render("Memory") + "\n" + boxStyle.Width(40).Render(m.buildMemoryState())
	videoContent := titleStyle.Render("Video") + "\n" + frame

	cmd := titleStyle.Render("Commands") + "\n" + boxStyle.Width(40).Height(1).Render("(q)uit (s)tep (r)eset (space) run")

	mainArea := lipgloss.JoinHorizontal(lipgloss.Top, regContent, instContent, memContent)

	return lipgloss.JoinVertical(lipgloss.Left, titleContent, mainArea, videoContent, m.buildStatus(), cmd)
}

// Run runs the monitor on the terminal until the user quits.
func Run(emu *emulator.Emulator, cfg config.Machine) (err error) {
	p := tea.NewProgram(New(emu, cfg), tea.WithAltScreen())
	_, err = p.Run()
	return
}
