package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ezrec/ucvm/cpu"
)

const HALF_BLOCK = "▀"

// Terminal renders frames as text, two pixel rows per line using
// coloured upper half blocks.
type Terminal struct {
	Width  int
	Height int
	Writer io.Writer // Output for Render; may be nil when only View is used.
}

var _ Display = (*Terminal)(nil)

// Rows returns the number of text lines of a frame.
func (term *Terminal) Rows() int {
	return (term.Height + 1) / 2
}

// View returns the text of a frame.
func (term *Terminal) View(frame []cpu.Color) (text string, err error) {
	err = checkFrame(frame, term.Width, term.Height)
	if err != nil {
		return
	}

	lines := make([]string, 0, term.Rows())
	for y := 0; y < term.Height; y += 2 {
		var line strings.Builder
		for x := range term.Width {
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(frame[y*term.Width+x].String()))
			if y+1 < term.Height {
				style = style.Background(lipgloss.Color(frame[(y+1)*term.Width+x].String()))
			}
			line.WriteString(style.Render(HALF_BLOCK))
		}
		lines = append(lines, line.String())
	}

	text = strings.Join(lines, "\n")

	return
}

func (term *Terminal) Render(frame []cpu.Color) (err error) {
	text, err := term.View(frame)
	if err != nil {
		return
	}

	_, err = fmt.Fprintln(term.Writer, text)

	return
}
