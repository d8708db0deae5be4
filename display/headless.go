package display

import (
	"github.com/ezrec/ucvm/cpu"
)

// Headless is a display without output. It counts frames, and keeps a copy
// of the last one.
type Headless struct {
	Width  int
	Height int

	Frames int
	Last   []cpu.Color
}

var _ Display = (*Headless)(nil)

func (h *Headless) Render(frame []cpu.Color) (err error) {
	err = checkFrame(frame, h.Width, h.Height)
	if err != nil {
		return
	}

	h.Frames++
	h.Last = append(h.Last[:0], frame...)

	return
}
