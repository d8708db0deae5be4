// Package display renders μCVM video frames.
//
// Adapters receive copies of video memory, taken with cpu.Video.Snapshot,
// and never modify engine state.
package display

import (
	"errors"
	"image"

	"github.com/ezrec/ucvm/cpu"
	"github.com/ezrec/ucvm/translate"
)

var f = translate.From

var (
	ErrFrameSize = errors.New(f("frame size does not match display"))
)

// Display is a video frame sink.
type Display interface {
	// Render presents one frame of Width*Height pixels, row major.
	Render(frame []cpu.Color) error
}

// checkFrame verifies the frame pixel count against the display geometry.
func checkFrame(frame []cpu.Color, width, height int) (err error) {
	if len(frame) != width*height {
		err = ErrFrameSize
	}
	return
}

// ToImage converts a frame to an image.
func ToImage(frame []cpu.Color, width, height int) (img *image.RGBA, err error) {
	err = checkFrame(frame, width, height)
	if err != nil {
		return
	}

	img = image.NewRGBA(image.Rect(0, 0, width, height))
	for n, c := range frame {
		img.Pix[n*4+0] = c.R
		img.Pix[n*4+1] = c.G
		img.Pix[n*4+2] = c.B
		img.Pix[n*4+3] = 0xff
	}

	return
}
