package display

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"golang.org/x/image/bmp"

	"github.com/ezrec/ucvm/cpu"
)

var (
	red   = cpu.Color{R: 0xff}
	green = cpu.Color{G: 0xff}
	blue  = cpu.Color{B: 0xff}
	white = cpu.Color{R: 0xff, G: 0xff, B: 0xff}
)

// testFrame is a 3x2 frame.
func testFrame() []cpu.Color {
	return []cpu.Color{
		red, green, blue,
		white, {}, red,
	}
}

// fromImage reads the pixels back out of an image.
func fromImage(img image.Image) (frame []cpu.Color) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			frame = append(frame, cpu.Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)})
		}
	}
	return
}

func TestToImage(t *testing.T) {
	assert := assert.New(t)

	img, err := ToImage(testFrame(), 3, 2)
	if !assert.NoError(err) {
		return
	}

	assert.Equal(image.Rect(0, 0, 3, 2), img.Bounds())
	if diff := cmp.Diff(testFrame(), fromImage(img)); diff != "" {
		t.Errorf("ToImage() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(uint8(0xff), img.Pix[3])

	_, err = ToImage(testFrame(), 2, 2)
	assert.ErrorIs(err, ErrFrameSize)
}

func TestHeadless(t *testing.T) {
	assert := assert.New(t)

	h := &Headless{Width: 3, Height: 2}

	frame := testFrame()
	assert.NoError(h.Render(frame))
	assert.NoError(h.Render(frame))
	assert.Equal(2, h.Frames)

	// The kept frame is a copy.
	frame[0] = white
	if diff := cmp.Diff(testFrame(), h.Last); diff != "" {
		t.Errorf("Last mismatch (-want +got):\n%s", diff)
	}

	assert.ErrorIs(h.Render(frame[:5]), ErrFrameSize)
	assert.Equal(2, h.Frames)
}

func TestBitmap(t *testing.T) {
	assert := assert.New(t)

	buf := &bytes.Buffer{}
	b := &Bitmap{Width: 3, Height: 2, Writer: buf}
	if !assert.NoError(b.Render(testFrame())) {
		return
	}

	img, err := bmp.Decode(buf)
	if !assert.NoError(err) {
		return
	}

	assert.Equal(image.Rect(0, 0, 3, 2), img.Bounds())
	if diff := cmp.Diff(testFrame(), fromImage(img)); diff != "" {
		t.Errorf("bitmap mismatch (-want +got):\n%s", diff)
	}

	assert.ErrorIs(b.Render(nil), ErrFrameSize)
}

func TestBitmapScale(t *testing.T) {
	assert := assert.New(t)

	buf := &bytes.Buffer{}
	b := &Bitmap{Width: 3, Height: 2, Scale: 2, Writer: buf}
	if !assert.NoError(b.Render(testFrame())) {
		return
	}

	img, err := bmp.Decode(buf)
	if !assert.NoError(err) {
		return
	}

	assert.Equal(image.Rect(0, 0, 6, 4), img.Bounds())

	expected := []cpu.Color{
		red, red, green, green, blue, blue,
		red, red, green, green, blue, blue,
		white, white, {}, {}, red, red,
		white, white, {}, {}, red, red,
	}
	if diff := cmp.Diff(expected, fromImage(img)); diff != "" {
		t.Errorf("scaled bitmap mismatch (-want +got):\n%s", diff)
	}
}

func TestTerminal(t *testing.T) {
	assert := assert.New(t)

	buf := &bytes.Buffer{}
	term := &Terminal{Width: 3, Height: 2, Writer: buf}
	assert.Equal(1, term.Rows())

	assert.NoError(term.Render(testFrame()))
	assert.Equal(3, strings.Count(buf.String(), HALF_BLOCK))
	assert.True(strings.HasSuffix(buf.String(), "\n"))

	// Odd heights leave the bottom half of the last line unset.
	term = &Terminal{Width: 2, Height: 3}
	assert.Equal(2, term.Rows())

	text, err := term.View([]cpu.Color{red, red, green, green, blue, blue})
	assert.NoError(err)
	lines := strings.Split(text, "\n")
	assert.Equal(2, len(lines))
	for _, line := range lines {
		assert.Equal(2, strings.Count(line, HALF_BLOCK))
	}

	_, err = term.View(testFrame())
	assert.ErrorIs(err, ErrFrameSize)
}

func TestDisplayVideo(t *testing.T) {
	assert := assert.New(t)

	video := cpu.NewVideo(4, 2)
	assert.NoError(video.Run([]byte{0x01, 9, 3, 0x01, 15, 1}))

	h := &Headless{Width: video.Width, Height: video.Height}
	assert.NoError(h.Render(video.Snapshot()))

	expected := []cpu.Color{red, red, red, white, {}, {}, {}, {}}
	if diff := cmp.Diff(expected, h.Last); diff != "" {
		t.Errorf("video frame mismatch (-want +got):\n%s", diff)
	}
}
