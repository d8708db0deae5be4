package cpu

import (
	"errors"
	"fmt"
	"log"
)

// Color is an opaque RGB pixel.
type Color struct {
	R, G, B uint8
}

// RGBA implements image/color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	a = 0xffff
	return
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// VideoOp is a video opcode identity. Video opcodes have their own
// namespace, distinct from CodeOp.
type VideoOp uint8

const PALETTE_SIZE = 256

const (
	VIDEO_OP_FILL  = VideoOp(0x01) // fill
	VIDEO_OP_CLEAR = VideoOp(0x02) // clear
)

var videoOperands = map[VideoOp]int{
	VIDEO_OP_FILL:  2,
	VIDEO_OP_CLEAR: 0,
}

// Operands returns the number of operand bytes following the video opcode.
func (op VideoOp) Operands() int {
	return videoOperands[op]
}

// VideoCode is a decoded video instruction.
//
//	fill COLOR COUNT ; COUNT pixels of Palette[COLOR] from the cursor
//	clear            ; every pixel to Baseline, cursor to 0
type VideoCode struct {
	Op   VideoOp
	Args [2]uint8
}

// MakeVideoCode builds a video instruction.
func MakeVideoCode(op VideoOp, args ...uint8) (code VideoCode) {
	code.Op = op
	copy(code.Args[:], args)
	return
}

// Bytes returns the video instruction encoding.
func (code VideoCode) Bytes() []byte {
	return append([]byte{uint8(code.Op)}, code.Args[:code.Op.Operands()]...)
}

func (code VideoCode) String() string {
	switch code.Op {
	case VIDEO_OP_FILL:
		return fmt.Sprintf("%v %d %d", code.Op, code.Args[0], code.Args[1])
	default:
		return code.Op.String()
	}
}

// DecodeVideo decodes the video instruction at pos in stream, returning
// the instruction and its encoded length.
func DecodeVideo(stream []byte, pos int) (code VideoCode, n int, err error) {
	if pos >= len(stream) {
		err = ErrVideoShort
		return
	}

	code.Op = VideoOp(stream[pos])
	count, ok := videoOperands[code.Op]
	if !ok {
		err = ErrVideoOpcode
		return
	}

	n = 1 + count
	if pos+n > len(stream) {
		n = 0
		err = ErrVideoShort
		return
	}

	copy(code.Args[:], stream[pos+1:pos+n])
	return
}

// Video is the video memory: a fixed size buffer of pixels written by
// video instructions and read by display adapters.
type Video struct {
	Verbose bool

	Width    int
	Height   int
	Baseline Color               // Colour of a cleared pixel.
	Palette  [PALETTE_SIZE]Color // Colours selectable by fill.
	Cursor   int                 // Next pixel written by fill.
	Pixel    []Color
}

// NewVideo creates a cleared video memory of width x height pixels.
// Negative sizes are treated as 0.
func NewVideo(width, height int) (video *Video) {
	width = max(width, 0)
	height = max(height, 0)

	video = &Video{
		Width:   width,
		Height:  height,
		Palette: DefaultPalette(),
		Pixel:   make([]Color, width*height),
	}

	video.Clear()

	return
}

// Len returns the pixel count.
func (video *Video) Len() int {
	return len(video.Pixel)
}

// Clear sets every pixel to the baseline colour and rewinds the cursor.
func (video *Video) Clear() {
	for n := range video.Pixel {
		video.Pixel[n] = video.Baseline
	}
	video.Cursor = 0
}

// Fill writes count pixels of a palette colour from the cursor, wrapping
// at the end of the buffer.
func (video *Video) Fill(color uint8, count uint8) {
	if len(video.Pixel) == 0 {
		return
	}

	value := video.Palette[color]
	for range int(count) {
		video.Pixel[video.Cursor] = value
		video.Cursor++
		if video.Cursor == len(video.Pixel) {
			video.Cursor = 0
		}
	}
}

// Execute executes a single video instruction.
func (video *Video) Execute(code VideoCode) (err error) {
	if video.Verbose {
		log.Printf("video %04x: %v", video.Cursor, code)
	}

	switch code.Op {
	case VIDEO_OP_FILL:
		video.Fill(code.Args[0], code.Args[1])
	case VIDEO_OP_CLEAR:
		video.Clear()
	default:
		err = ErrVideoOpcode
	}

	return
}

// Run executes a display list of video instructions, stopping at the
// first error.
func (video *Video) Run(stream []byte) (err error) {
	for pos := 0; pos < len(stream); {
		var code VideoCode
		var n int
		code, n, err = DecodeVideo(stream, pos)
		if err == nil {
			err = video.Execute(code)
		}
		if err != nil {
			err = errors.Join(err, errors.New(f("display list offset %d", pos)))
			return
		}
		pos += n
	}

	return
}

// Snapshot returns a copy of the pixels.
func (video *Video) Snapshot() []Color {
	frame := make([]Color, len(video.Pixel))
	copy(frame, video.Pixel)
	return frame
}

// Frame returns the pixels as flat RGB triples.
func (video *Video) Frame() (frame []byte) {
	frame = make([]byte, 0, 3*len(video.Pixel))
	for _, c := range video.Pixel {
		frame = append(frame, c.R, c.G, c.B)
	}
	return
}

// DefaultPalette returns the 256 colour xterm palette: 16 system colours,
// a 6x6x6 colour cube, and 24 greys.
func DefaultPalette() (palette [PALETTE_SIZE]Color) {
	system := [16]Color{
		{0x00, 0x00, 0x00}, {0x80, 0x00, 0x00}, {0x00, 0x80, 0x00}, {0x80, 0x80, 0x00},
		{0x00, 0x00, 0x80}, {0x80, 0x00, 0x80}, {0x00, 0x80, 0x80}, {0xc0, 0xc0, 0xc0},
		{0x80, 0x80, 0x80}, {0xff, 0x00, 0x00}, {0x00, 0xff, 0x00}, {0xff, 0xff, 0x00},
		{0x00, 0x00, 0xff}, {0xff, 0x00, 0xff}, {0x00, 0xff, 0xff}, {0xff, 0xff, 0xff},
	}
	copy(palette[:], system[:])

	level := [6]uint8{0x00, 0x5f, 0x87, 0xaf, 0xd7, 0xff}
	for n := range 216 {
		palette[16+n] = Color{level[n/36], level[(n/6)%6], level[n%6]}
	}

	for n := range 24 {
		grey := uint8(8 + 10*n)
		palette[232+n] = Color{grey, grey, grey}
	}

	return
}
