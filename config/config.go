// Package config describes the μCVM machine configuration, as read from
// a TOML file.
//
//	strict = false
//	steps_per_frame = 64
//	frame_rate = 30
//
//	[video]
//	width = 64
//	height = 32
//	baseline = "#000000"
//	palette = ["#000000", "#ffffff"]
package config

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/ucvm/cpu"
)

const (
	DEFAULT_WIDTH           = 64
	DEFAULT_HEIGHT          = 32
	DEFAULT_BASELINE        = "#000000"
	DEFAULT_STEPS_PER_FRAME = 64
	DEFAULT_FRAME_RATE      = 30
)

// Video is the video memory geometry and colours.
type Video struct {
	Width    int      `toml:"width"`
	Height   int      `toml:"height"`
	Baseline string   `toml:"baseline"`          // Colour of a cleared pixel.
	Palette  []string `toml:"palette,omitempty"` // Overrides the leading default palette entries.
}

// Machine is the configuration of an emulated machine.
type Machine struct {
	Strict        bool  `toml:"strict"`          // Fail on opcode bytes outside the opcode table.
	StepsPerFrame int   `toml:"steps_per_frame"` // Instructions per monitor redraw.
	FrameRate     int   `toml:"frame_rate"`      // Monitor redraws per second.
	Video         Video `toml:"video"`
}

// Default returns the default machine configuration.
func Default() Machine {
	return Machine{
		StepsPerFrame: DEFAULT_STEPS_PER_FRAME,
		FrameRate:     DEFAULT_FRAME_RATE,
		Video: Video{
			Width:    DEFAULT_WIDTH,
			Height:   DEFAULT_HEIGHT,
			Baseline: DEFAULT_BASELINE,
		},
	}
}

// Parse reads a TOML configuration. Keys missing from the input keep
// their default values.
func Parse(r io.Reader) (cfg Machine, err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrConfig, err)
		}
	}()

	cfg = Default()

	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return
	}

	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		err = ErrKey(undecoded[0].String())
		return
	}

	err = cfg.Validate()

	return
}

// Load reads a TOML configuration file.
func Load(path string) (cfg Machine, err error) {
	inf, err := os.Open(path)
	if err != nil {
		err = errors.Join(ErrConfig, err)
		return
	}
	defer inf.Close()

	return Parse(inf)
}

// Marshal writes the configuration as TOML.
func (cfg Machine) Marshal(w io.Writer) (err error) {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate checks the configuration for consistency.
func (cfg Machine) Validate() (err error) {
	if cfg.Video.Width <= 0 || cfg.Video.Height <= 0 {
		return ErrVideoSize
	}

	if cfg.StepsPerFrame <= 0 {
		return ErrStepsPerFrame
	}

	if cfg.FrameRate <= 0 {
		return ErrFrameRate
	}

	if len(cfg.Video.Palette) > cpu.PALETTE_SIZE {
		return ErrPaletteSize
	}

	_, err = ParseColor(cfg.Video.Baseline)
	if err != nil {
		return
	}

	for _, color := range cfg.Video.Palette {
		_, err = ParseColor(color)
		if err != nil {
			return
		}
	}

	return
}

// Apply sets the baseline colour and palette of the video memory, and
// clears it.
func (cfg Machine) Apply(video *cpu.Video) (err error) {
	baseline, err := ParseColor(cfg.Video.Baseline)
	if err != nil {
		return
	}

	palette := cpu.DefaultPalette()
	for n, text := range cfg.Video.Palette {
		if n >= len(palette) {
			return ErrPaletteSize
		}
		palette[n], err = ParseColor(text)
		if err != nil {
			return
		}
	}

	video.Baseline = baseline
	video.Palette = palette
	video.Clear()

	return
}

// ParseColor parses a #rrggbb colour.
func ParseColor(text string) (color cpu.Color, err error) {
	hex, ok := strings.CutPrefix(text, "#")
	if !ok || len(hex) != 6 {
		err = ErrColor(text)
		return
	}

	rgb, perr := strconv.ParseUint(hex, 16, 32)
	if perr != nil {
		err = ErrColor(text)
		return
	}

	color = cpu.Color{
		R: uint8(rgb >> 16),
		G: uint8(rgb >> 8),
		B: uint8(rgb),
	}

	return
}
