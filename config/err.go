package config

import (
	"errors"

	"github.com/ezrec/ucvm/translate"
)

var f = translate.From

var (
	ErrConfig        = errors.New(f("machine configuration"))
	ErrVideoSize     = errors.New(f("video size must be positive"))
	ErrPaletteSize   = errors.New(f("palette exceeds 256 colours"))
	ErrStepsPerFrame = errors.New(f("steps per frame must be positive"))
	ErrFrameRate     = errors.New(f("frame rate must be positive"))
)

// ErrColor is a colour that is not in #rrggbb form.
type ErrColor string

func (err ErrColor) Error() string {
	return f("colour '%v' is not #rrggbb", string(err))
}

// ErrKey is a configuration key that is not understood.
type ErrKey string

func (err ErrKey) Error() string {
	return f("unknown key '%v'", string(err))
}
