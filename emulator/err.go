package emulator

import (
	"errors"

	"github.com/ezrec/ucvm/translate"
)

var f = translate.From

var (
	ErrLimit = errors.New(f("instruction limit reached"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int   // Source line, 0 when the program has no listing.
	Pc     uint8 // Address of the failing instruction.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("pc %02x %v", err.Pc, err.Err)
	}
	return f("line %d pc %02x %v", err.LineNo, err.Pc, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
