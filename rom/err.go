package rom

import (
	"errors"

	"github.com/ezrec/ucvm/translate"
)

var f = translate.From

var (
	ErrRomSize = errors.New(f("rom exceeds address space"))
)

// ErrRomMissing is a rom name not present in a library.
type ErrRomMissing string

func (err ErrRomMissing) Error() string {
	return f("rom %v missing", string(err))
}
