// Package rom loads μCVM program images.
package rom

import (
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/ezrec/ucvm/cpu"
)

// Rom is a named program image, placed at address 0 when loaded.
type Rom struct {
	Name string
	Data []byte
}

// Read reads a complete program image.
func Read(r io.Reader) (rom *Rom, err error) {
	rom = &Rom{}
	err = rom.Unmarshal(r)
	if err != nil {
		rom = nil
	}
	return
}

// Open reads the program image name from a file system. The rom is
// named by the base of the path, without extension.
func Open(fsys fs.FS, name string) (rom *Rom, err error) {
	inf, err := fsys.Open(name)
	if err != nil {
		return
	}
	defer inf.Close()

	rom, err = Read(inf)
	if err != nil {
		return
	}

	base := path.Base(name)
	rom.Name = strings.TrimSuffix(base, path.Ext(base))

	return
}

// Unmarshal loads rom data from a reader, replacing any existing data.
// Images larger than the address space are rejected.
func (rom *Rom) Unmarshal(r io.Reader) (err error) {
	data, err := io.ReadAll(io.LimitReader(r, cpu.ADDRESS_LIMIT+1))
	if err != nil {
		return
	}

	if len(data) > cpu.ADDRESS_LIMIT {
		err = ErrRomSize
		return
	}

	rom.Data = data

	return
}

// Marshal writes the rom data to a writer.
func (rom *Rom) Marshal(w io.Writer) (err error) {
	_, err = w.Write(rom.Data)

	return
}

// Len returns the image size in bytes.
func (rom *Rom) Len() int {
	return len(rom.Data)
}
