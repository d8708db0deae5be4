package rom

import (
	"io/fs"
	"maps"
	"regexp"
	"slices"
	"strings"
)

var romRegexp = regexp.MustCompile(`(?i)^[^.].*\.bin$`)

// Library is a collection of roms discovered in a file system.
type Library struct {
	Roms map[string](*Rom)
}

// Unmarshal loads every rom in a file system, scanning for files matching
// the pattern NAME.bin. A rom is named by its path without extension, so
// demo/fill.bin is the rom demo/fill.
func (lib *Library) Unmarshal(filesys fs.FS) (err error) {
	return fs.WalkDir(filesys, ".", func(path string, d fs.DirEntry, err_in error) (err error) {
		if err_in != nil {
			return err_in
		}
		if d.IsDir() {
			return
		}
		if !romRegexp.MatchString(d.Name()) {
			return
		}

		rom, err := Open(filesys, path)
		if err != nil {
			return
		}
		rom.Name = path[:len(path)-len(".bin")]

		if lib.Roms == nil {
			lib.Roms = make(map[string](*Rom))
		}
		lib.Roms[rom.Name] = rom

		return
	})
}

// Get returns a rom by name.
func (lib *Library) Get(name string) (rom *Rom, err error) {
	rom, ok := lib.Roms[strings.TrimSuffix(name, ".bin")]
	if !ok {
		err = ErrRomMissing(name)
	}
	return
}

// Names returns the sorted rom names.
func (lib *Library) Names() []string {
	return slices.Sorted(maps.Keys(lib.Roms))
}
