// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"os"

	"github.com/ezrec/ucvm/config"
	"github.com/ezrec/ucvm/cpu"
	"github.com/ezrec/ucvm/display"
	"github.com/ezrec/ucvm/internal"
	"github.com/ezrec/ucvm/rom"
)

// Emulator state. CPU + video memory + the loaded program.
type Emulator struct {
	Verbose       bool         // If set, enables verbose logging.
	*cpu.Cpu                   // Reference to the CPU simulation.
	Program       *cpu.Program // Listing of the loaded program, if assembled.
	Rom           *rom.Rom     // Loaded program image, restored on Reset.
	List          []byte       // Video display list, replayed on every reset.
	StepsPerFrame int          // Instructions between frames of RunFrames.
}

// NewEmulator creates a new emulator for a machine configuration.
func NewEmulator(cfg config.Machine) (emu *Emulator, err error) {
	err = cfg.Validate()
	if err != nil {
		return
	}

	cp := cpu.NewCpu(cfg.Video.Width, cfg.Video.Height)
	cp.Strict = cfg.Strict

	err = cfg.Apply(cp.Video)
	if err != nil {
		return
	}

	emu = &Emulator{
		Cpu:           cp,
		Program:       &cpu.Program{},
		Rom:           &rom.Rom{},
		StepsPerFrame: cfg.StepsPerFrame,
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	defines := map[string]string{
		"MEMORY_SIZE":  fmt.Sprintf("%d", len(emu.Cpu.Memory)),
		"VIDEO_WIDTH":  fmt.Sprintf("%d", emu.Cpu.Video.Width),
		"VIDEO_HEIGHT": fmt.Sprintf("%d", emu.Cpu.Video.Height),
	}

	return internal.Concat2(maps.All(defines), emu.Cpu.Defines())
}

// LoadRom loads a program image, and resets the machine. On failure the
// machine is untouched.
func (emu *Emulator) LoadRom(image *rom.Rom) (err error) {
	emu.Cpu.Verbose = emu.Verbose

	if image.Len() > cpu.ADDRESS_LIMIT {
		err = errors.Join(cpu.ErrLoad, cpu.ErrProgramSize)
		return
	}

	emu.Cpu.Reset()
	_, err = emu.Cpu.LoadProgram(bytes.NewReader(image.Data))
	if err != nil {
		return
	}

	emu.Rom = image
	emu.Program = &cpu.Program{}

	err = emu.Cpu.Video.Run(emu.List)

	return
}

// Draw executes a video display list, and keeps it to be replayed after
// every reset or load. An empty list stops the replay.
func (emu *Emulator) Draw(list []byte) (err error) {
	emu.Cpu.Video.Verbose = emu.Verbose

	err = emu.Cpu.Video.Run(list)
	if err != nil {
		return
	}

	emu.List = bytes.Clone(list)

	return
}

// Load loads a program image from a reader.
func (emu *Emulator) Load(r io.Reader) (err error) {
	image, err := rom.Read(r)
	if err != nil {
		err = errors.Join(cpu.ErrLoad, err)
		return
	}

	return emu.LoadRom(image)
}

// LoadFile loads a program image from a file.
func (emu *Emulator) LoadFile(path string) (err error) {
	inf, err := os.Open(path)
	if err != nil {
		err = errors.Join(cpu.ErrLoad, err)
		return
	}
	defer inf.Close()

	return emu.Load(inf)
}

// Assemble assembles a program source, and loads it. The emulator
// defines are available to the source as equates.
func (emu *Emulator) Assemble(r io.Reader) (err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err := asm.Parse(r)
	if err != nil {
		return
	}

	err = emu.LoadRom(&rom.Rom{Data: prog.Binary()})
	if err != nil {
		return
	}

	emu.Program = prog

	return
}

// Reset the machine, and reload the program image.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	emu.Cpu.Reset()
	_, err = emu.Cpu.LoadProgram(bytes.NewReader(emu.Rom.Data))
	if err != nil {
		return
	}

	err = emu.Cpu.Video.Run(emu.List)

	return
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator. done is set once the
// machine has halted.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	pc := emu.Cpu.Pc
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Pc: pc, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	if err != nil {
		return
	}

	done = emu.Cpu.Halted

	return
}

// Run ticks the emulator until it halts, fails, or ctx is done. A
// positive limit bounds the number of executed instructions, and
// returns ErrLimit when exhausted.
func (emu *Emulator) Run(ctx context.Context, limit int) (ticks int, err error) {
	for !emu.Cpu.Halted {
		if limit > 0 && ticks >= limit {
			err = ErrLimit
			return
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		default:
		}

		_, err = emu.Tick()
		if err != nil {
			return
		}
		ticks++
	}

	if emu.Verbose {
		log.Printf("emulator: halted after %d ticks", ticks)
	}

	return
}

// RunFrames runs the emulator as Run does, presenting video memory to disp
// after every StepsPerFrame instructions and once more on halt.
func (emu *Emulator) RunFrames(ctx context.Context, limit int, disp display.Display) (ticks int, err error) {
	steps := max(emu.StepsPerFrame, 1)

	for {
		if limit > 0 && ticks >= limit {
			err = ErrLimit
			return
		}

		budget := steps
		if limit > 0 {
			budget = min(budget, limit-ticks)
		}

		var n int
		n, err = emu.Run(ctx, budget)
		ticks += n
		if errors.Is(err, ErrLimit) {
			err = nil
		}
		if err == nil {
			err = disp.Render(emu.Cpu.Video.Snapshot())
		}
		if err != nil || emu.Cpu.Halted {
			return
		}
	}
}
