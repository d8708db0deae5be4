package emulator

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ucvm/config"
	"github.com/ezrec/ucvm/cpu"
	"github.com/ezrec/ucvm/display"
	"github.com/ezrec/ucvm/rom"
)

func newTestEmulator(t *testing.T) (emu *Emulator) {
	cfg := config.Default()
	cfg.Video.Width = 16
	cfg.Video.Height = 8

	emu, err := NewEmulator(cfg)
	if err != nil {
		t.Fatal(err)
	}

	return
}

func doAssemble(t *testing.T, emu *Emulator, program []string) {
	err := emu.Assemble(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.Equal(128, emu.Video.Len())
	assert.Equal(0, emu.LineNo())

	cfg := config.Default()
	cfg.Video.Width = 0
	_, err := NewEmulator(cfg)
	assert.ErrorIs(err, config.ErrVideoSize)

	cfg = config.Default()
	cfg.Strict = true
	cfg.Video.Baseline = "#0000ff"
	emu, err = NewEmulator(cfg)
	if assert.NoError(err) {
		assert.True(emu.Strict)
		assert.Equal(cpu.Color{B: 0xff}, emu.Video.Pixel[0])
	}
}

func TestEmulatorDefines(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	defines := maps.Collect(emu.Defines())
	assert.Equal(map[string]string{
		"MEMORY_SIZE":    "2097152",
		"VIDEO_WIDTH":    "16",
		"VIDEO_HEIGHT":   "8",
		"ADDRESS_LIMIT":  "256",
		"REGISTER_COUNT": "8",
	}, defines)
}

func TestEmulatorAssemble(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	program := []string{
		"; area of the screen",
		"mov r0 VIDEO_WIDTH",
		"mul r0 VIDEO_HEIGHT",
		"store RESULT r0",
		"hlt",
		"RESULT: .byte 0",
	}
	doAssemble(t, emu, program)

	for _, op := range emu.Program.Opcodes {
		if !op.Code {
			break
		}
		assert.Equal(op.LineNo, emu.LineNo())
		assert.Equal(uint8(op.Addr), emu.Pc)

		done, err := emu.Tick()
		assert.NoError(err, program[op.LineNo-1])
		assert.Equal(op.Words[0] == "hlt", done)
	}

	assert.True(emu.Halted)
	assert.Equal(uint8(128), emu.Peek(10))

	// Ticks after halting do nothing.
	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(4, emu.Ticks)
}

func TestEmulatorAssembleError(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	assert.NoError(emu.Load(bytes.NewReader([]byte{0x07, 0x00})))

	err := emu.Assemble(strings.NewReader("mov r0 nowhere\n"))
	assert.ErrorIs(err, cpu.ErrLabelMissing("nowhere"))

	// The previous image is kept.
	assert.Equal([]byte{0x07, 0x00}, emu.Rom.Data)
	assert.Equal(uint8(0x07), emu.Peek(0))
}

func TestEmulatorLoad(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	assert.NoError(emu.Load(bytes.NewReader([]byte{0x07, 0x00, 0x05, 0x00})))
	assert.Empty(emu.Program.Opcodes)
	assert.Equal(0, emu.LineNo())

	for range 5 {
		done, err := emu.Tick()
		assert.NoError(err)
		assert.False(done)
	}
	assert.Equal(uint8(3), emu.Register[0])

	// Reset restores the image.
	emu.Poke(0, 0xff)
	assert.NoError(emu.Reset())
	assert.Equal(uint8(0x07), emu.Peek(0))
	assert.Equal(uint8(0), emu.Register[0])
	assert.Equal(uint8(0), emu.Pc)

	// Oversized images leave the machine untouched.
	err := emu.Load(bytes.NewReader(make([]byte, cpu.ADDRESS_LIMIT+1)))
	assert.ErrorIs(err, cpu.ErrLoad)
	assert.ErrorIs(err, rom.ErrRomSize)
	assert.Equal(uint8(0x07), emu.Peek(0))

	err = emu.LoadRom(&rom.Rom{Data: make([]byte, cpu.ADDRESS_LIMIT+1)})
	assert.ErrorIs(err, cpu.ErrProgramSize)
	assert.Equal(uint8(0x07), emu.Peek(0))
}

func TestEmulatorLoadFile(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	path := filepath.Join(t.TempDir(), "halt.bin")
	if !assert.NoError(os.WriteFile(path, []byte{0x90, 0xff}, 0o644)) {
		return
	}

	assert.NoError(emu.LoadFile(path))
	ticks, err := emu.Run(context.Background(), 0)
	assert.NoError(err)
	assert.Equal(2, ticks)
	assert.True(emu.Halted)

	err = emu.LoadFile(filepath.Join(t.TempDir(), "missing.bin"))
	assert.ErrorIs(err, cpu.ErrLoad)
	assert.ErrorIs(err, os.ErrNotExist)
}

func TestEmulatorRuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	program := []string{
		"mov r0 10",
		"div r0 r1",
		"hlt",
	}
	doAssemble(t, emu, program)

	done, err := emu.Tick()
	assert.NoError(err)
	assert.False(done)

	done, err = emu.Tick()
	assert.False(done)

	var re *ErrRuntime
	if assert.True(errors.As(err, &re)) {
		assert.Equal(2, re.LineNo)
		assert.Equal(uint8(3), re.Pc)
	}
	assert.ErrorIs(err, cpu.ErrDivideByZero)
	assert.ErrorContains(err, "line 2 pc 03")

	// The failing instruction is retried.
	assert.Equal(uint8(3), emu.Pc)
	_, err = emu.Run(context.Background(), 0)
	assert.ErrorIs(err, cpu.ErrDivideByZero)
}

func TestEmulatorRunLimit(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	doAssemble(t, emu, []string{
		"LOOP: inc r0",
		"jmp LOOP",
	})

	ticks, err := emu.Run(context.Background(), 10)
	assert.ErrorIs(err, ErrLimit)
	assert.Equal(10, ticks)
	assert.Equal(uint8(5), emu.Register[0])
	assert.False(emu.Halted)
}

func TestEmulatorRunContext(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	doAssemble(t, emu, []string{
		"LOOP: jmp LOOP",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ticks, err := emu.Run(ctx, 0)
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(0, ticks)
}

func TestEmulatorRunHalted(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	doAssemble(t, emu, []string{
		"clr r1",
		"hlt",
	})

	ticks, err := emu.Run(context.Background(), 2)
	assert.NoError(err)
	assert.Equal(2, ticks)

	ticks, err = emu.Run(context.Background(), 0)
	assert.NoError(err)
	assert.Equal(0, ticks)
}

func TestEmulatorVideo(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	doAssemble(t, emu, []string{"hlt"})

	assert.NoError(emu.Video.Run([]byte{0x01, 15, 8}))
	for n, pixel := range emu.Video.Snapshot() {
		if n < 8 {
			assert.Equal(cpu.Color{R: 0xff, G: 0xff, B: 0xff}, pixel)
		} else {
			assert.Equal(cpu.Color{}, pixel)
		}
	}

	assert.NoError(emu.Reset())
	assert.Equal(cpu.Color{}, emu.Video.Pixel[0])
}

func TestEmulatorDraw(t *testing.T) {
	assert := assert.New(t)

	white := cpu.Color{R: 0xff, G: 0xff, B: 0xff}

	emu := newTestEmulator(t)
	doAssemble(t, emu, []string{"hlt"})

	assert.NoError(emu.Draw([]byte{0x01, 15, 2}))
	assert.Equal(white, emu.Video.Pixel[1])
	assert.Equal(cpu.Color{}, emu.Video.Pixel[2])

	// The display list survives a reset.
	emu.Video.Clear()
	assert.NoError(emu.Reset())
	assert.Equal(white, emu.Video.Pixel[1])
	assert.Equal(2, emu.Video.Cursor)

	// And loading a new program.
	assert.NoError(emu.Load(bytes.NewReader([]byte{0xff})))
	assert.Equal(white, emu.Video.Pixel[1])

	// Invalid lists are not kept.
	err := emu.Draw([]byte{0x07})
	assert.ErrorIs(err, cpu.ErrVideoOpcode)
	assert.Equal([]byte{0x01, 15, 2}, emu.List)

	// An empty list stops the replay.
	assert.NoError(emu.Draw(nil))
	assert.NoError(emu.Reset())
	assert.Equal(cpu.Color{}, emu.Video.Pixel[1])
}

func TestEmulatorRunFrames(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"inc r0",
		"inc r0",
		"inc r0",
		"inc r0",
		"inc r0",
		"hlt",
	}

	emu := newTestEmulator(t)
	emu.StepsPerFrame = 2
	doAssemble(t, emu, program)

	headless := &display.Headless{Width: 16, Height: 8}
	ticks, err := emu.RunFrames(context.Background(), 0, headless)
	assert.NoError(err)
	assert.Equal(6, ticks)
	assert.Equal(3, headless.Frames)
	assert.True(emu.Halted)

	// A halted machine presents a single frame.
	ticks, err = emu.RunFrames(context.Background(), 0, headless)
	assert.NoError(err)
	assert.Equal(0, ticks)
	assert.Equal(4, headless.Frames)

	// The limit is honoured across frames.
	assert.NoError(emu.Reset())
	headless = &display.Headless{Width: 16, Height: 8}
	ticks, err = emu.RunFrames(context.Background(), 3, headless)
	assert.ErrorIs(err, ErrLimit)
	assert.Equal(3, ticks)
	assert.Equal(2, headless.Frames)
	assert.Equal(uint8(3), emu.Register[0])

	// Display errors stop the run.
	assert.NoError(emu.Reset())
	_, err = emu.RunFrames(context.Background(), 0, &display.Headless{Width: 1, Height: 1})
	assert.ErrorIs(err, display.ErrFrameSize)
	assert.Equal(2, emu.Ticks)

	// Runtime errors are returned without a frame.
	doAssemble(t, emu, []string{"div r0 r1"})
	headless = &display.Headless{Width: 16, Height: 8}
	_, err = emu.RunFrames(context.Background(), 0, headless)
	assert.ErrorIs(err, cpu.ErrDivideByZero)
	assert.Equal(0, headless.Frames)
}
