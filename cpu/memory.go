package cpu

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
)

const (
	MEMORY_SIZE    = 2048 * 1024 // Backing store for general memory.
	ADDRESS_LIMIT  = 256         // Reachable through 8-bit addresses.
	REGISTER_COUNT = 8           // General purpose registers.
)

// Register is a general purpose register index.
type Register uint8

const (
	REG_R0 = Register(0)
	REG_R1 = Register(1)
	REG_R2 = Register(2)
	REG_R3 = Register(3)
	REG_R4 = Register(4)
	REG_R5 = Register(5)
	REG_R6 = Register(6)
	REG_R7 = Register(7)
)

// RegisterOf validates a register index byte.
func RegisterOf(b uint8) (reg Register, err error) {
	if b >= REGISTER_COUNT {
		err = ErrRegisterInvalid
		return
	}
	reg = Register(b)
	return
}

func (reg Register) String() string {
	return fmt.Sprintf("r%d", uint8(reg))
}

// Peek reads a byte of general memory.
func (cpu *Cpu) Peek(addr uint8) uint8 {
	return cpu.Memory[addr]
}

// Poke writes a byte of general memory.
func (cpu *Cpu) Poke(addr uint8, value uint8) {
	cpu.Memory[addr] = value
}

// Get reads a register. The index must already be validated.
func (cpu *Cpu) Get(reg Register) uint8 {
	return cpu.Register[reg]
}

// Set writes a register. The index must already be validated.
func (cpu *Cpu) Set(reg Register, value uint8) {
	cpu.Register[reg] = value
}

// LoadProgram replaces general memory with the image read from r,
// placed at address 0. Memory is left untouched if the image cannot be
// read completely, or does not fit in the address space.
func (cpu *Cpu) LoadProgram(r io.Reader) (n int, err error) {
	// Read one byte past the limit to detect oversized images.
	image, err := io.ReadAll(io.LimitReader(r, ADDRESS_LIMIT+1))
	if err != nil {
		err = errors.Join(ErrLoad, err)
		return
	}

	if len(image) > ADDRESS_LIMIT {
		err = errors.Join(ErrLoad, ErrProgramSize)
		return
	}

	clear(cpu.Memory)
	n = copy(cpu.Memory, image)

	if cpu.Verbose {
		log.Printf("cpu: load %d bytes", n)
	}

	return
}

// LoadFile loads a program image from a file.
func (cpu *Cpu) LoadFile(path string) (n int, err error) {
	inf, err := os.Open(path)
	if err != nil {
		err = errors.Join(ErrLoad, err)
		return
	}
	defer inf.Close()

	return cpu.LoadProgram(inf)
}
