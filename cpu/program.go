package cpu

import (
	"iter"
)

// Link is an operand byte to patch with a label address.
type Link struct {
	Offset    int    // Byte offset within Opcode.Bytes.
	Label     string // Label to resolve.
	Immediate bool   // Linked into an immediate operand.
}

// Opcode represents a line of assembled code with its source location and generated bytes.
type Opcode struct {
	LineNo int
	Addr   int
	Words  []string
	Bytes  []byte
	Code   bool // False for .byte data.
	Links  []Link
}

type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int
}

// Debug finds the opcode covering the address pc.
func (prog *Program) Debug(pc uint8) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(pc) >= op.Addr && int(pc) < op.Addr+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(pc) - op.Addr,
			}
			break
		}
	}

	return
}

// Len returns the length of the program image.
func (prog *Program) Len() (size int) {
	for _, op := range prog.Opcodes {
		size = max(size, op.Addr+len(op.Bytes))
	}
	return
}

// Binary returns the program image, with gaps zero filled.
func (prog *Program) Binary() (image []byte) {
	image = make([]byte, prog.Len())
	for _, op := range prog.Opcodes {
		copy(image[op.Addr:], op.Bytes)
	}

	return
}

// Codes iterates over the decoded instructions of the program.
func (prog *Program) Codes() iter.Seq2[uint8, Code] {
	image := prog.Binary()
	return func(yield func(addr uint8, code Code) bool) {
		for _, op := range prog.Opcodes {
			if !op.Code {
				continue
			}
			addr := uint8(op.Addr)
			if !yield(addr, decodeImage(image, addr)) {
				return
			}
		}
	}
}

// Disassemble iterates over an image as a sequence of instructions
// starting at address 0.
func Disassemble(image []byte) iter.Seq2[uint8, Code] {
	return func(yield func(addr uint8, code Code) bool) {
		for addr := 0; addr < len(image) && addr < ADDRESS_LIMIT; {
			code := decodeImage(image, uint8(addr))
			if !yield(uint8(addr), code) {
				return
			}
			addr += code.Len()
		}
	}
}

// decodeImage decodes from an image shorter than the address space.
func decodeImage(image []byte, addr uint8) Code {
	var mem [ADDRESS_LIMIT]byte
	copy(mem[:], image)
	return DecodeCode(mem[:], addr)
}
