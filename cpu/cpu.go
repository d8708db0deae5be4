package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
)

var _cpu_defines = map[string]string{
	"ADDRESS_LIMIT":  fmt.Sprintf("%d", ADDRESS_LIMIT),
	"REGISTER_COUNT": fmt.Sprintf("%d", REGISTER_COUNT),
}

// Cpu is the simulation context of the μCVM instruction engine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.
	Strict  bool // Set to fail on opcode bytes outside the opcode table.

	Memory   []byte                // General memory.
	Video    *Video                // Video memory.
	Register [REGISTER_COUNT]uint8 // Register bank.
	Pc       uint8                 // Program counter.
	Sp       uint8                 // Stack pointer, reserved.
	Flags    uint8                 // Condition flags, reserved.
	Halted   bool                  // Set by hlt.

	Ticks int // Executed instruction counter.
}

// NewCpu creates a new CPU with a width x height video memory.
// Negative sizes give an empty video memory.
func NewCpu(width, height int) (cpu *Cpu) {
	cpu = &Cpu{
		Memory: make([]byte, MEMORY_SIZE),
		Video:  NewVideo(width, height),
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{
		"pc", "sp", "flags",
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
		"state",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%02X", cpu.Pc)
		case "sp":
			strval = fmt.Sprintf("%02X", cpu.Sp)
		case "flags":
			strval = fmt.Sprintf("%08b", cpu.Flags)
		case "r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7":
			val := cpu.Register[byte(reg[1]-'0')]
			strval = fmt.Sprintf("%02X (%3d)", val, val)
		case "state":
			strval = "running"
			if cpu.Halted {
				strval = "halted"
			}
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// Reset the CPU state.
// - Clears the registers, program counter and run state.
// - Clears general memory.
// - Clears video memory to the baseline colour.
// - Zeros the tick counter.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	clear(cpu.Memory)
	cpu.Pc = 0
	cpu.Sp = 0
	cpu.Flags = 0
	cpu.Halted = false
	cpu.Ticks = 0
	cpu.Video.Clear()
}

// DecodeCode decodes the instruction at pc. Decoding is total: an opcode
// byte outside the opcode table decodes as nop, and the operand fetch
// wraps around the 8-bit address space.
func DecodeCode(mem []byte, pc uint8) (code Code) {
	code.Byte = mem[pc]
	code.Op, _ = OpcodeOf(code.Byte)

	for n := range code.Op.Operands() {
		code.Args[n] = MakeOperand(mem[pc+uint8(1+n)])
	}

	return
}

// Decode decodes the instruction at the program counter.
func (cpu *Cpu) Decode() Code {
	return DecodeCode(cpu.Memory, cpu.Pc)
}

// Tick executes a single CPU instruction cycle. A halted CPU does nothing.
func (cpu *Cpu) Tick() (err error) {
	if cpu.Halted {
		return
	}

	code := cpu.Decode()

	if !code.Valid() {
		if cpu.Verbose {
			log.Printf("%02x: invalid opcode 0x%02x", cpu.Pc, code.Byte)
		}
		if cpu.Strict {
			err = errors.Join(ErrOpcode(code), ErrOpcodeInvalid)
			return
		}
	}

	err = cpu.Execute(code)
	if err != nil {
		return
	}

	cpu.Ticks += 1

	return
}

// Execute executes a single decoded instruction. On error, no state is
// modified.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()
	if cpu.Verbose {
		log.Printf("%02x: %v", cpu.Pc, code)
	}

	next_pc := cpu.Pc + uint8(code.Len())

	switch code.Op {
	case OP_LOAD:
		var dst Register
		dst, err = code.Args[0].Register()
		if err != nil {
			err = errors.Join(ErrOpcodeArg1, err)
			return
		}
		cpu.Set(dst, cpu.Peek(code.Args[1].Address()))
	case OP_STORE:
		var src Register
		src, err = code.Args[1].Register()
		if err != nil {
			err = errors.Join(ErrOpcodeArg2, err)
			return
		}
		cpu.Poke(code.Args[0].Address(), cpu.Get(src))
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOV:
		var dst Register
		dst, err = code.Args[0].Register()
		if err != nil {
			err = errors.Join(ErrOpcodeArg1, err)
			return
		}
		val := cpu.getValue(code.Args[1])
		var output uint8
		output, err = cpu.doAlu(code.Op, cpu.Get(dst), val)
		if err != nil {
			err = errors.Join(ErrOpcodeArg2, err)
			return
		}
		cpu.Set(dst, output)
	case OP_INC:
		var dst Register
		dst, err = code.Args[0].Register()
		if err != nil {
			err = errors.Join(ErrOpcodeArg1, err)
			return
		}
		cpu.Set(dst, cpu.Get(dst)+1)
	case OP_JMP:
		next_pc = code.Args[0].Address()
	case OP_HLT:
		next_pc = cpu.Pc
		cpu.Halted = true
		if cpu.Verbose {
			log.Printf("%02x: halted", cpu.Pc)
		}
	case OP_NOP:
		// pass
	}

	cpu.Pc = next_pc

	return
}

// ExecuteVideo executes a single video instruction against video memory.
func (cpu *Cpu) ExecuteVideo(code VideoCode) (err error) {
	cpu.Video.Verbose = cpu.Verbose
	return cpu.Video.Execute(code)
}

// getValue resolves a numeric operand: a register operand reads the
// register, any other operand is the immediate literal.
func (cpu *Cpu) getValue(src Operand) (value uint8) {
	reg, err := src.Register()
	if err != nil {
		return src.Value
	}

	return cpu.Get(reg)
}

// doAlu performs the requested ALU action with 8-bit wrapping arithmetic,
// and returns the output value. Flags are not updated.
func (cpu *Cpu) doAlu(op CodeOp, input uint8, value uint8) (output uint8, err error) {
	switch op {
	case OP_MOV:
		output = value
	case OP_ADD:
		output = input + value
	case OP_SUB:
		output = input - value
	case OP_MUL:
		output = input * value
	case OP_DIV:
		if value == 0 {
			err = ErrDivideByZero
			return
		}
		output = input / value
	default:
		panic("unknown alu op")
	}

	return
}
