package cpu

import (
	"fmt"
	"strings"
)

// CodeOp is the opcode identity of an instruction's first byte.
type CodeOp uint8

//go:generate go tool stringer -linecomment -type=CodeOp,VideoOp,OperandKind
const (
	OP_LOAD  = CodeOp(0x01) // load
	OP_STORE = CodeOp(0x02) // store
	OP_ADD   = CodeOp(0x03) // add
	OP_SUB   = CodeOp(0x04) // sub
	OP_JMP   = CodeOp(0x05) // jmp
	OP_MOV   = CodeOp(0x06) // mov
	OP_INC   = CodeOp(0x07) // inc
	OP_DIV   = CodeOp(0x08) // div
	OP_MUL   = CodeOp(0x09) // mul
	OP_NOP   = CodeOp(0x90) // nop
	OP_HLT   = CodeOp(0xff) // hlt
)

// opOperands is the fixed operand count of each opcode.
var opOperands = map[CodeOp]int{
	OP_LOAD:  2,
	OP_STORE: 2,
	OP_ADD:   2,
	OP_SUB:   2,
	OP_JMP:   1,
	OP_MOV:   2,
	OP_INC:   1,
	OP_DIV:   2,
	OP_MUL:   2,
	OP_NOP:   0,
	OP_HLT:   0,
}

// OpcodeOf maps an opcode byte to its identity.
// Bytes outside the table decode as OP_NOP with ok false.
func OpcodeOf(b uint8) (op CodeOp, ok bool) {
	op = CodeOp(b)
	_, ok = opOperands[op]
	if !ok {
		op = OP_NOP
	}
	return
}

// Operands returns the number of operand bytes following the opcode.
func (op CodeOp) Operands() int {
	return opOperands[op]
}

// OperandKind is the decode-time class of an operand byte.
type OperandKind uint8

const (
	OPERAND_REGISTER = OperandKind(0) // reg
	OPERAND_VALUE    = OperandKind(1) // value
)

// Operand is a decoded operand byte. The decoder only classifies the byte;
// the consuming opcode decides whether a value is an address or an immediate.
type Operand struct {
	Kind  OperandKind
	Value uint8
}

// MakeOperand classifies an operand byte.
func MakeOperand(b uint8) Operand {
	if b < REGISTER_COUNT {
		return Operand{Kind: OPERAND_REGISTER, Value: b}
	}
	return Operand{Kind: OPERAND_VALUE, Value: b}
}

// Register returns the register named by the operand.
func (o Operand) Register() (reg Register, err error) {
	if o.Kind != OPERAND_REGISTER {
		err = ErrRegisterInvalid
		return
	}
	return RegisterOf(o.Value)
}

// Address returns the operand as an absolute general memory address.
func (o Operand) Address() uint8 {
	return o.Value
}

// String renders the operand in assembler syntax.
func (o Operand) String() string {
	if o.Kind == OPERAND_REGISTER {
		return Register(o.Value).String()
	}
	return fmt.Sprintf("%d", o.Value)
}

// Code is a fully decoded instruction.
type Code struct {
	Op   CodeOp     // Opcode identity.
	Byte uint8      // Opcode byte as fetched.
	Args [2]Operand // Operands; only the first Op.Operands() are meaningful.
}

// MakeCode builds an instruction from an opcode and its operand bytes.
func MakeCode(op CodeOp, args ...uint8) (code Code) {
	code = Code{Op: op, Byte: uint8(op)}
	for n := range min(len(args), len(code.Args)) {
		code.Args[n] = MakeOperand(args[n])
	}
	return
}

// Valid is false when the opcode byte was not in the opcode table.
func (code Code) Valid() bool {
	_, ok := OpcodeOf(code.Byte)
	return ok
}

// Len returns the encoded length of the instruction.
func (code Code) Len() int {
	return 1 + code.Op.Operands()
}

// Bytes returns the instruction encoding.
func (code Code) Bytes() (data []byte) {
	data = append(data, code.Byte)
	for n := range code.Op.Operands() {
		data = append(data, code.Args[n].Value)
	}
	return
}

// String returns the assembly language representation of this instruction.
func (code Code) String() string {
	if !code.Valid() {
		return fmt.Sprintf(".byte 0x%02x", code.Byte)
	}

	words := []string{code.Op.String()}
	for n := range code.Op.Operands() {
		arg := code.Args[n]
		switch {
		case code.Op == OP_JMP,
			code.Op == OP_LOAD && n == 1,
			code.Op == OP_STORE && n == 0:
			// Address positions are always numeric.
			words = append(words, fmt.Sprintf("%d", arg.Address()))
		default:
			words = append(words, arg.String())
		}
	}

	return strings.Join(words, " ")
}
