package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testProgram() *Program {
	return &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Addr: 0, Words: []string{"mov", "r0", "10"}, Bytes: []byte{0x06, 0x00, 0x0a}, Code: true},
			{LineNo: 2, Addr: 3, Words: []string{"hlt"}, Bytes: []byte{0xff}, Code: true},
			{LineNo: 4, Addr: 8, Words: []string{".byte", "1", "2"}, Bytes: []byte{0x01, 0x02}},
		},
	}
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	table := [](struct {
		pc     uint8
		lineno int
		index  int
	}){
		{0, 1, 0},
		{1, 1, 1},
		{2, 1, 2},
		{3, 2, 0},
		{8, 4, 0},
		{9, 4, 1},
	}

	for _, entry := range table {
		dbg := prog.Debug(entry.pc)
		if assert.NotNil(dbg.Opcode, "pc %d", entry.pc) {
			assert.Equal(entry.lineno, dbg.LineNo, "pc %d", entry.pc)
			assert.Equal(entry.index, dbg.Index, "pc %d", entry.pc)
		}
	}
}

func TestProgram_Debug_NotFound(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	for _, pc := range []uint8{4, 7, 10, 255} {
		dbg := prog.Debug(pc)
		assert.Nil(dbg.Opcode, "pc %d", pc)
		assert.Equal(0, dbg.Index, "pc %d", pc)
	}
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	assert.Equal(10, prog.Len())
	assert.Equal([]byte{0x06, 0x00, 0x0a, 0xff, 0, 0, 0, 0, 0x01, 0x02}, prog.Binary())

	empty := &Program{}
	assert.Equal(0, empty.Len())
	assert.Empty(empty.Binary())
}

func TestProgram_Codes(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	var addrs []uint8
	var codes []Code
	for addr, code := range prog.Codes() {
		addrs = append(addrs, addr)
		codes = append(codes, code)
	}

	assert.Equal([]uint8{0, 3}, addrs)
	assert.Equal([]Code{MakeCode(OP_MOV, 0, 10), MakeCode(OP_HLT)}, codes)

	// Early exit
	count := 0
	for range prog.Codes() {
		count++
		break
	}
	assert.Equal(1, count)
}

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	image := []byte{0x06, 0x00, 0x0a, 0x42, 0x05, 0x00, 0xff}

	var addrs []uint8
	var codes []Code
	for addr, code := range Disassemble(image) {
		addrs = append(addrs, addr)
		codes = append(codes, code)
	}

	assert.Equal([]uint8{0, 3, 4, 6}, addrs)
	assert.Equal([]Code{
		MakeCode(OP_MOV, 0, 10),
		{Op: OP_NOP, Byte: 0x42},
		MakeCode(OP_JMP, 0),
		MakeCode(OP_HLT),
	}, codes)

	// A truncated instruction decodes against zero padding.
	codes = codes[:0]
	for _, code := range Disassemble([]byte{0x07}) {
		codes = append(codes, code)
	}
	assert.Equal([]Code{MakeCode(OP_INC, 0)}, codes)

	for range Disassemble(nil) {
		assert.Fail("empty image has no instructions")
	}
}
