// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":         "0",
	"ADDRESS_LIMIT":  fmt.Sprintf("%d", ADDRESS_LIMIT),
	"REGISTER_COUNT": fmt.Sprintf("%d", REGISTER_COUNT),
}

// Assembler is a single pass macro assembler for the μCVM system.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of jump labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	addr int // Location counter.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regMap is a map of register names to registers.
var regMap = map[string]Register{
	"r0": REG_R0,
	"r1": REG_R1,
	"r2": REG_R2,
	"r3": REG_R3,
	"r4": REG_R4,
	"r5": REG_R5,
	"r6": REG_R6,
	"r7": REG_R7,
}

var labelRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	v64, err := strconv.ParseInt(strings.ReplaceAll(word, "_", ""), 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)
	if invert {
		value = ^value
	}

	return
}

// byteOf returns the byte value of a word, or the label it refers to.
// Negative values down to -128 are stored as two's complement.
func (asm *Assembler) byteOf(word string) (value uint8, label string, err error) {
	if _, is_reg := regMap[word]; is_reg {
		err = ErrValueRange
		return
	}

	if labelRegexp.MatchString(word) {
		label = word
		return
	}

	v, err := asm.valueOf(word)
	if err != nil {
		return
	}

	if v < -128 || v > 0xff {
		err = ErrValueRange
		return
	}

	value = uint8(v)
	return
}

// regOf parses a register name.
func (asm *Assembler) regOf(word string) (reg Register, err error) {
	reg, ok := regMap[word]
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

// regOrImm determines the operand byte of a numeric operand: a register,
// or an immediate that cannot be mistaken for a register.
func (asm *Assembler) regOrImm(word string) (value uint8, label string, err error) {
	reg, is_reg := regMap[word]
	if is_reg {
		value = uint8(reg)
		return
	}

	value, label, err = asm.byteOf(word)
	if err != nil {
		return
	}

	if len(label) == 0 && value < REGISTER_COUNT {
		err = ErrImmediateRange
		return
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}
	for key, addr := range asm.Label {
		if _, ok := pred[key]; !ok {
			pred[key] = starlark.MakeInt(addr)
		}
	}
	err = nil
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = slices.DeleteFunc(strings.Fields(line), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.addr
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", fmt.Sprintf("%v_%v_", name, lineno))
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.addr = 0
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if err = scanner.Err(); err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		for _, link := range op.Links {
			addr, ok := asm.Label[link.Label]
			if !ok {
				lineno = op.LineNo
				line = strings.Join(op.Words, " ")
				err = ErrLabelMissing(link.Label)
				return
			}
			if addr >= ADDRESS_LIMIT {
				lineno = op.LineNo
				line = strings.Join(op.Words, " ")
				err = ErrValueRange
				return
			}
			if link.Immediate && addr < REGISTER_COUNT {
				lineno = op.LineNo
				line = strings.Join(op.Words, " ")
				err = ErrImmediateRange
				return
			}
			op.Bytes[link.Offset] = uint8(addr)
		}
	}

	if asm.addr > ADDRESS_LIMIT {
		err = ErrProgramSize
		return
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// aluMap maps register-and-value opcode names.
var aluMap = map[string]CodeOp{
	"add": OP_ADD,
	"sub": OP_SUB,
	"mul": OP_MUL,
	"div": OP_DIV,
	"mov": OP_MOV,
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var data []byte
	var links []Link
	code := true

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if err != nil || len(data) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Addr: asm.addr, Words: initial_words, Bytes: data, Code: code, Links: links}
		asm.Opcode = append(asm.Opcode, opcode)
		asm.addr += len(data)
	}()

	// Alternate syntax substitutions
	switch {
	case len(words) == 1 && words[0] == "halt":
		words = []string{"hlt"}
	case len(words) == 2 && words[0] == "jump":
		words = []string{"jmp", words[1]}
	case len(words) == 2 && words[0] == "clr":
		// clr rN => sub rN rN
		words = []string{"sub", words[1], words[1]}
	case len(words) == 2 && words[0] == "dec":
		// dec rN => add rN 255
		words = []string{"add", words[1], "255"}
	default:
		// unchanged
	}

	// operand appends an operand byte, linking it if it names a label.
	operand := func(value uint8, label string, immediate bool) {
		if len(label) != 0 {
			links = append(links, Link{Offset: len(data), Label: label, Immediate: immediate})
		}
		data = append(data, value)
	}

	argc := func(n int) error {
		switch {
		case len(words)-1 < n:
			return ErrOpcodeValueMissing
		case len(words)-1 > n:
			return ErrOpcodeExtraArgs
		}
		return nil
	}

	switch words[0] {
	case ".org":
		if err = argc(1); err != nil {
			return
		}
		var addr int
		addr, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		if addr > ADDRESS_LIMIT {
			err = ErrProgramSize
			return
		}
		if addr < asm.addr {
			err = ErrOrgBackwards
			return
		}
		asm.addr = addr
	case ".byte":
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		code = false
		for _, word := range words[1:] {
			var value uint8
			var label string
			value, label, err = asm.byteOf(word)
			if err != nil {
				return
			}
			operand(value, label, false)
		}
	case "load":
		if err = argc(2); err != nil {
			return
		}
		var reg Register
		reg, err = asm.regOf(words[1])
		if err != nil {
			return
		}
		var addr uint8
		var label string
		addr, label, err = asm.byteOf(words[2])
		if err != nil {
			return
		}
		data = append(data, uint8(OP_LOAD), uint8(reg))
		operand(addr, label, false)
	case "store":
		if err = argc(2); err != nil {
			return
		}
		var addr uint8
		var label string
		addr, label, err = asm.byteOf(words[1])
		if err != nil {
			return
		}
		var reg Register
		reg, err = asm.regOf(words[2])
		if err != nil {
			return
		}
		data = append(data, uint8(OP_STORE))
		operand(addr, label, false)
		data = append(data, uint8(reg))
	case "add", "sub", "mul", "div", "mov":
		if err = argc(2); err != nil {
			return
		}
		var reg Register
		reg, err = asm.regOf(words[1])
		if err != nil {
			return
		}
		var value uint8
		var label string
		value, label, err = asm.regOrImm(words[2])
		if err != nil {
			return
		}
		data = append(data, uint8(aluMap[words[0]]), uint8(reg))
		operand(value, label, true)
	case "inc":
		if err = argc(1); err != nil {
			return
		}
		var reg Register
		reg, err = asm.regOf(words[1])
		if err != nil {
			return
		}
		data = append(data, uint8(OP_INC), uint8(reg))
	case "jmp":
		if err = argc(1); err != nil {
			return
		}
		var addr uint8
		var label string
		addr, label, err = asm.byteOf(words[1])
		if err != nil {
			return
		}
		data = append(data, uint8(OP_JMP))
		operand(addr, label, false)
	case "nop":
		if err = argc(0); err != nil {
			return
		}
		data = append(data, uint8(OP_NOP))
	case "hlt":
		if err = argc(0); err != nil {
			return
		}
		data = append(data, uint8(OP_HLT))
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}
