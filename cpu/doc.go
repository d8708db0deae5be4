// Package cpu implements the instruction engine and assembler for the μCVM system.
//
// The CPU consists of an 8-bit program counter, eight 8-bit general-purpose
// registers (r0-r7), a reserved stack pointer and flags register, general
// memory addressed through 8-bit addresses, and a separate video memory of
// RGB pixels. Instructions are one opcode byte followed by zero to two
// operand bytes. Arithmetic wraps modulo 256 and never touches the flags.
//
// The assembler provides a small assembly language for the μCVM instruction
// set, supporting macros, labels, equates, and compile-time expression
// evaluation.
package cpu
