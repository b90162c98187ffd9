package chip8

import (
	"errors"
	"fmt"
)

// Step condition kinds. Callers match them with errors.Is to pick a
// continuation policy; the machine never decides on its own whether
// a condition ends the emulation.
var (
	// ErrPCOutOfRange is returned when the program counter does not
	// point at two readable memory bytes. The step has no effect.
	ErrPCOutOfRange = errors.New("program counter out of memory range")

	// ErrStackOverflow is returned by CALL when all stack slots are in use.
	ErrStackOverflow = errors.New("call stack overflow")

	// ErrStackUnderflow is returned by RET when the stack is empty.
	ErrStackUnderflow = errors.New("call stack underflow")

	// ErrAddressOutOfRange is returned when an index-register-relative
	// access would leave the 4 KiB memory. The step is aborted and no
	// partial transfer happens.
	ErrAddressOutOfRange = errors.New("address out of memory range")

	// ErrIndexOverflow is returned by ADD I,Vx when the sum leaves
	// memory. The index register is clamped to 0 and the step completes.
	ErrIndexOverflow = errors.New("index register overflow")

	// ErrInvalidFontDigit is returned by LD F,Vx when Vx is not a hex digit.
	ErrInvalidFontDigit = errors.New("font digit out of range")

	// ErrUnknownOpcode is returned for instruction words that match no
	// known opcode pattern. The step completes as a no-op.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrInvalidKey is returned for key indexes outside 0-15.
	ErrInvalidKey = errors.New("key index out of range")

	// ErrInvalidCoordinate is returned for pixel queries outside the screen.
	ErrInvalidCoordinate = errors.New("screen coordinate out of range")

	// ErrROMTooLarge is returned when a program does not fit above 0x200.
	ErrROMTooLarge = errors.New("ROM exceeds program memory")
)

// StepError describes a condition raised while executing one instruction.
// It wraps one of the condition kinds above and records where it happened.
type StepError struct {
	err  error
	PC   uint16 // address the instruction was fetched from
	Word uint16 // raw opcode word, valid only when fetched is set

	fetched bool // an instruction word was fetched before the condition
}

func (e *StepError) Error() string {
	if !e.fetched {
		return fmt.Sprintf("%s at $%03X", e.err, e.PC)
	}
	return fmt.Sprintf("%s: opcode $%04X at $%03X", e.err, e.Word, e.PC)
}

func (e *StepError) Unwrap() error {
	return e.err
}

// abortsStep reports whether a condition ends the step before the
// end-of-step timer tick. Stack discipline violations and aborted
// memory accesses leave the step unfinished; clamps and unknown
// opcodes complete it as a no-op.
func abortsStep(err error) bool {
	return errors.Is(err, ErrStackOverflow) ||
		errors.Is(err, ErrStackUnderflow) ||
		errors.Is(err, ErrAddressOutOfRange)
}

// IsHalted reports whether the machine can make no further progress:
// the program counter left memory, so every subsequent step would fail
// the same way. All other conditions leave the machine in a defined
// state and the caller may keep stepping.
func IsHalted(err error) bool {
	return errors.Is(err, ErrPCOutOfRange)
}
