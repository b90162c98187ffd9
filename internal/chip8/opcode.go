package chip8

import (
	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Opcode is one instruction word decoded into its instruction identity
// and operand fields. Decoding happens once per step; execution
// dispatches over the closed set of matched opcode patterns instead of
// re-masking the raw word in every branch.
type Opcode struct {
	Word        uint16
	Instruction *chip8.Instruction // nil for words matching no pattern
	Info        chip8.OpcodeInfo

	X   byte   // second nibble, register selector
	Y   byte   // third nibble, register selector
	N   byte   // low nibble
	NN  byte   // low byte
	NNN uint16 // low 12 bits, address operand
}

// Name returns the mnemonic of the decoded instruction, or an empty
// string for unknown words.
func (o Opcode) Name() string {
	if o.Instruction == nil {
		return ""
	}
	return o.Instruction.Name
}

// Decode matches a raw instruction word against the CHIP-8 opcode
// table and extracts its operand fields. The boolean result is false
// when the word matches no known opcode pattern.
func Decode(word uint16) (Opcode, bool) {
	op := Opcode{
		Word: word,
		X:    byte(word >> 8 & 0x0F),
		Y:    byte(word >> 4 & 0x0F),
		N:    byte(word & 0x0F),
		NN:   byte(word & 0xFF),
		NNN:  word & 0x0FFF,
	}

	firstNibble := int(word >> 12)
	for _, candidate := range chip8.Opcodes[firstNibble] {
		if candidate.Info.Mask&word == candidate.Info.Value {
			op.Instruction = candidate.Instruction
			op.Info = candidate.Info
			return op, true
		}
	}
	return op, false
}
