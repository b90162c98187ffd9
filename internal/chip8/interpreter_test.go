package chip8

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

// newTestMachine returns a machine with the given instruction words
// loaded as its program and a deterministic random source.
func newTestMachine(t *testing.T, words ...uint16) *Machine {
	t.Helper()

	rom := make([]byte, 0, len(words)*2)
	for _, word := range words {
		rom = append(rom, byte(word>>8), byte(word))
	}

	m := New()
	m.rand = rand.New(rand.NewSource(1))
	assert.NoError(t, m.LoadROM(rom))
	return m
}

// step executes one interpreter step.
func step(t *testing.T, m *Machine) error {
	t.Helper()
	_, err := NewInterpreter(m).Step()
	return err
}

func TestFetchAdvancesCounter(t *testing.T) {
	m := newTestMachine(t, 0x6A42) // LD VA, $42
	assert.NoError(t, step(t, m))

	assert.Equal(t, uint16(ProgramStart+2), m.pc)
	assert.Equal(t, byte(0x42), m.v[0xA])
}

func TestFetchOutOfRange(t *testing.T) {
	m := newTestMachine(t)
	m.delayTimer = 5
	m.pc = MemorySize - 1

	err := step(t, m)
	assert.True(t, errors.Is(err, ErrPCOutOfRange))
	assert.True(t, IsHalted(err))

	// state unchanged, including the timers
	assert.Equal(t, uint16(MemorySize-1), m.pc)
	assert.Equal(t, byte(5), m.delayTimer)
}

func TestUnknownOpcode(t *testing.T) {
	m := newTestMachine(t, 0x8AB8, 0x6A42)
	m.delayTimer = 2

	err := step(t, m)
	assert.True(t, errors.Is(err, ErrUnknownOpcode))
	assert.False(t, IsHalted(err))

	// the step completes as a no-op: pc has advanced, timers ticked
	assert.Equal(t, uint16(ProgramStart+2), m.pc)
	assert.Equal(t, byte(1), m.delayTimer)

	// the machine keeps running afterwards
	assert.NoError(t, step(t, m))
	assert.Equal(t, byte(0x42), m.v[0xA])
}

func TestJump(t *testing.T) {
	m := newTestMachine(t, 0x1ABC) // JP $ABC
	assert.NoError(t, step(t, m))
	assert.Equal(t, uint16(0x0ABC), m.pc)
}

func TestJumpV0Offset(t *testing.T) {
	m := newTestMachine(t, 0xB300) // JP V0, $300
	m.v[0] = 0x24
	assert.NoError(t, step(t, m))
	assert.Equal(t, uint16(0x324), m.pc)
}

func TestCallAndReturn(t *testing.T) {
	m := newTestMachine(t, 0x2400) // CALL $400
	m.mem[0x400] = 0x00
	m.mem[0x401] = 0xEE // RET

	assert.NoError(t, step(t, m))
	assert.Equal(t, uint16(0x400), m.pc)
	assert.Equal(t, byte(1), m.sp)
	assert.Equal(t, uint16(ProgramStart+2), m.stack[0])

	assert.NoError(t, step(t, m))
	assert.Equal(t, uint16(ProgramStart+2), m.pc)
	assert.Equal(t, byte(0), m.sp)
}

func TestCallStackOverflow(t *testing.T) {
	// CALL $200: each call jumps back to itself, nesting one level deeper.
	m := newTestMachine(t, 0x2200)

	for i := 0; i < StackDepth; i++ {
		assert.NoError(t, step(t, m))
	}
	assert.Equal(t, byte(StackDepth), m.sp)
	m.delayTimer = 9

	err := step(t, m)
	assert.True(t, errors.Is(err, ErrStackOverflow))

	// the prior 16 entries survive the failed call
	assert.Equal(t, byte(StackDepth), m.sp)
	for i := 0; i < StackDepth; i++ {
		assert.Equal(t, uint16(0x202), m.stack[i])
	}
	// the aborted step never reaches the timer tick
	assert.Equal(t, byte(9), m.delayTimer)
}

func TestReturnStackUnderflow(t *testing.T) {
	m := newTestMachine(t, 0x00EE)
	m.delayTimer = 5
	m.soundTimer = 3

	err := step(t, m)
	assert.True(t, errors.Is(err, ErrStackUnderflow))
	// pc already advanced past the RET by the fetch
	assert.Equal(t, uint16(ProgramStart+2), m.pc)
	// the aborted step never reaches the timer tick
	assert.Equal(t, byte(5), m.delayTimer)
	assert.Equal(t, byte(3), m.soundTimer)
}

func TestSkipInstructions(t *testing.T) {
	tests := []struct {
		name string
		word uint16
		vx   byte
		vy   byte
		skip bool
	}{
		{name: "se byte taken", word: 0x3A42, vx: 0x42, skip: true},
		{name: "se byte not taken", word: 0x3A42, vx: 0x41},
		{name: "sne byte taken", word: 0x4A42, vx: 0x41, skip: true},
		{name: "sne byte not taken", word: 0x4A42, vx: 0x42},
		{name: "se register taken", word: 0x5AB0, vx: 7, vy: 7, skip: true},
		{name: "se register not taken", word: 0x5AB0, vx: 7, vy: 8},
		{name: "sne register taken", word: 0x9AB0, vx: 7, vy: 8, skip: true},
		{name: "sne register not taken", word: 0x9AB0, vx: 7, vy: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.word)
			m.v[0xA] = tt.vx
			m.v[0xB] = tt.vy

			assert.NoError(t, step(t, m))

			want := uint16(ProgramStart + 2)
			if tt.skip {
				want += 2
			}
			assert.Equal(t, want, m.pc)
		})
	}
}

func TestAddByteNoFlagChange(t *testing.T) {
	m := newTestMachine(t, 0x7A10) // ADD VA, $10
	m.v[0xA] = 0xF8
	m.v[0xF] = 1

	assert.NoError(t, step(t, m))

	// 8-bit wraparound, the flag register stays untouched
	assert.Equal(t, byte(0x08), m.v[0xA])
	assert.Equal(t, byte(1), m.v[0xF])
}

func TestALUBitwise(t *testing.T) {
	tests := []struct {
		name string
		word uint16
		want byte
	}{
		{name: "ld", word: 0x8AB0, want: 0x3C},
		{name: "or", word: 0x8AB1, want: 0xFF},
		{name: "and", word: 0x8AB2, want: 0x00},
		{name: "xor", word: 0x8AB3, want: 0xFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.word)
			m.v[0xA] = 0xC3
			m.v[0xB] = 0x3C

			assert.NoError(t, step(t, m))
			assert.Equal(t, tt.want, m.v[0xA])
		})
	}
}

func TestAddRegistersCarry(t *testing.T) {
	tests := []struct {
		name      string
		vx, vy    byte
		want      byte
		wantCarry byte
	}{
		{name: "no carry", vx: 1, vy: 2, want: 3, wantCarry: 0},
		{name: "exact fit", vx: 0xFF, vy: 0, want: 0xFF, wantCarry: 0},
		{name: "wraps to zero", vx: 0xFF, vy: 1, want: 0, wantCarry: 1},
		{name: "wraps past zero", vx: 200, vy: 100, want: 44, wantCarry: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, 0x8AB4)
			m.v[0xA] = tt.vx
			m.v[0xB] = tt.vy

			assert.NoError(t, step(t, m))

			assert.Equal(t, tt.want, m.v[0xA])
			assert.Equal(t, tt.wantCarry, m.v[0xF])
		})
	}
}

func TestSubtractBorrowConvention(t *testing.T) {
	// VF = 1 iff the minuend is strictly greater before subtracting,
	// so equal operands clear the flag.
	tests := []struct {
		name     string
		word     uint16
		vx, vy   byte
		want     byte
		wantFlag byte
	}{
		{name: "sub no borrow", word: 0x8AB5, vx: 10, vy: 3, want: 7, wantFlag: 1},
		{name: "sub with borrow", word: 0x8AB5, vx: 3, vy: 10, want: 249, wantFlag: 0},
		{name: "sub equal", word: 0x8AB5, vx: 5, vy: 5, want: 0, wantFlag: 0},
		{name: "subn no borrow", word: 0x8AB7, vx: 3, vy: 10, want: 7, wantFlag: 1},
		{name: "subn with borrow", word: 0x8AB7, vx: 10, vy: 3, want: 249, wantFlag: 0},
		{name: "subn equal", word: 0x8AB7, vx: 5, vy: 5, want: 0, wantFlag: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.word)
			m.v[0xA] = tt.vx
			m.v[0xB] = tt.vy

			assert.NoError(t, step(t, m))

			assert.Equal(t, tt.want, m.v[0xA])
			assert.Equal(t, tt.wantFlag, m.v[0xF])
		})
	}
}

func TestShiftsIgnoreSecondOperand(t *testing.T) {
	tests := []struct {
		name     string
		word     uint16
		vx       byte
		want     byte
		wantFlag byte
	}{
		{name: "shr lsb set", word: 0x8AB6, vx: 0x05, want: 0x02, wantFlag: 1},
		{name: "shr lsb clear", word: 0x8AB6, vx: 0x04, want: 0x02, wantFlag: 0},
		{name: "shl msb set", word: 0x8ABE, vx: 0x81, want: 0x02, wantFlag: 1},
		{name: "shl msb clear", word: 0x8ABE, vx: 0x41, want: 0x82, wantFlag: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.word)
			m.v[0xA] = tt.vx
			m.v[0xB] = 0xFF // decoded but must not participate

			assert.NoError(t, step(t, m))

			assert.Equal(t, tt.want, m.v[0xA])
			assert.Equal(t, tt.wantFlag, m.v[0xF])
			assert.Equal(t, byte(0xFF), m.v[0xB])
		})
	}
}

func TestLoadIndex(t *testing.T) {
	m := newTestMachine(t, 0xA123)
	assert.NoError(t, step(t, m))
	assert.Equal(t, uint16(0x123), m.i)
}

func TestRandomMasked(t *testing.T) {
	m := newTestMachine(t, 0xCA0F, 0xCA00)
	assert.NoError(t, step(t, m))
	// whatever the drawn byte was, bits outside the mask are clear
	assert.Equal(t, byte(0), m.v[0xA]&^byte(0x0F))

	assert.NoError(t, step(t, m))
	assert.Equal(t, byte(0), m.v[0xA])
}

func TestSkipOnKey(t *testing.T) {
	tests := []struct {
		name string
		word uint16
		vx   byte
		down bool
		skip bool
	}{
		{name: "skp pressed", word: 0xEA9E, vx: 4, down: true, skip: true},
		{name: "skp released", word: 0xEA9E, vx: 4},
		{name: "sknp released", word: 0xEAA1, vx: 4, skip: true},
		{name: "sknp pressed", word: 0xEAA1, vx: 4, down: true},
		{name: "skp register past keypad", word: 0xEA9E, vx: 200},
		{name: "sknp register past keypad", word: 0xEAA1, vx: 200, skip: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.word)
			m.v[0xA] = tt.vx
			if tt.down {
				assert.NoError(t, m.SetKey(int(tt.vx), true))
			}

			assert.NoError(t, step(t, m))

			want := uint16(ProgramStart + 2)
			if tt.skip {
				want += 2
			}
			assert.Equal(t, want, m.pc)
		})
	}
}

func TestWaitForKeySelfLoop(t *testing.T) {
	m := newTestMachine(t, 0xFA0A)

	// no key pressed: the same address is refetched step after step
	for i := 0; i < 3; i++ {
		assert.NoError(t, step(t, m))
		assert.Equal(t, uint16(ProgramStart), m.pc)
	}

	// lowest-indexed pressed key wins
	assert.NoError(t, m.SetKey(9, true))
	assert.NoError(t, m.SetKey(3, true))

	assert.NoError(t, step(t, m))
	assert.Equal(t, byte(3), m.v[0xA])
	assert.Equal(t, uint16(ProgramStart+2), m.pc)
}

func TestWaitForKeyTicksTimers(t *testing.T) {
	m := newTestMachine(t, 0xFA0A)
	m.delayTimer = 3

	// the self-loop is a decode-level loop, not a suspension: every
	// step still ticks the timers
	assert.NoError(t, step(t, m))
	assert.Equal(t, byte(2), m.delayTimer)
}

func TestTimerTransfers(t *testing.T) {
	m := newTestMachine(t, 0xFA15, 0xFB18, 0xFC07)
	m.v[0xA] = 30
	m.v[0xB] = 20

	assert.NoError(t, step(t, m)) // LD DT, VA
	assert.Equal(t, byte(29), m.delayTimer)

	assert.NoError(t, step(t, m)) // LD ST, VB
	assert.Equal(t, byte(19), m.soundTimer)
	assert.True(t, m.SoundActive())

	assert.NoError(t, step(t, m)) // LD VC, DT
	// the read happens before the end-of-step tick
	assert.Equal(t, byte(28), m.v[0xC])
}

func TestTimersFloorAtZero(t *testing.T) {
	m := newTestMachine(t, 0x6000, 0x6000, 0x6000)
	m.delayTimer = 1

	assert.NoError(t, step(t, m))
	assert.Equal(t, byte(0), m.delayTimer)
	assert.Equal(t, byte(0), m.soundTimer)

	assert.NoError(t, step(t, m))
	assert.Equal(t, byte(0), m.delayTimer)
}

func TestAddIndex(t *testing.T) {
	m := newTestMachine(t, 0xFA1E)
	m.i = 0x100
	m.v[0xA] = 0x20

	assert.NoError(t, step(t, m))
	assert.Equal(t, uint16(0x120), m.i)
}

func TestAddIndexOverflowClamp(t *testing.T) {
	m := newTestMachine(t, 0xFA1E)
	m.i = MemorySize - 1
	m.v[0xA] = 2
	m.delayTimer = 5

	err := step(t, m)
	assert.True(t, errors.Is(err, ErrIndexOverflow))
	assert.False(t, IsHalted(err))
	// the index register resets instead of wrapping
	assert.Equal(t, uint16(0), m.i)
	// the clamp completes the step, so the timers still ticked
	assert.Equal(t, byte(4), m.delayTimer)
}

func TestFontAddress(t *testing.T) {
	m := newTestMachine(t, 0xFA29)
	m.v[0xA] = 0xB

	assert.NoError(t, step(t, m))
	assert.Equal(t, uint16(FontStart+0xB*5), m.i)

	// the addressed bytes are digit B's sprite rows
	assert.Equal(t, byte(0xE0), m.mem[m.i])
}

func TestFontAddressOutOfRange(t *testing.T) {
	m := newTestMachine(t, 0xFA29)
	m.v[0xA] = 16
	m.i = 0x300

	err := step(t, m)
	assert.True(t, errors.Is(err, ErrInvalidFontDigit))
	assert.Equal(t, uint16(0), m.i)
}

func TestBCD(t *testing.T) {
	tests := []struct {
		value  byte
		digits [3]byte
	}{
		{value: 234, digits: [3]byte{2, 3, 4}},
		{value: 7, digits: [3]byte{0, 0, 7}},
		{value: 40, digits: [3]byte{0, 4, 0}},
		{value: 255, digits: [3]byte{2, 5, 5}},
	}

	for _, tt := range tests {
		m := newTestMachine(t, 0xFA33)
		m.v[0xA] = tt.value
		m.i = 0x400

		assert.NoError(t, step(t, m))

		assert.Equal(t, tt.digits[0], m.mem[0x400])
		assert.Equal(t, tt.digits[1], m.mem[0x401])
		assert.Equal(t, tt.digits[2], m.mem[0x402])
	}
}

func TestBCDOutOfRange(t *testing.T) {
	m := newTestMachine(t, 0xFA33)
	m.v[0xA] = 123
	m.i = MemorySize - 2

	err := step(t, m)
	assert.True(t, errors.Is(err, ErrAddressOutOfRange))
	// no partial digits written
	assert.Equal(t, byte(0), m.mem[MemorySize-2])
	assert.Equal(t, byte(0), m.mem[MemorySize-1])
}

func TestRegisterDumpLoadRoundTrip(t *testing.T) {
	m := newTestMachine(t, 0xFF65, 0xFF55)
	m.i = 0x500
	for i := 0; i < 16; i++ {
		m.mem[0x500+i] = byte(i + 1)
	}

	assert.NoError(t, step(t, m)) // LD V0..VF, [I]
	for i := 0; i < 16; i++ {
		assert.Equal(t, byte(i+1), m.v[i])
	}
	assert.Equal(t, byte(16), m.v[0xF])

	// dump to a fresh area and compare
	m.i = 0x600
	assert.NoError(t, step(t, m)) // LD [I], V0..VF
	for i := 0; i < 16; i++ {
		assert.Equal(t, byte(i+1), m.mem[0x600+i])
	}
}

func TestAbortedStepSkipsTimerTick(t *testing.T) {
	tests := []struct {
		name string
		word uint16
	}{
		{name: "register dump", word: 0xFF55},
		{name: "register load", word: 0xFF65},
		{name: "bcd", word: 0xFA33},
		{name: "sprite read", word: 0xDAB4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.word)
			m.i = MemorySize - 1
			m.delayTimer = 7
			m.soundTimer = 2

			err := step(t, m)
			assert.True(t, errors.Is(err, ErrAddressOutOfRange))

			assert.Equal(t, byte(7), m.delayTimer)
			assert.Equal(t, byte(2), m.soundTimer)
		})
	}
}

func TestStepErrorMessages(t *testing.T) {
	// an all-zero word is a real fetched opcode, its message names it
	m := newTestMachine(t, 0x0000)
	err := step(t, m)
	assert.True(t, errors.Is(err, ErrUnknownOpcode))
	assert.True(t, strings.Contains(err.Error(), "opcode $0000"))

	// a failed fetch has no opcode word to report
	m = newTestMachine(t)
	m.pc = MemorySize - 1
	err = step(t, m)
	assert.True(t, errors.Is(err, ErrPCOutOfRange))
	assert.False(t, strings.Contains(err.Error(), "opcode"))
}

func TestRegisterDumpOutOfRangeAborted(t *testing.T) {
	m := newTestMachine(t, 0xFF55, 0xFF65)
	m.i = MemorySize - 8
	for i := range m.v {
		m.v[i] = 0xAA
	}

	err := step(t, m)
	assert.True(t, errors.Is(err, ErrAddressOutOfRange))
	// aborted before any byte was written
	for addr := MemorySize - 8; addr < MemorySize; addr++ {
		assert.Equal(t, byte(0), m.mem[addr])
	}

	err = step(t, m)
	assert.True(t, errors.Is(err, ErrAddressOutOfRange))
	// aborted before any register was read
	assert.Equal(t, byte(0xAA), m.v[0])
}
