// Package chip8 implements the CHIP-8 virtual machine core: the machine
// state and the fetch/decode/execute interpreter for the 35-instruction
// CHIP-8 architecture.
//
// CHIP-8 memory map (4KB total):
//
//	0x000-0x1FF: Interpreter reserved area, font data at 0x050
//	0x200-0xFFF: User program space (3584 bytes)
package chip8

import (
	"math/rand"
	"time"
)

// Machine layout constants.
const (
	// MemorySize is the total size of CHIP-8 memory in bytes.
	MemorySize = 4096

	// FontStart is the memory address the font sprites are copied to.
	FontStart = 0x050

	// ProgramStart is the memory address where CHIP-8 programs begin execution.
	ProgramStart = 0x200

	// MaxROMSize is the largest program that fits above ProgramStart.
	MaxROMSize = MemorySize - ProgramStart

	// StackDepth is the number of call stack slots.
	StackDepth = 16

	// ScreenWidth and ScreenHeight describe the monochrome framebuffer.
	ScreenWidth  = 64
	ScreenHeight = 32

	// KeyCount is the number of keys on the CHIP-8 keypad.
	KeyCount = 16
)

// fontSprites holds the built-in 4x5 font for the hex digits 0-F,
// 5 bytes per digit.
var fontSprites = [80]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Machine holds all VM-visible state: memory, registers, call stack,
// timers, framebuffer and the key vector. It performs no instruction
// logic; the interpreter mutates it one step at a time. A Machine is
// owned by a single driving context and is not safe for concurrent use.
type Machine struct {
	mem   [MemorySize]byte
	v     [16]byte // general purpose registers V0-VF
	i     uint16   // index register
	pc    uint16
	stack [StackDepth]uint16
	sp    byte

	delayTimer byte
	soundTimer byte

	gfx  [ScreenWidth * ScreenHeight]byte
	keys [KeyCount]bool

	romSize uint16
	redraw  bool

	rand *rand.Rand
}

// New returns a machine with cleared registers, memory, stack, timers
// and framebuffer, the font copied into its reserved memory area and
// the program counter at ProgramStart.
func New() *Machine {
	m := &Machine{
		pc:   ProgramStart,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	copy(m.mem[FontStart:], fontSprites[:])
	return m
}

// LoadROM copies a program into memory at ProgramStart. Oversized input
// is rejected before any byte is copied.
func (m *Machine) LoadROM(rom []byte) error {
	if len(rom) > MaxROMSize {
		return &StepError{err: ErrROMTooLarge, PC: ProgramStart}
	}
	copy(m.mem[ProgramStart:], rom)
	m.romSize = uint16(len(rom))
	return nil
}

// Pixel returns the framebuffer bit at (x, y). Out-of-range coordinates
// yield 0 and a reported condition instead of an undefined access.
func (m *Machine) Pixel(x, y int) (byte, error) {
	if x < 0 || x >= ScreenWidth || y < 0 || y >= ScreenHeight {
		return 0, &StepError{err: ErrInvalidCoordinate}
	}
	return m.gfx[y*ScreenWidth+x], nil
}

// Pixels returns a copy of the framebuffer, one byte per pixel in
// row-major order.
func (m *Machine) Pixels() []byte {
	buf := make([]byte, len(m.gfx))
	copy(buf, m.gfx[:])
	return buf
}

// SetKey stores the pressed state of one keypad key. Indexes outside
// the keypad are rejected without side effect.
func (m *Machine) SetKey(index int, down bool) error {
	if index < 0 || index >= KeyCount {
		return &StepError{err: ErrInvalidKey}
	}
	m.keys[index] = down
	return nil
}

// NeedsRedraw reports whether the framebuffer changed since the last
// call to RedrawConsumed.
func (m *Machine) NeedsRedraw() bool {
	return m.redraw
}

// RedrawConsumed clears the redraw flag after a rendering consumer has
// picked up the frame.
func (m *Machine) RedrawConsumed() {
	m.redraw = false
}

// SoundActive reports whether the sound timer is running, which is the
// signal for the front end to play its tone.
func (m *Machine) SoundActive() bool {
	return m.soundTimer > 0
}

// PC returns the current program counter.
func (m *Machine) PC() uint16 {
	return m.pc
}

// PastROMEnd reports whether the program counter has advanced beyond
// the loaded program. Real programs loop backwards forever; this is a
// convenience heuristic for the driving loop, not a VM invariant.
func (m *Machine) PastROMEnd() bool {
	return m.pc >= ProgramStart+m.romSize
}

// tickTimers decrements both countdown timers, floored at zero. Called
// once per interpreter step.
func (m *Machine) tickTimers() {
	if m.delayTimer > 0 {
		m.delayTimer--
	}
	if m.soundTimer > 0 {
		m.soundTimer--
	}
}
