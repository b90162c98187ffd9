package chip8

// Interpreter advances a machine by exactly one fetch/decode/execute
// step per call. It holds no state of its own between calls; control
// location lives entirely in the machine's program counter.
type Interpreter struct {
	m *Machine
}

// NewInterpreter returns an interpreter driving the given machine.
func NewInterpreter(m *Machine) *Interpreter {
	return &Interpreter{m: m}
}

// Step fetches the instruction word at the program counter, advances
// the counter, executes the instruction and decrements both timers.
// The decoded opcode is returned for tracing even when execution
// reported a condition.
//
// Conditions that complete the step as a no-op (unknown opcodes, the
// index register and font clamps) still tick the timers. Conditions
// that abort the step (stack discipline violations, out-of-range
// memory accesses) return before the tick, and a failed fetch leaves
// all state unchanged.
func (in *Interpreter) Step() (Opcode, error) {
	m := in.m

	if int(m.pc)+1 >= MemorySize {
		return Opcode{}, &StepError{err: ErrPCOutOfRange, PC: m.pc}
	}

	fetchPC := m.pc
	word := uint16(m.mem[m.pc])<<8 | uint16(m.mem[m.pc+1])
	m.pc += 2

	op, ok := Decode(word)
	if !ok {
		m.tickTimers()
		return op, &StepError{err: ErrUnknownOpcode, PC: fetchPC, Word: word, fetched: true}
	}

	if err := in.execute(op); err != nil {
		stepErr := &StepError{err: err, PC: fetchPC, Word: word, fetched: true}
		if abortsStep(err) {
			return op, stepErr
		}
		m.tickTimers()
		return op, stepErr
	}
	m.tickTimers()
	return op, nil
}

// execute dispatches one decoded opcode. The program counter has
// already advanced past the instruction, so jump targets are absolute
// and the skip helpers step over the following instruction.
func (in *Interpreter) execute(op Opcode) error {
	m := in.m
	x, y := op.X, op.Y

	switch op.Info.Value {
	case 0x0000: // SYS addr, machine code on the original hosts
		return ErrUnknownOpcode

	case 0x00E0: // CLS
		m.gfx = [ScreenWidth * ScreenHeight]byte{}
		m.redraw = true

	case 0x00EE: // RET
		if m.sp == 0 {
			return ErrStackUnderflow
		}
		m.sp--
		m.pc = m.stack[m.sp]

	case 0x1000: // JP addr
		m.pc = op.NNN

	case 0x2000: // CALL addr
		if m.sp >= StackDepth {
			return ErrStackOverflow
		}
		m.stack[m.sp] = m.pc
		m.sp++
		m.pc = op.NNN

	case 0x3000: // SE Vx, byte
		if m.v[x] == op.NN {
			m.skipNext()
		}

	case 0x4000: // SNE Vx, byte
		if m.v[x] != op.NN {
			m.skipNext()
		}

	case 0x5000: // SE Vx, Vy
		if m.v[x] == m.v[y] {
			m.skipNext()
		}

	case 0x6000: // LD Vx, byte
		m.v[x] = op.NN

	case 0x7000: // ADD Vx, byte - 8-bit wraparound, no flag change
		m.v[x] += op.NN

	case 0x8000: // LD Vx, Vy
		m.v[x] = m.v[y]

	case 0x8001: // OR Vx, Vy
		m.v[x] |= m.v[y]

	case 0x8002: // AND Vx, Vy
		m.v[x] &= m.v[y]

	case 0x8003: // XOR Vx, Vy
		m.v[x] ^= m.v[y]

	case 0x8004: // ADD Vx, Vy
		sum := uint16(m.v[x]) + uint16(m.v[y])
		m.v[0xF] = 0
		if sum > 255 {
			m.v[0xF] = 1
		}
		m.v[x] = byte(sum)

	case 0x8005: // SUB Vx, Vy - VF = 1 iff Vx > Vy before subtracting
		flag := byte(0)
		if m.v[x] > m.v[y] {
			flag = 1
		}
		m.v[0xF] = flag
		m.v[x] -= m.v[y]

	case 0x8006: // SHR Vx - Vy is decoded but unused, a historical quirk
		m.v[0xF] = m.v[x] & 0x01
		m.v[x] >>= 1

	case 0x8007: // SUBN Vx, Vy - VF = 1 iff Vy > Vx
		flag := byte(0)
		if m.v[y] > m.v[x] {
			flag = 1
		}
		m.v[0xF] = flag
		m.v[x] = m.v[y] - m.v[x]

	case 0x800E: // SHL Vx - Vy unused, same quirk as SHR
		m.v[0xF] = m.v[x] >> 7
		m.v[x] <<= 1

	case 0x9000: // SNE Vx, Vy
		if m.v[x] != m.v[y] {
			m.skipNext()
		}

	case 0xA000: // LD I, addr - unchecked, consumers check lazily
		m.i = op.NNN

	case 0xB000: // JP V0, addr
		m.pc = uint16(m.v[0]) + op.NNN

	case 0xC000: // RND Vx, byte
		m.v[x] = byte(m.rand.Intn(256)) & op.NN

	case 0xD000: // DRW Vx, Vy, nibble
		return m.drawSprite(m.v[x], m.v[y], op.N)

	case 0xE09E: // SKP Vx
		if in.keyDown(m.v[x]) {
			m.skipNext()
		}

	case 0xE0A1: // SKNP Vx
		if !in.keyDown(m.v[x]) {
			m.skipNext()
		}

	case 0xF007: // LD Vx, DT
		m.v[x] = m.delayTimer

	case 0xF00A: // LD Vx, K - self-loop on the same address until a key is down
		if key, pressed := in.lowestPressedKey(); pressed {
			m.v[x] = key
		} else {
			m.pc -= 2
		}

	case 0xF015: // LD DT, Vx
		m.delayTimer = m.v[x]

	case 0xF018: // LD ST, Vx
		m.soundTimer = m.v[x]

	case 0xF01E: // ADD I, Vx - clamps to 0 when leaving memory
		m.i += uint16(m.v[x])
		if m.i >= MemorySize {
			m.i = 0
			return ErrIndexOverflow
		}

	case 0xF029: // LD F, Vx - font sprite address for digit Vx
		if m.v[x] >= 16 {
			m.i = 0
			return ErrInvalidFontDigit
		}
		m.i = FontStart + uint16(m.v[x])*5

	case 0xF033: // LD B, Vx - BCD digits to memory[I..I+2]
		if int(m.i)+2 >= MemorySize {
			return ErrAddressOutOfRange
		}
		m.mem[m.i] = m.v[x] / 100
		m.mem[m.i+1] = m.v[x] / 10 % 10
		m.mem[m.i+2] = m.v[x] % 10

	case 0xF055: // LD [I], Vx - dump V0..Vx, aborted whole when out of range
		if int(m.i)+int(x) >= MemorySize {
			return ErrAddressOutOfRange
		}
		for r := byte(0); r <= x; r++ {
			m.mem[m.i+uint16(r)] = m.v[r]
		}

	case 0xF065: // LD Vx, [I] - load V0..Vx, aborted whole when out of range
		if int(m.i)+int(x) >= MemorySize {
			return ErrAddressOutOfRange
		}
		for r := byte(0); r <= x; r++ {
			m.v[r] = m.mem[m.i+uint16(r)]
		}

	default:
		return ErrUnknownOpcode
	}

	return nil
}

// skipNext steps over the following instruction.
func (m *Machine) skipNext() {
	m.pc += 2
}

// keyDown reports whether the key selected by a register value is
// pressed. Register values past the keypad read as released.
func (in *Interpreter) keyDown(value byte) bool {
	return int(value) < KeyCount && in.m.keys[value]
}

// lowestPressedKey scans the key vector in ascending index order.
func (in *Interpreter) lowestPressedKey() (byte, bool) {
	for i, down := range in.m.keys {
		if down {
			return byte(i), true
		}
	}
	return 0, false
}
