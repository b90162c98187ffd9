package chip8

// drawSprite blits an 8-pixel-wide, height-row sprite read from memory
// at the index register onto the framebuffer using XOR composition.
// VF ends up 1 if any set sprite bit landed on an already set pixel,
// sticky across the whole draw.
//
// The origin wraps modulo the screen size; rows past the bottom edge
// are clipped, not wrapped. The redraw flag is set even when no pixel
// changed value.
func (m *Machine) drawSprite(originX, originY, height byte) error {
	m.v[0xF] = 0

	x := int(originX) % ScreenWidth
	y := int(originY) % ScreenHeight

	for row := 0; row < int(height); row++ {
		if y+row >= ScreenHeight {
			break // clip at the bottom edge
		}
		addr := int(m.i) + row
		if addr >= MemorySize {
			m.redraw = true
			return ErrAddressOutOfRange
		}
		spriteByte := m.mem[addr]

		for col := 0; col < 8; col++ {
			bit := spriteByte >> (7 - col) & 1
			screenX := (x + col) % ScreenWidth
			screenY := (y + row) % ScreenHeight
			index := screenY*ScreenWidth + screenX

			if bit == 1 && m.gfx[index] == 1 {
				m.v[0xF] = 1
			}
			m.gfx[index] ^= bit
		}
	}

	m.redraw = true
	return nil
}
