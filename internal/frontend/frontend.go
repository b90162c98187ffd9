// Package frontend provides the I/O surfaces of the emulator: window
// rendering, keyboard input and the beeper. The interpreter core never
// talks to a front end directly; the driving loop moves framebuffer,
// key and sound state across this boundary each tick.
package frontend

import (
	"github.com/retroenv/chip8emu/internal/chip8"
	"github.com/retroenv/chip8emu/internal/options"
)

// Frontend is the interface to all front end implementations.
type Frontend interface {
	// Poll processes pending input events and returns the current
	// pressed state of the 16 logical keys and whether the user
	// requested to quit.
	Poll() (keys [chip8.KeyCount]bool, quit bool)

	// Render displays a 64x32 framebuffer, one byte per pixel in
	// row-major order.
	Render(pixels []byte) error

	// SetSound starts or stops the beeper tone.
	SetSound(active bool)

	// Close releases the front end resources.
	Close()
}

// New creates the front end selected by the runtime options.
func New(runtime options.Runtime) (Frontend, error) {
	if runtime.Headless {
		return NewHeadless(), nil
	}
	return NewSDL(runtime.Scale)
}
