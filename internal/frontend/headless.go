package frontend

import (
	"strings"

	"github.com/retroenv/chip8emu/internal/chip8"
)

// Headless runs the emulator without a window. Key state and quit
// requests are set programmatically, rendered frames are recorded.
// It backs the -headless flag and the emulator tests.
type Headless struct {
	keys     [chip8.KeyCount]bool
	quit     bool
	frames   int
	last     []byte
	sounding bool
}

// NewHeadless returns a frontend without any host window or audio.
func NewHeadless() *Headless {
	return &Headless{}
}

// Poll implements Frontend.
func (h *Headless) Poll() (keys [chip8.KeyCount]bool, quit bool) {
	return h.keys, h.quit
}

// Render implements Frontend by recording the frame.
func (h *Headless) Render(pixels []byte) error {
	h.frames++
	h.last = make([]byte, len(pixels))
	copy(h.last, pixels)
	return nil
}

// SetSound implements Frontend.
func (h *Headless) SetSound(active bool) {
	h.sounding = active
}

// Close implements Frontend.
func (h *Headless) Close() {}

// PressKey sets the pressed state of a keypad key for the next poll.
func (h *Headless) PressKey(index int, down bool) {
	if index < 0 || index >= chip8.KeyCount {
		return
	}
	h.keys[index] = down
}

// RequestQuit makes the next poll report a quit request.
func (h *Headless) RequestQuit() {
	h.quit = true
}

// Frames returns the number of rendered frames.
func (h *Headless) Frames() int {
	return h.frames
}

// LastFrame returns the most recently rendered frame, or nil if
// nothing has been rendered yet.
func (h *Headless) LastFrame() []byte {
	return h.last
}

// Sounding returns whether the beeper was last set active.
func (h *Headless) Sounding() bool {
	return h.sounding
}

// FrameString renders the last frame as ASCII art, one character per
// pixel, # for set and . for clear.
func (h *Headless) FrameString() string {
	if h.last == nil {
		return ""
	}

	var sb strings.Builder
	sb.Grow((chip8.ScreenWidth + 1) * chip8.ScreenHeight)
	for y := 0; y < chip8.ScreenHeight; y++ {
		for x := 0; x < chip8.ScreenWidth; x++ {
			if h.last[y*chip8.ScreenWidth+x] != 0 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
