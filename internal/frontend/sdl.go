package frontend

import (
	"fmt"
	"runtime"

	"github.com/retroenv/chip8emu/internal/chip8"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	windowTitle = "chip8emu"

	beepFrequency  = 440   // beeper tone in Hz
	beepAmplitude  = 3000  // square wave peak for 16 bit samples
	audioFrequency = 48000 // samples per second
	audioQueueMin  = 4096  // refill threshold in bytes
)

// keypadScancodes maps the logical CHIP-8 keys 0-F to the physical
// keyboard rows 1234 / QWER / ASDF / ZXCV.
var keypadScancodes = [chip8.KeyCount]sdl.Scancode{
	sdl.SCANCODE_1, sdl.SCANCODE_2, sdl.SCANCODE_3, sdl.SCANCODE_4,
	sdl.SCANCODE_Q, sdl.SCANCODE_W, sdl.SCANCODE_E, sdl.SCANCODE_R,
	sdl.SCANCODE_A, sdl.SCANCODE_S, sdl.SCANCODE_D, sdl.SCANCODE_F,
	sdl.SCANCODE_Z, sdl.SCANCODE_X, sdl.SCANCODE_C, sdl.SCANCODE_V,
}

// SDL renders the screen into a window and reads the host keyboard,
// mapping a 4x4 block of keys onto the CHIP-8 keypad. Escape or
// closing the window requests a quit.
type SDL struct {
	scale    int
	window   *sdl.Window
	renderer *sdl.Renderer

	audio    sdl.AudioDeviceID
	hasAudio bool
	beepBuf  []byte
	sounding bool
}

// NewSDL opens the emulator window at the given scale factor and
// prepares the beeper audio device.
func NewSDL(scale int) (*SDL, error) {
	// SDL requires its calls to stay on one OS thread.
	runtime.LockOSThread()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("initializing SDL: %w", err)
	}

	window, err := sdl.CreateWindow(windowTitle,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(chip8.ScreenWidth*scale), int32(chip8.ScreenHeight*scale),
		sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		_ = window.Destroy()
		return nil, fmt.Errorf("creating renderer: %w", err)
	}

	s := &SDL{
		scale:    scale,
		window:   window,
		renderer: renderer,
	}
	s.initAudio()
	return s, nil
}

// initAudio opens the beeper device. The emulator stays usable without
// sound, so a missing audio device only disables the beeper.
func (s *SDL) initAudio() {
	spec := sdl.AudioSpec{
		Freq:     audioFrequency,
		Format:   sdl.AUDIO_S16LSB,
		Channels: 1,
		Samples:  1024,
	}
	device, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		return
	}

	s.audio = device
	s.hasAudio = true
	s.beepBuf = squareWave()
}

// squareWave renders a quarter second of the beeper tone.
func squareWave() []byte {
	samples := audioFrequency / 4
	period := audioFrequency / beepFrequency
	buf := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		value := int16(beepAmplitude)
		if i%period < period/2 {
			value = -beepAmplitude
		}
		buf[i*2] = byte(value)
		buf[i*2+1] = byte(value >> 8)
	}
	return buf
}

// Poll implements Frontend.
func (s *SDL) Poll() (keys [chip8.KeyCount]bool, quit bool) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch t := event.(type) {
		case *sdl.QuitEvent:
			quit = true
		case *sdl.KeyboardEvent:
			if t.Keysym.Sym == sdl.K_ESCAPE {
				quit = true
			}
		}
	}

	state := sdl.GetKeyboardState()
	for i, scancode := range keypadScancodes {
		keys[i] = state[scancode] != 0
	}
	return keys, quit
}

// Render implements Frontend. Set pixels are drawn as white scaled
// rectangles on a black background.
func (s *SDL) Render(pixels []byte) error {
	if err := s.renderer.SetDrawColor(0, 0, 0, 255); err != nil {
		return fmt.Errorf("setting background color: %w", err)
	}
	if err := s.renderer.Clear(); err != nil {
		return fmt.Errorf("clearing renderer: %w", err)
	}
	if err := s.renderer.SetDrawColor(255, 255, 255, 255); err != nil {
		return fmt.Errorf("setting pixel color: %w", err)
	}

	scale := int32(s.scale)
	for y := 0; y < chip8.ScreenHeight; y++ {
		for x := 0; x < chip8.ScreenWidth; x++ {
			if pixels[y*chip8.ScreenWidth+x] == 0 {
				continue
			}
			rect := sdl.Rect{
				X: int32(x) * scale,
				Y: int32(y) * scale,
				W: scale,
				H: scale,
			}
			if err := s.renderer.FillRect(&rect); err != nil {
				return fmt.Errorf("drawing pixel (%d, %d): %w", x, y, err)
			}
		}
	}

	s.renderer.Present()
	return nil
}

// SetSound implements Frontend by keeping the audio queue filled with
// the beeper tone while the sound timer runs.
func (s *SDL) SetSound(active bool) {
	if !s.hasAudio {
		return
	}

	if !active {
		if s.sounding {
			sdl.PauseAudioDevice(s.audio, true)
			sdl.ClearQueuedAudio(s.audio)
			s.sounding = false
		}
		return
	}

	if sdl.GetQueuedAudioSize(s.audio) < audioQueueMin {
		_ = sdl.QueueAudio(s.audio, s.beepBuf)
	}
	if !s.sounding {
		sdl.PauseAudioDevice(s.audio, false)
		s.sounding = true
	}
}

// Close implements Frontend.
func (s *SDL) Close() {
	if s.hasAudio {
		sdl.CloseAudioDevice(s.audio)
	}
	if s.renderer != nil {
		_ = s.renderer.Destroy()
	}
	if s.window != nil {
		_ = s.window.Destroy()
	}
	sdl.Quit()
}
