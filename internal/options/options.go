// Package options contains the program options.
package options

// Defaults for the runtime options.
const (
	DefaultScale          = 16
	DefaultStepsPerSecond = 500
)

// Program options of the emulator.
type Program struct {
	Input string // ROM file to run

	Debug bool // enable debug logging
	Quiet bool // only log errors
	Trace bool // log every executed instruction
}

// Runtime defines options that control the driving loop and front end.
type Runtime struct {
	Scale          int  // window scale factor for the 64x32 screen
	StepsPerSecond int  // interpreter pacing, 0 runs unpaced
	StopAtROMEnd   bool // halt once the program counter passes the ROM extent
	Headless       bool // run without a window
}

// NewRuntime returns a new options instance with default options.
func NewRuntime() Runtime {
	return Runtime{
		Scale:          DefaultScale,
		StepsPerSecond: DefaultStepsPerSecond,
		StopAtROMEnd:   true,
	}
}
