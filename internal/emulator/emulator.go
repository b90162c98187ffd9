// Package emulator runs a CHIP-8 machine against a frontend.
package emulator

import (
	"context"
	"fmt"
	"time"

	"github.com/retroenv/chip8emu/internal/chip8"
	"github.com/retroenv/chip8emu/internal/frontend"
	"github.com/retroenv/chip8emu/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// Emulator drives the machine at a fixed step rate, feeding it key
// state from the frontend and presenting frames when the screen
// changed.
type Emulator struct {
	logger   *log.Logger
	machine  *chip8.Machine
	interp   *chip8.Interpreter
	frontend frontend.Frontend
	opts     options.Runtime

	trace bool
}

// New creates an emulator with the ROM loaded into a fresh machine.
func New(logger *log.Logger, front frontend.Frontend, rom []byte,
	program options.Program, opts options.Runtime) (*Emulator, error) {

	machine := chip8.New()
	if err := machine.LoadROM(rom); err != nil {
		return nil, fmt.Errorf("loading ROM: %w", err)
	}

	return &Emulator{
		logger:   logger,
		machine:  machine,
		interp:   chip8.NewInterpreter(machine),
		frontend: front,
		opts:     opts,
		trace:    program.Trace,
	}, nil
}

// Run executes the machine until the context is cancelled, the
// frontend requests a quit, execution leaves addressable memory or
// the program counter runs past the loaded ROM.
func (e *Emulator) Run(ctx context.Context) error {
	var ticker *time.Ticker
	if e.opts.StepsPerSecond > 0 {
		ticker = time.NewTicker(time.Second / time.Duration(e.opts.StepsPerSecond))
		defer ticker.Stop()
	}

	for {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if e.pollInput() {
			e.logger.Debug("Quit requested")
			return nil
		}

		if halted := e.step(); halted {
			return nil
		}

		e.present()

		if e.opts.StopAtROMEnd && e.machine.PastROMEnd() {
			e.logger.Info("Program counter ran past end of ROM, stopping",
				log.Hex("pc", e.machine.PC()))
			return nil
		}
	}
}

// pollInput transfers the frontend key state to the machine and
// reports whether a quit was requested.
func (e *Emulator) pollInput() bool {
	keys, quit := e.frontend.Poll()
	for i, down := range keys {
		_ = e.machine.SetKey(i, down)
	}
	return quit
}

// step executes one instruction and reports whether the machine can
// make no further progress. Faults that leave the machine runnable
// are logged and execution continues.
func (e *Emulator) step() bool {
	op, err := e.interp.Step()
	if err != nil {
		if chip8.IsHalted(err) {
			e.logger.Error("Execution left addressable memory, stopping",
				log.Err(err))
			return true
		}
		e.logger.Warn("Instruction faulted", log.Err(err))
		return false
	}

	if e.trace {
		e.logger.Debug("Executed instruction",
			log.String("name", op.Name()),
			log.Hex("opcode", op.Word),
			log.Hex("pc", e.machine.PC()))
	}
	return false
}

// present renders the frame if the screen changed and keeps the
// beeper in sync with the sound timer.
func (e *Emulator) present() {
	if e.machine.NeedsRedraw() {
		if err := e.frontend.Render(e.machine.Pixels()); err != nil {
			e.logger.Error("Rendering frame failed", log.Err(err))
		}
		e.machine.RedrawConsumed()
	}
	e.frontend.SetSound(e.machine.SoundActive())
}
