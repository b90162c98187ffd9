// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/retroenv/chip8emu/internal/options"
)

// ParseFlags parses command line flags and returns program and runtime options
func ParseFlags() (options.Program, options.Runtime, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	var opts options.Program
	runtime := options.NewRuntime()
	readOptionFlags(flags, &opts, &runtime)

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || len(args) == 0 {
		return opts, runtime, &UsageError{flags: flags}
	}

	if err := validateArgs(flags, args); err != nil {
		return opts, runtime, err
	}

	if err := validateOptions(flags, runtime); err != nil {
		return opts, runtime, err
	}

	opts.Input = args[0]

	return opts, runtime, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: chip8emu [options] <ROM file to run>\n\n")
	e.flags.PrintDefaults()
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(flags *flag.FlagSet, args []string) error {
	for i, arg := range args {
		if i > 0 && len(arg) > 0 && arg[0] == '-' {
			return &UsageError{
				flags: flags,
				msg:   fmt.Sprintf("Potential argument %s found after the ROM file, please pass the ROM file to run as last argument", arg),
			}
		}
	}
	return nil
}

// validateOptions normalizes and validates option values
func validateOptions(flags *flag.FlagSet, runtime options.Runtime) error {
	if runtime.Scale < 1 {
		return &UsageError{flags: flags, msg: fmt.Sprintf("invalid scale factor %d, must be at least 1", runtime.Scale)}
	}
	if runtime.StepsPerSecond < 0 {
		return &UsageError{flags: flags, msg: fmt.Sprintf("invalid steps per second %d, must be 0 (unpaced) or positive", runtime.StepsPerSecond)}
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program, runtime *options.Runtime) {
	flags.IntVar(&runtime.Scale, "scale", options.DefaultScale, "window scale factor for the 64x32 screen")
	flags.IntVar(&runtime.StepsPerSecond, "cps", options.DefaultStepsPerSecond, "interpreter steps per second, 0 runs unpaced")
	flags.BoolVar(&runtime.StopAtROMEnd, "stop-at-rom-end", true, "stop once the program counter passes the end of the loaded ROM")
	flags.BoolVar(&runtime.Headless, "headless", false, "run without a window, for scripted use")
	flags.BoolVar(&opts.Trace, "trace", false, "log every executed instruction")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
