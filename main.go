// Package main implements the main entry point for a CHIP-8 emulator
package main

import (
	"context"
	"errors"
	"os"

	"github.com/retroenv/chip8emu/internal/cli"
	"github.com/retroenv/chip8emu/internal/config"
	"github.com/retroenv/chip8emu/internal/emulator"
	"github.com/retroenv/chip8emu/internal/frontend"
	"github.com/retroenv/chip8emu/internal/loader"
	"github.com/retroenv/chip8emu/internal/options"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, runtimeOptions, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			emulator.PrintBanner(logger, opts, version, commit, date)
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts)
	emulator.PrintBanner(logger, opts, version, commit, date)

	if err := run(ctx, logger, opts, runtimeOptions); err != nil {
		// Handle context cancellation (Ctrl+C) gracefully
		if errors.Is(err, context.Canceled) {
			logger.Info("Emulation cancelled")
			return
		}
		logger.Error("Emulation failed", log.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *log.Logger, opts options.Program,
	runtimeOptions options.Runtime) error {

	rom, err := loader.New().Load(opts.Input)
	if err != nil {
		return err
	}
	logger.Debug("Loaded ROM",
		log.String("file", opts.Input),
		log.Int("size", len(rom)))

	front, err := frontend.New(runtimeOptions)
	if err != nil {
		return err
	}
	defer front.Close()

	emu, err := emulator.New(logger, front, rom, opts, runtimeOptions)
	if err != nil {
		return err
	}
	return emu.Run(ctx)
}
