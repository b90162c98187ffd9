// Package loader handles ROM file loading operations.
package loader

import (
	"fmt"
	"os"

	"github.com/retroenv/chip8emu/internal/chip8"
)

// Loader handles loading ROM files from disk.
type Loader struct{}

// New creates a new ROM loader.
func New() *Loader {
	return &Loader{}
}

// Load reads a CHIP-8 ROM file and returns its raw bytes. Empty files
// and programs that do not fit into the memory above the program start
// address are rejected before any byte reaches the machine.
func (l *Loader) Load(path string) ([]byte, error) {
	rom, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}

	if len(rom) == 0 {
		return nil, fmt.Errorf("file %s contains no program bytes", path)
	}
	if len(rom) > chip8.MaxROMSize {
		return nil, fmt.Errorf("file %s: ROM size %d exceeds maximum of %d bytes",
			path, len(rom), chip8.MaxROMSize)
	}

	return rom, nil
}
