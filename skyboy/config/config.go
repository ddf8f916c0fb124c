package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"github.com/valerio/go-skyboy/skyboy/cpu"
)

// ErrUnknownPrefixPolicy is returned for a prefix_policy other than "atomic" or "interruptible".
var ErrUnknownPrefixPolicy = errors.New("unknown prefix policy")

const cfgFilename = "config.toml"

// NoBreakpoint disables the PC breakpoint.
const NoBreakpoint = -1

type Config struct {
	Emulation EmulationConfig `toml:"emulation"`
	Trace     TraceConfig     `toml:"trace"`
	Input     InputConfig     `toml:"input"`
	Display   DisplayConfig   `toml:"display"`
}

type EmulationConfig struct {
	// StepInstructions is the number of instructions run per host frame.
	StepInstructions int `toml:"step_instructions"`
	// Breakpoint pauses execution when PC reaches it, -1 disables it.
	Breakpoint int `toml:"breakpoint"`
	// PrefixPolicy is "atomic" or "interruptible".
	PrefixPolicy string `toml:"prefix_policy"`
	// SaveStates is the capacity of the rewind ring.
	SaveStates int `toml:"save_states"`
	// RewindInterval pushes a snapshot every N running frames, 0 disables it.
	RewindInterval int `toml:"rewind_interval"`
}

type TraceConfig struct {
	// Path receives one line per instruction when not empty.
	Path string `toml:"path"`
}

// InputConfig maps joypad buttons and emulator actions to keyboard keys.
type InputConfig struct {
	Up     string `toml:"up"`
	Down   string `toml:"down"`
	Left   string `toml:"left"`
	Right  string `toml:"right"`
	A      string `toml:"a"`
	B      string `toml:"b"`
	Start  string `toml:"start"`
	Select string `toml:"select"`

	Pause  string `toml:"pause"`
	Step   string `toml:"step"`
	Rewind string `toml:"rewind"`
	Reset  string `toml:"reset"`
}

type DisplayConfig struct {
	FPS int `toml:"fps"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Emulation: EmulationConfig{
			StepInstructions: 7000,
			Breakpoint:       NoBreakpoint,
			PrefixPolicy:     cpu.PrefixAtomic.String(),
			SaveStates:       128,
			RewindInterval:   1,
		},
		Input: InputConfig{
			Up:     "w",
			Down:   "s",
			Left:   "a",
			Right:  "d",
			A:      "j",
			B:      "k",
			Start:  "enter",
			Select: "'",
			Pause:  "p",
			Step:   "n",
			Rewind: "r",
			Reset:  "backspace",
		},
		Display: DisplayConfig{
			FPS: 60,
		},
	}
}

// DefaultPath returns the config file location in the user configuration directory.
func DefaultPath() string {
	return filepath.Join(configdir.LocalConfig("skyboy"), cfgFilename)
}

// Load decodes a TOML file over the defaults. Keys missing from the file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults when the file does not exist.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes the configuration, creating the parent directory if needed.
func Save(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, buf, 0o644)
}

// Validate checks values that cannot be corrected silently.
func (c Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return err
	}
	if c.Emulation.StepInstructions <= 0 {
		return fmt.Errorf("step_instructions must be positive, got %d", c.Emulation.StepInstructions)
	}
	if c.Emulation.SaveStates < 0 {
		return fmt.Errorf("save_states must not be negative, got %d", c.Emulation.SaveStates)
	}
	if c.Emulation.Breakpoint < NoBreakpoint || c.Emulation.Breakpoint > 0xFFFF {
		return fmt.Errorf("breakpoint out of range: %d", c.Emulation.Breakpoint)
	}
	return nil
}

// Policy parses the prefix policy.
func (c Config) Policy() (cpu.PrefixPolicy, error) {
	switch c.Emulation.PrefixPolicy {
	case "", cpu.PrefixAtomic.String():
		return cpu.PrefixAtomic, nil
	case cpu.PrefixInterruptible.String():
		return cpu.PrefixInterruptible, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPrefixPolicy, c.Emulation.PrefixPolicy)
}
