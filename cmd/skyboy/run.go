package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/valerio/go-skyboy/skyboy"
	"github.com/valerio/go-skyboy/skyboy/backend"
	"github.com/valerio/go-skyboy/skyboy/backend/headless"
	"github.com/valerio/go-skyboy/skyboy/backend/terminal"
	"github.com/valerio/go-skyboy/skyboy/config"
	"github.com/valerio/go-skyboy/skyboy/debug"
	"github.com/valerio/go-skyboy/skyboy/memory"
	"github.com/valerio/go-skyboy/skyboy/timing"
)

var runFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "rom",
		Usage: "Path to the ROM file",
	},
	cli.BoolFlag{
		Name:  "headless",
		Usage: "Run the emulator without a terminal interface",
	},
	cli.IntFlag{
		Name:  "frames",
		Usage: "Number of host frames to run in headless mode (required for headless)",
	},
	cli.IntFlag{
		Name:  "snapshot-interval",
		Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
	},
	cli.StringFlag{
		Name:  "snapshot-dir",
		Usage: "Directory to save frame snapshots (default: temp directory)",
	},
	cli.StringFlag{
		Name:  "press",
		Usage: "Buttons held in headless mode, e.g. start@60-65,a@120",
	},
	cli.StringFlag{
		Name:  "breakpoint",
		Usage: "Pause when PC reaches this address, e.g. 0x0150",
	},
	cli.StringFlag{
		Name:  "trace",
		Usage: "Write one line per instruction to this file",
	},
	cli.IntFlag{
		Name:  "step-instructions",
		Usage: "Instructions executed per host frame (overrides the config file)",
	},
	cli.StringFlag{
		Name:  "prefix-policy",
		Usage: "Interrupts between 0xCB and its opcode: atomic or interruptible",
	},
	cli.StringFlag{
		Name:  "dump-state",
		Usage: "Write the final debug snapshot as JSON to this file",
	},
	cli.BoolFlag{
		Name:  "paused",
		Usage: "Start paused instead of running",
	},
	cli.BoolFlag{
		Name:  "debug",
		Usage: "Show the register and disassembly panel",
	},
}

// applyRunFlags overrides configuration values with the flags that were set.
func applyRunFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("step-instructions") {
		cfg.Emulation.StepInstructions = c.Int("step-instructions")
	}
	if c.IsSet("prefix-policy") {
		cfg.Emulation.PrefixPolicy = c.String("prefix-policy")
	}
	if c.IsSet("trace") {
		cfg.Trace.Path = c.String("trace")
	}
	if c.IsSet("breakpoint") {
		bp, err := parseAddress(c.String("breakpoint"))
		if err != nil {
			return err
		}
		cfg.Emulation.Breakpoint = bp
	}
	return cfg.Validate()
}

func runEmulator(c *cli.Context) error {
	if err := setupLogging(globalString(c, "log-level")); err != nil {
		return err
	}

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() == 0 {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
		romPath = c.Args().First()
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := applyRunFlags(c, &cfg); err != nil {
		return err
	}

	cart, err := memory.LoadCartridgeFile(romPath)
	if err != nil {
		return err
	}

	var opts []skyboy.Option
	if cfg.Trace.Path != "" {
		f, err := os.Create(cfg.Trace.Path)
		if err != nil {
			return fmt.Errorf("opening trace file: %w", err)
		}
		defer f.Close()
		opts = append(opts, skyboy.WithTrace(f))
		slog.Info("Tracing instructions", "path", cfg.Trace.Path)
	}

	emu, err := skyboy.New(cfg, opts...)
	if err != nil {
		return err
	}
	emu.LoadCartridge(cart)
	if !c.Bool("paused") {
		emu.SetRunMode(skyboy.RunModeRun)
	}

	loop := &backend.Loop{Emulator: emu, Debug: c.Bool("debug")}
	b, limiter, err := newBackend(c, cfg, romPath)
	if err != nil {
		return err
	}
	loop.Backend, loop.Limiter = b, limiter
	if c.IsSet("snapshot-dir") {
		loop.SnapshotDir = c.String("snapshot-dir")
	}

	if err := b.Init(backend.Config{Title: cart.Title, Keys: cfg.Input, ShowDebug: loop.Debug}); err != nil {
		return err
	}
	runErr := loop.Run()
	if err := b.Cleanup(); err != nil {
		slog.Warn("Backend cleanup failed", "error", err)
	}
	if runErr != nil {
		return runErr
	}

	if out := emu.SerialOutput(); out != "" {
		slog.Info("Serial output", "text", out)
	}
	if path := c.String("dump-state"); path != "" {
		if err := debug.WriteSnapshotJSON(emu.DebugSnapshot(), path); err != nil {
			return err
		}
		slog.Info("Debug snapshot written", "path", path)
	}
	return nil
}

func newBackend(c *cli.Context, cfg config.Config, romPath string) (backend.Backend, timing.Limiter, error) {
	if c.Bool("headless") {
		frames := c.Int("frames")
		if frames <= 0 {
			return nil, nil, errors.New("headless mode requires --frames option with a positive value")
		}
		snapshots, err := headless.NewSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), romPath)
		if err != nil {
			return nil, nil, err
		}
		script, err := headless.ParseScript(c.String("press"))
		if err != nil {
			return nil, nil, err
		}
		return headless.New(frames, snapshots, headless.WithScript(script...)), timing.NewNoOpLimiter(), nil
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil, nil, fmt.Errorf("%w: use --headless to run without a display", backend.ErrNotATerminal)
	}
	return terminal.New(), timing.NewTickerLimiter(cfg.Display.FPS), nil
}
