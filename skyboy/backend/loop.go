package backend

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-skyboy/skyboy"
	"github.com/valerio/go-skyboy/skyboy/debug"
	"github.com/valerio/go-skyboy/skyboy/timing"
)

// Loop drives the emulator with a backend until the backend asks to quit.
type Loop struct {
	Emulator *skyboy.Emulator
	Backend  Backend
	Limiter  timing.Limiter

	// SnapshotDir receives PNG snapshots, empty means the working directory.
	SnapshotDir string
	// Debug asks for a debug snapshot every frame.
	Debug bool
}

// Run presents frames and ticks the emulator once per host frame.
func (l *Loop) Run() error {
	limiter := l.Limiter
	if limiter == nil {
		limiter = timing.NewNoOpLimiter()
	}
	defer limiter.Stop()

	for {
		var state *debug.Snapshot
		if l.Debug {
			state = l.Emulator.DebugSnapshot()
		}

		input, err := l.Backend.Update(l.Emulator.Framebuffer(), state)
		if err != nil {
			return fmt.Errorf("backend update: %w", err)
		}

		for _, act := range input.Actions {
			if act == ActionQuit {
				return nil
			}
			l.handleAction(act, limiter)
		}

		l.Emulator.Tick(input.Joypad)
		limiter.WaitForNextFrame()
	}
}

func (l *Loop) handleAction(act Action, limiter timing.Limiter) {
	emu := l.Emulator
	switch act {
	case ActionTogglePause:
		if emu.RunMode() == skyboy.RunModeRun {
			emu.SetRunMode(skyboy.RunModePause)
			slog.Info("Paused")
		} else {
			emu.SetRunMode(skyboy.RunModeRun)
			limiter.Reset()
			slog.Info("Running")
		}
	case ActionStep:
		emu.SetRunMode(skyboy.RunModeStep)
	case ActionRewind:
		if emu.PopState() {
			emu.SetRunMode(skyboy.RunModePause)
			slog.Info("Rewound", "remaining", emu.SaveStates())
		}
	case ActionReset:
		emu.SetRunMode(skyboy.RunModeReset)
		slog.Info("Reset requested")
	case ActionSnapshot:
		if _, err := debug.SaveFramePNGToDir(emu.Framebuffer(), "skyboy", l.SnapshotDir); err != nil {
			slog.Error("Failed to save snapshot", "error", err)
		}
	case ActionToggleDebug:
		l.Debug = !l.Debug
	}
}
