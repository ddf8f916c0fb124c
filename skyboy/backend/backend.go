package backend

import (
	"errors"

	"github.com/valerio/go-skyboy/skyboy/config"
	"github.com/valerio/go-skyboy/skyboy/debug"
	"github.com/valerio/go-skyboy/skyboy/memory"
	"github.com/valerio/go-skyboy/skyboy/video"
)

// ErrNotATerminal is returned when an interactive backend is requested but
// standard output is not a terminal.
var ErrNotATerminal = errors.New("standard output is not a terminal")

// Backend is a display and input collaborator.
// Backends are responsible for:
// - presenting the finished framebuffer once per host frame
// - sampling the eight buttons
// - turning platform events into emulator actions
type Backend interface {
	// Init prepares the backend. Must be called before Update.
	Init(config Config) error

	// Update presents the frame and returns the input collected since the last call.
	// state is nil when no debug snapshot is available.
	Update(frame *video.Framebuffer, state *debug.Snapshot) (Input, error)

	// Cleanup releases platform resources.
	Cleanup() error
}

// Config holds configuration shared by all backends.
type Config struct {
	Title     string
	Keys      config.InputConfig
	ShowDebug bool // backends may ignore unsupported features
}

// Action is an emulator-level command issued by the user.
type Action int

const (
	ActionQuit Action = iota
	ActionTogglePause
	ActionStep
	ActionRewind
	ActionReset
	ActionSnapshot
	ActionToggleDebug
)

func (a Action) String() string {
	switch a {
	case ActionQuit:
		return "quit"
	case ActionTogglePause:
		return "pause"
	case ActionStep:
		return "step"
	case ActionRewind:
		return "rewind"
	case ActionReset:
		return "reset"
	case ActionSnapshot:
		return "snapshot"
	case ActionToggleDebug:
		return "debug"
	}
	return "unknown"
}

// Input is what a backend collected during one host frame.
type Input struct {
	Joypad  memory.Joypad
	Actions []Action
}

// Quit reports whether the input asks to stop the emulator.
func (in Input) Quit() bool {
	for _, a := range in.Actions {
		if a == ActionQuit {
			return true
		}
	}
	return false
}
