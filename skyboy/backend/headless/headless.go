// Package headless provides a backend without display, driven by a frame
// budget and an optional input script.
package headless

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/go-skyboy/skyboy/backend"
	"github.com/valerio/go-skyboy/skyboy/debug"
	"github.com/valerio/go-skyboy/skyboy/video"
)

// Backend presents frames to nobody. It holds the buttons named by its script
// and asks to quit once the frame budget is spent.
type Backend struct {
	maxFrames int
	frame     int
	snapshots SnapshotConfig
	script    []Press
	saved     []string
}

// SnapshotConfig controls PNG snapshots of presented frames.
type SnapshotConfig struct {
	Interval  int // every N frames, 0 disables
	Directory string
	Prefix    string // file name prefix, usually the rom name
}

func (s SnapshotConfig) enabled() bool { return s.Interval > 0 }

type Option func(*Backend)

// WithScript holds buttons during the given frame ranges.
func WithScript(presses ...Press) Option {
	return func(b *Backend) { b.script = append(b.script, presses...) }
}

func New(maxFrames int, snapshots SnapshotConfig, opts ...Option) *Backend {
	b := &Backend{maxFrames: maxFrames, snapshots: snapshots}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Init(config backend.Config) error {
	if b.maxFrames <= 0 {
		return fmt.Errorf("headless mode needs a positive frame count, got %d", b.maxFrames)
	}
	slog.Info("Running headless",
		"title", config.Title,
		"frames", b.maxFrames,
		"presses", len(b.script),
		"snapshot_interval", b.snapshots.Interval,
		"snapshot_dir", b.snapshots.Directory)
	return nil
}

// Update advances the frame counter. Frames are numbered from 1.
func (b *Backend) Update(frame *video.Framebuffer, _ *debug.Snapshot) (backend.Input, error) {
	b.frame++

	var input backend.Input
	for _, p := range b.script {
		if p.active(b.frame) {
			input.Joypad.Set(p.Key, true)
		}
	}

	last := b.frame >= b.maxFrames
	if b.snapshots.enabled() && (b.frame%b.snapshots.Interval == 0 || last) {
		b.saveSnapshot(frame)
	}

	if last {
		slog.Info("Headless run completed", "frames", b.frame, "snapshots", len(b.saved))
		input.Actions = []backend.Action{backend.ActionQuit}
	}
	return input, nil
}

func (b *Backend) Cleanup() error { return nil }

// Frames returns the number of frames presented so far.
func (b *Backend) Frames() int { return b.frame }

// Saved returns the paths of the snapshots written so far.
func (b *Backend) Saved() []string { return b.saved }

func (b *Backend) saveSnapshot(frame *video.Framebuffer) {
	name := fmt.Sprintf("%s_frame_%d", b.snapshots.Prefix, b.frame)
	path, err := debug.SaveFramePNGToDir(frame, name, b.snapshots.Directory)
	if err != nil {
		slog.Error("Failed to save PNG snapshot", "frame", b.frame, "error", err)
		return
	}
	b.saved = append(b.saved, path)
}

// NewSnapshotConfig prepares the snapshot directory, creating a temporary
// one when directory is empty. A non-positive interval disables snapshots.
func NewSnapshotConfig(interval int, directory, romPath string) (SnapshotConfig, error) {
	if interval <= 0 {
		return SnapshotConfig{}, nil
	}

	cfg := SnapshotConfig{
		Interval: interval,
		Prefix:   strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath)),
	}
	if directory == "" {
		dir, err := os.MkdirTemp("", "skyboy-snapshots-*")
		if err != nil {
			return cfg, fmt.Errorf("creating snapshot directory: %w", err)
		}
		cfg.Directory = dir
		return cfg, nil
	}
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return cfg, fmt.Errorf("creating snapshot directory: %w", err)
	}
	cfg.Directory = directory
	return cfg, nil
}
