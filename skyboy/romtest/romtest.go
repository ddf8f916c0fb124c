// Package romtest runs test roms that report their verdict over the serial port,
// such as Blargg's cpu_instrs suite.
package romtest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/valerio/go-skyboy/skyboy"
	"github.com/valerio/go-skyboy/skyboy/config"
	"github.com/valerio/go-skyboy/skyboy/memory"
	"github.com/valerio/go-skyboy/skyboy/serial"
)

// CyclesPerFrame is the length of one LCD frame in clock cycles.
const CyclesPerFrame = 70224

// Status is the verdict for one rom.
type Status int

const (
	// StatusTimeout means the frame budget ran out without a verdict.
	StatusTimeout Status = iota
	StatusPassed
	StatusFailed
	// StatusHalted means execution stopped on a breakpoint or an illegal opcode.
	StatusHalted
	// StatusError means the rom could not be run at all.
	StatusError
)

var statusNames = [...]string{"timeout", "passed", "failed", "halted", "error"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

func parseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

// Options configures a batch run.
type Options struct {
	// Config is used for every emulator. Its breakpoint is honoured.
	Config config.Config
	// Frames is the budget per rom, counted in LCD frame lengths so a rom
	// that turns the LCD off still times out.
	Frames int
	// Parallel bounds the number of roms running at once, 0 means one per CPU.
	Parallel int
	// Logger receives serial lines, nil keeps serial output quiet.
	Logger *slog.Logger
}

// Result is the outcome for one rom.
type Result struct {
	ROM      string
	Title    string
	Status   Status
	Frames   int
	Serial   string
	Duration time.Duration
	Err      error
}

// Classify reads the verdict printed by the rom.
func Classify(transcript string) Status {
	switch {
	case strings.Contains(transcript, "Passed"):
		return StatusPassed
	case strings.Contains(transcript, "Failed"):
		return StatusFailed
	}
	return StatusTimeout
}

// Run executes every rom on its own emulator, concurrently. Results keep the
// order of roms. The error is non-nil only when ctx is cancelled.
func Run(ctx context.Context, roms []string, opts Options) ([]Result, error) {
	if opts.Frames <= 0 {
		return nil, fmt.Errorf("frame budget must be positive, got %d", opts.Frames)
	}

	limit := opts.Parallel
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	results := make([]Result, len(roms))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, rom := range roms {
		g.Go(func() error {
			start := time.Now()
			res, err := runOne(ctx, rom, opts)
			res.Duration = time.Since(start)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// runOne returns an error only for cancellation; rom problems end up in the result.
func runOne(ctx context.Context, path string, opts Options) (Result, error) {
	res := Result{ROM: path}

	cart, err := memory.LoadCartridgeFile(path)
	if err != nil {
		res.Status, res.Err = StatusError, err
		return res, nil
	}
	res.Title = cart.Title

	sinkOpts := []serial.LogSinkOption{serial.Quiet()}
	if opts.Logger != nil {
		sinkOpts = []serial.LogSinkOption{serial.WithLogger(opts.Logger.With("rom", filepath.Base(path)))}
	}
	sink := serial.NewLogSink(sinkOpts...)

	// no rewind history in batch runs
	cfg := opts.Config
	cfg.Emulation.SaveStates = 0
	cfg.Emulation.RewindInterval = 0

	emu, err := skyboy.New(cfg, skyboy.WithSerial(sink))
	if err != nil {
		res.Status, res.Err = StatusError, err
		return res, nil
	}
	emu.LoadCartridge(cart)
	emu.SetRunMode(skyboy.RunModeRun)

	budget := opts.Frames * CyclesPerFrame
	cycles := 0
	for cycles < budget {
		if err := ctx.Err(); err != nil {
			res.Status, res.Err = StatusError, err
			return finish(res, sink, cycles), err
		}

		tick := emu.Tick(memory.Joypad{})
		cycles += tick.Cycles

		if status := Classify(sink.Output()); status != StatusTimeout {
			res.Status = status
			return finish(res, sink, cycles), nil
		}
		if emu.RunMode() != skyboy.RunModeRun {
			res.Status = StatusHalted
			res.Err = fmt.Errorf("stopped at pc 0x%04X", emu.Machine().CPU.PC())
			return finish(res, sink, cycles), nil
		}
	}

	res.Status = StatusTimeout
	return finish(res, sink, cycles), nil
}

func finish(res Result, sink *serial.LogSink, cycles int) Result {
	sink.Flush()
	res.Serial = sink.Output()
	res.Frames = cycles / CyclesPerFrame
	slog.Debug("Test rom finished", "rom", res.ROM, "status", res.Status, "frames", res.Frames)
	return res
}
