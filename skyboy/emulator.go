package skyboy

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/valerio/go-skyboy/skyboy/addr"
	"github.com/valerio/go-skyboy/skyboy/config"
	"github.com/valerio/go-skyboy/skyboy/cpu"
	"github.com/valerio/go-skyboy/skyboy/debug"
	"github.com/valerio/go-skyboy/skyboy/memory"
	"github.com/valerio/go-skyboy/skyboy/savestate"
	"github.com/valerio/go-skyboy/skyboy/serial"
	"github.com/valerio/go-skyboy/skyboy/video"
)

// RunMode is the state of the tick orchestrator, as selected by a front-end.
type RunMode int

const (
	// RunModeReset holds the machine in its post-boot state, every tick resets it.
	RunModeReset RunMode = iota
	// RunModePause executes nothing.
	RunModePause
	// RunModeRun executes a full batch per tick.
	RunModeRun
	// RunModeStep executes a single instruction, then pauses.
	RunModeStep
)

func (m RunMode) String() string {
	switch m {
	case RunModeReset:
		return "reset"
	case RunModePause:
		return "pause"
	case RunModeRun:
		return "run"
	case RunModeStep:
		return "step"
	}
	return fmt.Sprintf("RunMode(%d)", int(m))
}

// TickResult summarizes what a Tick executed.
type TickResult struct {
	Instructions int
	Cycles       int
	Frames       int
	Breakpoint   bool
}

// Emulator owns one Machine and advances it once per host frame.
type Emulator struct {
	machine Machine
	cart    *memory.Cartridge

	policy           cpu.PrefixPolicy
	stepInstructions int
	breakpoint       int
	runMode          RunMode

	rewind         *savestate.Stack[Machine]
	rewindInterval int
	sincePush      int

	frames uint64
	serial *serial.LogSink
	trace  io.Writer
}

type Option func(*Emulator)

// WithTrace writes one trace line per instruction boundary to w.
func WithTrace(w io.Writer) Option {
	return func(e *Emulator) { e.trace = w }
}

// WithSerial replaces the default serial sink.
func WithSerial(sink *serial.LogSink) Option {
	return func(e *Emulator) { e.serial = sink }
}

// New creates an emulator with no cartridge, held in reset.
func New(cfg config.Config, opts ...Option) (*Emulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating emulator: %w", err)
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	e := &Emulator{
		policy:           policy,
		stepInstructions: cfg.Emulation.StepInstructions,
		breakpoint:       cfg.Emulation.Breakpoint,
		runMode:          RunModeReset,
		rewind:           savestate.New[Machine](cfg.Emulation.SaveStates),
		rewindInterval:   cfg.Emulation.RewindInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.serial == nil {
		e.serial = serial.NewLogSink()
	}

	e.machine.Bus.SetSerial(e.serial)
	e.reset()
	return e, nil
}

// LoadCartridge maps the cartridge, resets the machine and drops the rewind history.
// The emulator is left in RunModeReset.
func (e *Emulator) LoadCartridge(cart *memory.Cartridge) {
	e.cart = cart
	e.machine.Bus.LoadROM(cart)
	e.rewind.Clear()
	e.serial.Reset()
	e.frames = 0
	e.runMode = RunModeReset
	e.reset()
}

func (e *Emulator) reset() {
	e.machine.Reset()
	e.sincePush = 0
}

// Tick runs one host frame worth of emulation according to the run mode.
// In RunModeRun up to step_instructions instructions are executed; a 0xCB
// prefix and its opcode count as one. A breakpoint ends the batch and pauses.
func (e *Emulator) Tick(joypad memory.Joypad) TickResult {
	var res TickResult

	switch e.runMode {
	case RunModeReset:
		e.reset()
		return res
	case RunModePause:
		return res
	}

	e.machine.Bus.SetJoypad(joypad)

	budget := e.stepInstructions
	if e.runMode == RunModeStep {
		budget = 1
	}

	for res.Instructions < budget {
		e.traceLine()

		step, frameDone := e.machine.Step(e.policy)
		res.Cycles += step.Cycles
		if frameDone {
			res.Frames++
			e.frames++
		}
		if !step.Prefix {
			res.Instructions++
		}

		// a prefix byte alone is not an instruction boundary
		if !step.Prefix && e.hitBreakpoint() {
			res.Breakpoint = true
			e.runMode = RunModePause
			break
		}
	}

	if e.runMode == RunModeStep {
		e.runMode = RunModePause
	}

	if e.runMode == RunModeRun && e.rewindInterval > 0 {
		e.sincePush++
		if e.sincePush >= e.rewindInterval {
			e.sincePush = 0
			e.rewind.Push(e.machine)
		}
	}

	return res
}

func (e *Emulator) traceLine() {
	if e.trace == nil || e.machine.CPU.Mode() != cpu.FetchNormal || e.machine.CPU.Halted() {
		return
	}
	if err := e.machine.CPU.Trace(e.trace, &e.machine.Bus); err != nil {
		slog.Warn("Disabling instruction trace", "error", err)
		e.trace = nil
	}
}

func (e *Emulator) hitBreakpoint() bool {
	pc := e.machine.CPU.PC()
	triggered := e.machine.CPU.TakeBreakpointTrigger()
	if !triggered && int(pc) != e.breakpoint {
		return false
	}
	slog.Info("Breakpoint hit", "pc", fmt.Sprintf("0x%04X", pc), "triggered", triggered)
	return true
}

func (e *Emulator) RunMode() RunMode { return e.runMode }

func (e *Emulator) SetRunMode(mode RunMode) {
	if mode != e.runMode {
		slog.Debug("Run mode changed", "from", e.runMode, "to", mode)
	}
	e.runMode = mode
}

// Breakpoint returns the PC breakpoint, or config.NoBreakpoint.
func (e *Emulator) Breakpoint() int { return e.breakpoint }

// SetBreakpoint sets the PC breakpoint. Values outside the address space disable it.
func (e *Emulator) SetBreakpoint(pc int) {
	if pc < 0 || pc > 0xFFFF {
		pc = config.NoBreakpoint
	}
	e.breakpoint = pc
}

// PushState saves the current machine state on the rewind stack.
func (e *Emulator) PushState() {
	e.rewind.Push(e.machine)
	slog.Debug("Pushed save state", "count", e.rewind.Len())
}

// PopState restores the most recently pushed state. Returns false when the
// stack is empty, in which case nothing changes.
func (e *Emulator) PopState() bool {
	state, ok := e.rewind.Pop()
	if !ok {
		return false
	}
	e.machine = state
	slog.Debug("Restored save state", "remaining", e.rewind.Len())
	return true
}

// SaveStates returns how many snapshots can currently be popped.
func (e *Emulator) SaveStates() int { return e.rewind.Len() }

// Machine exposes the emulated hardware. Callers must not hold on to it across ticks.
func (e *Emulator) Machine() *Machine { return &e.machine }

func (e *Emulator) Framebuffer() *video.Framebuffer { return &e.machine.PPU.Framebuffer }

// Frames returns the number of frames completed since the cartridge was loaded.
func (e *Emulator) Frames() uint64 { return e.frames }

// SerialOutput returns everything the program sent over the serial port.
func (e *Emulator) SerialOutput() string { return e.serial.Output() }

// Cartridge returns the loaded cartridge, nil before LoadCartridge.
func (e *Emulator) Cartridge() *memory.Cartridge { return e.cart }

// DebugSnapshot copies the state shown by debug front-ends.
func (e *Emulator) DebugSnapshot() *debug.Snapshot {
	m := &e.machine
	c := &m.CPU
	bus := &m.Bus

	s := &debug.Snapshot{
		CPU: debug.CPUState{
			A: c.A(), F: c.F(), B: c.B(), C: c.C(),
			D: c.D(), E: c.E(), H: c.H(), L: c.L(),
			SP:        c.SP(),
			PC:        c.PC(),
			Flags:     c.FlagString(),
			IME:       c.IME(),
			EIPending: c.EIPending(),
			Halted:    c.Halted(),
			FetchMode: c.Mode().String(),
		},
		Timer: debug.TimerState{
			DIV:           bus.ReadDirect(addr.DIV),
			TIMA:          bus.ReadDirect(addr.TIMA),
			TMA:           bus.ReadDirect(addr.TMA),
			TAC:           bus.ReadDirect(addr.TAC),
			DivCountdown:  m.Timer.DivCountdown,
			TimaCountdown: m.Timer.TimaCountdown,
		},
		LCD: debug.LCDState{
			LCDC:           bus.ReadDirect(addr.LCDC),
			STAT:           bus.ReadDirect(addr.STAT),
			LY:             bus.ReadDirect(addr.LY),
			LYC:            bus.ReadDirect(addr.LYC),
			Mode:           video.Mode(bus).String(),
			ScanlineCycles: m.PPU.ScanlineCycles,
		},
		InterruptEnable: bus.ReadDirect(addr.IE),
		InterruptFlags:  bus.ReadDirect(addr.IF),
		Joypad:          bus.Joypad(),
		Instructions:    instructionWindow(bus, c.PC()),
		OAM:             debug.ExtractOAM(bus, int(bus.ReadDirect(addr.LY)), video.SpriteHeight(bus)),
		RunMode:         e.runMode.String(),
		Breakpoint:      e.breakpoint,
		Frames:          e.frames,
		SaveStates:      e.rewind.Len(),
	}

	if e.cart != nil {
		s.Cartridge = &debug.CartridgeInfo{
			Title:   e.cart.Title,
			Color:   e.cart.Color,
			Type:    e.cart.Type,
			ROMSize: e.cart.ROMSize,
			RAMSize: e.cart.RAMSize,
		}
	}

	return s
}

// instructionWindow decodes every byte address from pc-6 to pc+4.
func instructionWindow(bus *memory.Bus, pc uint16) []debug.Instruction {
	lines := make([]debug.Instruction, 0, 11)
	for offset := -6; offset <= 4; offset++ {
		address := int(pc) + offset
		if address < 0 || address > 0xFFFF {
			continue
		}
		name, _ := cpu.Disassemble(bus, uint16(address))
		lines = append(lines, debug.Instruction{
			Address: uint16(address),
			Opcode:  bus.ReadDirect(uint16(address)),
			Name:    name,
			Current: offset == 0,
		})
	}
	return lines
}
