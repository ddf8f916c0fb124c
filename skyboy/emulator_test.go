package skyboy

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-skyboy/skyboy/addr"
	"github.com/valerio/go-skyboy/skyboy/config"
	"github.com/valerio/go-skyboy/skyboy/cpu"
	"github.com/valerio/go-skyboy/skyboy/memory"
	"github.com/valerio/go-skyboy/skyboy/serial"
	"github.com/valerio/go-skyboy/skyboy/video"
)

// testROM builds a 32KB image with program placed at the entry point.
func testROM(program ...byte) *memory.Cartridge {
	data := make([]byte, 0x8000)
	copy(data[0x134:], "SKYTEST")
	copy(data[0x100:], program)
	return memory.NewCartridge(data)
}

func newTestEmulator(t *testing.T, mutate func(*config.Config), opts ...Option) *Emulator {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	opts = append([]Option{WithSerial(serial.NewLogSink(serial.Quiet()))}, opts...)
	emu, err := New(cfg, opts...)
	require.NoError(t, err)
	return emu
}

func TestResetRequestLeavesBootState(t *testing.T) {
	emu := newTestEmulator(t, nil)
	emu.LoadCartridge(testROM(0x00))

	assert.Equal(t, RunModeReset, emu.RunMode())

	res := emu.Tick(memory.Joypad{})
	assert.Equal(t, TickResult{}, res)

	cpu := &emu.Machine().CPU
	assert.Equal(t, uint16(0x0100), cpu.PC())
	assert.Equal(t, uint16(0x01B0), cpu.AF())
	assert.Equal(t, uint16(0x0013), cpu.BC())
	assert.Equal(t, uint16(0x00D8), cpu.DE())
	assert.Equal(t, uint16(0x014D), cpu.HL())
	assert.Equal(t, uint16(0xFFFE), cpu.SP())
	assert.Equal(t, uint8(0x91), emu.Machine().Bus.Read(addr.LCDC))
}

func TestResetDiscardsRAM(t *testing.T) {
	emu := newTestEmulator(t, nil)
	emu.LoadCartridge(testROM(0x00))
	emu.Machine().Bus.Write(0xC000, 0x42)

	emu.Tick(memory.Joypad{})

	assert.Equal(t, uint8(0), emu.Machine().Bus.Read(0xC000))
	assert.Equal(t, uint8(0x00), emu.Machine().Bus.Read(0x0100), "ROM survives a reset")
}

func TestPausedTickDoesNothing(t *testing.T) {
	emu := newTestEmulator(t, nil)
	emu.LoadCartridge(testROM(0x00))
	emu.SetRunMode(RunModePause)

	res := emu.Tick(memory.Joypad{A: true})
	assert.Equal(t, TickResult{}, res)
	assert.Equal(t, uint16(0x0100), emu.Machine().CPU.PC())
	assert.Equal(t, memory.Joypad{}, emu.Machine().Bus.Joypad())
}

func TestSingleNOPFeedsTimerAndLCD(t *testing.T) {
	emu := newTestEmulator(t, nil)
	emu.LoadCartridge(testROM(0x00))
	emu.SetRunMode(RunModeStep)

	res := emu.Tick(memory.Joypad{})

	assert.Equal(t, 1, res.Instructions)
	assert.Equal(t, 4, res.Cycles)
	assert.Equal(t, RunModePause, emu.RunMode())

	m := emu.Machine()
	assert.Equal(t, uint16(0x0101), m.CPU.PC())
	assert.Equal(t, 4, m.PPU.ScanlineCycles)
	assert.Equal(t, memory.DivPeriod-4, m.Timer.DivCountdown)
	assert.Equal(t, uint8(1), m.Bus.Read(addr.DIV))
}

func TestRunExecutesBatch(t *testing.T) {
	emu := newTestEmulator(t, func(cfg *config.Config) {
		cfg.Emulation.StepInstructions = 10
	})
	emu.LoadCartridge(testROM())
	emu.SetRunMode(RunModeRun)

	res := emu.Tick(memory.Joypad{})

	assert.Equal(t, 10, res.Instructions)
	assert.Equal(t, 40, res.Cycles)
	assert.Equal(t, uint16(0x010A), emu.Machine().CPU.PC())
	assert.Equal(t, RunModeRun, emu.RunMode())
}

func TestPrefixPairCountsAsOneInstruction(t *testing.T) {
	emu := newTestEmulator(t, func(cfg *config.Config) {
		cfg.Emulation.StepInstructions = 2
	})
	// SWAP A; NOP; NOP
	emu.LoadCartridge(testROM(0xCB, 0x37, 0x00, 0x00))
	emu.SetRunMode(RunModeRun)

	res := emu.Tick(memory.Joypad{})

	assert.Equal(t, 2, res.Instructions)
	assert.Equal(t, uint16(0x0103), emu.Machine().CPU.PC())
	assert.Equal(t, uint8(0x10), emu.Machine().CPU.A(), "0x01 swapped")
}

func TestStepModeCompletesPrefixedInstruction(t *testing.T) {
	emu := newTestEmulator(t, nil)
	emu.LoadCartridge(testROM(0xCB, 0x37))
	emu.SetRunMode(RunModeStep)

	res := emu.Tick(memory.Joypad{})

	assert.Equal(t, 1, res.Instructions)
	assert.Equal(t, uint16(0x0102), emu.Machine().CPU.PC())
	assert.Equal(t, RunModePause, emu.RunMode())
}

func TestBreakpoint(t *testing.T) {
	t.Run("pc breakpoint", func(t *testing.T) {
		emu := newTestEmulator(t, func(cfg *config.Config) {
			cfg.Emulation.Breakpoint = 0x0103
		})
		emu.LoadCartridge(testROM())
		emu.SetRunMode(RunModeRun)

		res := emu.Tick(memory.Joypad{})

		assert.True(t, res.Breakpoint)
		assert.Equal(t, 3, res.Instructions)
		assert.Equal(t, uint16(0x0103), emu.Machine().CPU.PC())
		assert.Equal(t, RunModePause, emu.RunMode())
		assert.Equal(t, 0, emu.SaveStates(), "no rewind push once paused")
	})

	t.Run("not between prefix and opcode", func(t *testing.T) {
		emu := newTestEmulator(t, func(cfg *config.Config) {
			cfg.Emulation.StepInstructions = 3
			cfg.Emulation.Breakpoint = 0x0101
		})
		// SWAP A; NOP; NOP
		emu.LoadCartridge(testROM(0xCB, 0x37, 0x00, 0x00))
		emu.SetRunMode(RunModeRun)

		res := emu.Tick(memory.Joypad{})

		assert.False(t, res.Breakpoint)
		assert.Equal(t, 3, res.Instructions)
		assert.Equal(t, uint16(0x0104), emu.Machine().CPU.PC())
		assert.Equal(t, cpu.FetchNormal, emu.Machine().CPU.Mode())
		assert.Equal(t, RunModeRun, emu.RunMode())
	})

	t.Run("illegal opcode", func(t *testing.T) {
		emu := newTestEmulator(t, nil)
		emu.LoadCartridge(testROM(0x00, 0xD3))
		emu.SetRunMode(RunModeRun)

		res := emu.Tick(memory.Joypad{})

		assert.True(t, res.Breakpoint)
		assert.Equal(t, 2, res.Instructions)
		assert.Equal(t, RunModePause, emu.RunMode())
	})

	t.Run("set breakpoint", func(t *testing.T) {
		emu := newTestEmulator(t, nil)
		emu.SetBreakpoint(0x150)
		assert.Equal(t, 0x150, emu.Breakpoint())
		emu.SetBreakpoint(-7)
		assert.Equal(t, config.NoBreakpoint, emu.Breakpoint())
		emu.SetBreakpoint(0x10000)
		assert.Equal(t, config.NoBreakpoint, emu.Breakpoint())
	})
}

func TestRewind(t *testing.T) {
	t.Run("push and pop", func(t *testing.T) {
		emu := newTestEmulator(t, func(cfg *config.Config) {
			cfg.Emulation.StepInstructions = 1
			cfg.Emulation.RewindInterval = 0
		})
		// INC A forever
		emu.LoadCartridge(testROM(0x3C, 0x3C, 0x3C, 0x3C, 0x3C))
		emu.SetRunMode(RunModeRun)

		emu.Tick(memory.Joypad{})
		emu.PushState()
		saved := *emu.Machine()

		emu.Tick(memory.Joypad{})
		emu.Tick(memory.Joypad{})
		assert.Equal(t, uint8(0x04), emu.Machine().CPU.A())

		require.True(t, emu.PopState())
		assert.True(t, saved == *emu.Machine(), "restored machine differs from the pushed one")
		assert.Equal(t, uint8(0x02), emu.Machine().CPU.A())

		assert.False(t, emu.PopState(), "empty stack")
		assert.Equal(t, uint8(0x02), emu.Machine().CPU.A())
	})

	t.Run("automatic pushes are bounded", func(t *testing.T) {
		emu := newTestEmulator(t, func(cfg *config.Config) {
			cfg.Emulation.StepInstructions = 1
			cfg.Emulation.SaveStates = 3
			cfg.Emulation.RewindInterval = 2
		})
		emu.LoadCartridge(testROM())
		emu.SetRunMode(RunModeRun)

		for i := 0; i < 4; i++ {
			emu.Tick(memory.Joypad{})
		}
		assert.Equal(t, 2, emu.SaveStates())

		for i := 0; i < 6; i++ {
			emu.Tick(memory.Joypad{})
		}
		assert.Equal(t, 3, emu.SaveStates())

		require.True(t, emu.PopState())
		assert.Equal(t, uint16(0x010A), emu.Machine().CPU.PC())
	})

	t.Run("loading a cartridge clears history", func(t *testing.T) {
		emu := newTestEmulator(t, nil)
		emu.LoadCartridge(testROM())
		emu.PushState()
		require.Equal(t, 1, emu.SaveStates())

		emu.LoadCartridge(testROM())
		assert.Equal(t, 0, emu.SaveStates())
	})
}

func TestSerialOutput(t *testing.T) {
	emu := newTestEmulator(t, func(cfg *config.Config) {
		cfg.Emulation.StepInstructions = 6
	})
	emu.LoadCartridge(testROM(
		0x3E, 'O', // LD A,'O'
		0xE0, 0x01, // LDH (SB),A
		0x3E, 'K',
		0xE0, 0x01,
		0x3E, '\n',
		0xE0, 0x01,
	))
	emu.SetRunMode(RunModeRun)

	emu.Tick(memory.Joypad{})

	assert.Equal(t, "OK\n", emu.SerialOutput())
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	emu := newTestEmulator(t, nil, WithTrace(&buf))
	emu.LoadCartridge(testROM(0x00, 0xCB, 0x37))
	emu.SetRunMode(RunModeStep)
	emu.Tick(memory.Joypad{})

	assert.Equal(t,
		"A: 01 F: B0 B: 00 C: 13 D: 00 E: D8 H: 01 L: 4D SP: FFFE PC: 00:0100 (00 CB 37 00)\n",
		buf.String())

	// the prefix pair is a single trace line
	buf.Reset()
	emu.SetRunMode(RunModeStep)
	emu.Tick(memory.Joypad{})
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestFrameCounting(t *testing.T) {
	emu := newTestEmulator(t, func(cfg *config.Config) {
		cfg.Emulation.StepInstructions = 20000
	})
	emu.LoadCartridge(testROM())
	emu.SetRunMode(RunModeRun)

	res := emu.Tick(memory.Joypad{})

	// LY starts at 144 after reset, the next V-blank is one full frame away
	assert.Equal(t, 1, res.Frames)
	assert.Equal(t, uint64(1), emu.Frames())
	assert.Equal(t, video.Width*video.Height*video.BytesPerPixel, len(emu.Framebuffer()))
}

func TestJoypadIsSampled(t *testing.T) {
	emu := newTestEmulator(t, nil)
	// LD A,0x20 ; LDH (P1),A ; NOP
	emu.LoadCartridge(testROM(0x3E, 0x20, 0xE0, 0x00, 0x00))
	emu.SetRunMode(RunModeRun)

	emu.Tick(memory.Joypad{Right: true})

	bus := &emu.Machine().Bus
	assert.Equal(t, uint8(0x2E), bus.Read(addr.P1), "direction line selected, right pressed")
	assert.NotZero(t, bus.Read(addr.IF)&addr.JoypadInterrupt.Mask())
}

func TestDebugSnapshot(t *testing.T) {
	emu := newTestEmulator(t, nil)
	emu.LoadCartridge(testROM(0x00, 0xC3, 0x50, 0x01))
	emu.SetBreakpoint(0x150)

	s := emu.DebugSnapshot()

	assert.Equal(t, "reset", s.RunMode)
	assert.Equal(t, 0x150, s.Breakpoint)
	assert.Equal(t, uint16(0x0100), s.CPU.PC)
	assert.Equal(t, uint8(0xB0), s.CPU.F)
	assert.Equal(t, "normal", s.CPU.FetchMode)
	assert.Equal(t, uint8(0x91), s.LCD.LCDC)
	require.NotNil(t, s.Cartridge)
	assert.Equal(t, "SKYTEST", s.Cartridge.Title)

	require.Len(t, s.Instructions, 11)
	assert.Equal(t, uint16(0x00FA), s.Instructions[0].Address)
	assert.True(t, s.Instructions[6].Current)
	assert.Equal(t, uint16(0x0100), s.Instructions[6].Address)
	assert.Equal(t, uint8(0xC3), s.Instructions[7].Opcode)

	require.NotNil(t, s.OAM)
	assert.Equal(t, 8, s.OAM.Height)
	assert.Zero(t, s.OAM.Active)
}

func TestInstructionWindowClampsAtZero(t *testing.T) {
	bus := memory.NewBus()
	lines := instructionWindow(bus, 0x0002)
	require.Len(t, lines, 7)
	assert.Equal(t, uint16(0x0000), lines[0].Address)
	assert.True(t, lines[2].Current)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Emulation.PrefixPolicy = "sometimes"
	_, err := New(cfg)
	assert.ErrorIs(t, err, config.ErrUnknownPrefixPolicy)
}
