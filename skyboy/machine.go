package skyboy

import (
	"github.com/valerio/go-skyboy/skyboy/cpu"
	"github.com/valerio/go-skyboy/skyboy/memory"
	"github.com/valerio/go-skyboy/skyboy/video"
)

// Machine is the complete emulated hardware. It holds no pointers to its own
// parts, so assigning a Machine is a full snapshot of the emulation state.
type Machine struct {
	CPU   cpu.CPU
	Bus   memory.Bus
	PPU   video.PPU
	Timer memory.Timer
}

// Reset puts the machine in the post-boot state. The loaded ROM is kept.
func (m *Machine) Reset() {
	m.Bus.ClearRAM()
	m.CPU.Reset(&m.Bus)
	m.Timer.Reset()
	m.PPU.Reset()
}

// Step runs one CPU step and feeds its cycles to the timer and the LCD.
// frameDone is true when the step completed a frame.
func (m *Machine) Step(policy cpu.PrefixPolicy) (res cpu.StepResult, frameDone bool) {
	m.Bus.SyncJoypad()
	res = m.CPU.Step(&m.Bus, policy)
	m.Timer.Tick(&m.Bus, res.Cycles)
	frameDone = m.PPU.Tick(&m.Bus, res.Cycles)
	return res, frameDone
}
