package debug

import "github.com/valerio/go-skyboy/skyboy/memory"

// CPUState contains all CPU register information for debugging
type CPUState struct {
	A uint8
	F uint8
	B uint8
	C uint8
	D uint8
	E uint8
	H uint8
	L uint8

	SP        uint16
	PC        uint16
	Flags     string
	IME       bool
	EIPending bool
	Halted    bool
	FetchMode string
}

// TimerState mirrors the timer registers and the internal countdowns.
type TimerState struct {
	DIV           uint8
	TIMA          uint8
	TMA           uint8
	TAC           uint8
	DivCountdown  int
	TimaCountdown int
}

// LCDState mirrors the LCD registers and the dot counter.
type LCDState struct {
	LCDC           uint8
	STAT           uint8
	LY             uint8
	LYC            uint8
	Mode           string
	ScanlineCycles int
}

// CartridgeInfo is the decoded header of the loaded cartridge.
type CartridgeInfo struct {
	Title   string
	Color   bool
	Type    uint8
	ROMSize int
	RAMSize int
}

// Instruction is one line of the disassembly window.
type Instruction struct {
	Address uint16
	Opcode  uint8
	Name    string
	Current bool
}

// Snapshot is a read-only copy of the machine state taken between ticks.
// Front-ends may only write back the run mode and the breakpoint.
type Snapshot struct {
	CPU             CPUState
	Timer           TimerState
	LCD             LCDState
	InterruptEnable uint8 // IE register at 0xFFFF
	InterruptFlags  uint8 // IF register at 0xFF0F
	Joypad          memory.Joypad
	Cartridge       *CartridgeInfo
	Instructions    []Instruction
	OAM             *OAMData

	RunMode    string
	Breakpoint int
	Frames     uint64
	SaveStates int
}
