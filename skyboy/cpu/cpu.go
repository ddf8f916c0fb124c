package cpu

import (
	"github.com/valerio/go-skyboy/skyboy/addr"
	"github.com/valerio/go-skyboy/skyboy/bit"
)

// Bus is the CPU view of memory: the mediated layer of the memory bus.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	Read16(address uint16) uint16
	Write16(address uint16, value uint16)
}

// Flag is one of the 4 possible flags used in the flag register (high part of AF)
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// FetchMode tells which half of the decode table the next opcode byte indexes.
type FetchMode uint8

const (
	// FetchNormal decodes the next byte from the main table.
	FetchNormal FetchMode = iota
	// FetchPrefixed decodes the next byte from the 0xCB table.
	FetchPrefixed
)

func (m FetchMode) String() string {
	if m == FetchPrefixed {
		return "prefixed"
	}
	return "normal"
}

// PrefixPolicy decides whether an interrupt may be serviced between a 0xCB
// prefix byte and the opcode it introduces.
type PrefixPolicy uint8

const (
	// PrefixAtomic never polls interrupts in the middle of a prefixed instruction.
	PrefixAtomic PrefixPolicy = iota
	// PrefixInterruptible polls as usual. If an interrupt is taken mid-prefix,
	// PC is rewound onto the prefix byte so the whole instruction runs after the handler.
	PrefixInterruptible
)

func (p PrefixPolicy) String() string {
	if p == PrefixInterruptible {
		return "interruptible"
	}
	return "atomic"
}

// CPU holds the SM83 register file and execution state. It is a plain value
// so the machine state can be copied as a whole.
type CPU struct {
	// registers
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	// metadata
	interruptsEnabled bool
	eiDelay           uint8 // steps left before a pending EI takes effect
	mode              FetchMode
	halted            bool
	breakpointTrigger bool

	// address of the opcode being executed, immediates follow it
	opAddr uint16
}

// StepResult reports what a single Step did.
type StepResult struct {
	// Cycles elapsed, in clock units.
	Cycles int
	// Prefix is set when the step only consumed a 0xCB prefix byte. The pair
	// counts as one instruction.
	Prefix bool
	// Interrupt is the serviced interrupt, or -1.
	Interrupt int
}

// New returns a CPU with every register zeroed. Call Reset for the post-boot state.
func New() *CPU {
	return &CPU{}
}

// Reset loads the register values left by the boot ROM and initializes
// the documented I/O registers.
func (c *CPU) Reset(bus Bus) {
	*c = CPU{}
	c.setAF(0x01B0)
	c.setBC(0x0013)
	c.setDE(0x00D8)
	c.setHL(0x014D)
	c.sp = 0xFFFE
	c.pc = 0x0100

	initializeMemory(bus)
}

func initializeMemory(bus Bus) {
	bus.Write(addr.TIMA, 0x00)
	bus.Write(addr.TMA, 0x00)
	bus.Write(addr.TAC, 0x00)

	bus.Write(addr.NR10, 0x80)
	bus.Write(addr.NR11, 0xBF)
	bus.Write(addr.NR12, 0xF3)
	bus.Write(addr.NR14, 0xBF)
	bus.Write(addr.NR21, 0x3F)
	bus.Write(addr.NR22, 0x00)
	bus.Write(addr.NR24, 0xBF)
	bus.Write(addr.NR30, 0x7F)
	bus.Write(addr.NR31, 0xFF)
	bus.Write(addr.NR32, 0x9F)
	bus.Write(addr.NR34, 0xBF)
	bus.Write(addr.NR41, 0xFF)
	bus.Write(addr.NR42, 0x00)
	bus.Write(addr.NR43, 0x00)
	bus.Write(addr.NR44, 0xBF)
	bus.Write(addr.NR50, 0x77)
	bus.Write(addr.NR51, 0xF3)
	bus.Write(addr.NR52, 0xF1)

	bus.Write(addr.LCDC, 0x91)
	bus.Write(addr.SCY, 0x00)
	bus.Write(addr.SCX, 0x00)
	bus.Write(addr.LY, 0x90)
	bus.Write(addr.LYC, 0x00)
	bus.Write(addr.BGP, 0xFC)
	bus.Write(addr.OBP0, 0xFF)
	bus.Write(addr.OBP1, 0xFF)
	bus.Write(addr.WY, 0x00)
	bus.Write(addr.WX, 0x00)
	bus.Write(addr.IE, 0x00)
}

// TakeBreakpointTrigger reports whether the last instruction raised the
// breakpoint trigger (illegal opcodes do) and clears it.
func (c *CPU) TakeBreakpointTrigger() bool {
	t := c.breakpointTrigger
	c.breakpointTrigger = false
	return t
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= uint8(flag)
}

func (c CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

// flagToBit will return 1 if the passed flag is set, 0 otherwise
func (c CPU) flagToBit(flag Flag) uint8 {
	return bit.FromBool(c.isSetFlag(flag))
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c CPU) getBC() uint16 {
	return bit.Combine(c.b, c.c)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c CPU) getDE() uint16 {
	return bit.Combine(c.d, c.e)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

func (c CPU) getHL() uint16 {
	return bit.Combine(c.h, c.l)
}

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	// F register lower 4 bits must be 0
	c.f = bit.Low(value) & 0xF0
}

func (c CPU) getAF() uint16 {
	return bit.Combine(c.a, c.f)
}

// Debug getter methods for register display
func (c *CPU) A() uint8   { return c.a }
func (c *CPU) F() uint8   { return c.f }
func (c *CPU) B() uint8   { return c.b }
func (c *CPU) C() uint8   { return c.c }
func (c *CPU) D() uint8   { return c.d }
func (c *CPU) E() uint8   { return c.e }
func (c *CPU) H() uint8   { return c.h }
func (c *CPU) L() uint8   { return c.l }
func (c *CPU) AF() uint16 { return c.getAF() }
func (c *CPU) BC() uint16 { return c.getBC() }
func (c *CPU) DE() uint16 { return c.getDE() }
func (c *CPU) HL() uint16 { return c.getHL() }
func (c *CPU) SP() uint16 { return c.sp }
func (c *CPU) PC() uint16 { return c.pc }

// Interrupt and fetch state getters
func (c *CPU) IME() bool       { return c.interruptsEnabled }
func (c *CPU) Halted() bool    { return c.halted }
func (c *CPU) Mode() FetchMode { return c.mode }
func (c *CPU) EIPending() bool { return c.eiDelay > 0 }
func (c *CPU) SetPC(pc uint16) { c.pc = pc }
func (c *CPU) SetIME(on bool)  { c.interruptsEnabled = on }

// FlagString returns a human-readable representation of the flag register
func (c *CPU) FlagString() string {
	flags := []byte("----")
	for i, name := range "ZNHC" {
		if c.f&(0x80>>i) != 0 {
			flags[i] = byte(name)
		}
	}
	return string(flags)
}
