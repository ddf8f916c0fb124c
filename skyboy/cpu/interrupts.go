package cpu

import (
	"math/bits"

	"github.com/valerio/go-skyboy/skyboy/addr"
)

// interruptCycles is the cost of dispatching an interrupt (5 machine cycles).
const interruptCycles = 20

// pollInterrupt selects the highest priority interrupt that is both enabled and
// requested, and clears its request bit.
func (c *CPU) pollInterrupt(bus Bus) (addr.Interrupt, bool) {
	requested := bus.Read(addr.IF)
	pending := bus.Read(addr.IE) & requested & addr.InterruptMask
	if pending == 0 {
		return 0, false
	}

	// lowest bit wins: VBlank first, Joypad last
	irq := addr.Interrupt(bits.TrailingZeros8(pending))
	bus.Write(addr.IF, requested&^irq.Mask())
	return irq, true
}

// dispatch calls the interrupt handler, masking further interrupts until RETI or EI.
func (c *CPU) dispatch(bus Bus, irq addr.Interrupt) {
	c.interruptsEnabled = false
	c.eiDelay = 0
	c.push(bus, c.pc)
	c.pc = irq.Vector()
}

// PendingInterrupts returns which interrupts are both enabled and requested.
func PendingInterrupts(bus Bus) uint8 {
	return bus.Read(addr.IE) & bus.Read(addr.IF) & addr.InterruptMask
}
