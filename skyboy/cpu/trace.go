package cpu

import (
	"fmt"
	"io"
)

// Trace writes one line describing the registers and the next four bytes at PC,
// in the format used by common Game Boy trace comparison tools.
func (c *CPU) Trace(w io.Writer, bus Bus) error {
	_, err := fmt.Fprintf(w,
		"A: %02X F: %02X B: %02X C: %02X D: %02X E: %02X H: %02X L: %02X SP: %04X PC: 00:%04X (%02X %02X %02X %02X)\n",
		c.a, c.f, c.b, c.c, c.d, c.e, c.h, c.l, c.sp, c.pc,
		bus.Read(c.pc), bus.Read(c.pc+1), bus.Read(c.pc+2), bus.Read(c.pc+3))
	return err
}

// Disassemble returns the mnemonic and length of the instruction at address.
func Disassemble(bus Bus, address uint16) (string, uint8) {
	op := bus.Read(address)
	if op == 0xCB {
		ins := table[prefixOffset+uint16(bus.Read(address+1))]
		return ins.Name, 2
	}
	ins := table[op]
	return ins.Name, ins.Length
}
