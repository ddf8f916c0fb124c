package cpu

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-skyboy/skyboy/bit"
)

// haltedCycles is the cost of a step spent in HALT.
const haltedCycles = 4

// Step runs one fetch/decode/execute iteration, or services one interrupt.
// A step that only consumes a 0xCB prefix reports Prefix so the caller can
// count the pair as a single instruction.
func (c *CPU) Step(bus Bus, policy PrefixPolicy) StepResult {
	res := StepResult{Interrupt: -1}

	if c.eiDelay > 0 {
		c.eiDelay--
		if c.eiDelay == 0 {
			c.interruptsEnabled = true
		}
	}

	if c.halted {
		// wake on any enabled request, serviced or not
		if PendingInterrupts(bus) == 0 {
			res.Cycles = haltedCycles
			return res
		}
		c.halted = false
	}

	if c.interruptsEnabled && (c.mode == FetchNormal || policy == PrefixInterruptible) {
		if irq, ok := c.pollInterrupt(bus); ok {
			if c.mode == FetchPrefixed {
				c.pc--
				c.mode = FetchNormal
			}
			c.dispatch(bus, irq)
			res.Cycles = interruptCycles
			res.Interrupt = int(irq)
			return res
		}
	}

	index := uint16(bus.Read(c.pc))
	if c.mode == FetchPrefixed {
		index += prefixOffset
		c.mode = FetchNormal
	}
	ins := &table[index]

	c.opAddr = c.pc
	c.pc += uint16(ins.Length)

	op1 := c.load(bus, ins.Dst)
	op2 := c.load(bus, ins.Src)

	pcBefore := c.pc
	flags := c.execute(bus, ins, op1, op2)
	c.f = (c.f&ins.keepMask | ins.setMask | flags&ins.computedMask) & 0xF0

	mcycles := ins.MCycles
	if c.pc != pcBefore {
		mcycles = ins.MCyclesBranch
	}
	res.Cycles = int(mcycles) * 4
	res.Prefix = c.mode == FetchPrefixed

	return res
}

// imm8 returns the byte following the current opcode.
func (c *CPU) imm8(bus Bus) uint8 {
	return bus.Read(c.opAddr + 1)
}

// imm16 returns the little-endian word following the current opcode.
func (c *CPU) imm16(bus Bus) uint16 {
	return bus.Read16(c.opAddr + 1)
}

// load reads an operand without side effects.
func (c *CPU) load(bus Bus, op Operand) uint16 {
	switch op {
	case RegA:
		return uint16(c.a)
	case RegB:
		return uint16(c.b)
	case RegC:
		return uint16(c.c)
	case RegD:
		return uint16(c.d)
	case RegE:
		return uint16(c.e)
	case RegH:
		return uint16(c.h)
	case RegL:
		return uint16(c.l)
	case RegAF:
		return c.getAF()
	case RegBC:
		return c.getBC()
	case RegDE:
		return c.getDE()
	case RegHL:
		return c.getHL()
	case RegSP:
		return c.sp
	case MemBC:
		return uint16(bus.Read(c.getBC()))
	case MemDE:
		return uint16(bus.Read(c.getDE()))
	case MemHL, MemHLI, MemHLD:
		return uint16(bus.Read(c.getHL()))
	case MemImm16:
		return uint16(bus.Read(c.imm16(bus)))
	case HighImm8:
		return uint16(bus.Read(0xFF00 | uint16(c.imm8(bus))))
	case HighC:
		return uint16(bus.Read(0xFF00 | uint16(c.c)))
	case Imm8:
		return uint16(c.imm8(bus))
	case Imm16:
		return c.imm16(bus)
	case ImmS8:
		return uint16(int16(int8(c.imm8(bus))))
	case CondNZ:
		return uint16(bit.FromBool(!c.isSetFlag(zeroFlag)))
	case CondZ:
		return uint16(c.flagToBit(zeroFlag))
	case CondNC:
		return uint16(bit.FromBool(!c.isSetFlag(carryFlag)))
	case CondC:
		return uint16(c.flagToBit(carryFlag))
	}
	return 0
}

// store writes an operand. Memory destinations take the low byte.
func (c *CPU) store(bus Bus, op Operand, value uint16) {
	switch op {
	case RegA:
		c.a = uint8(value)
	case RegB:
		c.b = uint8(value)
	case RegC:
		c.c = uint8(value)
	case RegD:
		c.d = uint8(value)
	case RegE:
		c.e = uint8(value)
	case RegH:
		c.h = uint8(value)
	case RegL:
		c.l = uint8(value)
	case RegAF:
		c.setAF(value)
	case RegBC:
		c.setBC(value)
	case RegDE:
		c.setDE(value)
	case RegHL:
		c.setHL(value)
	case RegSP:
		c.sp = value
	case MemBC:
		bus.Write(c.getBC(), uint8(value))
	case MemDE:
		bus.Write(c.getDE(), uint8(value))
	case MemHL, MemHLI, MemHLD:
		bus.Write(c.getHL(), uint8(value))
	case MemImm16:
		bus.Write(c.imm16(bus), uint8(value))
	case HighImm8:
		bus.Write(0xFF00|uint16(c.imm8(bus)), uint8(value))
	case HighC:
		bus.Write(0xFF00|uint16(c.c), uint8(value))
	default:
		panic(fmt.Sprintf("cpu: operand %d is not writable", op))
	}
}

func (c *CPU) push(bus Bus, value uint16) {
	c.sp -= 2
	bus.Write16(c.sp, value)
}

func (c *CPU) pop(bus Bus) uint16 {
	value := bus.Read16(c.sp)
	c.sp += 2
	return value
}

// flagBits packs flag values into the F register layout.
func flagBits(z, n, h, cy bool) uint8 {
	return bit.FromBool(z)<<7 | bit.FromBool(n)<<6 | bit.FromBool(h)<<5 | bit.FromBool(cy)<<4
}

// execute applies the effect of an instruction and returns the computed flags,
// which are merged into F according to the descriptor's mask.
func (c *CPU) execute(bus Bus, ins *Instruction, op1, op2 uint16) uint8 {
	taken := ins.Dst == None || op1 != 0

	switch ins.Kind {
	case KindNOP, KindSTOP:

	case KindLD8:
		c.store(bus, ins.Dst, op2)
		c.adjustHL(ins)

	case KindLD16:
		if ins.Dst == MemImm16 {
			bus.Write16(c.imm16(bus), op2)
			break
		}
		c.store(bus, ins.Dst, op2)

	case KindLDHLSP:
		result, flags := addSigned(c.sp, op2)
		c.setHL(result)
		return flags

	case KindADDSP:
		result, flags := addSigned(op1, op2)
		c.sp = result
		return flags

	case KindPUSH:
		c.push(bus, op1)

	case KindPOP:
		c.store(bus, ins.Dst, c.pop(bus))

	case KindADD, KindADC:
		carry := uint8(0)
		if ins.Kind == KindADC {
			carry = c.flagToBit(carryFlag)
		}
		result, flags := add8(c.a, uint8(op2), carry)
		c.a = result
		return flags

	case KindSUB, KindSBC, KindCP:
		carry := uint8(0)
		if ins.Kind == KindSBC {
			carry = c.flagToBit(carryFlag)
		}
		result, flags := sub8(c.a, uint8(op2), carry)
		if ins.Kind != KindCP {
			c.a = result
		}
		return flags

	case KindAND:
		c.a &= uint8(op2)
		return flagBits(c.a == 0, false, true, false)

	case KindXOR:
		c.a ^= uint8(op2)
		return flagBits(c.a == 0, false, false, false)

	case KindOR:
		c.a |= uint8(op2)
		return flagBits(c.a == 0, false, false, false)

	case KindINC8:
		v := uint8(op1) + 1
		c.store(bus, ins.Dst, uint16(v))
		return flagBits(v == 0, false, v&0x0F == 0, false)

	case KindDEC8:
		v := uint8(op1) - 1
		c.store(bus, ins.Dst, uint16(v))
		return flagBits(v == 0, true, v&0x0F == 0x0F, false)

	case KindINC16:
		c.store(bus, ins.Dst, op1+1)

	case KindDEC16:
		c.store(bus, ins.Dst, op1-1)

	case KindADDHL:
		sum := uint32(op1) + uint32(op2)
		c.setHL(uint16(sum))
		return flagBits(false, false, (op1&0x0FFF)+(op2&0x0FFF) > 0x0FFF, sum > 0xFFFF)

	case KindDAA:
		return c.daa()

	case KindCPL:
		c.a = ^c.a

	case KindSCF, KindCCF:
		return flagBits(false, false, false, !c.isSetFlag(carryFlag))

	case KindRLCA:
		v, flags := rotate(KindRLC, c.a, false)
		c.a = v
		return flags
	case KindRRCA:
		v, flags := rotate(KindRRC, c.a, false)
		c.a = v
		return flags
	case KindRLA:
		v, flags := rotate(KindRL, c.a, c.isSetFlag(carryFlag))
		c.a = v
		return flags
	case KindRRA:
		v, flags := rotate(KindRR, c.a, c.isSetFlag(carryFlag))
		c.a = v
		return flags

	case KindJP:
		if taken {
			c.pc = op2
		}

	case KindJR:
		if taken {
			c.pc += op2
		}

	case KindCALL:
		if taken {
			c.push(bus, c.pc)
			c.pc = op2
		}

	case KindRET:
		if taken {
			c.pc = c.pop(bus)
		}

	case KindRETI:
		c.pc = c.pop(bus)
		c.interruptsEnabled = true
		c.eiDelay = 0

	case KindRST:
		c.push(bus, c.pc)
		c.pc = uint16(ins.Const)

	case KindDI:
		c.interruptsEnabled = false
		c.eiDelay = 0

	case KindEI:
		// IME turns on once the following instruction has run
		if !c.interruptsEnabled {
			c.eiDelay = 2
		}

	case KindHALT:
		c.halted = true

	case KindPrefix:
		c.mode = FetchPrefixed

	case KindIllegal:
		slog.Warn("Illegal opcode", "opcode", fmt.Sprintf("0x%02X", bus.Read(c.opAddr)), "pc", fmt.Sprintf("0x%04X", c.opAddr))
		c.breakpointTrigger = true

	case KindRLC, KindRRC, KindRL, KindRR, KindSLA, KindSRA, KindSWAP, KindSRL:
		v, flags := rotate(ins.Kind, uint8(op1), c.isSetFlag(carryFlag))
		c.store(bus, ins.Dst, uint16(v))
		return flags

	case KindBIT:
		return flagBits(!bit.IsSet(ins.Const, uint8(op1)), false, true, false)

	case KindRES:
		c.store(bus, ins.Dst, uint16(bit.Clear(ins.Const, uint8(op1))))

	case KindSET:
		c.store(bus, ins.Dst, uint16(bit.Set(ins.Const, uint8(op1))))

	default:
		panic(fmt.Sprintf("cpu: unhandled instruction kind %d", ins.Kind))
	}

	return 0
}

// adjustHL applies the post-increment/decrement of (HL+) and (HL-) operands.
func (c *CPU) adjustHL(ins *Instruction) {
	switch {
	case ins.Dst == MemHLI || ins.Src == MemHLI:
		c.setHL(c.getHL() + 1)
	case ins.Dst == MemHLD || ins.Src == MemHLD:
		c.setHL(c.getHL() - 1)
	}
}

func add8(a, b, carry uint8) (uint8, uint8) {
	sum := uint16(a) + uint16(b) + uint16(carry)
	result := uint8(sum)
	half := (a&0x0F)+(b&0x0F)+carry > 0x0F
	return result, flagBits(result == 0, false, half, sum > 0xFF)
}

func sub8(a, b, carry uint8) (uint8, uint8) {
	result := a - b - carry
	half := uint16(a&0x0F) < uint16(b&0x0F)+uint16(carry)
	borrow := uint16(a) < uint16(b)+uint16(carry)
	return result, flagBits(result == 0, true, half, borrow)
}

// addSigned adds a sign-extended offset to SP; flags come from the low byte.
func addSigned(sp, offset uint16) (uint16, uint8) {
	half := (sp&0x0F)+(offset&0x0F) > 0x0F
	carry := (sp&0xFF)+(offset&0xFF) > 0xFF
	return sp + offset, flagBits(false, false, half, carry)
}

// rotate implements the shift and rotate family shared by the accumulator
// and 0xCB instructions.
func rotate(kind Kind, v uint8, carryIn bool) (uint8, uint8) {
	var result uint8
	var carry bool
	cin := bit.FromBool(carryIn)

	switch kind {
	case KindRLC:
		carry = v&0x80 != 0
		result = v<<1 | v>>7
	case KindRRC:
		carry = v&0x01 != 0
		result = v>>1 | v<<7
	case KindRL:
		carry = v&0x80 != 0
		result = v<<1 | cin
	case KindRR:
		carry = v&0x01 != 0
		result = v>>1 | cin<<7
	case KindSLA:
		carry = v&0x80 != 0
		result = v << 1
	case KindSRA:
		carry = v&0x01 != 0
		result = v>>1 | v&0x80
	case KindSWAP:
		result = v<<4 | v>>4
	case KindSRL:
		carry = v&0x01 != 0
		result = v >> 1
	}

	return result, flagBits(result == 0, false, false, carry)
}

func (c *CPU) daa() uint8 {
	a := c.a
	carry := c.isSetFlag(carryFlag)

	if !c.isSetFlag(subFlag) {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if c.isSetFlag(halfCarryFlag) {
			a -= 0x06
		}
	}

	c.a = a
	return flagBits(a == 0, false, false, carry)
}
