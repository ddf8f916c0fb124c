package cpu

import "fmt"

// Operand selects where an instruction reads (and possibly writes) a value.
type Operand uint8

const (
	None Operand = iota

	RegA
	RegB
	RegC
	RegD
	RegE
	RegH
	RegL
	RegAF
	RegBC
	RegDE
	RegHL
	RegSP

	// memory addressed by a register pair
	MemBC
	MemDE
	MemHL
	MemHLI // (HL) then HL++
	MemHLD // (HL) then HL--

	// memory addressed by an immediate
	MemImm16
	HighImm8 // 0xFF00 + n
	HighC    // 0xFF00 + C

	// immediates following the opcode byte
	Imm8
	Imm16
	ImmS8 // sign-extended to 16 bits

	// branch conditions, loaded as 1 when the condition holds
	CondNZ
	CondZ
	CondNC
	CondC
)

// Kind selects the effect of an instruction.
type Kind uint8

const (
	KindIllegal Kind = iota
	KindNOP
	KindLD8
	KindLD16
	KindLDHLSP
	KindPUSH
	KindPOP
	KindADD
	KindADC
	KindSUB
	KindSBC
	KindAND
	KindXOR
	KindOR
	KindCP
	KindINC8
	KindDEC8
	KindINC16
	KindDEC16
	KindADDHL
	KindADDSP
	KindDAA
	KindCPL
	KindSCF
	KindCCF
	KindRLCA
	KindRRCA
	KindRLA
	KindRRA
	KindJP
	KindJR
	KindCALL
	KindRET
	KindRETI
	KindRST
	KindDI
	KindEI
	KindHALT
	KindSTOP
	KindPrefix

	// 0xCB table
	KindRLC
	KindRRC
	KindRL
	KindRR
	KindSLA
	KindSRA
	KindSWAP
	KindSRL
	KindBIT
	KindRES
	KindSET
)

// Instruction describes one opcode.
//
// Flags has one character per flag in Z N H C order: a letter means the flag is
// computed by the effect, '0' and '1' force the flag, '-' leaves it untouched.
type Instruction struct {
	Name          string
	Length        uint8
	MCycles       uint8
	MCyclesBranch uint8
	Dst, Src      Operand
	Const         uint8
	Flags         string
	Kind          Kind

	keepMask, setMask, computedMask uint8
}

// prefixOffset is where the 0xCB table starts in the decode table.
const prefixOffset = 256

var table [512]Instruction

// Lookup returns the descriptor for an opcode, adding prefixOffset for the 0xCB table.
func Lookup(index uint16) Instruction {
	return table[index&0x1FF]
}

var (
	r8Operands = [8]Operand{RegB, RegC, RegD, RegE, RegH, RegL, MemHL, RegA}
	r8Names    = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
	rpOperands = [4]Operand{RegBC, RegDE, RegHL, RegSP}
	rpNames    = [4]string{"BC", "DE", "HL", "SP"}
	rp2Ops     = [4]Operand{RegBC, RegDE, RegHL, RegAF}
	rp2Names   = [4]string{"BC", "DE", "HL", "AF"}
	ccOperands = [4]Operand{CondNZ, CondZ, CondNC, CondC}
	ccNames    = [4]string{"NZ", "Z", "NC", "C"}
)

var aluOps = [8]struct {
	kind  Kind
	name  string
	flags string
}{
	{KindADD, "ADD A,", "Z0HC"},
	{KindADC, "ADC A,", "Z0HC"},
	{KindSUB, "SUB ", "Z1HC"},
	{KindSBC, "SBC A,", "Z1HC"},
	{KindAND, "AND ", "Z010"},
	{KindXOR, "XOR ", "Z000"},
	{KindOR, "OR ", "Z000"},
	{KindCP, "CP ", "Z1HC"},
}

var cbRotOps = [8]struct {
	kind Kind
	name string
}{
	{KindRLC, "RLC"}, {KindRRC, "RRC"}, {KindRL, "RL"}, {KindRR, "RR"},
	{KindSLA, "SLA"}, {KindSRA, "SRA"}, {KindSWAP, "SWAP"}, {KindSRL, "SRL"},
}

var illegalOpcodes = []uint8{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}

func init() {
	for i := range table {
		table[i] = Instruction{
			Name: fmt.Sprintf("ILLEGAL_%02X", i&0xFF), Length: 1, MCycles: 1, MCyclesBranch: 1,
			Flags: "----", Kind: KindIllegal,
		}
	}

	buildMainTable()
	buildPrefixTable()

	for i := range table {
		table[i].keepMask, table[i].setMask, table[i].computedMask = flagMasks(table[i].Flags)
	}
}

// def registers a descriptor. Non-branching instructions charge the same cost either way.
func def(op int, name string, length, cycles uint8, dst, src Operand, kind Kind, flags string) *Instruction {
	table[op] = Instruction{
		Name: name, Length: length, MCycles: cycles, MCyclesBranch: cycles,
		Dst: dst, Src: src, Flags: flags, Kind: kind,
	}
	return &table[op]
}

func buildMainTable() {
	def(0x00, "NOP", 1, 1, None, None, KindNOP, "----")
	def(0x08, "LD (a16),SP", 3, 5, MemImm16, RegSP, KindLD16, "----")
	def(0x10, "STOP", 2, 1, None, None, KindSTOP, "----")
	def(0x18, "JR r8", 2, 3, None, ImmS8, KindJR, "----")

	for p := range 4 {
		rp, name := rpOperands[p], rpNames[p]
		def(0x01+p<<4, "LD "+name+",d16", 3, 3, rp, Imm16, KindLD16, "----")
		def(0x03+p<<4, "INC "+name, 1, 2, rp, None, KindINC16, "----")
		def(0x09+p<<4, "ADD HL,"+name, 1, 2, RegHL, rp, KindADDHL, "-0HC")
		def(0x0B+p<<4, "DEC "+name, 1, 2, rp, None, KindDEC16, "----")

		def(0xC1+p<<4, "POP "+rp2Names[p], 1, 3, rp2Ops[p], None, KindPOP, "----")
		def(0xC5+p<<4, "PUSH "+rp2Names[p], 1, 4, rp2Ops[p], None, KindPUSH, "----")
	}

	indirect := [4]struct {
		op   Operand
		name string
	}{{MemBC, "(BC)"}, {MemDE, "(DE)"}, {MemHLI, "(HL+)"}, {MemHLD, "(HL-)"}}
	for p, ind := range indirect {
		def(0x02+p<<4, "LD "+ind.name+",A", 1, 2, ind.op, RegA, KindLD8, "----")
		def(0x0A+p<<4, "LD A,"+ind.name, 1, 2, RegA, ind.op, KindLD8, "----")
	}

	for r := range 8 {
		op, name := r8Operands[r], r8Names[r]
		var mem uint8
		if op == MemHL {
			mem = 1
		}
		def(0x04+r<<3, "INC "+name, 1, 1+2*mem, op, None, KindINC8, "Z0H-")
		def(0x05+r<<3, "DEC "+name, 1, 1+2*mem, op, None, KindDEC8, "Z1H-")
		def(0x06+r<<3, "LD "+name+",d8", 2, 2+mem, op, Imm8, KindLD8, "----")
	}

	def(0x07, "RLCA", 1, 1, None, None, KindRLCA, "000C")
	def(0x0F, "RRCA", 1, 1, None, None, KindRRCA, "000C")
	def(0x17, "RLA", 1, 1, None, None, KindRLA, "000C")
	def(0x1F, "RRA", 1, 1, None, None, KindRRA, "000C")
	def(0x27, "DAA", 1, 1, None, None, KindDAA, "Z-0C")
	def(0x2F, "CPL", 1, 1, None, None, KindCPL, "-11-")
	def(0x37, "SCF", 1, 1, None, None, KindSCF, "-001")
	def(0x3F, "CCF", 1, 1, None, None, KindCCF, "-00C")

	for cc := range 4 {
		cond, name := ccOperands[cc], ccNames[cc]

		ins := def(0x20+cc<<3, "JR "+name+",r8", 2, 2, cond, ImmS8, KindJR, "----")
		ins.MCyclesBranch = 3

		ins = def(0xC0+cc<<3, "RET "+name, 1, 2, cond, None, KindRET, "----")
		ins.MCyclesBranch = 5

		ins = def(0xC2+cc<<3, "JP "+name+",a16", 3, 3, cond, Imm16, KindJP, "----")
		ins.MCyclesBranch = 4

		ins = def(0xC4+cc<<3, "CALL "+name+",a16", 3, 3, cond, Imm16, KindCALL, "----")
		ins.MCyclesBranch = 6
	}

	// 0x40-0x7F: LD r,r' with HALT in place of LD (HL),(HL)
	for dst := range 8 {
		for src := range 8 {
			op := 0x40 | dst<<3 | src
			var cycles uint8 = 1
			if r8Operands[dst] == MemHL || r8Operands[src] == MemHL {
				cycles = 2
			}
			def(op, "LD "+r8Names[dst]+","+r8Names[src], 1, cycles, r8Operands[dst], r8Operands[src], KindLD8, "----")
		}
	}
	def(0x76, "HALT", 1, 1, None, None, KindHALT, "----")

	// 0x80-0xBF: ALU A,r and 0xC6+: ALU A,d8
	for k, alu := range aluOps {
		for src := range 8 {
			var cycles uint8 = 1
			if r8Operands[src] == MemHL {
				cycles = 2
			}
			def(0x80|k<<3|src, alu.name+r8Names[src], 1, cycles, RegA, r8Operands[src], alu.kind, alu.flags)
		}
		def(0xC6+k<<3, alu.name+"d8", 2, 2, RegA, Imm8, alu.kind, alu.flags)

		ins := def(0xC7+k<<3, fmt.Sprintf("RST %02XH", k*8), 1, 4, None, None, KindRST, "----")
		ins.Const = uint8(k * 8)
	}

	def(0xC3, "JP a16", 3, 4, None, Imm16, KindJP, "----")
	def(0xC9, "RET", 1, 4, None, None, KindRET, "----")
	def(0xCB, "PREFIX CB", 1, 1, None, None, KindPrefix, "----")
	def(0xCD, "CALL a16", 3, 6, None, Imm16, KindCALL, "----")
	def(0xD9, "RETI", 1, 4, None, None, KindRETI, "----")

	def(0xE0, "LDH (a8),A", 2, 3, HighImm8, RegA, KindLD8, "----")
	def(0xF0, "LDH A,(a8)", 2, 3, RegA, HighImm8, KindLD8, "----")
	def(0xE2, "LD (C),A", 1, 2, HighC, RegA, KindLD8, "----")
	def(0xF2, "LD A,(C)", 1, 2, RegA, HighC, KindLD8, "----")
	def(0xEA, "LD (a16),A", 3, 4, MemImm16, RegA, KindLD8, "----")
	def(0xFA, "LD A,(a16)", 3, 4, RegA, MemImm16, KindLD8, "----")

	def(0xE8, "ADD SP,r8", 2, 4, RegSP, ImmS8, KindADDSP, "00HC")
	def(0xF8, "LD HL,SP+r8", 2, 3, RegHL, ImmS8, KindLDHLSP, "00HC")
	def(0xF9, "LD SP,HL", 1, 2, RegSP, RegHL, KindLD16, "----")
	def(0xE9, "JP (HL)", 1, 1, None, RegHL, KindJP, "----")

	def(0xF3, "DI", 1, 1, None, None, KindDI, "----")
	def(0xFB, "EI", 1, 1, None, None, KindEI, "----")

	for _, op := range illegalOpcodes {
		table[op] = Instruction{
			Name: fmt.Sprintf("ILLEGAL_%02X", op), Length: 1, MCycles: 1, MCyclesBranch: 1,
			Flags: "----", Kind: KindIllegal,
		}
	}
}

func buildPrefixTable() {
	for op := range 256 {
		x, y, z := op>>6, op>>3&7, op&7
		target, name := r8Operands[z], r8Names[z]
		mem := target == MemHL

		var cycles uint8 = 1
		if mem {
			cycles = 3
		}

		switch x {
		case 0:
			flags := "Z00C"
			if cbRotOps[y].kind == KindSWAP {
				flags = "Z000"
			}
			def(prefixOffset+op, cbRotOps[y].name+" "+name, 1, cycles, target, None, cbRotOps[y].kind, flags)
		case 1:
			if mem {
				cycles = 2
			}
			ins := def(prefixOffset+op, fmt.Sprintf("BIT %d,%s", y, name), 1, cycles, target, None, KindBIT, "Z01-")
			ins.Const = uint8(y)
		case 2:
			ins := def(prefixOffset+op, fmt.Sprintf("RES %d,%s", y, name), 1, cycles, target, None, KindRES, "----")
			ins.Const = uint8(y)
		case 3:
			ins := def(prefixOffset+op, fmt.Sprintf("SET %d,%s", y, name), 1, cycles, target, None, KindSET, "----")
			ins.Const = uint8(y)
		}
	}
}

// flagMasks splits a "ZNHC" mask into the bits to keep, force to 1, and take from the effect.
func flagMasks(flags string) (keep, set, computed uint8) {
	for i := 0; i < 4 && i < len(flags); i++ {
		f := uint8(0x80) >> i
		switch flags[i] {
		case '-':
			keep |= f
		case '1':
			set |= f
		case '0':
		default:
			computed |= f
		}
	}
	return keep, set, computed
}
