package memory

import (
	"log/slog"

	"github.com/valerio/go-skyboy/skyboy/addr"
	"github.com/valerio/go-skyboy/skyboy/bit"
)

// SerialPort receives bytes written to the serial data register.
type SerialPort interface {
	Transfer(value byte)
}

// Bus is the single owner of the 64KB address space.
//
// It exposes two layers: the direct layer (ReadDirect/WriteDirect) is a raw
// array access used by hardware components that must not re-trigger register
// side effects, the mediated layer (Read/Write) applies the register semantics
// the CPU observes.
//
// Bus is a plain value: copying it copies the whole memory image, which is what
// save states rely on.
type Bus struct {
	mem    [0x10000]byte
	joypad Joypad
	serial SerialPort
}

// NewBus returns an empty bus, equivalent to a Game Boy with no cartridge in.
func NewBus() *Bus {
	return &Bus{}
}

// SetSerial connects a serial device. A nil port discards serial output.
func (b *Bus) SetSerial(port SerialPort) {
	b.serial = port
}

// LoadROM copies the flat-mapped part of the cartridge into 0x0000-0x7FFF.
func (b *Bus) LoadROM(cart *Cartridge) {
	n := copy(b.mem[:int(addr.ROMEnd)+1], cart.data)
	clear(b.mem[n : int(addr.ROMEnd)+1])
}

// ClearRAM zeroes everything above the ROM region and releases all buttons.
func (b *Bus) ClearRAM() {
	clear(b.mem[int(addr.ROMEnd)+1:])
	b.joypad = Joypad{}
}

// ReadDirect returns the stored byte without side effects.
func (b *Bus) ReadDirect(address uint16) byte {
	return b.mem[address]
}

// WriteDirect stores a byte without side effects, ROM included.
func (b *Bus) WriteDirect(address uint16, value byte) {
	b.mem[address] = value
}

// Read is the CPU-facing read. It currently matches ReadDirect; banking would hook in here.
func (b *Bus) Read(address uint16) byte {
	return b.mem[address]
}

// Write is the CPU-facing write, applying register side effects.
func (b *Bus) Write(address uint16, value byte) {
	switch {
	case address <= addr.ROMEnd:
		// ROM is write-protected
		return
	case address == addr.DMA:
		b.dmaTransfer(value)
		b.mem[address] = value
	case address == addr.DIV:
		// any write resets the divider
		b.mem[address] = 0
	case address == addr.SB:
		if b.serial != nil {
			b.serial.Transfer(value)
		}
	case address == addr.SC:
		// internal clock transfers complete immediately
		if bit.IsSet(7, value) && bit.IsSet(0, value) {
			b.mem[address] = bit.Clear(7, value)
			b.RequestInterrupt(addr.SerialInterrupt)
			return
		}
		b.mem[address] = value
	default:
		b.mem[address] = value
	}
}

// Read16 reads a little-endian word through the mediated layer.
func (b *Bus) Read16(address uint16) uint16 {
	low := b.Read(address)
	high := b.Read(address + 1)
	return bit.Combine(high, low)
}

// Write16 writes a little-endian word through the mediated layer.
func (b *Bus) Write16(address uint16, value uint16) {
	b.Write(address, bit.Low(value))
	b.Write(address+1, bit.High(value))
}

// RequestInterrupt sets the interrupt flag (IF register) of the chosen interrupt to 1.
func (b *Bus) RequestInterrupt(interrupt addr.Interrupt) {
	b.mem[addr.IF] |= interrupt.Mask()
}

// dmaTransfer copies 160 bytes from value<<8 into OAM using the direct layer,
// so a source range covering DIV or DMA does not re-trigger them.
func (b *Bus) dmaTransfer(value byte) {
	src := uint16(value) << 8
	slog.Debug("OAM DMA", "src", src)
	for i := uint16(0); i < addr.OAMSize; i++ {
		b.WriteDirect(addr.OAMStart+i, b.ReadDirect(src+i))
	}
}
