package addr

// Memory map boundaries.
const (
	// ROMEnd is the last address of the cartridge ROM window. Writes at or below it are dropped.
	ROMEnd uint16 = 0x7FFF
	// VRAMStart is the first byte of video RAM (tile data).
	VRAMStart uint16 = 0x8000
	// OAMStart is the start of OAM memory (40 sprites * 4 bytes each).
	OAMStart uint16 = 0xFE00
	// OAMEnd is the last byte of OAM memory.
	OAMEnd uint16 = 0xFE9F
)

// OAMSize is the number of bytes copied by an OAM DMA transfer.
const OAMSize = 0xA0

// tile data and tile maps
const (
	// TileData0 is the start of unsigned tile data (tiles 0-255).
	TileData0 uint16 = 0x8000
	// TileData2 is the base of signed tile data (tile 0 of the -128..127 range).
	TileData2 uint16 = 0x9000

	// TileMap0 is background/window tile map 0.
	TileMap0 uint16 = 0x9800
	// TileMap1 is background/window tile map 1.
	TileMap1 uint16 = 0x9C00
)

// gpu registers
const (
	// LCD Control register.
	LCDC uint16 = 0xFF40
	// LCDC Status register.
	STAT uint16 = 0xFF41
	// Scroll Y (SCY) register.
	SCY uint16 = 0xFF42
	// Scroll X (SCX) register.
	SCX uint16 = 0xFF43
	// LCDC Y-Coordinate register.
	LY uint16 = 0xFF44
	// LY Compare register.
	LYC uint16 = 0xFF45
	// DMA Transfer and Start register.
	DMA uint16 = 0xFF46
	// BG Palette register.
	BGP uint16 = 0xFF47
	// Object Palette 0 register.
	OBP0 uint16 = 0xFF48
	// Object Palette 1 register.
	OBP1 uint16 = 0xFF49
	// Window Y Position register.
	WY uint16 = 0xFF4A
	// Window X Position register.
	WX uint16 = 0xFF4B
)

// Audio registers touched by the post-boot initialisation.
const (
	NR10 uint16 = 0xFF10
	NR11 uint16 = 0xFF11
	NR12 uint16 = 0xFF12
	NR14 uint16 = 0xFF14
	NR21 uint16 = 0xFF16
	NR22 uint16 = 0xFF17
	NR24 uint16 = 0xFF19
	NR30 uint16 = 0xFF1A
	NR31 uint16 = 0xFF1B
	NR32 uint16 = 0xFF1C
	NR34 uint16 = 0xFF1E
	NR41 uint16 = 0xFF20
	NR42 uint16 = 0xFF21
	NR43 uint16 = 0xFF22
	NR44 uint16 = 0xFF23
	NR50 uint16 = 0xFF24
	NR51 uint16 = 0xFF25
	NR52 uint16 = 0xFF26
)

// interrupts
const (
	// IF is the address for the Interrupt Flags register.
	IF uint16 = 0xFF0F
	// IE is the address for the Interrupt Enable register.
	IE uint16 = 0xFFFF
)

// joypad
const (
	// P1 is used to read the Joypad state.
	P1 uint16 = 0xFF00
)

// serial I/O
const (
	// SB (Serial transfer data). Bytes written here are handed to the serial sink.
	SB uint16 = 0xFF01
	// SC (Serial transfer control). Bit 7 starts a transfer, bit 0 selects the internal clock.
	SC uint16 = 0xFF02
)

// timers
const (
	// DIV is the divider register. Incremented 16384 times/s, writing to it resets it.
	DIV uint16 = 0xFF04
	// TIMA is the timer counter register. Generates an interrupt when it overflows.
	TIMA uint16 = 0xFF05
	// TMA is the timer modulo register. When TIMA overflows, this data will be loaded.
	TMA uint16 = 0xFF06
	// TAC is the timer control register. Used to start/stop and control the timer clock.
	TAC uint16 = 0xFF07
)

// Interrupt identifies one of the five interrupt sources by its bit index in IE/IF.
// Lower indexes have higher priority.
type Interrupt uint8

const (
	// VBlankInterrupt is fired when the PPU enters line 144.
	VBlankInterrupt Interrupt = iota
	// LCDSTATInterrupt is fired when LY matches LYC.
	LCDSTATInterrupt
	// TimerInterrupt is fired when the timer register (TIMA) overflows.
	TimerInterrupt
	// SerialInterrupt is fired when a serial transfer has completed.
	SerialInterrupt
	// JoypadInterrupt is fired when any of the buttons goes from released to pressed.
	JoypadInterrupt
)

// InterruptCount is the number of implemented interrupt sources.
const InterruptCount = 5

// InterruptMask covers the implemented bits of IE and IF.
const InterruptMask uint8 = 0x1F

// Mask returns the IE/IF bit for the interrupt.
func (i Interrupt) Mask() uint8 {
	return 1 << uint8(i)
}

// Vector returns the address of the interrupt handler: 0x40, 0x48, 0x50, 0x58, 0x60.
func (i Interrupt) Vector() uint16 {
	return uint16(i)*8 + 0x40
}

func (i Interrupt) String() string {
	switch i {
	case VBlankInterrupt:
		return "vblank"
	case LCDSTATInterrupt:
		return "lcdstat"
	case TimerInterrupt:
		return "timer"
	case SerialInterrupt:
		return "serial"
	case JoypadInterrupt:
		return "joypad"
	}
	return "unknown"
}
