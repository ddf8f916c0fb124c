package video

import (
	"github.com/valerio/go-skyboy/skyboy/addr"
	"github.com/valerio/go-skyboy/skyboy/bit"
	"github.com/valerio/go-skyboy/skyboy/memory"
)

// GpuMode is the value reported in the low two bits of STAT.
type GpuMode uint8

const (
	hblank GpuMode = iota
	vblank
	oamRead
	vramRead
)

func (m GpuMode) String() string {
	switch m {
	case hblank:
		return "hblank"
	case vblank:
		return "vblank"
	case oamRead:
		return "oam"
	case vramRead:
		return "vram"
	}
	return "unknown"
}

const (
	// ScanlineDots is the length of one scanline in clock cycles.
	ScanlineDots = 456
	// VBlankLine is the first line of the vertical blank period.
	VBlankLine = 144
	// LastLine is the last line before LY wraps back to 0.
	LastLine = 153

	oamScanEnd  = 80
	drawingEnd  = 248
	statModeBit = 0x03
	lycFlag     = 0x04
)

// lcdcFlag defines the meaning of each bit in the LCDC register.
//
//	Bit 7 - LCD Display Enable             (0=Off, 1=On)
//	Bit 6 - Window Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
//	Bit 5 - Window Display Enable          (0=Off, 1=On)
//	Bit 4 - BG & Window Tile Data Select   (0=8800-97FF, 1=8000-8FFF)
//	Bit 3 - BG Tile Map Display Select     (0=9800-9BFF, 1=9C00-9FFF)
//	Bit 2 - OBJ (Sprite) Size              (0=8x8, 1=8x16)
//	Bit 1 - OBJ (Sprite) Display Enable    (0=Off, 1=On)
//	Bit 0 - BG/Window Display/Priority     (0=Off, 1=On)
type lcdcFlag uint8

const (
	bgDisplay lcdcFlag = iota
	spriteDisplayEnable
	spriteSize
	bgTileMapDisplaySelect
	bgWindowTileDataSelect
	windowDisplayEnable
	windowTileMapDisplaySelect
	lcdDisplayEnable
)

func isSet(flag lcdcFlag, lcdc uint8) bool {
	return bit.IsSet(uint8(flag), lcdc)
}

// PPU drives the LCD timing state machine and renders scanlines into the framebuffer.
// LY and STAT live on the bus; the PPU only keeps the dot counter of the current line.
type PPU struct {
	ScanlineCycles int
	Framebuffer    Framebuffer
}

// New returns a PPU with a white framebuffer.
func New() *PPU {
	p := &PPU{}
	p.Reset()
	return p
}

// Reset rewinds the dot counter and clears the screen.
func (p *PPU) Reset() {
	p.ScanlineCycles = 0
	p.Framebuffer.Clear()
}

// Mode returns the mode bits currently reported in STAT.
func Mode(bus *memory.Bus) GpuMode {
	return GpuMode(bus.ReadDirect(addr.STAT) & statModeBit)
}

// Tick advances the LCD by the elapsed cycles. Every new visible line is rendered
// as it starts. Returns true when the PPU entered V-blank, i.e. a frame was completed.
func (p *PPU) Tick(bus *memory.Bus, cycles int) bool {
	lcdc := bus.ReadDirect(addr.LCDC)
	stat := bus.ReadDirect(addr.STAT)

	if !isSet(lcdDisplayEnable, lcdc) {
		p.ScanlineCycles = 0
		bus.WriteDirect(addr.LY, 0)
		bus.WriteDirect(addr.STAT, stat&^(statModeBit|lycFlag))
		return false
	}

	frameDone, statRequested := false, false
	ly := bus.ReadDirect(addr.LY)
	lyc := bus.ReadDirect(addr.LYC)

	p.ScanlineCycles += cycles
	for p.ScanlineCycles >= ScanlineDots {
		p.ScanlineCycles -= ScanlineDots

		ly++
		if ly > LastLine {
			ly = 0
		}
		bus.WriteDirect(addr.LY, ly)

		if ly == VBlankLine {
			bus.RequestInterrupt(addr.VBlankInterrupt)
			frameDone = true
		}
		if ly == lyc {
			bus.RequestInterrupt(addr.LCDSTATInterrupt)
			statRequested = true
		}
		if ly < VBlankLine {
			p.drawLine(bus, ly)
		}
	}

	var mode GpuMode
	switch {
	case ly >= VBlankLine:
		mode = vblank
	case p.ScanlineCycles <= oamScanEnd:
		mode = oamRead
	case p.ScanlineCycles <= drawingEnd:
		mode = vramRead
	default:
		mode = hblank
	}

	status := stat&^(statModeBit|lycFlag) | uint8(mode)
	if ly == lyc {
		status |= lycFlag
		// LYC written to the current line, or the LCD just turned on
		if stat&lycFlag == 0 && !statRequested {
			bus.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	}
	bus.WriteDirect(addr.STAT, status)

	return frameDone
}

// DrawScanline renders the line currently held in LY.
func (p *PPU) DrawScanline(bus *memory.Bus) {
	ly := bus.ReadDirect(addr.LY)
	if ly >= VBlankLine {
		return
	}
	p.drawLine(bus, ly)
}
