package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-skyboy/skyboy/addr"
	"github.com/valerio/go-skyboy/skyboy/memory"
)

func newTestPPU() (*PPU, *memory.Bus) {
	bus := memory.NewBus()
	bus.WriteDirect(addr.LCDC, 0x91)
	bus.WriteDirect(addr.BGP, 0xE4)
	bus.WriteDirect(addr.OBP0, 0xE4)
	// LY never reaches 0xFF, so no coincidence requests
	bus.WriteDirect(addr.LYC, 0xFF)
	return New(), bus
}

func TestModeSequence(t *testing.T) {
	ppu, bus := newTestPPU()

	steps := []struct {
		cycles int
		dot    int
		mode   GpuMode
	}{
		{0, 0, oamRead},
		{80, 80, oamRead},
		{1, 81, vramRead},
		{167, 248, vramRead},
		{1, 249, hblank},
		{206, 455, hblank},
	}
	for _, s := range steps {
		ppu.Tick(bus, s.cycles)
		assert.Equal(t, s.dot, ppu.ScanlineCycles)
		assert.Equal(t, s.mode, Mode(bus), "dot %d", s.dot)
		assert.Equal(t, uint8(0), bus.Read(addr.LY))
	}

	ppu.Tick(bus, 1)
	assert.Equal(t, 0, ppu.ScanlineCycles)
	assert.Equal(t, uint8(1), bus.Read(addr.LY))
	assert.Equal(t, oamRead, Mode(bus))
}

func TestVBlank(t *testing.T) {
	ppu, bus := newTestPPU()
	bus.WriteDirect(addr.LY, 143)

	done := ppu.Tick(bus, ScanlineDots)
	assert.True(t, done)
	assert.Equal(t, uint8(144), bus.Read(addr.LY))
	assert.Equal(t, vblank, Mode(bus))
	assert.Equal(t, addr.VBlankInterrupt.Mask(), bus.Read(addr.IF))

	bus.WriteDirect(addr.IF, 0)
	for ly := 145; ly <= LastLine; ly++ {
		assert.False(t, ppu.Tick(bus, ScanlineDots))
		assert.Equal(t, vblank, Mode(bus))
	}
	assert.Equal(t, uint8(LastLine), bus.Read(addr.LY))
	assert.Equal(t, uint8(0), bus.Read(addr.IF), "vblank fires once per frame")

	ppu.Tick(bus, ScanlineDots)
	assert.Equal(t, uint8(0), bus.Read(addr.LY))
	assert.Equal(t, oamRead, Mode(bus))
}

func TestLYCoincidence(t *testing.T) {
	ppu, bus := newTestPPU()
	bus.WriteDirect(addr.LYC, 2)

	ppu.Tick(bus, ScanlineDots)
	assert.Equal(t, uint8(0), bus.Read(addr.IF))
	assert.Zero(t, bus.Read(addr.STAT)&lycFlag)

	ppu.Tick(bus, ScanlineDots)
	assert.Equal(t, addr.LCDSTATInterrupt.Mask(), bus.Read(addr.IF))
	assert.Equal(t, uint8(lycFlag|uint8(oamRead)), bus.Read(addr.STAT)&0x07)

	ppu.Tick(bus, 100)
	assert.Equal(t, uint8(lycFlag|uint8(vramRead)), bus.Read(addr.STAT)&0x07, "flag is level while LY==LYC")
}

func TestLYCoincidenceWithoutLineChange(t *testing.T) {
	t.Run("LYC written mid line", func(t *testing.T) {
		ppu, bus := newTestPPU()

		ppu.Tick(bus, 10)
		assert.Equal(t, uint8(0), bus.Read(addr.IF))

		bus.WriteDirect(addr.LYC, 0)
		ppu.Tick(bus, 10)
		assert.Equal(t, uint8(0), bus.Read(addr.LY))
		assert.NotZero(t, bus.Read(addr.STAT)&lycFlag)
		assert.Equal(t, addr.LCDSTATInterrupt.Mask(), bus.Read(addr.IF))

		bus.WriteDirect(addr.IF, 0)
		ppu.Tick(bus, 10)
		assert.Equal(t, uint8(0), bus.Read(addr.IF), "requested on the rising edge only")
	})

	t.Run("LCD turned on with LY == LYC", func(t *testing.T) {
		ppu, bus := newTestPPU()
		bus.WriteDirect(addr.LYC, 0)
		bus.WriteDirect(addr.LCDC, 0x11)
		ppu.Tick(bus, 10)
		assert.Equal(t, uint8(0), bus.Read(addr.IF))

		bus.WriteDirect(addr.LCDC, 0x91)
		ppu.Tick(bus, 4)
		assert.Equal(t, addr.LCDSTATInterrupt.Mask(), bus.Read(addr.IF))
	})

	t.Run("one request when a line change lands on LYC", func(t *testing.T) {
		ppu, bus := newTestPPU()
		bus.WriteDirect(addr.LYC, 1)

		ppu.Tick(bus, ScanlineDots)
		assert.Equal(t, uint8(1), bus.Read(addr.LY))
		assert.Equal(t, addr.LCDSTATInterrupt.Mask(), bus.Read(addr.IF))

		bus.WriteDirect(addr.IF, 0)
		ppu.Tick(bus, 20)
		assert.Equal(t, uint8(0), bus.Read(addr.IF))
	})
}

func TestLCDOff(t *testing.T) {
	ppu, bus := newTestPPU()
	bus.WriteDirect(addr.LCDC, 0x11)
	bus.WriteDirect(addr.LY, 50)
	bus.WriteDirect(addr.STAT, 0x42)
	bus.WriteDirect(addr.LYC, 0)

	assert.False(t, ppu.Tick(bus, ScanlineDots*3))
	assert.Equal(t, uint8(0), bus.Read(addr.LY))
	assert.Equal(t, hblank, Mode(bus))
	assert.Equal(t, uint8(0x40), bus.Read(addr.STAT), "upper STAT bits are kept")
	assert.Equal(t, 0, ppu.ScanlineCycles)
	assert.Equal(t, uint8(0), bus.Read(addr.IF))
}

func TestBackgroundRendering(t *testing.T) {
	t.Run("unsigned tile data", func(t *testing.T) {
		ppu, bus := newTestPPU()
		// tile 0 row 1: colours 1,2,3,0 repeated
		bus.WriteDirect(0x8002, 0b10101010)
		bus.WriteDirect(0x8003, 0b01100110)

		bus.WriteDirect(addr.LY, 0)
		bus.WriteDirect(addr.SCY, 0)
		ppu.Tick(bus, ScanlineDots)

		want := []uint8{0xAA, 0x55, 0x00, 0xFF}
		for x, level := range want {
			r, g, b := ppu.Framebuffer.Pixel(x, 1)
			assert.Equal(t, []uint8{level, level, level}, []uint8{r, g, b}, "x=%d", x)
		}
	})

	t.Run("signed tile data", func(t *testing.T) {
		ppu, bus := newTestPPU()
		bus.WriteDirect(addr.LCDC, 0x81)
		bus.WriteDirect(addr.TileMap0, 0x80) // tile -128 lives at 0x8800
		bus.WriteDirect(0x8800, 0xFF)
		bus.WriteDirect(0x8801, 0xFF)
		bus.WriteDirect(addr.LY, LastLine)

		ppu.Tick(bus, ScanlineDots)

		r, _, _ := ppu.Framebuffer.Pixel(0, 0)
		assert.Equal(t, uint8(0x00), r)
		r, _, _ = ppu.Framebuffer.Pixel(8, 0)
		assert.Equal(t, uint8(0xFF), r, "tile 0 at 0x9000 is blank")
	})

	t.Run("palette", func(t *testing.T) {
		ppu, bus := newTestPPU()
		bus.WriteDirect(addr.BGP, 0x1B) // reversed
		bus.WriteDirect(addr.LY, 0)

		ppu.Tick(bus, ScanlineDots)
		r, _, _ := ppu.Framebuffer.Pixel(0, 1)
		assert.Equal(t, uint8(0x00), r, "colour 0 maps to black")
	})

	t.Run("background disabled renders white", func(t *testing.T) {
		ppu, bus := newTestPPU()
		bus.WriteDirect(addr.LCDC, 0x90)
		bus.WriteDirect(addr.BGP, 0xFF)
		ppu.Framebuffer[0] = 0

		bus.WriteDirect(addr.LY, LastLine)
		ppu.Tick(bus, ScanlineDots)
		r, _, _ := ppu.Framebuffer.Pixel(0, 0)
		assert.Equal(t, uint8(0xFF), r)
	})
}

func TestWindow(t *testing.T) {
	ppu, bus := newTestPPU()
	bus.WriteDirect(addr.LCDC, 0x91|1<<5|1<<6)
	bus.WriteDirect(addr.WX, 7+80)
	bus.WriteDirect(addr.WY, 0)
	bus.WriteDirect(addr.TileMap1, 1)
	bus.WriteDirect(0x8010, 0xFF)
	bus.WriteDirect(0x8011, 0xFF)
	bus.WriteDirect(addr.LY, LastLine)

	ppu.Tick(bus, ScanlineDots)

	r, _, _ := ppu.Framebuffer.Pixel(79, 0)
	assert.Equal(t, uint8(0xFF), r, "left of the window shows the background")
	r, _, _ = ppu.Framebuffer.Pixel(80, 0)
	assert.Equal(t, uint8(0x00), r)
}

func writeSprite(bus *memory.Bus, index int, y, x, tile, attrs uint8) {
	entry := addr.OAMStart + uint16(index)*4
	bus.WriteDirect(entry, y)
	bus.WriteDirect(entry+1, x)
	bus.WriteDirect(entry+2, tile)
	bus.WriteDirect(entry+3, attrs)
}

func TestSprites(t *testing.T) {
	setup := func() (*PPU, *memory.Bus) {
		ppu, bus := newTestPPU()
		bus.WriteDirect(addr.LCDC, 0x93)
		// tile 1 row 0: leftmost pixel colour 3, rest transparent
		bus.WriteDirect(0x8010, 0x80)
		bus.WriteDirect(0x8011, 0x80)
		bus.WriteDirect(addr.LY, LastLine)
		return ppu, bus
	}

	t.Run("draws over background, colour 0 transparent", func(t *testing.T) {
		ppu, bus := setup()
		writeSprite(bus, 0, 16, 8, 1, 0)

		ppu.Tick(bus, ScanlineDots)
		r, _, _ := ppu.Framebuffer.Pixel(0, 0)
		assert.Equal(t, uint8(0x00), r)
		r, _, _ = ppu.Framebuffer.Pixel(1, 0)
		assert.Equal(t, uint8(0xFF), r)
	})

	t.Run("x flip", func(t *testing.T) {
		ppu, bus := setup()
		writeSprite(bus, 0, 16, 8, 1, 1<<spriteXFlip)

		ppu.Tick(bus, ScanlineDots)
		r, _, _ := ppu.Framebuffer.Pixel(7, 0)
		assert.Equal(t, uint8(0x00), r)
		r, _, _ = ppu.Framebuffer.Pixel(0, 0)
		assert.Equal(t, uint8(0xFF), r)
	})

	t.Run("sprites disabled", func(t *testing.T) {
		ppu, bus := setup()
		bus.WriteDirect(addr.LCDC, 0x91)
		writeSprite(bus, 0, 16, 8, 1, 0)

		ppu.Tick(bus, ScanlineDots)
		r, _, _ := ppu.Framebuffer.Pixel(0, 0)
		assert.Equal(t, uint8(0xFF), r)
	})

	t.Run("ten sprites per line", func(t *testing.T) {
		ppu, bus := setup()
		for i := range 11 {
			writeSprite(bus, i, 16, uint8(8+i*8), 1, 0)
		}

		ppu.Tick(bus, ScanlineDots)
		for i := range 10 {
			r, _, _ := ppu.Framebuffer.Pixel(i*8, 0)
			assert.Equal(t, uint8(0x00), r, "sprite %d", i)
		}
		r, _, _ := ppu.Framebuffer.Pixel(80, 0)
		assert.Equal(t, uint8(0xFF), r, "11th sprite is dropped")
	})

	t.Run("8x16 uses the even tile", func(t *testing.T) {
		ppu, bus := setup()
		bus.WriteDirect(addr.LCDC, 0x97)
		bus.WriteDirect(addr.BGP, 0x00)
		bus.WriteDirect(0x8000, 0x80)
		bus.WriteDirect(0x8001, 0x00)
		writeSprite(bus, 0, 16, 8, 1, 0)

		ppu.Tick(bus, ScanlineDots)
		r, _, _ := ppu.Framebuffer.Pixel(0, 0)
		assert.Equal(t, uint8(0xAA), r)
	})
}

func TestDrawScanline(t *testing.T) {
	ppu, bus := newTestPPU()
	bus.WriteDirect(addr.LY, 5)
	bus.WriteDirect(0x800A, 0xFF)
	bus.WriteDirect(0x800B, 0xFF)

	ppu.DrawScanline(bus)
	r, _, _ := ppu.Framebuffer.Pixel(3, 5)
	assert.Equal(t, uint8(0x00), r)

	bus.WriteDirect(addr.LY, 150)
	require.NotPanics(t, func() { ppu.DrawScanline(bus) })
}
