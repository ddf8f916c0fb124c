package video

import (
	"github.com/valerio/go-skyboy/skyboy/addr"
	"github.com/valerio/go-skyboy/skyboy/bit"
	"github.com/valerio/go-skyboy/skyboy/memory"
)

const (
	spritesPerLine = 10
	spriteCount    = 40
	tileBytes      = 16
)

// sprite attribute flags
const (
	spritePalette = 4
	spriteXFlip   = 5
	spriteYFlip   = 6
)

// shadeOf maps a raw 2 bit colour through a palette register to a shade,
// 0 being white and 3 black.
func shadeOf(palette, raw uint8) uint8 {
	return (palette >> (raw * 2)) & 0x03
}

// tileRowAddress returns the address of the two bytes of a tile row, honoring
// the signed/unsigned tile data selection of LCDC bit 4.
func tileRowAddress(lcdc, tileID, row uint8) uint16 {
	if isSet(bgWindowTileDataSelect, lcdc) {
		return addr.TileData0 + uint16(tileID)*tileBytes + uint16(row)*2
	}
	return uint16(int(addr.TileData2)+int(int8(tileID))*tileBytes) + uint16(row)*2
}

// tilePixel decodes one pixel of a 2bpp tile row, column 0 being the leftmost.
func tilePixel(bus *memory.Bus, rowAddr uint16, column uint8) uint8 {
	low := bus.ReadDirect(rowAddr)
	high := bus.ReadDirect(rowAddr + 1)
	index := 7 - column
	return bit.Value(index, high)<<1 | bit.Value(index, low)
}

// mapPixel resolves the raw colour at (x, y) of a 256x256 tile map.
func mapPixel(bus *memory.Bus, lcdc uint8, mapBase uint16, x, y uint8) uint8 {
	tileID := bus.ReadDirect(mapBase + uint16(y/8)*32 + uint16(x/8))
	return tilePixel(bus, tileRowAddress(lcdc, tileID, y%8), x%8)
}

func (p *PPU) drawLine(bus *memory.Bus, ly uint8) {
	var shades [Width]uint8

	lcdc := bus.ReadDirect(addr.LCDC)
	if isSet(bgDisplay, lcdc) {
		p.drawBackground(bus, lcdc, ly, &shades)
	}
	if isSet(spriteDisplayEnable, lcdc) {
		p.drawSprites(bus, lcdc, ly, &shades)
	}

	for x, shade := range shades {
		p.Framebuffer.SetShade(x, int(ly), shade)
	}
}

func (p *PPU) drawBackground(bus *memory.Bus, lcdc, ly uint8, shades *[Width]uint8) {
	bgp := bus.ReadDirect(addr.BGP)
	scy := bus.ReadDirect(addr.SCY)
	scx := bus.ReadDirect(addr.SCX)
	wy := bus.ReadDirect(addr.WY)
	wx := int(bus.ReadDirect(addr.WX)) - 7

	bgMap := addr.TileMap0
	if isSet(bgTileMapDisplaySelect, lcdc) {
		bgMap = addr.TileMap1
	}
	winMap := addr.TileMap0
	if isSet(windowTileMapDisplaySelect, lcdc) {
		winMap = addr.TileMap1
	}
	window := isSet(windowDisplayEnable, lcdc) && ly >= wy

	for x := range Width {
		var raw uint8
		if window && x >= wx {
			raw = mapPixel(bus, lcdc, winMap, uint8(x-wx), ly-wy)
		} else {
			raw = mapPixel(bus, lcdc, bgMap, uint8(x)+scx, ly+scy)
		}
		shades[x] = shadeOf(bgp, raw)
	}
}

// drawSprites overlays up to 10 sprites on the line, picked in OAM order.
// Later sprites are drawn over earlier ones; colour 0 is transparent.
func (p *PPU) drawSprites(bus *memory.Bus, lcdc, ly uint8, shades *[Width]uint8) {
	height := spriteHeight(lcdc)

	var visible [spritesPerLine]uint16
	n := 0
	for i := 0; i < spriteCount && n < spritesPerLine; i++ {
		entry := addr.OAMStart + uint16(i)*4
		row := int(ly) - (int(bus.ReadDirect(entry)) - 16)
		if row >= 0 && row < height {
			visible[n] = entry
			n++
		}
	}

	for _, entry := range visible[:n] {
		y := int(bus.ReadDirect(entry)) - 16
		x := int(bus.ReadDirect(entry+1)) - 8
		tile := bus.ReadDirect(entry + 2)
		attrs := bus.ReadDirect(entry + 3)

		palette := bus.ReadDirect(addr.OBP0)
		if bit.IsSet(spritePalette, attrs) {
			palette = bus.ReadDirect(addr.OBP1)
		}
		if height == 16 {
			tile &= 0xFE
		}

		row := int(ly) - y
		if bit.IsSet(spriteYFlip, attrs) {
			row = height - 1 - row
		}
		rowAddr := addr.TileData0 + uint16(tile)*tileBytes + uint16(row)*2

		for col := range 8 {
			sx := x + col
			if sx < 0 || sx >= Width {
				continue
			}
			column := uint8(col)
			if bit.IsSet(spriteXFlip, attrs) {
				column = 7 - column
			}
			raw := tilePixel(bus, rowAddr, column)
			if raw == 0 {
				continue
			}
			shades[sx] = shadeOf(palette, raw)
		}
	}
}

func spriteHeight(lcdc uint8) int {
	if isSet(spriteSize, lcdc) {
		return 16
	}
	return 8
}

// SpriteHeight returns the sprite height selected by LCDC, 8 or 16.
func SpriteHeight(bus *memory.Bus) int {
	return spriteHeight(bus.ReadDirect(addr.LCDC))
}
