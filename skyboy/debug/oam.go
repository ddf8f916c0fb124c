package debug

import (
	"fmt"

	"github.com/valerio/go-skyboy/skyboy/addr"
)

const (
	OAMSpriteCount    = 40
	OAMBytesPerSprite = 4
	SpriteYOffset     = 16
	SpriteXOffset     = 8
	MaxSpritesPerLine = 10
)

// Sprite attribute bit positions
const (
	AttrFlipY         = 6
	AttrFlipX         = 5
	AttrPaletteNumber = 4
)

// MemoryReader reads memory without side effects.
type MemoryReader interface {
	ReadDirect(address uint16) byte
}

// SpriteInfo is one OAM entry with screen coordinates.
type SpriteInfo struct {
	Index      int
	Y          int
	X          int
	Tile       uint8
	Attributes uint8
	// Visible is set for the sprites the renderer picks on the current line.
	Visible bool
}

func (s SpriteInfo) FlipX() bool  { return s.Attributes&(1<<AttrFlipX) != 0 }
func (s SpriteInfo) FlipY() bool  { return s.Attributes&(1<<AttrFlipY) != 0 }
func (s SpriteInfo) Palette() int { return int(s.Attributes>>AttrPaletteNumber) & 1 }
func (s SpriteInfo) String() string {
	status := "off"
	if s.Visible {
		status = "line"
	}
	return fmt.Sprintf("#%02d Y=%4d X=%4d T=%02X A=%02X %s", s.Index, s.Y, s.X, s.Tile, s.Attributes, status)
}

// OAMData is the sprite table as seen from one scanline.
type OAMData struct {
	Sprites []SpriteInfo
	Line    int
	Height  int
	Active  int
}

// ExtractOAM decodes all 40 entries and marks the first ten that cover line,
// matching the renderer's selection.
func ExtractOAM(r MemoryReader, line, height int) *OAMData {
	data := &OAMData{
		Sprites: make([]SpriteInfo, OAMSpriteCount),
		Line:    line,
		Height:  height,
	}
	for i := range data.Sprites {
		base := addr.OAMStart + uint16(i*OAMBytesPerSprite)
		s := SpriteInfo{
			Index:      i,
			Y:          int(r.ReadDirect(base)) - SpriteYOffset,
			X:          int(r.ReadDirect(base+1)) - SpriteXOffset,
			Tile:       r.ReadDirect(base + 2),
			Attributes: r.ReadDirect(base + 3),
		}
		if data.Active < MaxSpritesPerLine && line >= s.Y && line < s.Y+height {
			s.Visible = true
			data.Active++
		}
		data.Sprites[i] = s
	}
	return data
}

// VisibleSprites returns the entries picked for the current line.
func (d *OAMData) VisibleSprites() []SpriteInfo {
	visible := make([]SpriteInfo, 0, d.Active)
	for _, s := range d.Sprites {
		if s.Visible {
			visible = append(visible, s)
		}
	}
	return visible
}

func (d *OAMData) Summary() string {
	return fmt.Sprintf("Sprites: %d/%d on line %d, %dpx", d.Active, MaxSpritesPerLine, d.Line, d.Height)
}
