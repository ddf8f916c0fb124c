package video

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

const (
	// Width of the LCD in pixels.
	Width = 160
	// Height of the LCD in pixels.
	Height = 144
	// BytesPerPixel of the framebuffer (R8G8B8).
	BytesPerPixel = 3
)

// grey levels for the 4 shades, white first
var shadeLevels = [4]uint8{0xFF, 0xAA, 0x55, 0x00}

// Framebuffer is the R8G8B8 row-major LCD image.
type Framebuffer [Width * Height * BytesPerPixel]byte

// Clear paints every pixel white.
func (f *Framebuffer) Clear() {
	for i := range f {
		f[i] = 0xFF
	}
}

// SetShade writes a grey shade (0 white .. 3 black) at (x, y).
func (f *Framebuffer) SetShade(x, y int, shade uint8) {
	level := shadeLevels[shade&0x03]
	i := (x + y*Width) * BytesPerPixel
	f[i], f[i+1], f[i+2] = level, level, level
}

// Pixel returns the RGB triple at (x, y).
func (f *Framebuffer) Pixel(x, y int) (r, g, b uint8) {
	i := (x + y*Width) * BytesPerPixel
	return f[i], f[i+1], f[i+2]
}

// Image converts the framebuffer into an RGBA image.
func (f *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	for y := range Height {
		for x := range Width {
			r, g, b := f.Pixel(x, y)
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 0xFF})
		}
	}
	return img
}

// SavePNG encodes the framebuffer as a PNG file.
func (f *Framebuffer) SavePNG(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, f.Image()); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
