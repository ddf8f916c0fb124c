package memory

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"
)

const titleLength = 11

const (
	titleAddress          = 0x134
	cgbFlagAddress        = 0x143
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	headerChecksumAddress = 0x14D
)

// DefaultROMSize is used when the ROM size byte is not recognized.
const DefaultROMSize = 32 * 1024

// Cartridge holds the decoded header and the raw bytes of a ROM image.
// It is read-only once built.
type Cartridge struct {
	data []byte

	Title    string
	Color    bool
	Type     uint8
	ROMSize  int
	RAMSize  int
	HeaderOK bool
}

// NewCartridge decodes the header of a ROM image. Short images are tolerated,
// missing header bytes read as zero.
func NewCartridge(data []byte) *Cartridge {
	cart := &Cartridge{
		data: make([]byte, len(data)),
	}
	copy(cart.data, data)

	cart.Title = cleanGameboyTitle(cart.header(titleAddress, titleLength))
	cart.Color = cart.byteAt(cgbFlagAddress)&0x80 != 0
	cart.Type = cart.byteAt(cartridgeTypeAddress)
	cart.ROMSize = decodeROMSize(cart.byteAt(romSizeAddress))
	cart.RAMSize = decodeRAMSize(cart.byteAt(ramSizeAddress))
	cart.HeaderOK = cart.headerChecksum() == cart.byteAt(headerChecksumAddress)

	return cart
}

// LoadCartridgeFile reads a ROM image from disk.
func LoadCartridgeFile(path string) (*Cartridge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rom %s: %w", path, err)
	}

	cart := NewCartridge(data)
	slog.Info("Loaded cartridge",
		"path", path,
		"title", cart.Title,
		"type", fmt.Sprintf("0x%02X", cart.Type),
		"rom_size", cart.ROMSize,
		"ram_size", cart.RAMSize,
		"color", cart.Color)
	if !cart.HeaderOK {
		slog.Warn("Cartridge header checksum mismatch", "path", path)
	}
	return cart, nil
}

// Data returns the raw ROM bytes.
func (c *Cartridge) Data() []byte {
	return c.data
}

func (c *Cartridge) byteAt(offset int) byte {
	if offset >= len(c.data) {
		return 0
	}
	return c.data[offset]
}

func (c *Cartridge) header(offset, length int) []byte {
	out := make([]byte, length)
	for i := range out {
		out[i] = c.byteAt(offset + i)
	}
	return out
}

// headerChecksum computes the checksum over 0x134-0x14C as the boot ROM does.
func (c *Cartridge) headerChecksum() byte {
	var sum byte
	for i := titleAddress; i < headerChecksumAddress; i++ {
		sum = sum - c.byteAt(i) - 1
	}
	return sum
}

// decodeROMSize maps header byte 0x148 to a size in bytes. The three odd
// codes are reported as 1.1, 1.2 and 1.5 MB, truncated to whole bytes.
func decodeROMSize(code byte) int {
	const mb = 1024 * 1024
	switch {
	case code <= 8:
		return DefaultROMSize << code
	case code == 0x52:
		return 11 * mb / 10
	case code == 0x53:
		return 12 * mb / 10
	case code == 0x54:
		return 15 * mb / 10
	}
	return DefaultROMSize
}

// decodeRAMSize maps header byte 0x149 to a size in bytes.
func decodeRAMSize(code byte) int {
	switch code {
	case 2:
		return 8 * 1024
	case 3:
		return 32 * 1024
	case 4:
		return 128 * 1024
	case 5:
		return 64 * 1024
	}
	return 0
}

// cleanGameboyTitle converts NUL bytes to spaces, trims, and replaces
// non-printable characters.
func cleanGameboyTitle(titleBytes []byte) string {
	runes := make([]rune, 0, len(titleBytes))
	for _, b := range titleBytes {
		r := rune(b)
		if r == 0 {
			r = ' '
		} else if !unicode.IsPrint(r) {
			r = '?'
		}
		runes = append(runes, r)
	}

	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(Untitled)"
	}
	return title
}
