package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildROM(title string, cgb, cartType, romCode, ramCode byte) []byte {
	rom := make([]byte, 0x8000)
	copy(rom[titleAddress:], title)
	rom[cgbFlagAddress] = cgb
	rom[cartridgeTypeAddress] = cartType
	rom[romSizeAddress] = romCode
	rom[ramSizeAddress] = ramCode

	var sum byte
	for i := titleAddress; i < headerChecksumAddress; i++ {
		sum = sum - rom[i] - 1
	}
	rom[headerChecksumAddress] = sum
	return rom
}

func TestNewCartridge(t *testing.T) {
	cart := NewCartridge(buildROM("TETRIS", 0x80, 0x01, 0x01, 0x03))

	assert.Equal(t, "TETRIS", cart.Title)
	assert.True(t, cart.Color)
	assert.Equal(t, uint8(0x01), cart.Type)
	assert.Equal(t, 64*1024, cart.ROMSize)
	assert.Equal(t, 32*1024, cart.RAMSize)
	assert.True(t, cart.HeaderOK)
}

func TestCartridgeSizes(t *testing.T) {
	romTests := []struct {
		code byte
		want int
	}{
		{0x00, 32 * 1024},
		{0x05, 1024 * 1024},
		{0x08, 8 * 1024 * 1024},
		{0x52, 1153433},
		{0x53, 1258291},
		{0x54, 1572864},
		{0x09, DefaultROMSize},
		{0xFF, DefaultROMSize},
	}
	for _, tt := range romTests {
		assert.Equal(t, tt.want, decodeROMSize(tt.code), "rom code 0x%02X", tt.code)
	}

	ramTests := []struct {
		code byte
		want int
	}{
		{0, 0}, {1, 0}, {2, 8 * 1024}, {3, 32 * 1024}, {4, 128 * 1024}, {5, 64 * 1024}, {9, 0},
	}
	for _, tt := range ramTests {
		assert.Equal(t, tt.want, decodeRAMSize(tt.code), "ram code 0x%02X", tt.code)
	}
}

func TestCartridgeShortImage(t *testing.T) {
	cart := NewCartridge([]byte{0x00, 0x01})
	assert.Equal(t, "(Untitled)", cart.Title)
	assert.False(t, cart.Color)
	assert.Equal(t, DefaultROMSize, cart.ROMSize)
	assert.Equal(t, 0, cart.RAMSize)
}

func TestCleanGameboyTitle(t *testing.T) {
	assert.Equal(t, "POKEMON RED", cleanGameboyTitle([]byte("POKEMON RED")))
	assert.Equal(t, "ZELDA", cleanGameboyTitle([]byte{'Z', 'E', 'L', 'D', 'A', 0, 0, 0}))
	assert.Equal(t, "A?B", cleanGameboyTitle([]byte{'A', 0x07, 'B'}))
}

func TestLoadCartridgeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.gb")
	require.NoError(t, os.WriteFile(path, buildROM("FILE", 0, 0, 0, 0), 0o644))

	cart, err := LoadCartridgeFile(path)
	require.NoError(t, err)
	assert.Equal(t, "FILE", cart.Title)
	assert.Len(t, cart.Data(), 0x8000)

	_, err = LoadCartridgeFile(filepath.Join(t.TempDir(), "missing.gb"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
