package debug

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-skyboy/skyboy/memory"
	"github.com/valerio/go-skyboy/skyboy/video"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		CPU: CPUState{
			A: 0x01, F: 0xB0, B: 0x00, C: 0x13, D: 0x00, E: 0xD8, H: 0x01, L: 0x4D,
			SP: 0xFFFE, PC: 0x0100, Flags: "Z-HC", FetchMode: "normal",
		},
		Timer:           TimerState{DIV: 0xAB, TAC: 0xF8, DivCountdown: 256, TimaCountdown: 1024},
		LCD:             LCDState{LCDC: 0x91, LY: 0x90, Mode: "vblank"},
		InterruptEnable: 0x01,
		InterruptFlags:  0xE1,
		Joypad:          memory.Joypad{A: true, Up: true},
		Cartridge:       &CartridgeInfo{Title: "TETRIS", ROMSize: 32 * 1024},
		Instructions: []Instruction{
			{Address: 0x00FF, Opcode: 0x00, Name: "NOP"},
			{Address: 0x0100, Opcode: 0xC3, Name: "JP a16", Current: true},
		},
		RunMode:    "pause",
		Breakpoint: 0x150,
		Frames:     42,
		SaveStates: 3,
	}
}

func TestSnapshotJSON(t *testing.T) {
	data, err := testSnapshot().MarshalJSON()
	require.NoError(t, err)
	require.True(t, json.Valid(data), "invalid json: %s", data)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "pause", decoded["run_mode"])
	assert.EqualValues(t, 0x150, decoded["breakpoint"])
	assert.EqualValues(t, 42, decoded["frames"])

	cpuState := decoded["cpu"].(map[string]any)
	assert.Equal(t, "0x0100", cpuState["pc"])
	assert.Equal(t, "0xFFFE", cpuState["sp"])
	assert.EqualValues(t, 0xB0, cpuState["f"])
	assert.Equal(t, "Z-HC", cpuState["flags"])

	joypad := decoded["joypad"].(map[string]any)
	assert.Equal(t, true, joypad["a"])
	assert.Equal(t, false, joypad["start"])

	cart := decoded["cartridge"].(map[string]any)
	assert.Equal(t, "TETRIS", cart["title"])

	instructions := decoded["instructions"].([]any)
	require.Len(t, instructions, 2)
	current := instructions[1].(map[string]any)
	assert.Equal(t, true, current["current"])
	assert.NotContains(t, instructions[0].(map[string]any), "current")
}

func TestSnapshotJSONWithoutCartridge(t *testing.T) {
	s := testSnapshot()
	s.Cartridge = nil
	s.Instructions = nil

	data, err := s.MarshalJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotContains(t, decoded, "cartridge")
	assert.Empty(t, decoded["instructions"])
}

func TestWriteSnapshotJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, WriteSnapshotJSON(testSnapshot(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestSaveFramePNGToDir(t *testing.T) {
	dir := t.TempDir()
	var fb video.Framebuffer
	fb.Clear()

	path, err := SaveFramePNGToDir(&fb, "frame", dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "frame_"))
	assert.FileExists(t, path)

	_, err = SaveFramePNGToDir(nil, "frame", dir)
	assert.Error(t, err)
}
