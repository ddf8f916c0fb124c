package memory

import (
	"github.com/valerio/go-skyboy/skyboy/addr"
	"github.com/valerio/go-skyboy/skyboy/bit"
)

// JoypadKey represents a key on the Gameboy joypad
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

var joypadKeyNames = [...]string{"right", "left", "up", "down", "a", "b", "select", "start"}

func (k JoypadKey) String() string {
	if int(k) < len(joypadKeyNames) {
		return joypadKeyNames[k]
	}
	return "unknown"
}

// Joypad holds the host-side button state, true meaning pressed.
type Joypad struct {
	Up, Down, Left, Right bool
	A, B, Start, Select   bool
}

// Set updates a single key.
func (j *Joypad) Set(key JoypadKey, pressed bool) {
	switch key {
	case JoypadRight:
		j.Right = pressed
	case JoypadLeft:
		j.Left = pressed
	case JoypadUp:
		j.Up = pressed
	case JoypadDown:
		j.Down = pressed
	case JoypadA:
		j.A = pressed
	case JoypadB:
		j.B = pressed
	case JoypadSelect:
		j.Select = pressed
	case JoypadStart:
		j.Start = pressed
	}
}

// directions packs the d-pad into the P1 bit order, 1 meaning pressed.
func (j Joypad) directions() uint8 {
	return bit.FromBool(j.Down)<<3 | bit.FromBool(j.Up)<<2 | bit.FromBool(j.Left)<<1 | bit.FromBool(j.Right)
}

// actions packs the buttons into the P1 bit order, 1 meaning pressed.
func (j Joypad) actions() uint8 {
	return bit.FromBool(j.Start)<<3 | bit.FromBool(j.Select)<<2 | bit.FromBool(j.B)<<1 | bit.FromBool(j.A)
}

// Joypad returns the last button state set on the bus.
func (b *Bus) Joypad() Joypad {
	return b.joypad
}

// SetJoypad stores the button state from the input collaborator.
// Any key going from released to pressed requests the joypad interrupt.
func (b *Bus) SetJoypad(j Joypad) {
	prev := b.joypad.directions() | b.joypad.actions()<<4
	next := j.directions() | j.actions()<<4
	if next&^prev != 0 {
		b.RequestInterrupt(addr.JoypadInterrupt)
	}
	b.joypad = j
}

// SyncJoypad synthesizes the low nibble of P1 from the select lines (bits 4 and 5,
// active low) and the stored button state. Pressed buttons read as 0.
func (b *Bus) SyncJoypad() {
	data := b.mem[addr.P1] & 0xF0
	if !bit.IsSet(4, data) {
		data |= ^b.joypad.directions() & 0x0F
	}
	if !bit.IsSet(5, data) {
		data |= ^b.joypad.actions() & 0x0F
	}
	b.mem[addr.P1] = data
}
