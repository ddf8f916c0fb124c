package debug

import (
	"fmt"

	"github.com/go-faster/jx"
)

// Encode writes the snapshot as a JSON object.
func (s *Snapshot) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("run_mode", func(e *jx.Encoder) { e.Str(s.RunMode) })
		e.Field("breakpoint", func(e *jx.Encoder) { e.Int(s.Breakpoint) })
		e.Field("frames", func(e *jx.Encoder) { e.UInt64(s.Frames) })
		e.Field("save_states", func(e *jx.Encoder) { e.Int(s.SaveStates) })
		e.Field("cpu", s.CPU.encode)
		e.Field("timer", s.Timer.encode)
		e.Field("lcd", s.LCD.encode)
		e.Field("ie", func(e *jx.Encoder) { e.Int(int(s.InterruptEnable)) })
		e.Field("if", func(e *jx.Encoder) { e.Int(int(s.InterruptFlags)) })
		e.Field("joypad", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				j := s.Joypad
				for _, b := range []struct {
					name    string
					pressed bool
				}{
					{"up", j.Up}, {"down", j.Down}, {"left", j.Left}, {"right", j.Right},
					{"a", j.A}, {"b", j.B}, {"start", j.Start}, {"select", j.Select},
				} {
					e.Field(b.name, func(e *jx.Encoder) { e.Bool(b.pressed) })
				}
			})
		})
		if s.Cartridge != nil {
			e.Field("cartridge", s.Cartridge.encode)
		}
		if s.OAM != nil {
			e.Field("oam", s.OAM.encode)
		}
		e.Field("instructions", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, ins := range s.Instructions {
					ins.encode(e)
				}
			})
		})
	})
}

// MarshalJSON implements json.Marshaler.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	s.Encode(&e)
	return e.Bytes(), nil
}

func hex16(v uint16) string { return fmt.Sprintf("0x%04X", v) }

func (c CPUState) encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		for _, r := range []struct {
			name  string
			value uint8
		}{
			{"a", c.A}, {"f", c.F}, {"b", c.B}, {"c", c.C},
			{"d", c.D}, {"e", c.E}, {"h", c.H}, {"l", c.L},
		} {
			e.Field(r.name, func(e *jx.Encoder) { e.Int(int(r.value)) })
		}
		e.Field("sp", func(e *jx.Encoder) { e.Str(hex16(c.SP)) })
		e.Field("pc", func(e *jx.Encoder) { e.Str(hex16(c.PC)) })
		e.Field("flags", func(e *jx.Encoder) { e.Str(c.Flags) })
		e.Field("ime", func(e *jx.Encoder) { e.Bool(c.IME) })
		e.Field("ei_pending", func(e *jx.Encoder) { e.Bool(c.EIPending) })
		e.Field("halted", func(e *jx.Encoder) { e.Bool(c.Halted) })
		e.Field("fetch_mode", func(e *jx.Encoder) { e.Str(c.FetchMode) })
	})
}

func (t TimerState) encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("div", func(e *jx.Encoder) { e.Int(int(t.DIV)) })
		e.Field("tima", func(e *jx.Encoder) { e.Int(int(t.TIMA)) })
		e.Field("tma", func(e *jx.Encoder) { e.Int(int(t.TMA)) })
		e.Field("tac", func(e *jx.Encoder) { e.Int(int(t.TAC)) })
		e.Field("div_countdown", func(e *jx.Encoder) { e.Int(t.DivCountdown) })
		e.Field("tima_countdown", func(e *jx.Encoder) { e.Int(t.TimaCountdown) })
	})
}

func (l LCDState) encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("lcdc", func(e *jx.Encoder) { e.Int(int(l.LCDC)) })
		e.Field("stat", func(e *jx.Encoder) { e.Int(int(l.STAT)) })
		e.Field("ly", func(e *jx.Encoder) { e.Int(int(l.LY)) })
		e.Field("lyc", func(e *jx.Encoder) { e.Int(int(l.LYC)) })
		e.Field("mode", func(e *jx.Encoder) { e.Str(l.Mode) })
		e.Field("scanline_cycles", func(e *jx.Encoder) { e.Int(l.ScanlineCycles) })
	})
}

func (c *CartridgeInfo) encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("title", func(e *jx.Encoder) { e.Str(c.Title) })
		e.Field("color", func(e *jx.Encoder) { e.Bool(c.Color) })
		e.Field("type", func(e *jx.Encoder) { e.Int(int(c.Type)) })
		e.Field("rom_size", func(e *jx.Encoder) { e.Int(c.ROMSize) })
		e.Field("ram_size", func(e *jx.Encoder) { e.Int(c.RAMSize) })
	})
}

func (i Instruction) encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("address", func(e *jx.Encoder) { e.Str(hex16(i.Address)) })
		e.Field("opcode", func(e *jx.Encoder) { e.Int(int(i.Opcode)) })
		e.Field("name", func(e *jx.Encoder) { e.Str(i.Name) })
		if i.Current {
			e.Field("current", func(e *jx.Encoder) { e.Bool(true) })
		}
	})
}

// encode writes only the sprites selected for the current line.
func (d *OAMData) encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("line", func(e *jx.Encoder) { e.Int(d.Line) })
		e.Field("height", func(e *jx.Encoder) { e.Int(d.Height) })
		e.Field("sprites", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, sp := range d.VisibleSprites() {
					e.Obj(func(e *jx.Encoder) {
						e.Field("index", func(e *jx.Encoder) { e.Int(sp.Index) })
						e.Field("x", func(e *jx.Encoder) { e.Int(sp.X) })
						e.Field("y", func(e *jx.Encoder) { e.Int(sp.Y) })
						e.Field("tile", func(e *jx.Encoder) { e.Int(int(sp.Tile)) })
						e.Field("attributes", func(e *jx.Encoder) { e.Int(int(sp.Attributes)) })
					})
				}
			})
		})
	})
}
