package terminal

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-skyboy/skyboy/backend"
	"github.com/valerio/go-skyboy/skyboy/config"
	"github.com/valerio/go-skyboy/skyboy/memory"
)

// binding is what a key does: press a button or issue an action.
type binding struct {
	button   memory.JoypadKey
	action   backend.Action
	isButton bool
}

// keymap resolves tcell events to bindings.
type keymap struct {
	keys  map[tcell.Key]binding
	runes map[rune]binding
}

var namedKeys = map[string]tcell.Key{
	"enter":     tcell.KeyEnter,
	"backspace": tcell.KeyBackspace2,
	"tab":       tcell.KeyTab,
	"escape":    tcell.KeyEscape,
	"up":        tcell.KeyUp,
	"down":      tcell.KeyDown,
	"left":      tcell.KeyLeft,
	"right":     tcell.KeyRight,
	"f1":        tcell.KeyF1,
	"f2":        tcell.KeyF2,
	"f5":        tcell.KeyF5,
	"f10":       tcell.KeyF10,
	"f12":       tcell.KeyF12,
}

// newKeymap builds the bindings from the [input] section. Escape and Ctrl-C
// always quit, F10 toggles the debug pane and F12 saves a snapshot.
func newKeymap(in config.InputConfig) (*keymap, error) {
	km := &keymap{
		keys: map[tcell.Key]binding{
			tcell.KeyEscape: {action: backend.ActionQuit},
			tcell.KeyCtrlC:  {action: backend.ActionQuit},
			tcell.KeyF10:    {action: backend.ActionToggleDebug},
			tcell.KeyF12:    {action: backend.ActionSnapshot},
		},
		runes: map[rune]binding{},
	}

	buttons := []struct {
		name string
		key  memory.JoypadKey
	}{
		{in.Up, memory.JoypadUp},
		{in.Down, memory.JoypadDown},
		{in.Left, memory.JoypadLeft},
		{in.Right, memory.JoypadRight},
		{in.A, memory.JoypadA},
		{in.B, memory.JoypadB},
		{in.Start, memory.JoypadStart},
		{in.Select, memory.JoypadSelect},
	}
	for _, b := range buttons {
		if err := km.bind(b.name, binding{button: b.key, isButton: true}); err != nil {
			return nil, fmt.Errorf("binding %s: %w", b.key, err)
		}
	}

	actions := []struct {
		name   string
		action backend.Action
	}{
		{in.Pause, backend.ActionTogglePause},
		{in.Step, backend.ActionStep},
		{in.Rewind, backend.ActionRewind},
		{in.Reset, backend.ActionReset},
	}
	for _, a := range actions {
		if err := km.bind(a.name, binding{action: a.action}); err != nil {
			return nil, fmt.Errorf("binding %s: %w", a.action, err)
		}
	}

	return km, nil
}

func (km *keymap) bind(name string, b binding) error {
	if name == "" {
		return nil
	}
	lower := strings.ToLower(name)
	if lower == "space" {
		km.runes[' '] = b
		return nil
	}
	if key, ok := namedKeys[lower]; ok {
		km.keys[key] = b
		if key == tcell.KeyBackspace2 {
			km.keys[tcell.KeyBackspace] = b
		}
		return nil
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(lower)
		km.runes[r] = b
		return nil
	}
	return fmt.Errorf("unknown key %q", name)
}

func (km *keymap) lookup(ev *tcell.EventKey) (binding, bool) {
	if ev.Key() == tcell.KeyRune {
		b, ok := km.runes[toLower(ev.Rune())]
		return b, ok
	}
	b, ok := km.keys[ev.Key()]
	return b, ok
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
