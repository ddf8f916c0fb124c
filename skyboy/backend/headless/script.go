package headless

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valerio/go-skyboy/skyboy/memory"
)

// Press holds Key from frame From through frame To, both inclusive.
type Press struct {
	Key      memory.JoypadKey
	From, To int
}

func (p Press) active(frame int) bool {
	return frame >= p.From && frame <= p.To
}

// ParseScript reads a comma separated list of presses such as
// "start@60-65,a@120". A single frame number holds the button for one frame.
func ParseScript(s string) ([]Press, error) {
	var presses []Press
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		p, err := parsePress(item)
		if err != nil {
			return nil, err
		}
		presses = append(presses, p)
	}
	return presses, nil
}

func parsePress(item string) (Press, error) {
	name, frames, ok := strings.Cut(item, "@")
	if !ok {
		return Press{}, fmt.Errorf("press %q: missing @frame", item)
	}

	key, err := parseKey(name)
	if err != nil {
		return Press{}, fmt.Errorf("press %q: %w", item, err)
	}

	fromText, toText, isRange := strings.Cut(frames, "-")
	from, err := strconv.Atoi(fromText)
	if err != nil || from < 1 {
		return Press{}, fmt.Errorf("press %q: invalid frame %q", item, fromText)
	}
	to := from
	if isRange {
		to, err = strconv.Atoi(toText)
		if err != nil || to < from {
			return Press{}, fmt.Errorf("press %q: invalid frame range %q", item, frames)
		}
	}
	return Press{Key: key, From: from, To: to}, nil
}

func parseKey(name string) (memory.JoypadKey, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k := memory.JoypadRight; k <= memory.JoypadStart; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", name)
}
