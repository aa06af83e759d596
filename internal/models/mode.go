package models

import (
	"fmt"
	"strings"
)

// Mode selects how the queue advances.
type Mode int

const (
	ModeList Mode = iota
	ModeShuffle
	ModeSingle
)

func (m Mode) String() string {
	switch m {
	case ModeShuffle:
		return "shuffle"
	case ModeSingle:
		return "single"
	default:
		return "list"
	}
}

// Toggle switches between target and list, mirroring the two mode buttons of the player.
func (m Mode) Toggle(target Mode) Mode {
	if m == target {
		return ModeList
	}
	return target
}

// Cycle steps list → shuffle → single → list.
func (m Mode) Cycle() Mode {
	switch m {
	case ModeList:
		return ModeShuffle
	case ModeShuffle:
		return ModeSingle
	default:
		return ModeList
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "list":
		return ModeList, nil
	case "shuffle", "random":
		return ModeShuffle, nil
	case "single", "repeat", "loop":
		return ModeSingle, nil
	default:
		return ModeList, fmt.Errorf("unknown playback mode %q", s)
	}
}
