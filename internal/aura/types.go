package aura

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ModeID identifies a built-in lighting effect. The numeric value is the
// mode byte of the effect packet.
type ModeID uint8

// Built-in modes.
const (
	ModeStatic    ModeID = 0
	ModeBreathe   ModeID = 1
	ModeStrobe    ModeID = 2
	ModeRainbow   ModeID = 3
	ModeStar      ModeID = 4
	ModeRain      ModeID = 5
	ModeHighlight ModeID = 6
	ModeLaser     ModeID = 7
	ModeRipple    ModeID = 8
	ModePulse     ModeID = 10
	ModeComet     ModeID = 11
	ModeFlash     ModeID = 12
)

// AllModes lists every known mode in iteration order.
var AllModes = []ModeID{
	ModeStatic, ModeBreathe, ModeStrobe, ModeRainbow, ModeStar, ModeRain,
	ModeHighlight, ModeLaser, ModeRipple, ModePulse, ModeComet, ModeFlash,
}

var modeNames = map[ModeID]string{
	ModeStatic:    "Static",
	ModeBreathe:   "Breathe",
	ModeStrobe:    "Strobe",
	ModeRainbow:   "Rainbow",
	ModeStar:      "Star",
	ModeRain:      "Rain",
	ModeHighlight: "Highlight",
	ModeLaser:     "Laser",
	ModeRipple:    "Ripple",
	ModePulse:     "Pulse",
	ModeComet:     "Comet",
	ModeFlash:     "Flash",
}

// ParseModeID parses a mode name, case-insensitively.
func ParseModeID(s string) (ModeID, error) {
	for _, m := range AllModes {
		if strings.EqualFold(s, modeNames[m]) {
			return m, nil
		}
	}
	return 0, NewError(KindParse, fmt.Sprintf("unknown mode %q", s), nil)
}

func (m ModeID) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ModeID(%d)", uint8(m))
}

// MarshalText encodes the mode by name. It is also used for JSON map keys.
func (m ModeID) MarshalText() ([]byte, error) {
	name, ok := modeNames[m]
	if !ok {
		return nil, NewError(KindParse, fmt.Sprintf("unknown mode id %d", uint8(m)), nil)
	}
	return []byte(name), nil
}

// UnmarshalText decodes a mode name.
func (m *ModeID) UnmarshalText(text []byte) error {
	parsed, err := ParseModeID(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Zone is a physical lighting region. ZoneNone addresses the whole keyboard.
type Zone uint8

// Zones.
const (
	ZoneNone     Zone = 0
	ZoneKey1     Zone = 1
	ZoneKey2     Zone = 2
	ZoneKey3     Zone = 3
	ZoneKey4     Zone = 4
	ZoneLogo     Zone = 5
	ZoneBarLeft  Zone = 6
	ZoneBarRight Zone = 7
)

var zoneNames = []string{"None", "Key1", "Key2", "Key3", "Key4", "Logo", "BarLeft", "BarRight"}

// ParseZone parses a zone name, case-insensitively.
func ParseZone(s string) (Zone, error) {
	for i, name := range zoneNames {
		if strings.EqualFold(s, name) {
			return Zone(i), nil
		}
	}
	return 0, NewError(KindParse, fmt.Sprintf("unknown zone %q", s), nil)
}

func (z Zone) String() string {
	if int(z) < len(zoneNames) {
		return zoneNames[z]
	}
	return fmt.Sprintf("Zone(%d)", uint8(z))
}

// MarshalText encodes the zone by name.
func (z Zone) MarshalText() ([]byte, error) {
	if int(z) >= len(zoneNames) {
		return nil, NewError(KindParse, fmt.Sprintf("unknown zone %d", uint8(z)), nil)
	}
	return []byte(zoneNames[z]), nil
}

// UnmarshalText decodes a zone name.
func (z *Zone) UnmarshalText(text []byte) error {
	parsed, err := ParseZone(string(text))
	if err != nil {
		return err
	}
	*z = parsed
	return nil
}

// Speed is the animation speed. The values are the raw packet bytes.
type Speed uint8

// Speeds.
const (
	SpeedLow  Speed = 0xE1
	SpeedMed  Speed = 0xEB
	SpeedHigh Speed = 0xF5
)

// ParseSpeed parses a speed name.
func ParseSpeed(s string) (Speed, error) {
	switch strings.ToLower(s) {
	case "low":
		return SpeedLow, nil
	case "med", "medium":
		return SpeedMed, nil
	case "high":
		return SpeedHigh, nil
	}
	return 0, NewError(KindParse, fmt.Sprintf("unknown speed %q", s), nil)
}

func (s Speed) String() string {
	switch s {
	case SpeedLow:
		return "Low"
	case SpeedMed:
		return "Med"
	case SpeedHigh:
		return "High"
	}
	return fmt.Sprintf("Speed(%#x)", uint8(s))
}

// MarshalText encodes the speed by name.
func (s Speed) MarshalText() ([]byte, error) {
	switch s {
	case SpeedLow, SpeedMed, SpeedHigh:
		return []byte(s.String()), nil
	}
	return nil, NewError(KindParse, fmt.Sprintf("unknown speed %#x", uint8(s)), nil)
}

// UnmarshalText decodes a speed name.
func (s *Speed) UnmarshalText(text []byte) error {
	parsed, err := ParseSpeed(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Direction is the animation direction for moving effects.
type Direction uint8

// Directions.
const (
	DirectionRight Direction = 0
	DirectionLeft  Direction = 1
	DirectionUp    Direction = 2
	DirectionDown  Direction = 3
)

var directionNames = []string{"Right", "Left", "Up", "Down"}

// ParseDirection parses a direction name.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if strings.EqualFold(s, name) {
			return Direction(i), nil
		}
	}
	return 0, NewError(KindParse, fmt.Sprintf("unknown direction %q", s), nil)
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	if int(d) >= len(directionNames) {
		return nil, NewError(KindParse, fmt.Sprintf("unknown direction %d", uint8(d)), nil)
	}
	return []byte(directionNames[d]), nil
}

// UnmarshalText decodes a direction name.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Colour is an RGB triple. It serializes as a three element JSON array.
type Colour [3]uint8

// ParseColour parses "rrggbb" or "#rrggbb".
func ParseColour(s string) (Colour, error) {
	var c Colour
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return c, NewError(KindParse, fmt.Sprintf("colour %q must be 6 hex digits", s), nil)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return c, NewError(KindParse, fmt.Sprintf("colour %q", s), err)
	}
	copy(c[:], b)
	return c, nil
}

// Hex formats the colour as "#rrggbb".
func (c Colour) Hex() string {
	return "#" + hex.EncodeToString(c[:])
}
