package aura

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LedBrightness is the keyboard backlight level.
type LedBrightness uint8

// Brightness levels. The numeric value is what the kernel node understands.
const (
	BrightnessOff LedBrightness = iota
	BrightnessLow
	BrightnessMed
	BrightnessHigh
)

const brightnessLevels = 4

var brightnessNames = [brightnessLevels]string{"Off", "Low", "Med", "High"}

// BrightnessFromUint converts a numeric level, clamping anything above High.
func BrightnessFromUint(n uint32) LedBrightness {
	if n >= brightnessLevels {
		return BrightnessHigh
	}
	return LedBrightness(n)
}

// ParseBrightness parses either a level name or a digit.
func ParseBrightness(s string) (LedBrightness, error) {
	s = strings.TrimSpace(s)
	for i, name := range brightnessNames {
		if strings.EqualFold(s, name) {
			return LedBrightness(i), nil
		}
	}
	if len(s) == 1 && s[0] >= '0' && s[0] <= '3' {
		return LedBrightness(s[0] - '0'), nil
	}
	return 0, NewError(KindParse, fmt.Sprintf("invalid brightness %q", s), nil)
}

// BrightnessFromCharCode decodes the first byte read from the brightness node.
func BrightnessFromCharCode(b byte) (LedBrightness, error) {
	if b < '0' || b > '9' {
		return 0, NewError(KindParse, fmt.Sprintf("brightness node returned %#x", b), nil)
	}
	return BrightnessFromUint(uint32(b - '0')), nil
}

// Next returns the next level, wrapping High to Off.
func (b LedBrightness) Next() LedBrightness {
	return LedBrightness((uint8(b) + 1) % brightnessLevels)
}

// Prev returns the previous level, wrapping Off to High.
func (b LedBrightness) Prev() LedBrightness {
	return LedBrightness((uint8(b) + brightnessLevels - 1) % brightnessLevels)
}

// CharCode is the byte written to the brightness node.
func (b LedBrightness) CharCode() byte {
	return '0' + byte(b%brightnessLevels)
}

func (b LedBrightness) String() string {
	if b < brightnessLevels {
		return brightnessNames[b]
	}
	return fmt.Sprintf("LedBrightness(%d)", uint8(b))
}

// MarshalJSON encodes the level as its ordinal.
func (b LedBrightness) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint8(b))
}

// UnmarshalJSON accepts an ordinal 0-3 or a level name.
func (b *LedBrightness) UnmarshalJSON(data []byte) error {
	var n uint32
	if err := json.Unmarshal(data, &n); err == nil {
		if n >= brightnessLevels {
			return NewError(KindParse, fmt.Sprintf("brightness %d out of range", n), nil)
		}
		*b = LedBrightness(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return NewError(KindParse, "brightness must be a number or name", err)
	}
	parsed, err := ParseBrightness(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
