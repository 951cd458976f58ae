package aura

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrightnessCycleReturnsToStart(t *testing.T) {
	for level := BrightnessOff; level <= BrightnessHigh; level++ {
		t.Run(level.String(), func(t *testing.T) {
			next, prev := level, level
			for range 4 {
				next = next.Next()
				prev = prev.Prev()
			}
			assert.Equal(t, level, next)
			assert.Equal(t, level, prev)
		})
	}
}

func TestBrightnessWraps(t *testing.T) {
	assert.Equal(t, BrightnessOff, BrightnessHigh.Next())
	assert.Equal(t, BrightnessHigh, BrightnessOff.Prev())
}

func TestBrightnessCharCode(t *testing.T) {
	tests := []struct {
		level LedBrightness
		code  byte
	}{
		{BrightnessOff, '0'},
		{BrightnessLow, '1'},
		{BrightnessMed, '2'},
		{BrightnessHigh, '3'},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, tt.level.CharCode())
		got, err := BrightnessFromCharCode(tt.code)
		require.NoError(t, err)
		assert.Equal(t, tt.level, got)
	}
}

func TestBrightnessFromCharCodeClampsAndRejects(t *testing.T) {
	got, err := BrightnessFromCharCode('7')
	require.NoError(t, err)
	assert.Equal(t, BrightnessHigh, got)

	_, err = BrightnessFromCharCode('x')
	assert.ErrorIs(t, err, ErrParse)
}

func TestBrightnessJSONAcceptsNames(t *testing.T) {
	var b LedBrightness
	require.NoError(t, json.Unmarshal([]byte(`"High"`), &b))
	assert.Equal(t, BrightnessHigh, b)

	require.NoError(t, json.Unmarshal([]byte(`1`), &b))
	assert.Equal(t, BrightnessLow, b)

	assert.Error(t, json.Unmarshal([]byte(`9`), &b))

	out, err := json.Marshal(BrightnessMed)
	require.NoError(t, err)
	assert.Equal(t, "2", string(out))
}

func TestEffectPacketLayout(t *testing.T) {
	e := Effect{
		Mode:      ModeRainbow,
		Zone:      ZoneKey2,
		Colour1:   Colour{0x11, 0x22, 0x33},
		Colour2:   Colour{0x44, 0x55, 0x66},
		Speed:     SpeedHigh,
		Direction: DirectionUp,
	}
	want := [LedMsgLen]byte{
		0x5D, 0xB3, 0x02, 0x03,
		0x11, 0x22, 0x33,
		0xF5, 0x02, 0x00,
		0x44, 0x55, 0x66,
		0, 0, 0, 0,
	}
	assert.Equal(t, want, e.Packet())
}

func TestSetApplyConstants(t *testing.T) {
	assert.Equal(t, byte(0x5D), LedSet[0])
	assert.Equal(t, byte(0xB5), LedSet[1])
	assert.Equal(t, byte(0x5D), LedApply[0])
	assert.Equal(t, byte(0xB4), LedApply[1])
	for i := 2; i < LedMsgLen; i++ {
		assert.Zero(t, LedSet[i])
		assert.Zero(t, LedApply[i])
	}
}

func TestDefaultEffect(t *testing.T) {
	e := DefaultEffect(ModeBreathe)
	assert.Equal(t, ModeBreathe, e.Mode)
	assert.Equal(t, ZoneNone, e.Zone)
	assert.Equal(t, Colour{166, 0, 0}, e.Colour1)
	assert.Equal(t, Colour{}, e.Colour2)
	assert.Equal(t, SpeedMed, e.Speed)
	assert.Equal(t, DirectionRight, e.Direction)
}

func TestPowerStatesPacketAllTrue(t *testing.T) {
	p := DefaultPowerStates()
	msg := p.Packet()

	assert.Len(t, msg, 17)
	assert.Equal(t, []byte{0x5D, 0xBD, 0x01}, msg[:3])
	for i := 6; i < LedMsgLen; i++ {
		assert.Zero(t, msg[i], "byte %d", i)
	}

	var flags [3]byte
	copy(flags[:], msg[3:6])
	assert.Equal(t, p, UnpackPowerStates(flags))
}

func TestPowerStatesPackIsInvertible(t *testing.T) {
	for bits := range 32 {
		p := PowerStates{
			BootAnim:  bits&1 != 0,
			SleepAnim: bits&2 != 0,
			AllLeds:   bits&4 != 0,
			KeysLeds:  bits&8 != 0,
			SideLeds:  bits&16 != 0,
		}
		assert.Equal(t, p, UnpackPowerStates(p.Pack()), fmt.Sprintf("flags %05b", bits))
	}
}

func TestParseHelpers(t *testing.T) {
	m, err := ParseModeID("rainbow")
	require.NoError(t, err)
	assert.Equal(t, ModeRainbow, m)

	_, err = ParseModeID("disco")
	assert.True(t, IsKind(err, KindParse))

	z, err := ParseZone("BarLeft")
	require.NoError(t, err)
	assert.Equal(t, ZoneBarLeft, z)

	c, err := ParseColour("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, Colour{0xff, 0x80, 0x00}, c)
	assert.Equal(t, "#ff8000", c.Hex())

	_, err = ParseColour("fff")
	assert.Error(t, err)
}

func TestErrorKindMatching(t *testing.T) {
	err := fmt.Errorf("write: %w", NewPathError(KindNodeMissing, "/dev/hidraw9", "open", errors.New("no such file")))

	assert.ErrorIs(t, err, ErrNodeMissing)
	assert.NotErrorIs(t, err, ErrIO)
	assert.True(t, IsKind(err, KindNodeMissing))
	assert.Contains(t, err.Error(), "/dev/hidraw9")
}
