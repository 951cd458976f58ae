package aura

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCaps() *LaptopLedData {
	return &LaptopLedData{Standard: []ModeID{ModeStatic, ModeBreathe, ModeRainbow}}
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig(testCaps())

	assert.Equal(t, BrightnessMed, cfg.Brightness)
	assert.Equal(t, ModeStatic, cfg.CurrentMode)
	assert.Equal(t, DefaultPowerStates(), cfg.PowerStates)
	assert.Nil(t, cfg.Multizone)
	require.Len(t, cfg.Builtins, 3)
	assert.Equal(t, DefaultEffect(ModeRainbow), cfg.Builtins[ModeRainbow])
}

func TestSetBuiltinGlobalEffect(t *testing.T) {
	cfg := NewDefaultConfig(testCaps())
	cfg.Multizone = map[ModeID][]Effect{
		ModeStatic: {{Mode: ModeStatic, Zone: ZoneKey1, Speed: SpeedLow}},
	}
	before := cfg.Clone().Multizone

	e := DefaultEffect(ModeBreathe)
	e.Colour1 = Colour{1, 2, 3}
	cfg.SetBuiltin(e)

	assert.Equal(t, e, cfg.Builtins[ModeBreathe])
	assert.Equal(t, before, cfg.Multizone)
}

func TestSetBuiltinZonedReplacesMatchingZone(t *testing.T) {
	cfg := NewDefaultConfig(testCaps())
	key1 := Effect{Mode: ModeStatic, Zone: ZoneKey1, Speed: SpeedLow}
	key2 := Effect{Mode: ModeStatic, Zone: ZoneKey2, Speed: SpeedLow}
	cfg.Multizone = map[ModeID][]Effect{ModeStatic: {key1, key2}}

	updated := Effect{Mode: ModeStatic, Zone: ZoneKey2, Colour1: Colour{9, 9, 9}, Speed: SpeedHigh}
	cfg.SetBuiltin(updated)

	seq, ok := cfg.GetMultizone(ModeStatic)
	require.True(t, ok)
	assert.Equal(t, []Effect{key1, updated}, seq)
	assert.Equal(t, DefaultEffect(ModeStatic), cfg.Builtins[ModeStatic])
}

func TestSetBuiltinZonedAppendsNewZoneAndMode(t *testing.T) {
	cfg := NewDefaultConfig(testCaps())
	key1 := Effect{Mode: ModeStatic, Zone: ZoneKey1, Speed: SpeedLow}
	cfg.Multizone = map[ModeID][]Effect{ModeStatic: {key1}}

	logo := Effect{Mode: ModeStatic, Zone: ZoneLogo, Speed: SpeedLow}
	cfg.SetBuiltin(logo)
	bar := Effect{Mode: ModeBreathe, Zone: ZoneBarLeft, Speed: SpeedLow}
	cfg.SetBuiltin(bar)

	assert.Equal(t, []Effect{key1, logo}, cfg.Multizone[ModeStatic])
	assert.Equal(t, []Effect{bar}, cfg.Multizone[ModeBreathe])
}

// Zoned effects are dropped until something initialises Multizone.
func TestSetBuiltinZonedWithoutMultizoneIsNoop(t *testing.T) {
	cfg := NewDefaultConfig(testCaps())
	before := cfg.Clone()

	cfg.SetBuiltin(Effect{Mode: ModeStatic, Zone: ZoneKey3, Speed: SpeedLow})

	assert.Nil(t, cfg.Multizone)
	assert.Equal(t, before, cfg)
	_, ok := cfg.GetMultizone(ModeStatic)
	assert.False(t, ok)
}

func TestConfigJSONShape(t *testing.T) {
	cfg := NewDefaultConfig(&LaptopLedData{Standard: []ModeID{ModeStatic}})
	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(2), raw["brightness"])
	assert.Equal(t, "Static", raw["current_mode"])
	assert.Nil(t, raw["multizone"])
	builtins, ok := raw["builtins"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, builtins, "Static")
	power, ok := raw["power_states"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, power, 5)
}

func TestConfigUnmarshalDefaultsMissingFields(t *testing.T) {
	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(`{"current_mode":"Breathe","power_states":{"side_leds":false}}`), &cfg))

	assert.Equal(t, BrightnessMed, cfg.Brightness)
	assert.Equal(t, ModeBreathe, cfg.CurrentMode)
	assert.NotNil(t, cfg.Builtins)
	assert.Equal(t, PowerStates{BootAnim: true, SleepAnim: true, AllLeds: true, KeysLeds: true}, cfg.PowerStates)
}

func TestConfigUnmarshalRejectsUnknownMode(t *testing.T) {
	var cfg Config
	assert.Error(t, json.Unmarshal([]byte(`{"current_mode":"Disco"}`), &cfg))
}

func TestCloneIsDeep(t *testing.T) {
	cfg := NewDefaultConfig(testCaps())
	cfg.Multizone = map[ModeID][]Effect{ModeStatic: {{Mode: ModeStatic, Zone: ZoneKey1, Speed: SpeedLow}}}

	c := cfg.Clone()
	c.Builtins[ModeStatic] = Effect{Mode: ModeStatic, Speed: SpeedHigh}
	c.Multizone[ModeStatic][0].Speed = SpeedHigh

	assert.Equal(t, SpeedMed, cfg.Builtins[ModeStatic].Speed)
	assert.Equal(t, SpeedLow, cfg.Multizone[ModeStatic][0].Speed)
}

func TestEmbeddedLedModesParse(t *testing.T) {
	db, err := ParseLedModes(embeddedLedModes)
	require.NoError(t, err)
	require.NotEmpty(t, db)
	for _, d := range db {
		assert.NotEmpty(t, d.Standard, d.ProdFamily)
	}
}

func TestMatchLedData(t *testing.T) {
	db, err := ParseLedModes(embeddedLedModes)
	require.NoError(t, err)

	d, ok := MatchLedData(db, "ROG Strix", "G513QR")
	require.True(t, ok)
	assert.True(t, d.PerKey)
	assert.True(t, d.SupportsZone(ZoneLogo))
	assert.True(t, d.SupportsMode(ModeComet))

	d, ok = MatchLedData(db, "VivoBook", "X512")
	assert.False(t, ok)
	assert.Equal(t, FallbackLedData(), d)
}

func TestDetectLedDataFromSysfs(t *testing.T) {
	root := t.TempDir()
	dmi := filepath.Join(root, "class", "dmi", "id")
	require.NoError(t, os.MkdirAll(dmi, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dmi, "product_family"), []byte("ROG Zephyrus G14\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dmi, "board_name"), []byte("GA401IV\n"), 0o644))

	modes := filepath.Join(root, "ledmodes.toml")
	require.NoError(t, os.WriteFile(modes, []byte(`
[[led_data]]
prod_family = "ROG Zephyrus G14"
board_names = ["GA401"]
standard = ["Static", "Rainbow"]
multizone = []
per_key = false
`), 0o644))

	d := DetectLedData(root, modes, nil)
	assert.Equal(t, []ModeID{ModeStatic, ModeRainbow}, d.Standard)

	d = DetectLedData(filepath.Join(root, "missing"), modes, nil)
	assert.Equal(t, FallbackLedData(), d)
}
