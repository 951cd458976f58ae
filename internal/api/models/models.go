package models

import (
	"github.com/smazurov/aurad/internal/aura"
	"github.com/smazurov/aurad/internal/metrics"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" enum:"ok,degraded" doc:"ok, or degraded when only brightness can be controlled"`
	Message string `json:"message" example:"Keyboard ready" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Name      string `json:"name" example:"aurad" doc:"Program name"`
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.21.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Brightness models
type BrightnessData struct {
	Level int    `json:"level" minimum:"-1" maximum:"3" example:"2" doc:"Hardware brightness level, -1 when unreadable"`
	Name  string `json:"name" example:"High" doc:"Level name"`
	Saved int    `json:"saved" minimum:"0" maximum:"3" example:"2" doc:"Persisted brightness level"`
}

type BrightnessResponse struct {
	Body BrightnessData
}

type BrightnessRequest struct {
	Body struct {
		Level uint32 `json:"level" minimum:"0" example:"2" doc:"Brightness level 0-3, larger values clamp to 3"`
	}
}

// Effect models
type EffectData struct {
	Mode      string `json:"mode" example:"Static" doc:"Mode name"`
	Zone      string `json:"zone,omitempty" example:"None" doc:"Zone name, None for the whole keyboard"`
	Colour1   string `json:"colour1,omitempty" example:"#a60000" doc:"Primary colour as #rrggbb"`
	Colour2   string `json:"colour2,omitempty" example:"#000000" doc:"Secondary colour as #rrggbb"`
	Speed     string `json:"speed,omitempty" example:"Med" doc:"Low, Med or High"`
	Direction string `json:"direction,omitempty" example:"Right" doc:"Right, Left, Up or Down"`
}

type EffectResponse struct {
	Body EffectData
}

type EffectRequest struct {
	Body EffectData
}

type ModesData struct {
	Current  string                `json:"current" example:"Static" doc:"Current mode"`
	Builtins map[string]EffectData `json:"builtins" doc:"Saved effect of each global mode"`
}

type ModesResponse struct {
	Body ModesData
}

// Power models
type PowerStatesData struct {
	BootAnim  bool `json:"boot_anim" doc:"Boot animation"`
	SleepAnim bool `json:"sleep_anim" doc:"Sleep animation"`
	AllLeds   bool `json:"all_leds" doc:"Logo and lightbar while awake"`
	KeysLeds  bool `json:"keys_leds" doc:"Keyboard while awake"`
	SideLeds  bool `json:"side_leds" doc:"Side lightbar while awake"`
}

type PowerStatesResponse struct {
	Body PowerStatesData
}

type PowerStatesRequest struct {
	Body PowerStatesData
}

// Raw per-key packets
type RawRequest struct {
	Body struct {
		Rows [][]byte `json:"rows" minItems:"1" doc:"Per-key packets, base64 encoded"`
	}
}

// Capability models
type CapabilitiesData struct {
	DeviceType string                  `json:"device_type" example:"X1866" doc:"Keyboard type from the USB product id"`
	LedNode    string                  `json:"led_node,omitempty" example:"/dev/hidraw2" doc:"Device node used for effects"`
	Functions  aura.SupportedFunctions `json:"functions" doc:"What this keyboard supports"`
}

type CapabilitiesResponse struct {
	Body CapabilitiesData
}

// State models
type StateData struct {
	Brightness  BrightnessData  `json:"brightness"`
	Effect      *EffectData     `json:"effect,omitempty" doc:"Effect of the current mode"`
	PowerStates PowerStatesData `json:"power_states"`
}

type StateResponse struct {
	Body StateData
}

// Counters
type CountersResponse struct {
	Body metrics.Snapshot
}

// EffectToData converts an effect to its JSON form.
func EffectToData(e aura.Effect) EffectData {
	return EffectData{
		Mode:      e.Mode.String(),
		Zone:      e.Zone.String(),
		Colour1:   e.Colour1.Hex(),
		Colour2:   e.Colour2.Hex(),
		Speed:     e.Speed.String(),
		Direction: e.Direction.String(),
	}
}

// Effect parses the request. Omitted fields take the mode's defaults.
func (d EffectData) Effect() (aura.Effect, error) {
	mode, err := aura.ParseModeID(d.Mode)
	if err != nil {
		return aura.Effect{}, err
	}
	e := aura.DefaultEffect(mode)
	if d.Zone != "" {
		if e.Zone, err = aura.ParseZone(d.Zone); err != nil {
			return aura.Effect{}, err
		}
	}
	if d.Colour1 != "" {
		if e.Colour1, err = aura.ParseColour(d.Colour1); err != nil {
			return aura.Effect{}, err
		}
	}
	if d.Colour2 != "" {
		if e.Colour2, err = aura.ParseColour(d.Colour2); err != nil {
			return aura.Effect{}, err
		}
	}
	if d.Speed != "" {
		if e.Speed, err = aura.ParseSpeed(d.Speed); err != nil {
			return aura.Effect{}, err
		}
	}
	if d.Direction != "" {
		if e.Direction, err = aura.ParseDirection(d.Direction); err != nil {
			return aura.Effect{}, err
		}
	}
	return e, nil
}

// PowerStatesToData converts flags to their JSON form.
func PowerStatesToData(p aura.PowerStates) PowerStatesData {
	return PowerStatesData(p)
}

// PowerStates converts back to the domain type.
func (d PowerStatesData) PowerStates() aura.PowerStates {
	return aura.PowerStates(d)
}

// BrightnessToData fills the brightness view. hardware is -1 when unreadable.
func BrightnessToData(hardware int, saved aura.LedBrightness) BrightnessData {
	name := "Unknown"
	if hardware >= 0 {
		name = aura.LedBrightness(hardware).String()
	}
	return BrightnessData{Level: hardware, Name: name, Saved: int(saved)}
}
