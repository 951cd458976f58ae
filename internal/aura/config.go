package aura

import (
	"encoding/json"
	"maps"
	"slices"
)

// Config is the persisted LED state.
//
// CurrentMode should have an entry in Builtins, but nothing enforces it.
// Multizone is nil until multizone support has been initialised.
type Config struct {
	Brightness  LedBrightness       `json:"brightness"`
	CurrentMode ModeID              `json:"current_mode"`
	Builtins    map[ModeID]Effect   `json:"builtins"`
	Multizone   map[ModeID][]Effect `json:"multizone"`
	PowerStates PowerStates         `json:"power_states"`
}

// NewConfig returns the bare defaults: Med brightness, Static mode, every power flag on.
func NewConfig() *Config {
	return &Config{
		Brightness:  BrightnessMed,
		CurrentMode: ModeStatic,
		Builtins:    make(map[ModeID]Effect),
		PowerStates: DefaultPowerStates(),
	}
}

// NewDefaultConfig returns the defaults with a default effect for every
// standard mode the hardware supports.
func NewDefaultConfig(caps *LaptopLedData) *Config {
	cfg := NewConfig()
	if caps == nil {
		return cfg
	}
	for _, m := range caps.Standard {
		cfg.Builtins[m] = DefaultEffect(m)
	}
	return cfg
}

// UnmarshalJSON fills fields missing from data with their defaults.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	tmp := plain(*NewConfig())
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if tmp.Builtins == nil {
		tmp.Builtins = make(map[ModeID]Effect)
	}
	*c = Config(tmp)
	return nil
}

// UnmarshalJSON fills fields missing from data with their defaults.
func (p *PowerStates) UnmarshalJSON(data []byte) error {
	type plain PowerStates
	tmp := plain(DefaultPowerStates())
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = PowerStates(tmp)
	return nil
}

// UnmarshalJSON fills fields missing from data with the Static defaults.
func (e *Effect) UnmarshalJSON(data []byte) error {
	type plain Effect
	tmp := plain(DefaultEffect(ModeStatic))
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*e = Effect(tmp)
	return nil
}

// SetBuiltin stores an effect. Global effects go into Builtins keyed by
// mode. Zoned effects go into the mode's Multizone sequence, replacing the
// entry for the same zone or appending; they are dropped when Multizone has
// never been initialised.
func (c *Config) SetBuiltin(e Effect) {
	if e.Zone == ZoneNone {
		if c.Builtins == nil {
			c.Builtins = make(map[ModeID]Effect)
		}
		c.Builtins[e.Mode] = e
		return
	}

	if c.Multizone == nil {
		return
	}
	seq, ok := c.Multizone[e.Mode]
	if !ok {
		c.Multizone[e.Mode] = []Effect{e}
		return
	}
	for i := range seq {
		if seq[i].Zone == e.Zone {
			seq[i] = e
			return
		}
	}
	c.Multizone[e.Mode] = append(seq, e)
}

// GetMultizone returns the zoned effects for a mode.
func (c *Config) GetMultizone(mode ModeID) ([]Effect, bool) {
	if c.Multizone == nil {
		return nil, false
	}
	seq, ok := c.Multizone[mode]
	return seq, ok
}

// CurrentEffect returns the builtin effect of the current mode.
func (c *Config) CurrentEffect() (Effect, bool) {
	e, ok := c.Builtins[c.CurrentMode]
	return e, ok
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Builtins = maps.Clone(c.Builtins)
	if c.Multizone != nil {
		out.Multizone = make(map[ModeID][]Effect, len(c.Multizone))
		for k, v := range c.Multizone {
			out.Multizone[k] = slices.Clone(v)
		}
	}
	return &out
}
