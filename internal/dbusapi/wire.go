package dbusapi

import (
	"github.com/smazurov/aurad/internal/aura"
)

// WireColour is an RGB triple, signature (yyy).
type WireColour struct {
	R, G, B byte
}

// WireEffect is the bus form of aura.Effect, signature (ss(yyy)(yyy)ss).
// Enumerations travel by name.
type WireEffect struct {
	Mode      string
	Zone      string
	Colour1   WireColour
	Colour2   WireColour
	Speed     string
	Direction string
}

// WirePowerStates is the bus form of aura.PowerStates, signature (bbbbb).
type WirePowerStates struct {
	BootAnim  bool
	SleepAnim bool
	AllLeds   bool
	KeysLeds  bool
	SideLeds  bool
}

func colourToWire(c aura.Colour) WireColour {
	return WireColour{R: c[0], G: c[1], B: c[2]}
}

func (c WireColour) colour() aura.Colour {
	return aura.Colour{c.R, c.G, c.B}
}

// EffectToWire converts an effect for the bus.
func EffectToWire(e aura.Effect) WireEffect {
	return WireEffect{
		Mode:      e.Mode.String(),
		Zone:      e.Zone.String(),
		Colour1:   colourToWire(e.Colour1),
		Colour2:   colourToWire(e.Colour2),
		Speed:     e.Speed.String(),
		Direction: e.Direction.String(),
	}
}

// Effect parses a wire effect. Unknown names are PARSE errors.
func (w WireEffect) Effect() (aura.Effect, error) {
	mode, err := aura.ParseModeID(w.Mode)
	if err != nil {
		return aura.Effect{}, err
	}
	e := aura.DefaultEffect(mode)
	if w.Zone != "" {
		if e.Zone, err = aura.ParseZone(w.Zone); err != nil {
			return aura.Effect{}, err
		}
	}
	if w.Speed != "" {
		if e.Speed, err = aura.ParseSpeed(w.Speed); err != nil {
			return aura.Effect{}, err
		}
	}
	if w.Direction != "" {
		if e.Direction, err = aura.ParseDirection(w.Direction); err != nil {
			return aura.Effect{}, err
		}
	}
	e.Colour1 = w.Colour1.colour()
	e.Colour2 = w.Colour2.colour()
	return e, nil
}

// PowerStatesToWire converts power flags for the bus.
func PowerStatesToWire(p aura.PowerStates) WirePowerStates {
	return WirePowerStates(p)
}

// PowerStates converts back to the domain type.
func (w WirePowerStates) PowerStates() aura.PowerStates {
	return aura.PowerStates(w)
}
