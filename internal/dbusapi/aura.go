package dbusapi

import (
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/smazurov/aurad/internal/aura"
	"github.com/smazurov/aurad/internal/led"
)

// Aura is the object exported at ObjectPath. Every method blocks until the
// controller is free.
type Aura struct {
	ctrl      *led.Controller
	sysfsRoot string
	logger    *slog.Logger

	// onBrightness receives the hardware level after a brightness change,
	// -1 when it cannot be read.
	onBrightness func(level int16)
}

func newAura(ctrl *led.Controller, sysfsRoot string, logger *slog.Logger) *Aura {
	return &Aura{ctrl: ctrl, sysfsRoot: sysfsRoot, logger: logger}
}

// SetBrightness sets the hardware level (0-3) without saving it.
func (a *Aura) SetBrightness(level uint32) *dbus.Error {
	err := a.ctrl.Do(func(k *led.KbdLed) error {
		return k.SetBrightness(aura.BrightnessFromUint(level))
	})
	a.refreshBrightness()
	return a.reply("SetBrightness", err)
}

// NextLedBrightness steps brightness up and saves it.
func (a *Aura) NextLedBrightness() *dbus.Error {
	err := a.ctrl.Do(func(k *led.KbdLed) error {
		return k.NextBrightness()
	})
	a.refreshBrightness()
	return a.reply("NextLedBrightness", err)
}

// PrevLedBrightness steps brightness down and saves it.
func (a *Aura) PrevLedBrightness() *dbus.Error {
	err := a.ctrl.Do(func(k *led.KbdLed) error {
		return k.PrevBrightness()
	})
	a.refreshBrightness()
	return a.reply("PrevLedBrightness", err)
}

// SetLedMode applies and saves an effect, then re-applies the saved
// brightness since a mode change can reset it.
func (a *Aura) SetLedMode(w WireEffect) *dbus.Error {
	effect, err := w.Effect()
	if err != nil {
		return a.reply("SetLedMode", err)
	}
	err = a.ctrl.Do(func(k *led.KbdLed) error {
		if err := k.SetAndSave(effect); err != nil {
			return err
		}
		return k.SetBrightness(k.Config().Brightness)
	})
	a.refreshBrightness()
	return a.reply("SetLedMode", err)
}

// NextLedMode cycles to the next supported mode.
func (a *Aura) NextLedMode() *dbus.Error {
	err := a.ctrl.Do(func(k *led.KbdLed) error {
		return k.ToggleMode(false)
	})
	return a.reply("NextLedMode", err)
}

// PrevLedMode cycles to the previous supported mode.
func (a *Aura) PrevLedMode() *dbus.Error {
	err := a.ctrl.Do(func(k *led.KbdLed) error {
		return k.ToggleMode(true)
	})
	return a.reply("PrevLedMode", err)
}

// SetLedPower saves and applies the power flags.
func (a *Aura) SetLedPower(w WirePowerStates) *dbus.Error {
	err := a.ctrl.Do(func(k *led.KbdLed) error {
		return k.SetPowerStates(w.PowerStates())
	})
	return a.reply("SetLedPower", err)
}

// LedMode returns the current mode name.
func (a *Aura) LedMode() (string, *dbus.Error) {
	var mode aura.ModeID
	_ = a.ctrl.Do(func(k *led.KbdLed) error {
		mode = k.Config().CurrentMode
		return nil
	})
	return mode.String(), nil
}

// LedModes returns the saved effect of every global mode.
func (a *Aura) LedModes() (map[string]WireEffect, *dbus.Error) {
	out := make(map[string]WireEffect)
	_ = a.ctrl.Do(func(k *led.KbdLed) error {
		for mode, e := range k.Config().Builtins {
			out[mode.String()] = EffectToWire(e)
		}
		return nil
	})
	return out, nil
}

// LedPower returns the saved power flags.
func (a *Aura) LedPower() (WirePowerStates, *dbus.Error) {
	var states aura.PowerStates
	_ = a.ctrl.Do(func(k *led.KbdLed) error {
		states = k.Config().PowerStates
		return nil
	})
	return PowerStatesToWire(states), nil
}

// DirectAddressingRaw writes raw per-key packets.
func (a *Aura) DirectAddressingRaw(rows [][]byte) *dbus.Error {
	err := a.ctrl.Do(func(k *led.KbdLed) error {
		return k.WriteEffectBlock(rows)
	})
	return a.reply("DirectAddressingRaw", err)
}

// DeviceType names the keyboard by USB product id.
func (a *Aura) DeviceType() (string, *dbus.Error) {
	return led.DeviceType(led.NodeProductID(a.sysfsRoot, a.ctrl.LedNode())), nil
}

// SupportedModes lists the standard modes of this keyboard.
func (a *Aura) SupportedModes() ([]string, *dbus.Error) {
	var names []string
	_ = a.ctrl.Do(func(k *led.KbdLed) error {
		for _, m := range k.Capabilities().Standard {
			names = append(names, m.String())
		}
		return nil
	})
	return names, nil
}

// hardwareBrightness reads the current level, -1 when unreadable.
func (a *Aura) hardwareBrightness() int16 {
	level := int16(-1)
	_ = a.ctrl.Do(func(k *led.KbdLed) error {
		b, err := k.Brightness()
		if err == nil {
			level = int16(b)
		}
		return nil
	})
	return level
}

func (a *Aura) refreshBrightness() {
	if a.onBrightness != nil {
		a.onBrightness(a.hardwareBrightness())
	}
}

func (a *Aura) reply(method string, err error) *dbus.Error {
	if err != nil {
		a.logger.Warn("Bus call failed", "method", method, "error", err)
	}
	return toDBusError(err)
}
