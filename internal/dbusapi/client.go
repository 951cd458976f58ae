package dbusapi

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/smazurov/aurad/internal/aura"
)

// Client calls the daemon over the system bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Dial connects to the daemon on the system bus.
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, obj: conn.Object(BusName, ObjectPath)}, nil
}

// Close closes the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(method string, args ...any) *dbus.Call {
	return c.obj.Call(Interface+"."+method, 0, args...)
}

func (c *Client) do(method string, args ...any) error {
	return FromDBusError(c.call(method, args...).Err)
}

// SetBrightness sets the hardware level.
func (c *Client) SetBrightness(level aura.LedBrightness) error {
	return c.do("SetBrightness", uint32(level))
}

// NextBrightness steps brightness up.
func (c *Client) NextBrightness() error { return c.do("NextLedBrightness") }

// PrevBrightness steps brightness down.
func (c *Client) PrevBrightness() error { return c.do("PrevLedBrightness") }

// SetEffect applies and saves an effect.
func (c *Client) SetEffect(e aura.Effect) error {
	return c.do("SetLedMode", EffectToWire(e))
}

// NextMode cycles forward.
func (c *Client) NextMode() error { return c.do("NextLedMode") }

// PrevMode cycles backward.
func (c *Client) PrevMode() error { return c.do("PrevLedMode") }

// SetPowerStates saves and applies power flags.
func (c *Client) SetPowerStates(p aura.PowerStates) error {
	return c.do("SetLedPower", PowerStatesToWire(p))
}

// Mode returns the current mode.
func (c *Client) Mode() (aura.ModeID, error) {
	var name string
	if err := c.call("LedMode").Store(&name); err != nil {
		return 0, FromDBusError(err)
	}
	return aura.ParseModeID(name)
}

// Modes returns the saved effect for each global mode.
func (c *Client) Modes() (map[aura.ModeID]aura.Effect, error) {
	var wire map[string]WireEffect
	if err := c.call("LedModes").Store(&wire); err != nil {
		return nil, FromDBusError(err)
	}
	out := make(map[aura.ModeID]aura.Effect, len(wire))
	for _, w := range wire {
		e, err := w.Effect()
		if err != nil {
			return nil, err
		}
		out[e.Mode] = e
	}
	return out, nil
}

// PowerStates returns the saved power flags.
func (c *Client) PowerStates() (aura.PowerStates, error) {
	var w WirePowerStates
	if err := c.call("LedPower").Store(&w); err != nil {
		return aura.PowerStates{}, FromDBusError(err)
	}
	return w.PowerStates(), nil
}

// Brightness reads the LedBrightness property, -1 when the daemon could not
// read the hardware.
func (c *Client) Brightness() (int16, error) {
	v, err := c.obj.GetProperty(Interface + "." + PropLedBrightness)
	if err != nil {
		return -1, FromDBusError(err)
	}
	level, ok := v.Value().(int16)
	if !ok {
		return -1, fmt.Errorf("%s has type %s, want int16", PropLedBrightness, v.Signature())
	}
	return level, nil
}

// DeviceType returns the keyboard type.
func (c *Client) DeviceType() (string, error) {
	var s string
	if err := c.call("DeviceType").Store(&s); err != nil {
		return "", FromDBusError(err)
	}
	return s, nil
}

// SupportedModes lists the standard modes.
func (c *Client) SupportedModes() ([]string, error) {
	var modes []string
	if err := c.call("SupportedModes").Store(&modes); err != nil {
		return nil, FromDBusError(err)
	}
	return modes, nil
}

// DirectAddressingRaw uploads raw per-key packets.
func (c *Client) DirectAddressingRaw(rows [][]byte) error {
	return c.do("DirectAddressingRaw", rows)
}
