package systemd

import (
	"context"
	"strings"

	sddbus "github.com/coreos/go-systemd/v22/dbus"
)

// ServiceName is the daemon's systemd unit.
const ServiceName = "aurad.service"

// Units queries systemd unit state over the system bus.
type Units struct {
	conn *sddbus.Conn
}

// NewUnits connects to the systemd manager on the system bus.
func NewUnits(ctx context.Context) (*Units, error) {
	conn, err := sddbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, err
	}
	return &Units{conn: conn}, nil
}

// ActiveState returns the ActiveState property of a unit, e.g. "active".
func (u *Units) ActiveState(ctx context.Context, unit string) (string, error) {
	prop, err := u.conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return "", err
	}
	return strings.Trim(prop.Value.String(), `"`), nil
}

// Close closes the D-Bus connection.
func (u *Units) Close() {
	if u.conn != nil {
		u.conn.Close()
	}
}
