package dbusapi

import (
	"errors"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/smazurov/aurad/internal/aura"
)

// ErrorPrefix prefixes every error name returned by the daemon.
const ErrorPrefix = Interface + ".Error."

const errFailed = ErrorPrefix + "Failed"

var kindNames = map[aura.ErrorKind]string{
	aura.KindCapabilityMissing: "CapabilityMissing",
	aura.KindNodeMissing:       "NodeMissing",
	aura.KindIO:                "IO",
	aura.KindParse:             "Parse",
	aura.KindNotSupported:      "NotSupported",
	aura.KindEnumeration:       "Enumeration",
}

// toDBusError maps a domain error to a named bus error.
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	var ae *aura.Error
	if errors.As(err, &ae) {
		if name, ok := kindNames[ae.Kind]; ok {
			return dbus.NewError(ErrorPrefix+name, []any{err.Error()})
		}
	}
	return dbus.NewError(errFailed, []any{err.Error()})
}

// FromDBusError turns a daemon bus error back into an *aura.Error so callers
// can use errors.Is on the sentinels. Other errors are returned unchanged.
func FromDBusError(err error) error {
	var de dbus.Error
	switch e := err.(type) {
	case dbus.Error:
		de = e
	case *dbus.Error:
		if e == nil {
			return nil
		}
		de = *e
	default:
		return err
	}
	if !strings.HasPrefix(de.Name, ErrorPrefix) {
		return err
	}
	name := strings.TrimPrefix(de.Name, ErrorPrefix)
	msg := ""
	if len(de.Body) > 0 {
		if s, ok := de.Body[0].(string); ok {
			msg = s
		}
	}
	for kind, n := range kindNames {
		if n == name {
			return aura.NewError(kind, strings.TrimPrefix(msg, string(kind)+": "), nil)
		}
	}
	return err
}
