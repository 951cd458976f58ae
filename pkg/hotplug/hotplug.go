// Package hotplug listens for kernel uevents on a netlink socket.
//
// It needs no udev daemon and no cgo: the kernel broadcasts every uevent on
// NETLINK_KOBJECT_UEVENT group 1 and the monitor keeps those whose
// subsystem matches.
package hotplug

import (
	"bytes"
	"errors"
	"path"
)

// Actions the kernel reports.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
	ActionBind   = "bind"
	ActionUnbind = "unbind"
)

// SubsystemHidraw is the subsystem of /dev/hidrawN nodes.
const SubsystemHidraw = "hidraw"

// ErrUnsupported is returned by NewMonitor where netlink uevents do not exist.
var ErrUnsupported = errors.New("hotplug: uevent monitoring not supported on this platform")

// Event is one kernel uevent.
type Event struct {
	Action    string
	DevPath   string // kobject path under /sys, e.g. /devices/.../hidraw/hidraw2
	Subsystem string
	DevName   string // node name under /dev, e.g. hidraw2
	Seq       string
	Env       map[string]string
}

// Node returns the /dev path of the event's device, empty when the event has no node.
func (e Event) Node() string {
	if e.DevName == "" {
		return ""
	}
	return path.Join("/dev", e.DevName)
}

// ParseUEvent decodes "ACTION@DEVPATH\0KEY=VALUE\0...". Messages from the
// udev rebroadcast group are rejected.
func ParseUEvent(data []byte) (Event, bool) {
	if len(data) == 0 || bytes.HasPrefix(data, []byte("libudev")) {
		return Event{}, false
	}

	fields := bytes.Split(data, []byte{0})
	action, devpath, found := bytes.Cut(fields[0], []byte("@"))
	if !found || len(action) == 0 {
		return Event{}, false
	}

	ev := Event{
		Action:  string(action),
		DevPath: string(devpath),
		Env:     make(map[string]string, len(fields)-1),
	}
	for _, f := range fields[1:] {
		key, value, ok := bytes.Cut(f, []byte("="))
		if !ok || len(key) == 0 {
			continue
		}
		k, v := string(key), string(value)
		ev.Env[k] = v
		switch k {
		case "SUBSYSTEM":
			ev.Subsystem = v
		case "DEVNAME":
			ev.DevName = v
		case "DEVPATH":
			ev.DevPath = v
		case "SEQNUM":
			ev.Seq = v
		}
	}
	return ev, true
}
