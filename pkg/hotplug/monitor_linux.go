//go:build linux

package hotplug

import (
	"context"
	"errors"
	"slices"

	"golang.org/x/sys/unix"
)

// kernelGroup is the multicast group the kernel sends uevents to. Group 2
// carries the udev rebroadcast, which starts with a "libudev" header.
const kernelGroup = 1

const recvBufSize = 8192

// Monitor reads uevents for a set of subsystems.
type Monitor struct {
	fd         int
	subsystems []string
}

// NewMonitor opens the netlink socket. With no subsystems every event passes.
func NewMonitor(subsystems ...string) (*Monitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, err
	}
	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: kernelGroup}); err != nil {
		unix.Close(fd)
		return nil, err
	}
	// A receive timeout lets Run notice cancellation without closing the fd under it.
	tv := unix.Timeval{Sec: 1}
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &Monitor{fd: fd, subsystems: subsystems}, nil
}

// Close releases the socket. Call it after Run has returned.
func (m *Monitor) Close() error {
	return unix.Close(m.fd)
}

// Run calls handle for every matching event until ctx is cancelled or the
// socket fails. handle runs on the Run goroutine.
func (m *Monitor) Run(ctx context.Context, handle func(Event)) error {
	buf := make([]byte, recvBufSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, _, err := unix.Recvfrom(m.fd, buf, 0)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}

		ev, ok := ParseUEvent(buf[:n])
		if !ok || !m.wants(ev.Subsystem) {
			continue
		}
		handle(ev)
	}
}

func (m *Monitor) wants(subsystem string) bool {
	return len(m.subsystems) == 0 || slices.Contains(m.subsystems, subsystem)
}
