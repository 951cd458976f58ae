//go:build !linux

package hotplug

import "context"

// Monitor is unavailable off Linux.
type Monitor struct{}

// NewMonitor returns ErrUnsupported on this platform.
func NewMonitor(_ ...string) (*Monitor, error) {
	return nil, ErrUnsupported
}

// Close is a no-op.
func (m *Monitor) Close() error { return nil }

// Run returns ErrUnsupported.
func (m *Monitor) Run(_ context.Context, _ func(Event)) error {
	return ErrUnsupported
}
