package events

import (
	"sync/atomic"
	"time"

	"github.com/kelindar/event"
)

// Bus fans daemon events out to the bus adapters and SSE clients. Handlers
// run on dispatcher goroutines, never on the publisher's.
type Bus struct {
	dispatcher *event.Dispatcher
	dropped    atomic.Uint64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// On registers fn for events of type T and returns its unsubscribe func.
func On[T Event](b *Bus, fn func(T)) func() {
	return event.Subscribe(b.dispatcher, fn)
}

// Publish delivers ev to every handler of its concrete type. Events of an
// unknown type are ignored.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case EffectChangedEvent:
		event.Publish(b.dispatcher, e)
	case PowerStatesChangedEvent:
		event.Publish(b.dispatcher, e)
	case BrightnessChangedEvent:
		event.Publish(b.dispatcher, e)
	case SystemStateEvent:
		event.Publish(b.dispatcher, e)
	case DeviceHotplugEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe is On for callers holding an untyped handler, for example
// func(EffectChangedEvent). Unsupported handler types get a no-op
// unsubscribe.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(EffectChangedEvent):
		return On(b, h)
	case func(PowerStatesChangedEvent):
		return On(b, h)
	case func(BrightnessChangedEvent):
		return On(b, h)
	case func(SystemStateEvent):
		return On(b, h)
	case func(DeviceHotplugEvent):
		return On(b, h)
	case func(LogEntryEvent):
		return On(b, h)
	}
	return func() {}
}

// Now is the timestamp format shared by all events.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
