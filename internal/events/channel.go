package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T into ch for consumers that
// select over several event types, such as the SSE handlers. Delivery never
// blocks the publisher: when ch is full the event is dropped and counted.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
			bus.dropped.Add(1)
		}
	})
}

// Dropped reports how many events channel subscribers missed because their
// buffer was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}
