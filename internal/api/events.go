package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/aurad/internal/events"
)

// streamEvents maps SSE event names to the bus events forwarded under them.
var streamEvents = map[string]any{
	"effect-changed":       events.EffectChangedEvent{},
	"power-states-changed": events.PowerStatesChangedEvent{},
	"brightness-changed":   events.BrightnessChangedEvent{},
	"system-state":         events.SystemStateEvent{},
	"device-hotplug":       events.DeviceHotplugEvent{},
}

func subscribeStream(bus *events.Bus, ch chan<- any) func() {
	unsubs := []func(){
		events.SubscribeToChannel[events.EffectChangedEvent](bus, ch),
		events.SubscribeToChannel[events.PowerStatesChangedEvent](bus, ch),
		events.SubscribeToChannel[events.BrightnessChangedEvent](bus, ch),
		events.SubscribeToChannel[events.SystemStateEvent](bus, ch),
		events.SubscribeToChannel[events.DeviceHotplugEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// initialEvents describes the current keyboard state as the events a client
// would have seen had it been connected all along.
func (s *Server) initialEvents() []any {
	if s.ctrl == nil {
		return nil
	}
	state := s.ctrl.Snapshot()
	now := events.Now()
	out := make([]any, 0, 3)
	if state.Effect != nil {
		out = append(out, events.EffectChangedEvent{Effect: *state.Effect, Timestamp: now})
	}
	return append(out,
		events.PowerStatesChangedEvent{PowerStates: state.PowerStates, Timestamp: now},
		events.BrightnessChangedEvent{Brightness: state.Brightness, Source: events.SourceUser, Timestamp: now},
	)
}

func (s *Server) registerSSERoutes() {
	if s.eventBus == nil {
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Event Stream",
		Description: "Current keyboard state on connect, then every effect, power, brightness, sleep/shutdown and hotplug change",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, streamEvents, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)
		defer subscribeStream(s.eventBus, eventCh)()

		for _, ev := range s.initialEvents() {
			if err := send.Data(ev); err != nil {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-eventCh:
				if err := send.Data(ev); err != nil {
					return
				}
			}
		}
	})
}
