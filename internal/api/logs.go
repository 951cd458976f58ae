package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/aurad/internal/events"
	"github.com/smazurov/aurad/internal/logging"
)

// LogStreamInput filters the log stream.
type LogStreamInput struct {
	Since  uint64 `query:"since" doc:"Replay only entries after this sequence number; 0 replays the whole buffer"`
	Module string `query:"module" example:"led" doc:"Only entries from this module"`
}

func (in *LogStreamInput) wants(ev events.LogEntryEvent) bool {
	return in.Module == "" || ev.Module == in.Module
}

// registerLogRoutes registers the log SSE endpoint.
func (s *Server) registerLogRoutes() {
	if s.eventBus == nil {
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Replays buffered log entries, then streams new ones. Reconnect with since set to the last seq seen to resume without gaps.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, input *LogStreamInput, send sse.Sender) {
		// Subscribe before replaying so nothing logged in between is lost.
		eventCh := make(chan any, 256)
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
		defer unsubscribe()

		last := input.Since
		if buffer := logging.GetBuffer(); buffer != nil {
			for _, entry := range buffer.Since(input.Since) {
				last = entry.Seq
				ev := events.NewLogEntryEvent(entry)
				if !input.wants(ev) {
					continue
				}
				if err := send.Data(ev); err != nil {
					return
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-eventCh:
				ev, ok := msg.(events.LogEntryEvent)
				if !ok || (ev.Seq != 0 && ev.Seq <= last) || !input.wants(ev) {
					continue
				}
				if err := send.Data(ev); err != nil {
					return
				}
			}
		}
	})
}
