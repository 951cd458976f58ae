package logging

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
)

// liveHandler forwards to whatever handler chain its module currently has,
// so loggers handed out before Initialize pick up the configured outputs.
// Attributes and groups added through With are replayed onto that chain.
type liveHandler struct {
	root *atomic.Pointer[slog.Handler]
	ops  []func(slog.Handler) slog.Handler
}

func (h *liveHandler) current() slog.Handler {
	out := *h.root.Load()
	for _, op := range h.ops {
		out = op(out)
	}
	return out
}

func (h *liveHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return (*h.root.Load()).Enabled(ctx, level)
}

func (h *liveHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.current().Handle(ctx, r)
}

func (h *liveHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.with(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *liveHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.with(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *liveHandler) with(op func(slog.Handler) slog.Handler) *liveHandler {
	return &liveHandler{root: h.root, ops: append(slices.Clip(h.ops), op)}
}
