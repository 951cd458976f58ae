package api

import (
	"log/slog"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/aurad/internal/logging"
)

// requestLevel picks the log level for a finished request. Preflights and
// health probes are noise at info.
func requestLevel(method, path string, status int) slog.Level {
	switch {
	case method == "OPTIONS", strings.HasSuffix(path, "/health"):
		return slog.LevelDebug
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// HTTPLoggingMiddleware logs each request once it completes. SSE requests
// complete when the client goes away, so their duration is the session length.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	logger := logging.GetLogger("http")
	start := time.Now()

	next(ctx)

	u := ctx.URL()
	attrs := []slog.Attr{
		slog.String("method", ctx.Method()),
		slog.String("path", u.Path),
		slog.Int("status", ctx.Status()),
		slog.Duration("duration", time.Since(start)),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if op := ctx.Operation(); op != nil {
		attrs = append(attrs, slog.String("operation", op.OperationID))
	}
	if agent := ctx.Header("User-Agent"); agent != "" {
		attrs = append(attrs, slog.String("user_agent", agent))
	}
	// The query may carry SSE credentials.
	if q := u.Query(); q.Has("auth") {
		q.Set("auth", "redacted")
		attrs = append(attrs, slog.String("query", q.Encode()))
	} else if u.RawQuery != "" {
		attrs = append(attrs, slog.String("query", u.RawQuery))
	}

	logger.LogAttrs(ctx.Context(), requestLevel(ctx.Method(), u.Path, ctx.Status()), "HTTP request completed", attrs...)
}
