// Package exporters serves the daemon's Prometheus metrics.
package exporters

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smazurov/aurad/internal/logging"
)

type gatherLog struct {
	logger *slog.Logger
}

func (l gatherLog) Println(v ...any) {
	l.logger.Warn("Metrics gather failed", "error", fmt.Sprint(v...))
}

// HTTPHandler serves the default registry. Scrapers that ask for OpenMetrics
// get it; a failing collector is logged and the rest are still served.
func HTTPHandler() http.Handler {
	opts := promhttp.HandlerOpts{
		ErrorLog:          gatherLog{logger: logging.GetLogger("metrics")},
		ErrorHandling:     promhttp.ContinueOnError,
		EnableOpenMetrics: true,
	}
	return promhttp.InstrumentMetricHandler(prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, opts))
}
