package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/aurad/internal/api/models"
	"github.com/smazurov/aurad/internal/metrics"
)

// registerMetricsRoutes exposes the counters as JSON for clients that do not scrape /metrics.
func (s *Server) registerMetricsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-counters",
		Method:      http.MethodGet,
		Path:        "/api/metrics",
		Summary:     "Counters",
		Description: "Device writes, config writes, watcher skips and the persisted brightness",
		Tags:        []string{"metrics"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.CountersResponse, error) {
		return &models.CountersResponse{Body: metrics.Get()}, nil
	})
}
