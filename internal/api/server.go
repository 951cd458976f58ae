package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/aurad/internal/api/models"
	"github.com/smazurov/aurad/internal/events"
	"github.com/smazurov/aurad/internal/led"
	"github.com/smazurov/aurad/internal/logging"
	"github.com/smazurov/aurad/internal/version"
)

// Server is the local HTTP API for GUI clients. Handlers share the
// controller with the D-Bus adapter and queue behind it.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	ctrl       *led.Controller
	eventBus   *events.Bus
	options    *Options
	logger     *slog.Logger
}

// Options configures the API server.
type Options struct {
	AuthUsername      string
	AuthPassword      string
	Controller        *led.Controller
	EventBus          *events.Bus
	SysfsRoot         string
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
}

// NewServer builds the huma API on a stdlib mux. Auth is enabled only when
// both username and password are set.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()
	cors := DefaultCORSConfig()
	AddCORSHandler(mux, cors)

	config := huma.DefaultConfig("aurad API", version.String())
	config.Info.Description = "Keyboard LED control for ASUS laptops"
	config.Servers = []*huma.Server{} // relative URLs in the OpenAPI document
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {Type: "http", Scheme: "basic"},
	}

	server := &Server{
		api:      humago.New(mux, config),
		mux:      mux,
		ctrl:     opts.Controller,
		eventBus: opts.EventBus,
		options:  opts,
		logger:   logging.GetLogger("api"),
	}

	server.api.UseMiddleware(NewCORSMiddleware(cors), HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		server.api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	} else {
		server.logger.Warn("HTTP API running without authentication")
	}

	// Scrapers do not authenticate.
	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()
	return server
}

// GetMux returns the underlying HTTP ServeMux for additional setup
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// Start listens on addr and serves until Stop is called.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server listening", "addr", ln.Addr().String(), "docs", "http://"+ln.Addr().String()+"/docs")
	return s.httpServer.Serve(ln)
}

// Stop closes the listener and open connections. Close rather than
// Shutdown, since SSE streams never finish on their own.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Stopping API server")
	return s.httpServer.Close()
}

func (s *Server) registerRoutes() {
	s.registerSystemRoutes()
	s.registerAuraRoutes()
	s.registerSSERoutes()
	s.registerLogRoutes()
	s.registerMetricsRoutes()
}

// registerSystemRoutes registers health and version, both without auth.
func (s *Server) registerSystemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Report whether the daemon can drive the keyboard",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		health := models.HealthData{Status: "ok", Message: "Keyboard ready"}
		switch {
		case s.ctrl == nil:
			health.Message = "LED control disabled"
		case s.ctrl.LedNode() == "":
			health.Status = "degraded"
			health.Message = "No LED node, only brightness is available"
		}
		return &models.HealthResponse{Body: health}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get build information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Name:      info.Name,
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				BuildID:   info.BuildID,
				GoVersion: info.GoVersion,
				Compiler:  info.Compiler,
				Platform:  info.Platform,
			},
		}, nil
	})
}
