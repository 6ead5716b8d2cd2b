package route

import (
	"net/http"
	"visionserver/internal/config"
	"visionserver/internal/handler"
	"visionserver/internal/logger"
	"visionserver/internal/middleware"
	"visionserver/internal/repository"
	"visionserver/internal/service"
	"visionserver/internal/service/networktable"
	"visionserver/internal/service/stream"
	"visionserver/internal/service/tuning"
	"visionserver/internal/service/websocket"
)

// Dependencies groups what the HTTP layer needs from the running service.
type Dependencies struct {
	Manager      *service.Manager
	Registry     *tuning.Registry
	Tables       networktable.Instance
	MJPEG        *stream.MJPEGServer
	Hub          *websocket.HubService
	Measurements repository.MeasurementRepository
	Snapshots    repository.SnapshotRepository
	RunID        string
}

// SetupRoutes registers HTTP routes and wraps the mux with logging and the
// authentication middleware.
func SetupRoutes(deps Dependencies, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()
	limit := middleware.RateLimit(cfg.TuningRateLimit, logger)

	// Streams
	mux.HandleFunc("GET /stream/{name}", deps.MJPEG.Handler())
	mux.HandleFunc("GET /api/view", handler.ViewWebsocketHandler(deps.Hub, logger))

	// Tuning and network tables
	mux.HandleFunc("GET /api/tuning", handler.GetTuningHandler(deps.Registry, logger))
	mux.Handle("POST /api/tuning", limit(handler.SetTuningHandler(deps.Registry, logger)))
	mux.HandleFunc("GET /api/table", handler.TableHandler(deps.Tables, logger))

	// Measurement history
	mux.HandleFunc("GET /api/measurements", handler.GetMeasurementsHandler(deps.Measurements, deps.RunID, logger))
	mux.HandleFunc("GET /api/measurements/latest", handler.GetLatestMeasurementHandler(deps.Measurements, logger))
	mux.HandleFunc("GET /api/measurements/stats", handler.GetMeasurementStatsHandler(deps.Measurements, deps.RunID, logger))
	mux.HandleFunc("POST /api/measurements/clear", handler.ClearMeasurementsHandler(deps.Measurements, logger))

	// Snapshots
	mux.Handle("POST /api/snapshot", limit(handler.TakeSnapshotHandler(deps.Manager, logger)))
	mux.HandleFunc("GET /api/snapshots", handler.GetSnapshotsHandler(deps.Snapshots, logger))
	mux.HandleFunc("GET /api/snapshots/view", handler.ViewSnapshotHandler(deps.Snapshots, logger))

	mux.HandleFunc("GET /healthz", handler.HealthHandler(deps.Manager, logger))

	// Log endpoints
	for _, level := range []string{"info", "warning", "error"} {
		file := level + ".log"
		mux.HandleFunc("GET /logs/"+level, handler.ShowLogsHandler(cfg, file))
		mux.HandleFunc("POST /logs/"+level+"/clear", handler.ClearLogsHandler(logger, file))
	}

	// Auth endpoints
	mux.HandleFunc("POST /auth/login", handler.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Apply middleware
	return middleware.RequestLogger(logger)(middleware.AuthMiddleware(mux))
}
