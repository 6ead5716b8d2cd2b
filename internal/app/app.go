package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"visionserver/internal/config"
	"visionserver/internal/logger"
	"visionserver/internal/repository/sqlite"
	"visionserver/internal/route"
	"visionserver/internal/service"
	"visionserver/internal/service/camera"
	"visionserver/internal/service/networktable"
	"visionserver/internal/service/storage"
	"visionserver/internal/service/stream"
	"visionserver/internal/service/target"
	"visionserver/internal/service/tuning"
	"visionserver/internal/service/vision"
	"visionserver/internal/service/websocket"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RedisPort is the default port of the robot-side table store in client mode.
const RedisPort = 6379

type App struct {
	config        *config.Config
	logger        *logger.Logger
	db            *sqlite.DB
	tables        networktable.Instance
	cameras       []camera.Source
	grip          *vision.GripPipeline
	bufferService *storage.BufferService
	hubService    *websocket.HubService
	manager       *service.Manager
	server        *http.Server
}

// NewApp reads the environment and the camera file, then builds every service.
// configFile overrides FRC_CONFIG when non-empty.
func NewApp(ctx context.Context, configFile string) (*App, error) {
	cfg := config.Load()
	if configFile != "" {
		cfg.ConfigFile = configFile
	}

	log := logger.NewLogger(cfg)

	file, warnings, err := config.LoadFile(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	for _, warning := range warnings {
		log.Warning("%s", warning)
	}
	cfg.ApplyFile(file)

	order, err := target.ParsePairOrder(cfg.PairOrder)
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg, logger: log}

	a.tables = connectTables(ctx, cfg, log)

	registry := tuning.NewPipelineRegistry()
	if err := registry.Bind(a.tables.Table(networktable.LiveWindowTable)); err != nil {
		log.Warning("Tuning properties not mirrored: %v", err)
	}

	calibration := cfg.Calibration()
	processor := target.NewProcessor(target.NewEstimator(calibration, order), a.tables)
	annotator := vision.NewAnnotator(cfg.JPEGQuality)
	a.grip = vision.NewGripPipeline(registry)
	pipeline := vision.NewPipeline(registry, a.grip, processor, annotator)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	a.db, err = sqlite.New(cfg.DatabasePath)
	if err != nil {
		a.Close()
		return nil, err
	}
	measurements := sqlite.NewMeasurementRepository(a.db)
	snapshots := sqlite.NewSnapshotRepository(a.db)

	runID := uuid.NewString()
	a.bufferService = storage.NewBufferService(cfg, log, measurements, runID)
	snapshotService := storage.NewSnapshotService(cfg, log, snapshots, runID)

	a.hubService = websocket.NewHubService(cfg, log)
	mjpeg := stream.NewMJPEGServer(log)

	for _, cc := range cfg.Cameras {
		cam, err := camera.Open(cc, calibration.CameraWidth, calibration.CameraHeight, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.cameras = append(a.cameras, cam)
	}

	a.manager = service.NewManager(cfg, log, a.cameras, pipeline, annotator, mjpeg, a.hubService, a.bufferService, snapshotService)

	router := route.SetupRoutes(route.Dependencies{
		Manager:      a.manager,
		Registry:     registry,
		Tables:       a.tables,
		MJPEG:        mjpeg,
		Hub:          a.hubService,
		Measurements: measurements,
		Snapshots:    snapshots,
		RunID:        runID,
	}, cfg, log)

	a.server = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("Run %s: team %d, %d camera(s), pair order %s", runID, cfg.Team, len(a.cameras), order)
	return a, nil
}

// connectTables picks the network table backend for the configured mode.
// In client mode an unreachable store falls back to a local one.
func connectTables(ctx context.Context, cfg *config.Config, log *logger.Logger) networktable.Instance {
	if cfg.Server {
		log.Info("Setting up NetworkTables server")
		return networktable.NewMemoryInstance()
	}

	address := cfg.RedisAddress
	if address == "" {
		address = net.JoinHostPort(networktable.TeamAddress(cfg.Team), strconv.Itoa(RedisPort))
	}

	log.Info("Setting up NetworkTables client for team %d at %s", cfg.Team, address)
	instance, err := networktable.NewRedisInstance(ctx, networktable.RedisOptions{
		Address:  address,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warning("Network tables unavailable, publishing locally only: %v", err)
		return networktable.NewMemoryInstance()
	}
	return instance
}

// Run serves HTTP and runs the processing loop until ctx is cancelled or a
// component fails. A frame grab failure is returned as the error.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	a.server.BaseContext = func(net.Listener) context.Context { return ctx }

	g.Go(func() error {
		a.bufferService.Run(ctx)
		return nil
	})
	g.Go(func() error {
		a.hubService.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return a.manager.Run(ctx)
	})
	g.Go(func() error {
		a.logger.Info("🚀 Vision server listening on http://localhost%s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases cameras, the table connection and the database.
func (a *App) Close() {
	for _, cam := range a.cameras {
		if err := cam.Close(); err != nil {
			a.logger.Warning("Error closing camera %s: %v", cam.Name(), err)
		}
	}
	if a.grip != nil {
		a.grip.Close()
	}
	if a.tables != nil {
		a.tables.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
