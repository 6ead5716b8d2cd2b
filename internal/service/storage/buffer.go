package storage

import (
	"context"
	"sync"
	"time"
	"visionserver/internal/config"
	"visionserver/internal/logger"
	"visionserver/internal/model"
	"visionserver/internal/repository"
	"visionserver/internal/service/target"
)

const (
	// DefaultBufferLimit caps how many measurements are held between flushes.
	DefaultBufferLimit = 500
	// DefaultFlushInterval defines how often (seconds) buffered measurements are written.
	DefaultFlushInterval = 10
)

// BufferService buffers measurements in memory and periodically flushes them to the database.
type BufferService struct {
	runID         string
	measurements  []model.Measurement
	bufferLimit   int
	flushInterval time.Duration
	dropped       int
	mu            sync.Mutex
	logger        *logger.Logger
	repo          repository.MeasurementRepository
}

// NewBufferService creates a BufferService that tags every record with runID.
func NewBufferService(config *config.Config, logger *logger.Logger, repo repository.MeasurementRepository, runID string) *BufferService {
	limit := config.BufferLimit
	if limit <= 0 {
		limit = DefaultBufferLimit
	}
	interval := config.FlushInterval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	return &BufferService{
		runID:         runID,
		measurements:  make([]model.Measurement, 0, limit),
		bufferLimit:   limit,
		flushInterval: time.Duration(interval) * time.Second,
		logger:        logger,
		repo:          repo,
	}
}

// RunID returns the identifier stamped on records of this process run.
func (s *BufferService) RunID() string {
	return s.runID
}

// Run flushes on a ticker until ctx is cancelled, then flushes once more.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Flush()
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// AddMeasurement appends a measurement; when the buffer is full the record is dropped.
func (s *BufferService) AddMeasurement(camera string, frame int64, m target.Measurement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.measurements) >= s.bufferLimit {
		s.dropped++
		return
	}

	s.measurements = append(s.measurements, model.Measurement{
		RunID:           s.runID,
		Camera:          camera,
		Frame:           frame,
		Timestamp:       time.Now().UTC(),
		ContourCount:    m.ContourCount,
		CenterX0:        m.CenterXs[0],
		CenterX1:        m.CenterXs[1],
		PixelSeparation: m.PixelSeparation,
		DistanceInches:  m.DistanceInches,
		AngleDegrees:    m.AngleDegrees,
		TargetAcquired:  m.TargetAcquired,
		Stale:           m.Stale,
	})
}

// Pending returns the number of buffered measurements.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.measurements)
}

// Flush writes buffered measurements in one batch and clears the buffer.
// On a database error the records stay buffered for the next attempt.
func (s *BufferService) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropped > 0 {
		s.logger.Warning("Measurement buffer full - dropped %d record(s)", s.dropped)
		s.dropped = 0
	}

	if len(s.measurements) == 0 {
		return
	}

	if err := s.repo.InsertBatch(s.measurements); err != nil {
		s.logger.Error("Error saving measurements to database: %v", err)
		return
	}

	s.logger.Info("Flushed %d measurements to database", len(s.measurements))
	s.measurements = s.measurements[:0]
}
