package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"visionserver/internal/config"
	"visionserver/internal/logger"
	"visionserver/internal/model"
	"visionserver/internal/repository"
	"visionserver/internal/service/target"
)

// SnapshotService saves annotated frames to disk and indexes them in the database.
type SnapshotService struct {
	dir    string
	runID  string
	repo   repository.SnapshotRepository
	logger *logger.Logger
	mu     sync.Mutex
}

// NewSnapshotService creates a SnapshotService writing into config.SnapshotDirectory.
func NewSnapshotService(config *config.Config, logger *logger.Logger, repo repository.SnapshotRepository, runID string) *SnapshotService {
	return &SnapshotService{
		dir:    config.SnapshotDirectory,
		runID:  runID,
		repo:   repo,
		logger: logger,
	}
}

// Directory returns where snapshot files are written.
func (s *SnapshotService) Directory() string {
	return s.dir
}

// Save writes a JPEG frame and records it with the measurement it was taken with.
func (s *SnapshotService) Save(jpeg []byte, camera string, m target.Measurement) (*model.Snapshot, error) {
	if len(jpeg) == 0 {
		return nil, fmt.Errorf("no frame available for camera %s", camera)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating directory: %w", err)
	}

	now := time.Now().UTC()
	filename := fmt.Sprintf("%s_%s.jpg", now.Format("2006-01-02_15-04-05.000"), camera)
	fullpath := filepath.Join(s.dir, filename)

	if err := os.WriteFile(fullpath, jpeg, 0644); err != nil {
		return nil, fmt.Errorf("error saving snapshot %s: %w", filename, err)
	}

	snapshot := &model.Snapshot{
		RunID:           s.runID,
		Filename:        filename,
		Camera:          camera,
		Timestamp:       now,
		FilePath:        fullpath,
		FileSize:        int64(len(jpeg)),
		PixelSeparation: m.PixelSeparation,
		DistanceInches:  m.DistanceInches,
		AngleDegrees:    m.AngleDegrees,
	}

	id, err := s.repo.Insert(snapshot)
	if err != nil {
		os.Remove(fullpath)
		return nil, err
	}
	snapshot.ID = id

	s.logger.Info("Saved snapshot %s (distance %.1f in, angle %.1f deg)", filename, m.DistanceInches, m.AngleDegrees)
	return snapshot, nil
}
