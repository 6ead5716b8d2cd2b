package repository

import (
	"visionserver/internal/model"
)

// MeasurementRepository defines the interface for measurement history operations.
type MeasurementRepository interface {
	// Create operations
	Insert(m *model.Measurement) (int64, error)
	InsertBatch(measurements []model.Measurement) error

	// Read operations
	GetAll(filter *model.MeasurementFilter) ([]model.Measurement, error)
	GetLatest(camera string) (*model.Measurement, error)
	GetStats(runID string) (*model.MeasurementStats, error)

	// Delete operations
	DeleteAll() error
}

// SnapshotRepository defines the interface for saved frame operations.
type SnapshotRepository interface {
	Insert(s *model.Snapshot) (int64, error)
	GetAll(limit int) ([]model.Snapshot, error)
	GetByFilename(filename string) (*model.Snapshot, error)
	DeleteAll() error
}
