package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"visionserver/internal/model"
)

const insertMeasurement = `
	INSERT INTO measurements (run_id, camera, frame, timestamp, contour_count, center_x0, center_x1,
		pixel_separation, distance_inches, angle_degrees, target_acquired, stale)
	VALUES (:run_id, :camera, :frame, :timestamp, :contour_count, :center_x0, :center_x1,
		:pixel_separation, :distance_inches, :angle_degrees, :target_acquired, :stale)
`

const measurementColumns = `id, run_id, camera, frame, timestamp, contour_count, center_x0, center_x1,
	pixel_separation, distance_inches, angle_degrees, target_acquired, stale`

// MeasurementRepository implements repository.MeasurementRepository for SQLite.
type MeasurementRepository struct {
	db *DB
}

// NewMeasurementRepository creates a new SQLite measurement repository.
func NewMeasurementRepository(db *DB) *MeasurementRepository {
	return &MeasurementRepository{db: db}
}

// Insert adds a new measurement record to the database.
func (r *MeasurementRepository) Insert(m *model.Measurement) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().NamedExec(insertMeasurement, m)
	if err != nil {
		return 0, fmt.Errorf("failed to insert measurement: %w", err)
	}

	return result.LastInsertId()
}

// InsertBatch adds multiple measurements in a single transaction.
func (r *MeasurementRepository) InsertBatch(measurements []model.Measurement) error {
	if len(measurements) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamed(insertMeasurement)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range measurements {
		if _, err := stmt.Exec(&measurements[i]); err != nil {
			return fmt.Errorf("failed to insert measurement: %w", err)
		}
	}

	return tx.Commit()
}

// GetAll retrieves measurements newest first based on filter criteria.
func (r *MeasurementRepository) GetAll(filter *model.MeasurementFilter) ([]model.Measurement, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT ` + measurementColumns + ` FROM measurements WHERE 1=1`
	args := []interface{}{}

	if filter.RunID != "" {
		query += " AND run_id = ?"
		args = append(args, filter.RunID)
	}

	if filter.Camera != "" {
		query += " AND camera = ?"
		args = append(args, filter.Camera)
	}

	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since)
	}

	if filter.OnlyAcquired {
		query += " AND target_acquired = 1"
	}

	query += " ORDER BY timestamp DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	measurements := []model.Measurement{}
	if err := r.db.Conn().Select(&measurements, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}

	return measurements, nil
}

// GetLatest returns the most recent measurement for a camera, or nil when there is none.
func (r *MeasurementRepository) GetLatest(camera string) (*model.Measurement, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var m model.Measurement
	err := r.db.Conn().Get(&m, `SELECT `+measurementColumns+` FROM measurements
		WHERE camera = ? ORDER BY timestamp DESC, id DESC LIMIT 1`, camera)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest measurement: %w", err)
	}
	return &m, nil
}

// GetStats summarizes all measurements, or those of one run when runID is set.
func (r *MeasurementRepository) GetStats(runID string) (*model.MeasurementStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN target_acquired THEN 1 ELSE 0 END), 0) AS acquired,
			COUNT(DISTINCT run_id) AS runs,
			COALESCE(AVG(CASE WHEN target_acquired THEN distance_inches END), 0) AS average_distance,
			COALESCE(AVG(CASE WHEN target_acquired THEN angle_degrees END), 0) AS average_angle
		FROM measurements`
	args := []interface{}{}
	if runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}

	var stats model.MeasurementStats
	if err := r.db.Conn().Get(&stats, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get measurement stats: %w", err)
	}
	return &stats, nil
}

// DeleteAll removes every measurement.
func (r *MeasurementRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM measurements`); err != nil {
		return fmt.Errorf("failed to delete measurements: %w", err)
	}
	return nil
}
