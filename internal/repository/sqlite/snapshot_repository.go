package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"visionserver/internal/model"
)

const snapshotColumns = `id, run_id, filename, camera, timestamp, filepath, filesize,
	pixel_separation, distance_inches, angle_degrees`

// SnapshotRepository implements repository.SnapshotRepository for SQLite.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new SQLite snapshot repository.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Insert adds a new snapshot record to the database.
func (r *SnapshotRepository) Insert(s *model.Snapshot) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().NamedExec(`
		INSERT INTO snapshots (run_id, filename, camera, timestamp, filepath, filesize,
			pixel_separation, distance_inches, angle_degrees)
		VALUES (:run_id, :filename, :camera, :timestamp, :filepath, :filesize,
			:pixel_separation, :distance_inches, :angle_degrees)
	`, s)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return result.LastInsertId()
}

// GetAll returns the newest snapshots first; limit <= 0 returns all.
func (r *SnapshotRepository) GetAll(limit int) ([]model.Snapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT ` + snapshotColumns + ` FROM snapshots ORDER BY timestamp DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	snapshots := []model.Snapshot{}
	if err := r.db.Conn().Select(&snapshots, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	return snapshots, nil
}

// GetByFilename retrieves a snapshot by its filename, or nil when absent.
func (r *SnapshotRepository) GetByFilename(filename string) (*model.Snapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var s model.Snapshot
	err := r.db.Conn().Get(&s, `SELECT `+snapshotColumns+` FROM snapshots WHERE filename = ?`, filename)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &s, nil
}

// DeleteAll removes every snapshot record.
func (r *SnapshotRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return nil
}
