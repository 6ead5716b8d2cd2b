package handler

import (
	"net/http"
	"path/filepath"
	"visionserver/internal/logger"
	"visionserver/internal/model"
	"visionserver/internal/repository"
)

// SnapshotTaker saves the most recent annotated frame.
type SnapshotTaker interface {
	TakeSnapshot() (*model.Snapshot, error)
}

// TakeSnapshotHandler handles POST /api/snapshot.
func TakeSnapshotHandler(taker SnapshotTaker, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := taker.TakeSnapshot()
		if err != nil {
			logger.Error("Snapshot failed: %v", err)
			writeError(w, logger, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, logger, http.StatusCreated, snapshot)
	}
}

// GetSnapshotsHandler lists saved snapshots, newest first.
func GetSnapshotsHandler(repo repository.SnapshotRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshots, err := repo.GetAll(atoiDefault(r.URL.Query().Get("limit"), 50))
		if err != nil {
			logger.Error("Error querying snapshots from database: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if snapshots == nil {
			snapshots = []model.Snapshot{}
		}
		writeJSON(w, logger, http.StatusOK, snapshots)
	}
}

// ViewSnapshotHandler serves a single snapshot file named by ?filename=.
func ViewSnapshotHandler(repo repository.SnapshotRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := filepath.Base(r.URL.Query().Get("filename"))
		if filename == "." || filename == "/" {
			http.Error(w, "Filename parameter is required", http.StatusBadRequest)
			return
		}

		snapshot, err := repo.GetByFilename(filename)
		if err != nil {
			logger.Error("Error looking up snapshot %s: %v", filename, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if snapshot == nil {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		http.ServeFile(w, r, snapshot.FilePath)
	}
}
