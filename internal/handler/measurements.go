package handler

import (
	"net/http"
	"time"
	"visionserver/internal/logger"
	"visionserver/internal/model"
	"visionserver/internal/repository"
)

const defaultMeasurementLimit = 100

// GetMeasurementsHandler returns recorded measurements, newest first.
// Query: run (id, or "current"), camera, since (RFC3339), acquired=true, limit, offset.
func GetMeasurementsHandler(repo repository.MeasurementRepository, currentRun string, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := &model.MeasurementFilter{
			RunID:        resolveRun(q.Get("run"), currentRun),
			Camera:       q.Get("camera"),
			Since:        parseTimestamp(q.Get("since")),
			OnlyAcquired: q.Get("acquired") == "true",
			Limit:        atoiDefault(q.Get("limit"), defaultMeasurementLimit),
			Offset:       atoiDefault(q.Get("offset"), 0),
		}

		measurements, err := repo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying measurements from database: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if measurements == nil {
			measurements = []model.Measurement{}
		}

		writeJSON(w, logger, http.StatusOK, measurements)
	}
}

// GetLatestMeasurementHandler returns the newest recorded measurement of ?camera=.
func GetLatestMeasurementHandler(repo repository.MeasurementRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		camera := r.URL.Query().Get("camera")
		if camera == "" {
			writeError(w, logger, http.StatusBadRequest, "camera parameter is required")
			return
		}

		m, err := repo.GetLatest(camera)
		if err != nil {
			logger.Error("Error querying latest measurement: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if m == nil {
			writeError(w, logger, http.StatusNotFound, "no measurements for "+camera)
			return
		}

		writeJSON(w, logger, http.StatusOK, m)
	}
}

// GetMeasurementStatsHandler summarizes the current run, or ?run=<id>|all.
func GetMeasurementStatsHandler(repo repository.MeasurementRepository, currentRun string, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run := r.URL.Query().Get("run")
		switch run {
		case "":
			run = currentRun
		case "all":
			run = ""
		default:
			run = resolveRun(run, currentRun)
		}

		stats, err := repo.GetStats(run)
		if err != nil {
			logger.Error("Error getting measurement stats: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		writeJSON(w, logger, http.StatusOK, stats)
	}
}

// ClearMeasurementsHandler deletes the whole measurement history.
func ClearMeasurementsHandler(repo repository.MeasurementRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := repo.DeleteAll(); err != nil {
			logger.Error("Error clearing measurements: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		logger.Info("Measurement history cleared")
		w.WriteHeader(http.StatusNoContent)
	}
}

func resolveRun(run, currentRun string) string {
	if run == "current" {
		return currentRun
	}
	return run
}

// parseTimestamp parses an RFC3339 time from the request; invalid input means no bound.
func parseTimestamp(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
