package handler

import (
	"errors"
	"net/http"
	"visionserver/internal/logger"
	"visionserver/internal/service/tuning"
)

// TuningRequest changes one pipeline property.
type TuningRequest struct {
	Name  string   `json:"name" validate:"required"`
	Value *float64 `json:"value" validate:"required"`
}

// GetTuningHandler lists the live-editable pipeline properties.
func GetTuningHandler(registry *tuning.Registry, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, registry.List())
	}
}

// SetTuningHandler applies a property change; the new value reaches the
// processing loop on its next frame and is mirrored into the network table.
func SetTuningHandler(registry *tuning.Registry, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TuningRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "name and value are required")
			return
		}

		if err := registry.Set(req.Name, *req.Value); err != nil {
			switch {
			case errors.Is(err, tuning.ErrNotMirrored):
				logger.Warning("Tuning %s set to %v but not mirrored: %v", req.Name, *req.Value, err)
				writeJSON(w, logger, http.StatusOK, tuning.Property{Name: req.Name, Value: *req.Value})
			case errors.Is(err, tuning.ErrUnknownProperty):
				writeError(w, logger, http.StatusNotFound, err.Error())
			case errors.Is(err, tuning.ErrOutOfRange):
				writeError(w, logger, http.StatusBadRequest, err.Error())
			default:
				logger.Error("Error setting %s: %v", req.Name, err)
				writeError(w, logger, http.StatusInternalServerError, "could not update property")
			}
			return
		}

		logger.Info("Tuning %s set to %v", req.Name, *req.Value)
		writeJSON(w, logger, http.StatusOK, tuning.Property{Name: req.Name, Value: *req.Value})
	}
}
