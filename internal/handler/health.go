package handler

import (
	"net/http"
	"time"
	"visionserver/internal/logger"
	"visionserver/internal/model"
)

// StaleAfter is how long the loop may go without a frame before health reports it stalled.
const StaleAfter = 2 * time.Second

// StatusReporter exposes processing loop progress.
type StatusReporter interface {
	Status() model.PipelineStatus
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string               `json:"status"`
	Uptime string               `json:"uptime"`
	Loop   model.PipelineStatus `json:"loop"`
}

// HealthHandler reports 200 while frames keep arriving, 503 otherwise.
func HealthHandler(reporter StatusReporter, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := reporter.Status()
		now := time.Now().UTC()

		resp := HealthResponse{
			Status: "ok",
			Uptime: now.Sub(status.StartedAt).Truncate(time.Second).String(),
			Loop:   status,
		}
		code := http.StatusOK

		switch {
		case status.Frames == 0:
			resp.Status = "starting"
			code = http.StatusServiceUnavailable
		case now.Sub(status.LastFrameAt) > StaleAfter:
			resp.Status = "stalled"
			code = http.StatusServiceUnavailable
		}

		writeJSON(w, logger, code, resp)
	}
}
