package model

import "time"

// PipelineStatus is the health summary of the processing loop.
type PipelineStatus struct {
	RunID           string    `json:"run_id"`
	Cameras         []string  `json:"cameras"`
	Streams         []string  `json:"streams"`
	StartedAt       time.Time `json:"started_at"`
	Frames          int64     `json:"frames"`
	LastFrameAt     time.Time `json:"last_frame_at"`
	PendingRecords  int       `json:"pending_records"`
	ContourCount    int       `json:"contour_count"`
	PixelSeparation float64   `json:"pixel_separation"`
	DistanceInches  float64   `json:"distance_inches"`
	AngleDegrees    float64   `json:"angle_degrees"`
	TargetAcquired  bool      `json:"target_acquired"`
}
