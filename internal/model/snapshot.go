package model

import "time"

// Snapshot represents an annotated frame saved to disk on operator request.
type Snapshot struct {
	ID              int64     `json:"id" db:"id"`
	RunID           string    `json:"run_id" db:"run_id"`
	Filename        string    `json:"filename" db:"filename"`
	Camera          string    `json:"camera" db:"camera"`
	Timestamp       time.Time `json:"timestamp" db:"timestamp"`
	FilePath        string    `json:"filepath" db:"filepath"`
	FileSize        int64     `json:"filesize" db:"filesize"`
	PixelSeparation float64   `json:"pixel_separation" db:"pixel_separation"`
	DistanceInches  float64   `json:"distance_inches" db:"distance_inches"`
	AngleDegrees    float64   `json:"angle_degrees" db:"angle_degrees"`
}
