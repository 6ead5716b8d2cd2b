package model

import "time"

// Measurement is one recorded estimator output.
type Measurement struct {
	ID              int64     `json:"id" db:"id"`
	RunID           string    `json:"run_id" db:"run_id"`
	Camera          string    `json:"camera" db:"camera"`
	Frame           int64     `json:"frame" db:"frame"`
	Timestamp       time.Time `json:"timestamp" db:"timestamp"`
	ContourCount    int       `json:"contour_count" db:"contour_count"`
	CenterX0        float64   `json:"center_x0" db:"center_x0"`
	CenterX1        float64   `json:"center_x1" db:"center_x1"`
	PixelSeparation float64   `json:"pixel_separation" db:"pixel_separation"`
	DistanceInches  float64   `json:"distance_inches" db:"distance_inches"`
	AngleDegrees    float64   `json:"angle_degrees" db:"angle_degrees"`
	TargetAcquired  bool      `json:"target_acquired" db:"target_acquired"`
	Stale           bool      `json:"stale" db:"stale"`
}

// MeasurementFilter narrows measurement queries.
type MeasurementFilter struct {
	RunID        string
	Camera       string
	Since        time.Time
	OnlyAcquired bool
	Limit        int
	Offset       int
}

// MeasurementStats summarizes recorded measurements.
type MeasurementStats struct {
	Total           int     `json:"total" db:"total"`
	Acquired        int     `json:"acquired" db:"acquired"`
	Runs            int     `json:"runs" db:"runs"`
	AverageDistance float64 `json:"average_distance" db:"average_distance"`
	AverageAngle    float64 `json:"average_angle" db:"average_angle"`
}
