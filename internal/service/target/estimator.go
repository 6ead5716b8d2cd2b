package target

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultCameraWidth is the capture width the calibration was taken at.
	DefaultCameraWidth = 320
	// DefaultCameraHeight is the capture height the calibration was taken at.
	DefaultCameraHeight = 240
	// DefaultDistanceConstant is the pixel*inch product for the camera, lens and target.
	DefaultDistanceConstant = 5760
	// DefaultWidthBetweenTarget is the center-to-center width of the two target strips in inches.
	DefaultWidthBetweenTarget = 13.3133853031
	// DefaultOffsetToFront is the camera to robot bumper offset in inches.
	DefaultOffsetToFront = 0
)

// ErrNoTarget is returned when the stored pixel separation is zero, either because
// no pair of contours has been seen yet or because both centers coincide.
var ErrNoTarget = errors.New("no target acquired")

// PairOrder selects which contour's center is stored first.
type PairOrder string

const (
	// PairOrderDetection stores contour index 1 first, then index 0.
	PairOrderDetection PairOrder = "detection"
	// PairOrderLeftmost stores the contour with the smaller center first.
	PairOrderLeftmost PairOrder = "leftmost"
)

// ParsePairOrder maps a config string to a PairOrder.
func ParsePairOrder(s string) (PairOrder, error) {
	switch PairOrder(s) {
	case "", PairOrderDetection:
		return PairOrderDetection, nil
	case PairOrderLeftmost:
		return PairOrderLeftmost, nil
	}
	return "", fmt.Errorf("unknown pair order %q", s)
}

// Calibration holds the camera and target constants used by the estimator.
type Calibration struct {
	CameraWidth        int
	CameraHeight       int
	DistanceConstant   float64
	WidthBetweenTarget float64
	OffsetToFront      float64
}

// DefaultCalibration returns the calibration measured for the 320x240 USB camera.
func DefaultCalibration() Calibration {
	return Calibration{
		CameraWidth:        DefaultCameraWidth,
		CameraHeight:       DefaultCameraHeight,
		DistanceConstant:   DefaultDistanceConstant,
		WidthBetweenTarget: DefaultWidthBetweenTarget,
		OffsetToFront:      DefaultOffsetToFront,
	}
}

// Measurement is the estimator output for one frame.
type Measurement struct {
	CenterXs        [2]float64 `json:"centerXs"`
	PixelSeparation float64    `json:"pixelSeparation"`
	DistanceInches  float64    `json:"distanceInches"`
	AngleDegrees    float64    `json:"angleDegrees"`
	ContourCount    int        `json:"contourCount"`
	// TargetAcquired is false when the separation is zero and distance/angle are meaningless.
	TargetAcquired bool `json:"targetAcquired"`
	// Stale is true when the frame had fewer than two contours and the separation was carried over.
	Stale bool `json:"stale"`
}

// Estimator turns the first two contours of a frame into separation, distance and angle.
// It remembers the last separation across frames that lack a pair of contours.
// An Estimator is owned by a single processing loop and is not safe for concurrent use.
type Estimator struct {
	calibration     Calibration
	order           PairOrder
	centerX         [2]float64
	pixelSeparation float64
}

// NewEstimator creates an estimator with the given calibration and pair ordering.
func NewEstimator(calibration Calibration, order PairOrder) *Estimator {
	if order == "" {
		order = PairOrderDetection
	}
	return &Estimator{
		calibration: calibration,
		order:       order,
	}
}

// Calibration returns the constants in use.
func (e *Estimator) Calibration() Calibration {
	return e.calibration
}

// CenterSeparation recomputes the pixel separation from contours[0] and contours[1]
// when at least two contours are present, and otherwise returns the previous value.
func (e *Estimator) CenterSeparation(contours []Contour) float64 {
	if len(contours) < 2 {
		return e.pixelSeparation
	}

	first := float64(BoundingRect(contours[1]).CenterX())
	second := float64(BoundingRect(contours[0]).CenterX())
	if e.order == PairOrderLeftmost && first > second {
		first, second = second, first
	}

	e.centerX = [2]float64{first, second}
	e.pixelSeparation = math.Abs(e.centerX[0] - e.centerX[1])
	return e.pixelSeparation
}

// PixelSeparation returns the stored separation without recomputing it.
func (e *Estimator) PixelSeparation() float64 {
	return e.pixelSeparation
}

// CenterXs returns the stored pair of horizontal centers.
func (e *Estimator) CenterXs() [2]float64 {
	return e.centerX
}

// Distance converts the stored separation into inches from the target.
func (e *Estimator) Distance() (float64, error) {
	if e.pixelSeparation == 0 {
		return 0, ErrNoTarget
	}
	return e.calibration.DistanceConstant/e.pixelSeparation - e.calibration.OffsetToFront, nil
}

// Angle returns the bearing to the target midpoint in degrees, positive to the right.
// It is 0 whenever the given frame has fewer than two contours, whatever is cached.
func (e *Estimator) Angle(contours []Contour) (float64, error) {
	if len(contours) < 2 {
		return 0, nil
	}

	distance, err := e.Distance()
	if err != nil {
		return 0, err
	}

	inchesPerPixel := e.calibration.WidthBetweenTarget / e.pixelSeparation
	offsetPixels := (e.centerX[0]+e.centerX[1])/2 - float64(e.calibration.CameraWidth)/2
	offsetInches := offsetPixels * inchesPerPixel

	return math.Atan(offsetInches/distance) * 180 / math.Pi, nil
}

// Measure runs separation, distance and angle for one frame in that order.
func (e *Estimator) Measure(contours []Contour) Measurement {
	m := Measurement{
		ContourCount: len(contours),
		Stale:        len(contours) < 2,
	}

	m.PixelSeparation = e.CenterSeparation(contours)
	m.CenterXs = e.centerX

	distance, err := e.Distance()
	if err != nil {
		return m
	}
	m.DistanceInches = distance
	m.TargetAcquired = true

	angle, err := e.Angle(contours)
	if err != nil {
		m.TargetAcquired = false
		return m
	}
	m.AngleDegrees = angle

	return m
}

// Reset forgets the stored separation and centers.
func (e *Estimator) Reset() {
	e.centerX = [2]float64{}
	e.pixelSeparation = 0
}
