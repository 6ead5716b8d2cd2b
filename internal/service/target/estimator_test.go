package target

import (
	"errors"
	"image"
	"math"
	"testing"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestBoundingRect(t *testing.T) {
	tests := []struct {
		name     string
		contour  Contour
		expected BoundingBox
	}{
		{"empty", Contour{}, BoundingBox{}},
		{"single point", Contour{image.Pt(5, 7)}, BoundingBox{X: 5, Y: 7, Width: 1, Height: 1}},
		{"rect helper", RectContour(10, 0, 20, 20), BoundingBox{X: 10, Y: 0, Width: 20, Height: 20}},
		{"unordered polygon", Contour{image.Pt(8, 3), image.Pt(2, 9), image.Pt(5, 1), image.Pt(11, 6)}, BoundingBox{X: 2, Y: 1, Width: 10, Height: 9}},
	}

	for _, tt := range tests {
		if got := BoundingRect(tt.contour); got != tt.expected {
			t.Errorf("%s: BoundingRect = %+v, expected %+v", tt.name, got, tt.expected)
		}
	}
}

func TestCenterX_IntegerHalving(t *testing.T) {
	box := BoundingBox{X: 10, Width: 21}
	if box.CenterX() != 20 {
		t.Errorf("Expected center 20, got %d", box.CenterX())
	}
}

func TestEstimator_ReferenceScenario(t *testing.T) {
	e := NewEstimator(DefaultCalibration(), PairOrderDetection)
	contours := []Contour{RectContour(10, 0, 20, 20), RectContour(100, 0, 20, 20)}

	separation := e.CenterSeparation(contours)
	if separation != 90 {
		t.Fatalf("Expected separation 90, got %v", separation)
	}
	if centers := e.CenterXs(); centers != [2]float64{110, 20} {
		t.Errorf("Expected centers [110 20], got %v", centers)
	}

	distance, err := e.Distance()
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	if distance != 64 {
		t.Errorf("Expected distance 64, got %v", distance)
	}

	angle, err := e.Angle(contours)
	if err != nil {
		t.Fatalf("Angle failed: %v", err)
	}
	expected := math.Atan((-95*DefaultWidthBetweenTarget/90)/64) * 180 / math.Pi
	if !almostEqual(angle, expected, 1e-9) {
		t.Errorf("Expected angle %v, got %v", expected, angle)
	}
	if !almostEqual(angle, -12.39, 0.01) {
		t.Errorf("Expected angle close to -12.39, got %v", angle)
	}
}

func TestEstimator_IgnoresExtraContours(t *testing.T) {
	e := NewEstimator(DefaultCalibration(), PairOrderDetection)
	contours := []Contour{
		RectContour(40, 10, 10, 30),
		RectContour(200, 10, 30, 30),
		RectContour(0, 0, 300, 200),
		RectContour(150, 150, 5, 5),
	}

	// centers: contour1 = 200+15 = 215, contour0 = 40+5 = 45
	if got := e.CenterSeparation(contours); got != 170 {
		t.Errorf("Expected separation 170, got %v", got)
	}
}

func TestEstimator_CarriesSeparationWhenFewerThanTwo(t *testing.T) {
	e := NewEstimator(DefaultCalibration(), PairOrderDetection)

	if got := e.CenterSeparation(nil); got != 0 {
		t.Errorf("Expected initial separation 0, got %v", got)
	}

	e.CenterSeparation([]Contour{RectContour(10, 0, 20, 20), RectContour(100, 0, 20, 20)})

	for _, contours := range [][]Contour{nil, {}, {RectContour(0, 0, 4, 4)}} {
		if got := e.CenterSeparation(contours); got != 90 {
			t.Errorf("Expected carried separation 90 for %d contours, got %v", len(contours), got)
		}
		distance, err := e.Distance()
		if err != nil || distance != 64 {
			t.Errorf("Expected stale distance 64, got %v (err %v)", distance, err)
		}
	}
}

func TestEstimator_AngleZeroBelowTwoContours(t *testing.T) {
	e := NewEstimator(DefaultCalibration(), PairOrderDetection)
	e.CenterSeparation([]Contour{RectContour(10, 0, 20, 20), RectContour(100, 0, 20, 20)})

	for _, contours := range [][]Contour{nil, {RectContour(0, 0, 4, 4)}} {
		angle, err := e.Angle(contours)
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		if angle != 0 {
			t.Errorf("Expected angle 0 for %d contours, got %v", len(contours), angle)
		}
	}
}

func TestEstimator_DistanceMonotonic(t *testing.T) {
	e := NewEstimator(DefaultCalibration(), PairOrderDetection)

	previous := math.Inf(1)
	for gap := 1; gap < 300; gap += 7 {
		e.CenterSeparation([]Contour{RectContour(0, 0, 2, 2), RectContour(gap, 0, 2, 2)})
		distance, err := e.Distance()
		if err != nil {
			t.Fatalf("Distance failed for gap %d: %v", gap, err)
		}
		if distance >= previous {
			t.Fatalf("Distance not decreasing at gap %d: %v >= %v", gap, distance, previous)
		}
		previous = distance
	}
}

func TestEstimator_NoTarget(t *testing.T) {
	e := NewEstimator(DefaultCalibration(), PairOrderDetection)

	if _, err := e.Distance(); !errors.Is(err, ErrNoTarget) {
		t.Errorf("Expected ErrNoTarget before any pair, got %v", err)
	}

	same := []Contour{RectContour(50, 0, 10, 10), RectContour(50, 40, 10, 10)}
	e.CenterSeparation(same)
	if _, err := e.Distance(); !errors.Is(err, ErrNoTarget) {
		t.Errorf("Expected ErrNoTarget for coincident centers, got %v", err)
	}
	if _, err := e.Angle(same); !errors.Is(err, ErrNoTarget) {
		t.Errorf("Expected ErrNoTarget from Angle, got %v", err)
	}

	m := e.Measure(same)
	if m.TargetAcquired {
		t.Error("Measurement should not report an acquired target")
	}
	if math.IsInf(m.DistanceInches, 0) || math.IsNaN(m.AngleDegrees) {
		t.Errorf("Measurement leaked non-finite values: %+v", m)
	}
}

func TestEstimator_PairOrderLeftmost(t *testing.T) {
	e := NewEstimator(DefaultCalibration(), PairOrderLeftmost)
	contours := []Contour{RectContour(10, 0, 20, 20), RectContour(100, 0, 20, 20)}

	if got := e.CenterSeparation(contours); got != 90 {
		t.Errorf("Expected separation 90, got %v", got)
	}
	if centers := e.CenterXs(); centers != [2]float64{20, 110} {
		t.Errorf("Expected leftmost-first centers [20 110], got %v", centers)
	}
}

func TestEstimator_Reset(t *testing.T) {
	e := NewEstimator(DefaultCalibration(), PairOrderDetection)
	e.CenterSeparation([]Contour{RectContour(10, 0, 20, 20), RectContour(100, 0, 20, 20)})

	e.Reset()

	if e.PixelSeparation() != 0 {
		t.Errorf("Expected separation 0 after reset, got %v", e.PixelSeparation())
	}
	if e.CenterXs() != [2]float64{} {
		t.Errorf("Expected zero centers after reset, got %v", e.CenterXs())
	}
}

func TestMeasure_StaleFrame(t *testing.T) {
	e := NewEstimator(DefaultCalibration(), PairOrderDetection)
	e.Measure([]Contour{RectContour(10, 0, 20, 20), RectContour(100, 0, 20, 20)})

	m := e.Measure([]Contour{RectContour(0, 0, 3, 3)})
	if !m.Stale || m.ContourCount != 1 {
		t.Errorf("Expected stale single-contour measurement, got %+v", m)
	}
	if m.PixelSeparation != 90 || m.DistanceInches != 64 || m.AngleDegrees != 0 {
		t.Errorf("Unexpected stale values: %+v", m)
	}
	if !m.TargetAcquired {
		t.Error("Stale separation is still a known target")
	}
}

func TestParsePairOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected PairOrder
		wantErr  bool
	}{
		{"", PairOrderDetection, false},
		{"detection", PairOrderDetection, false},
		{"leftmost", PairOrderLeftmost, false},
		{"rightmost", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePairOrder(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePairOrder(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.expected {
			t.Errorf("ParsePairOrder(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
