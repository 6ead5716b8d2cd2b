package vision

import (
	"errors"
	"fmt"
	"visionserver/internal/service/target"
	"visionserver/internal/service/tuning"

	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned when a pipeline is given a frame with no pixels.
var ErrEmptyFrame = errors.New("empty frame")

// ContourSource finds candidate target contours in a BGR frame.
type ContourSource interface {
	Contours(frame gocv.Mat) ([]target.Contour, error)
}

// GripPipeline thresholds a frame in HSV and returns the external contours
// that pass the area and size filters. Limits are read from the registry on every frame.
type GripPipeline struct {
	registry *tuning.Registry
	hsv      gocv.Mat
	mask     gocv.Mat
}

func NewGripPipeline(registry *tuning.Registry) *GripPipeline {
	return &GripPipeline{
		registry: registry,
		hsv:      gocv.NewMat(),
		mask:     gocv.NewMat(),
	}
}

// Contours returns the filtered contours in the order OpenCV found them.
func (p *GripPipeline) Contours(frame gocv.Mat) ([]target.Contour, error) {
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}

	t := p.registry.Thresholds()

	if err := gocv.CvtColor(frame, &p.hsv, gocv.ColorBGRToHSV); err != nil {
		return nil, fmt.Errorf("failed to convert frame to HSV: %w", err)
	}

	lower := gocv.NewScalar(t.LowerHue, t.LowerSaturation, t.LowerValue, 0)
	upper := gocv.NewScalar(t.UpperHue, t.UpperSaturation, t.UpperValue, 0)
	if err := gocv.InRangeWithScalar(p.hsv, lower, upper, &p.mask); err != nil {
		return nil, fmt.Errorf("failed to threshold frame: %w", err)
	}

	found := gocv.FindContours(p.mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	contours := make([]target.Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		contour := found.At(i)

		if gocv.ContourArea(contour) < t.MinArea {
			continue
		}
		rect := gocv.BoundingRect(contour)
		if float64(rect.Dx()) < t.MinWidth || float64(rect.Dy()) < t.MinHeight {
			continue
		}

		contours = append(contours, target.Contour(contour.ToPoints()))
	}

	return contours, nil
}

// Close releases the intermediate mats.
func (p *GripPipeline) Close() error {
	p.hsv.Close()
	return p.mask.Close()
}
