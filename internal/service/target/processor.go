package target

import (
	"visionserver/internal/service/networktable"
)

// Published keys.
const (
	KeyHeights            = "heights"
	KeyWidths             = "widths"
	KeyBoxPositionX       = "boxPositionX"
	KeyBoxPositionY       = "boxPositionY"
	KeyCenterX            = "centerX"
	KeyDistanceFromTarget = "distanceFromTarget"
	KeyGetAngle           = "getAngle"
	KeyTargetAcquired     = "targetAcquired"
)

// FrameResult is everything derived from one frame's contours.
type FrameResult struct {
	Boxes       []BoundingBox `json:"boxes"`
	Measurement Measurement   `json:"measurement"`
}

// Processor computes and publishes the per-frame outputs of the estimator.
type Processor struct {
	estimator *Estimator
	instance  networktable.Instance
}

// NewProcessor publishes into the "Target Locations" and "dataToSend" tables of instance.
func NewProcessor(estimator *Estimator, instance networktable.Instance) *Processor {
	return &Processor{
		estimator: estimator,
		instance:  instance,
	}
}

// Estimator returns the estimator owned by this processor.
func (p *Processor) Estimator() *Estimator {
	return p.estimator
}

// Process computes boxes and the measurement for one frame and publishes them.
// All values of a frame go out as one batch. The result is always complete; the
// returned error only reports that the batch did not reach the store.
func (p *Processor) Process(contours []Contour) (FrameResult, error) {
	boxes := make([]BoundingBox, len(contours))
	widths := make([]float64, len(contours))
	heights := make([]float64, len(contours))
	positionX := make([]float64, len(contours))
	positionY := make([]float64, len(contours))

	for i, contour := range contours {
		box := BoundingRect(contour)
		boxes[i] = box
		widths[i] = float64(box.Width)
		heights[i] = float64(box.Height)
		positionX[i] = float64(box.X)
		positionY[i] = float64(box.Y)
	}

	m := p.estimator.Measure(contours)

	batch := networktable.Batch{}
	batch.Set(networktable.TargetLocationsTable, KeyWidths, networktable.NumberArray(widths))
	batch.Set(networktable.TargetLocationsTable, KeyHeights, networktable.NumberArray(heights))
	batch.Set(networktable.TargetLocationsTable, KeyBoxPositionX, networktable.NumberArray(positionX))
	batch.Set(networktable.TargetLocationsTable, KeyBoxPositionY, networktable.NumberArray(positionY))
	batch.Set(networktable.DataToSendTable, KeyCenterX, networktable.Number(m.PixelSeparation))
	batch.Set(networktable.DataToSendTable, KeyDistanceFromTarget, networktable.Number(m.DistanceInches))
	batch.Set(networktable.DataToSendTable, KeyGetAngle, networktable.Number(m.AngleDegrees))
	batch.Set(networktable.DataToSendTable, KeyTargetAcquired, networktable.Boolean(m.TargetAcquired))

	return FrameResult{Boxes: boxes, Measurement: m}, p.instance.Publish(batch)
}
