package vision

import (
	"fmt"
	"image/color"
	"visionserver/internal/service/target"

	"gocv.io/x/gocv"
)

// BoxColor is BGR (100, 255, 227).
var BoxColor = color.RGBA{R: 227, G: 255, B: 100, A: 0}

const defaultJPEGQuality = 60

// Annotator draws target boxes and encodes frames for the stream sinks.
type Annotator struct {
	color     color.RGBA
	thickness int
	quality   int
}

// NewAnnotator creates an Annotator encoding JPEGs at the given quality (1-100).
func NewAnnotator(quality int) *Annotator {
	if quality <= 0 || quality > 100 {
		quality = defaultJPEGQuality
	}
	return &Annotator{
		color:     BoxColor,
		thickness: 1,
		quality:   quality,
	}
}

// Annotate returns a copy of frame with every box outlined. The caller closes the result.
func (a *Annotator) Annotate(frame gocv.Mat, boxes []target.BoundingBox) (gocv.Mat, error) {
	output := frame.Clone()

	for _, box := range boxes {
		if err := gocv.Rectangle(&output, box.Rectangle(), a.color, a.thickness); err != nil {
			output.Close()
			return gocv.NewMat(), fmt.Errorf("failed to draw rectangle: %w", err)
		}
	}

	return output, nil
}

// Encode compresses frame to JPEG.
func (a *Annotator) Encode(frame gocv.Mat) ([]byte, error) {
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{int(gocv.IMWriteJpegQuality), a.quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	encoded := make([]byte, len(buf.GetBytes()))
	copy(encoded, buf.GetBytes())

	return encoded, nil
}
