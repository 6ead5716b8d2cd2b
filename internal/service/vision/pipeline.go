package vision

import (
	"errors"
	"fmt"
	"visionserver/internal/service/target"
	"visionserver/internal/service/tuning"

	"gocv.io/x/gocv"
)

// FrameOutput is everything one pass of the pipeline produces.
type FrameOutput struct {
	Result target.FrameResult
	JPEG   []byte
	// Tuned lists properties changed remotely before this frame.
	Tuned []string
	// TableErr holds network table read or write failures; the frame is still valid.
	TableErr error
}

// Pipeline runs tuning pull, contour search, publishing, annotation and encoding for one frame.
type Pipeline struct {
	registry  *tuning.Registry
	source    ContourSource
	processor *target.Processor
	annotator *Annotator
}

func NewPipeline(registry *tuning.Registry, source ContourSource, processor *target.Processor, annotator *Annotator) *Pipeline {
	return &Pipeline{
		registry:  registry,
		source:    source,
		processor: processor,
		annotator: annotator,
	}
}

// Processor returns the target processor that owns the estimator state.
func (p *Pipeline) Processor() *target.Processor {
	return p.processor
}

// Process handles a single BGR frame. Only one frame may be processed at a time.
func (p *Pipeline) Process(frame gocv.Mat) (FrameOutput, error) {
	var out FrameOutput
	var pullErr, publishErr error

	if p.registry != nil {
		out.Tuned, pullErr = p.registry.Pull()
	}

	contours, err := p.source.Contours(frame)
	if err != nil {
		return out, fmt.Errorf("contour search failed: %w", err)
	}

	out.Result, publishErr = p.processor.Process(contours)
	out.TableErr = errors.Join(pullErr, publishErr)

	annotated, err := p.annotator.Annotate(frame, out.Result.Boxes)
	if err != nil {
		return out, err
	}
	defer annotated.Close()

	out.JPEG, err = p.annotator.Encode(annotated)
	if err != nil {
		return out, err
	}

	return out, nil
}
