package camera

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"visionserver/internal/config"
	"visionserver/internal/logger"

	"gocv.io/x/gocv"
)

// ErrFrameGrab is returned when a camera stops delivering frames.
var ErrFrameGrab = errors.New("frame grab failed")

// Source delivers BGR frames from one device.
type Source interface {
	Name() string
	Read(dst *gocv.Mat) error
	Close() error
}

// USBCamera is a V4L2/UVC device opened through OpenCV.
type USBCamera struct {
	name    string
	path    string
	capture *gocv.VideoCapture
	mu      sync.Mutex
}

// Open starts the camera described by cfg. A zero width/height in cfg falls back
// to the given defaults, which normally come from the estimator calibration.
func Open(cfg config.CameraConfig, defaultWidth, defaultHeight int, logger *logger.Logger) (*USBCamera, error) {
	logger.Info("Starting camera '%s' on %s", cfg.Name, cfg.Path)

	var (
		capture *gocv.VideoCapture
		err     error
	)
	if index, ok := deviceIndex(cfg.Path); ok {
		capture, err = gocv.OpenVideoCapture(index)
	} else {
		capture, err = gocv.OpenVideoCapture(cfg.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("camera '%s': could not open %s: %w", cfg.Name, cfg.Path, err)
	}

	width, height := cfg.Width, cfg.Height
	if width == 0 || height == 0 {
		width, height = defaultWidth, defaultHeight
	}
	capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
	if cfg.FPS > 0 {
		capture.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))
	}

	logger.Info("Camera '%s' running at %.0fx%.0f", cfg.Name,
		capture.Get(gocv.VideoCaptureFrameWidth), capture.Get(gocv.VideoCaptureFrameHeight))

	return &USBCamera{
		name:    cfg.Name,
		path:    cfg.Path,
		capture: capture,
	}, nil
}

func (c *USBCamera) Name() string {
	return c.name
}

// Read grabs the next frame into dst.
func (c *USBCamera) Read(dst *gocv.Mat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ok := c.capture.Read(dst); !ok || dst.Empty() {
		return fmt.Errorf("camera '%s' (%s): %w", c.name, c.path, ErrFrameGrab)
	}
	return nil
}

func (c *USBCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture.Close()
}

// deviceIndex maps /dev/videoN (or a bare N) to the capture index N.
func deviceIndex(path string) (int, bool) {
	trimmed := strings.TrimPrefix(path, "/dev/video")
	index, err := strconv.Atoi(trimmed)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}
