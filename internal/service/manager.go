package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"visionserver/internal/config"
	"visionserver/internal/logger"
	"visionserver/internal/model"
	"visionserver/internal/service/camera"
	"visionserver/internal/service/storage"
	"visionserver/internal/service/stream"
	"visionserver/internal/service/target"
	"visionserver/internal/service/vision"
	"visionserver/internal/service/websocket"

	"gocv.io/x/gocv"
)

// ContoursStream is the sink carrying the annotated processing frames.
const ContoursStream = "contours"

// ErrNoCameras is returned by Run when the configuration lists no cameras.
var ErrNoCameras = errors.New("no cameras configured")

// Manager owns the processing loop: the first camera is run through the pipeline,
// the others are only streamed.
type Manager struct {
	cameras   []camera.Source
	pipeline  *vision.Pipeline
	annotator *vision.Annotator
	mjpeg     *stream.MJPEGServer
	hub       *websocket.HubService
	buffer    *storage.BufferService
	snapshots *storage.SnapshotService
	logger    *logger.Logger

	recordEvery int64 // Co którą klatkę zapisywać pomiar

	mu          sync.RWMutex
	startedAt   time.Time
	frames      int64
	lastFrameAt time.Time
	latest      target.Measurement
	latestJPEG  []byte
}

func NewManager(config *config.Config, logger *logger.Logger, cameras []camera.Source, pipeline *vision.Pipeline,
	annotator *vision.Annotator, mjpeg *stream.MJPEGServer, hub *websocket.HubService,
	buffer *storage.BufferService, snapshots *storage.SnapshotService) *Manager {
	recordEvery := int64(config.RecordInterval)
	if recordEvery <= 0 {
		recordEvery = 1
	}

	mjpeg.AddSink(ContoursStream)
	for _, cam := range cameras {
		mjpeg.AddSink(cam.Name())
	}

	return &Manager{
		cameras:     cameras,
		pipeline:    pipeline,
		annotator:   annotator,
		mjpeg:       mjpeg,
		hub:         hub,
		buffer:      buffer,
		snapshots:   snapshots,
		logger:      logger,
		recordEvery: recordEvery,
		startedAt:   time.Now().UTC(),
	}
}

// Run processes frames from the first camera until ctx is cancelled. A failed
// frame grab ends the loop with an error wrapping camera.ErrFrameGrab.
func (m *Manager) Run(ctx context.Context) error {
	if len(m.cameras) == 0 {
		return ErrNoCameras
	}

	var wg sync.WaitGroup
	for _, cam := range m.cameras[1:] {
		wg.Add(1)
		go func(cam camera.Source) {
			defer wg.Done()
			m.streamRaw(ctx, cam)
		}(cam)
	}
	defer wg.Wait()

	processing := m.cameras[0]
	m.logger.Info("🎬 Processing camera '%s', recording every %d frame(s)", processing.Name(), m.recordEvery)

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("🛑 Processing loop stopped after %d frame(s)", m.FrameCount())
			return nil
		default:
		}

		if err := processing.Read(&frame); err != nil {
			m.logger.Error("Stopping processing loop: %v", err)
			return err
		}

		m.publishRaw(processing.Name(), frame)

		if _, err := m.HandleFrame(processing.Name(), frame); err != nil {
			m.logger.Error("Error processing frame: %v", err)
		}
	}
}

// HandleFrame runs one frame through the pipeline and fans the result out to
// the stream sinks, viewers and measurement history.
func (m *Manager) HandleFrame(cameraName string, frame gocv.Mat) (vision.FrameOutput, error) {
	out, err := m.pipeline.Process(frame)
	if len(out.Tuned) > 0 {
		m.logger.Info("Tuning updated remotely: %v", out.Tuned)
	}
	if err != nil {
		return out, err
	}
	if out.TableErr != nil {
		m.logger.Warning("Network table sync failed: %v", out.TableErr)
	}

	measurement := out.Result.Measurement

	m.mu.Lock()
	m.frames++
	n := m.frames
	m.lastFrameAt = time.Now().UTC()
	m.latest = measurement
	m.latestJPEG = out.JPEG
	m.mu.Unlock()

	m.mjpeg.Publish(ContoursStream, out.JPEG)
	m.hub.BroadcastFrame(ContoursStream, n, out.JPEG)
	m.hub.BroadcastMeasurement(ContoursStream, n, measurement)

	if n%m.recordEvery == 0 {
		m.buffer.AddMeasurement(cameraName, n, measurement)
	}

	return out, nil
}

func (m *Manager) publishRaw(name string, frame gocv.Mat) {
	jpeg, err := m.annotator.Encode(frame)
	if err != nil {
		m.logger.Warning("Could not encode raw frame from '%s': %v", name, err)
		return
	}
	m.mjpeg.Publish(name, jpeg)
	m.hub.BroadcastFrame(name, 0, jpeg)
}

// streamRaw forwards an auxiliary camera to its sink until ctx ends or the camera fails.
func (m *Manager) streamRaw(ctx context.Context, cam camera.Source) {
	frame := gocv.NewMat()
	defer frame.Close()

	m.logger.Info("📹 Streaming camera '%s'", cam.Name())
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := cam.Read(&frame); err != nil {
			m.logger.Error("Stopped streaming: %v", err)
			return
		}
		m.publishRaw(cam.Name(), frame)
	}
}

// FrameCount returns the number of processed frames.
func (m *Manager) FrameCount() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frames
}

// LatestMeasurement returns the measurement of the last processed frame.
func (m *Manager) LatestMeasurement() target.Measurement {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// TakeSnapshot saves the last annotated frame with its measurement.
func (m *Manager) TakeSnapshot() (*model.Snapshot, error) {
	m.mu.RLock()
	jpeg, measurement := m.latestJPEG, m.latest
	m.mu.RUnlock()

	if jpeg == nil {
		return nil, fmt.Errorf("no processed frame yet")
	}
	return m.snapshots.Save(jpeg, ContoursStream, measurement)
}

// Status reports loop progress for the health endpoint.
func (m *Manager) Status() model.PipelineStatus {
	names := make([]string, len(m.cameras))
	for i, cam := range m.cameras {
		names[i] = cam.Name()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return model.PipelineStatus{
		RunID:           m.buffer.RunID(),
		Cameras:         names,
		Streams:         m.mjpeg.Names(),
		StartedAt:       m.startedAt,
		Frames:          m.frames,
		LastFrameAt:     m.lastFrameAt,
		PendingRecords:  m.buffer.Pending(),
		ContourCount:    m.latest.ContourCount,
		PixelSeparation: m.latest.PixelSeparation,
		DistanceInches:  m.latest.DistanceInches,
		AngleDegrees:    m.latest.AngleDegrees,
		TargetAcquired:  m.latest.TargetAcquired,
	}
}
