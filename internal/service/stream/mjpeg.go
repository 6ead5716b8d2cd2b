package stream

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"visionserver/internal/logger"
)

const boundary = "frame"

// sink holds the latest frame of one named stream. ready is closed and replaced
// on every publish so waiting clients wake up.
type sink struct {
	frame []byte
	seq   uint64
	ready chan struct{}
}

// MJPEGServer serves the latest JPEG of each named sink as a multipart stream.
type MJPEGServer struct {
	sinks  map[string]*sink
	mu     sync.RWMutex
	logger *logger.Logger
}

func NewMJPEGServer(logger *logger.Logger) *MJPEGServer {
	return &MJPEGServer{
		sinks:  make(map[string]*sink),
		logger: logger,
	}
}

// AddSink registers a stream name so clients can connect before the first frame.
func (s *MJPEGServer) AddSink(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinkLocked(name)
}

func (s *MJPEGServer) sinkLocked(name string) *sink {
	sk, ok := s.sinks[name]
	if !ok {
		sk = &sink{ready: make(chan struct{})}
		s.sinks[name] = sk
	}
	return sk
}

// Publish replaces the sink's frame. The slice must not be modified afterwards.
func (s *MJPEGServer) Publish(name string, jpeg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sk := s.sinkLocked(name)
	sk.frame = jpeg
	sk.seq++
	close(sk.ready)
	sk.ready = make(chan struct{})
}

// Latest returns the current frame of a sink.
func (s *MJPEGServer) Latest(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sk, ok := s.sinks[name]
	if !ok || sk.frame == nil {
		return nil, false
	}
	return sk.frame, true
}

// Names lists the registered sinks.
func (s *MJPEGServer) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.sinks))
	for name := range s.sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// next blocks until the sink has a frame newer than seq, or the request ends.
func (s *MJPEGServer) next(r *http.Request, name string, seq uint64) ([]byte, uint64, bool) {
	for {
		s.mu.RLock()
		sk, ok := s.sinks[name]
		if !ok {
			s.mu.RUnlock()
			return nil, seq, false
		}
		frame, current, ready := sk.frame, sk.seq, sk.ready
		s.mu.RUnlock()

		if current > seq {
			return frame, current, true
		}

		select {
		case <-ready:
		case <-r.Context().Done():
			return nil, seq, false
		}
	}
}

// Handler serves GET /stream/{name}. With ?action=snapshot a single JPEG is returned.
func (s *MJPEGServer) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		s.mu.RLock()
		_, exists := s.sinks[name]
		s.mu.RUnlock()
		if !exists {
			http.Error(w, "Unknown stream: "+name, http.StatusNotFound)
			return
		}

		if r.URL.Query().Get("action") == "snapshot" {
			frame, ok := s.Latest(name)
			if !ok {
				http.Error(w, "No frame yet", http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "image/jpeg")
			w.Header().Set("Cache-Control", "no-cache")
			w.Write(frame)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Connection", "close")

		s.logger.Info("MJPEG client %s connected to stream '%s'", r.RemoteAddr, name)

		var seq uint64
		for {
			frame, current, ok := s.next(r, name, seq)
			if !ok {
				break
			}
			seq = current

			if err := writePart(w, frame); err != nil {
				break
			}
			flusher.Flush()
		}

		s.logger.Info("MJPEG client %s left stream '%s'", r.RemoteAddr, name)
	}
}

func writePart(w http.ResponseWriter, frame []byte) error {
	header := fmt.Sprintf("--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, len(frame))
	if _, err := w.Write([]byte(header)); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := w.Write([]byte("\r\n"))
	return err
}
