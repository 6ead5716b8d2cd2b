package websocket

import (
	"context"
	"encoding/base64"
	"sync"
	"sync/atomic"
	"time"
	"visionserver/internal/config"
	"visionserver/internal/logger"
	"visionserver/internal/service/target"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message types sent to viewers.
const (
	MessageFrame       = "frame"
	MessageMeasurement = "measurement"
)

const (
	// WriteWait bounds a single write to a viewer; a viewer that cannot take a
	// message in this time is disconnected.
	WriteWait = 5 * time.Second
	// ClientBuffer is how many messages may queue per viewer before new ones are dropped.
	ClientBuffer = 8
)

// Message is the JSON envelope pushed to every viewer.
type Message struct {
	Type        string              `json:"type"`
	Camera      string              `json:"camera,omitempty"`
	Image       string              `json:"image,omitempty"`
	Frame       int64               `json:"frame,omitempty"`
	Measurement *target.Measurement `json:"measurement,omitempty"`
}

// client is one viewer with its own queue; only its writer goroutine touches conn for writes.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// HubService fans messages out to viewers. The clients map is owned by Run.
type HubService struct {
	clients     map[*websocket.Conn]*client
	clientCount atomic.Int64
	broadcast   chan []byte
	register    chan *websocket.Conn
	unregister  chan *websocket.Conn
	limiters    map[string]*rate.Limiter
	limitersMu  sync.Mutex
	viewerFPS   rate.Limit
	writeWait   time.Duration
	done        chan struct{}
	logger      *logger.Logger
}

func NewHubService(config *config.Config, logger *logger.Logger) *HubService {
	fps := rate.Limit(config.ViewerFPS)
	if config.ViewerFPS <= 0 {
		fps = rate.Inf
	}

	return &HubService{
		clients:    make(map[*websocket.Conn]*client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		limiters:   make(map[string]*rate.Limiter),
		viewerFPS:  fps,
		writeWait:  WriteWait,
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register/unregister/broadcast until ctx is cancelled.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for conn, c := range h.clients {
				h.remove(conn, c)
			}
			return

		case conn := <-h.register:
			c := &client{conn: conn, send: make(chan []byte, ClientBuffer)}
			h.clients[conn] = c
			h.clientCount.Store(int64(len(h.clients)))
			go h.writer(c)
			h.logger.Info("Client connected. Total: %d", len(h.clients))

		case conn := <-h.unregister:
			if c, ok := h.clients[conn]; ok {
				h.remove(conn, c)
				h.logger.Info("Client disconnected. Total: %d", len(h.clients))
			}

		case message := <-h.broadcast:
			for _, c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Viewer is behind; skip this message for it.
				}
			}
		}
	}
}

func (h *HubService) remove(conn *websocket.Conn, c *client) {
	delete(h.clients, conn)
	h.clientCount.Store(int64(len(h.clients)))
	close(c.send)
	conn.Close()
}

// writer drains one viewer's queue. A failed or timed out write closes the connection.
func (h *HubService) writer(c *client) {
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Error("Error sending message: %v", err)
			c.conn.Close()
			h.Unregister(c.conn)
			for range c.send {
			}
			return
		}
	}
}

// Register adds a viewer. After Run has stopped the connection is closed instead.
func (h *HubService) Register(conn *websocket.Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
	}
}

func (h *HubService) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Broadcast queues a raw message; it is dropped when viewers fall behind so the
// processing loop never waits on the network.
func (h *HubService) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		return false
	}
}

// BroadcastFrame sends a base64 JPEG to viewers, limited to the configured viewer FPS per camera.
func (h *HubService) BroadcastFrame(camera string, frame int64, jpeg []byte) bool {
	if h.GetClientCount() == 0 || !h.limiter(camera).Allow() {
		return false
	}

	return h.send(Message{
		Type:   MessageFrame,
		Camera: camera,
		Frame:  frame,
		Image:  base64.StdEncoding.EncodeToString(jpeg),
	})
}

// BroadcastMeasurement sends the geometry of a processed frame to viewers.
func (h *HubService) BroadcastMeasurement(camera string, frame int64, m target.Measurement) bool {
	if h.GetClientCount() == 0 {
		return false
	}

	return h.send(Message{
		Type:        MessageMeasurement,
		Camera:      camera,
		Frame:       frame,
		Measurement: &m,
	})
}

func (h *HubService) send(msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Error encoding %s message: %v", msg.Type, err)
		return false
	}
	return h.Broadcast(data)
}

func (h *HubService) limiter(camera string) *rate.Limiter {
	h.limitersMu.Lock()
	defer h.limitersMu.Unlock()

	if _, exist := h.limiters[camera]; !exist {
		h.limiters[camera] = rate.NewLimiter(h.viewerFPS, 1)
	}
	return h.limiters[camera]
}

func (h *HubService) GetClientCount() int {
	return int(h.clientCount.Load())
}
