package main

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	vgaconsole "github.com/neotron-os/go-neotron"
)

// clientQueue is the number of pending messages a slow viewer may lag behind
// before it is disconnected.
const clientQueue = 256

// Mirror records console output and streams it to WebSocket viewers. A new
// viewer first receives the recorded history, then live output. Sending the
// text message "snapshot" returns the screen as JSON.
type Mirror struct {
	rec *vgaconsole.MemoryRecording
	log *logrus.Logger

	mu      sync.Mutex
	console *vgaconsole.Console
	clients map[*mirrorClient]struct{}

	upgrader websocket.Upgrader
}

type mirrorMessage struct {
	kind int
	data []byte
}

type mirrorClient struct {
	conn *websocket.Conn
	send chan mirrorMessage
}

var _ vgaconsole.RecordingProvider = (*Mirror)(nil)

// NewMirror creates a mirror that keeps at most limit bytes of history.
func NewMirror(limit int, log *logrus.Logger) *Mirror {
	return &Mirror{
		rec:     vgaconsole.NewMemoryRecording(limit),
		log:     log,
		clients: make(map[*mirrorClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// SetConsole sets the console snapshots are taken from.
func (m *Mirror) SetConsole(c *vgaconsole.Console) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.console = c
}

// Record implements vgaconsole.RecordingProvider.
func (m *Mirror) Record(data []byte) {
	m.rec.Record(data)

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.clients) == 0 {
		return
	}
	msg := mirrorMessage{kind: websocket.BinaryMessage, data: append([]byte(nil), data...)}
	for c := range m.clients {
		select {
		case c.send <- msg:
		default:
			m.log.Warnf("mirror: dropping slow viewer %s", c.conn.RemoteAddr())
			m.removeLocked(c)
		}
	}
}

// Data implements vgaconsole.RecordingProvider.
func (m *Mirror) Data() []byte {
	return m.rec.Data()
}

// Clear implements vgaconsole.RecordingProvider.
func (m *Mirror) Clear() {
	m.rec.Clear()
}

// Viewers returns the number of connected viewers.
func (m *Mirror) Viewers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *Mirror) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Warnf("mirror: upgrade: %v", err)
		return
	}

	c := &mirrorClient{conn: conn, send: make(chan mirrorMessage, clientQueue)}
	m.mu.Lock()
	c.send <- mirrorMessage{kind: websocket.BinaryMessage, data: m.rec.Data()}
	m.clients[c] = struct{}{}
	m.mu.Unlock()

	m.log.Infof("mirror: viewer %s connected", conn.RemoteAddr())

	go m.writeLoop(c)
	m.readLoop(c)
}

func (m *Mirror) writeLoop(c *mirrorClient) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
			m.log.Debugf("mirror: write: %v", err)
			m.remove(c)
			return
		}
	}
}

func (m *Mirror) readLoop(c *mirrorClient) {
	defer m.remove(c)
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.log.Debugf("mirror: read: %v", err)
			}
			return
		}
		if kind != websocket.TextMessage || string(data) != "snapshot" {
			continue
		}

		m.mu.Lock()
		console := m.console
		m.mu.Unlock()
		if console == nil {
			continue
		}
		payload, err := json.Marshal(console.Snapshot(vgaconsole.SnapshotDetailStyled))
		if err != nil {
			m.log.Warnf("mirror: snapshot: %v", err)
			continue
		}

		m.mu.Lock()
		if _, ok := m.clients[c]; ok {
			select {
			case c.send <- mirrorMessage{kind: websocket.TextMessage, data: payload}:
			default:
			}
		}
		m.mu.Unlock()
	}
}

func (m *Mirror) remove(c *mirrorClient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(c)
}

func (m *Mirror) removeLocked(c *mirrorClient) {
	if _, ok := m.clients[c]; !ok {
		return
	}
	delete(m.clients, c)
	close(c.send)
}
