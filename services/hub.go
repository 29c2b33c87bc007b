package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"finnduel-overlay-backend/metrics"
	"finnduel-overlay-backend/models"
)

// ErrHubClosed is returned by ServeWS once the hub has been closed
var ErrHubClosed = errors.New("overlay hub closed")

// HubConfig holds websocket settings
type HubConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultHubConfig returns default websocket settings
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Hub connects overlay pages to the StateService over websockets. Pages send
// playback and category messages; every page receives each new snapshot.
type Hub struct {
	state    *StateService
	config   HubConfig
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection
	closed      bool
}

// Connection is one overlay page
type Connection struct {
	ID          uuid.UUID
	ConnectedAt time.Time

	hub       *Hub
	conn      *websocket.Conn
	sub       *Subscription
	replies   chan models.WSMessage
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub publishing snapshots from state
func NewHub(state *StateService, config HubConfig) *Hub {
	// Pings must arrive well inside the read deadline.
	if config.ReadTimeout <= config.PingInterval {
		config.ReadTimeout = 2 * config.PingInterval
	}

	return &Hub{
		state:  state,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		connections: make(map[uuid.UUID]*Connection),
	}
}

// ServeWS upgrades the request and runs the connection until either side closes it
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		ID:          uuid.New(),
		ConnectedAt: time.Now(),
		hub:         h,
		conn:        conn,
		sub:         h.state.Subscribe(),
		replies:     make(chan models.WSMessage, 8),
		done:        make(chan struct{}),
	}
	if !h.register(c) {
		c.close()
		return ErrHubClosed
	}

	log.Info().
		Str("connection_id", c.ID.String()).
		Str("remote_addr", r.RemoteAddr).
		Msg("overlay websocket connected")

	go c.writePump()
	go c.readPump()
	return nil
}

// ConnectionCount returns the number of open connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Close disconnects every page. Upgrades that complete afterwards are
// closed straight away.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*Connection, 0, len(h.connections))
	for _, c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
	log.Info().Int("connections", len(conns)).Msg("overlay hub closed")
}

func (h *Hub) register(c *Connection) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.connections[c.ID] = c
	h.mu.Unlock()
	metrics.WSConnections.Inc()
	return true
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	_, ok := h.connections[c.ID]
	delete(h.connections, c.ID)
	h.mu.Unlock()

	if ok {
		metrics.WSConnections.Dec()
	}
}

// close releases everything the connection acquired. Safe to call from either pump.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.sub.Close()
		c.hub.unregister(c)
		c.conn.Close()

		log.Info().
			Str("connection_id", c.ID.String()).
			Dur("duration", time.Since(c.ConnectedAt)).
			Msg("overlay websocket disconnected")
	})
}

// writePump is the only goroutine that writes to the websocket
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return

		case snap, ok := <-c.sub.C:
			if !ok {
				c.writeClose()
				return
			}
			if err := c.writeJSON(models.WSMessage{Type: "snapshot", Snapshot: &snap}); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID.String()).Msg("failed to write snapshot")
				return
			}

		case reply := <-c.replies:
			if err := c.writeJSON(reply); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID.String()).Msg("failed to write reply")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID.String()).Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *Connection) writeJSON(msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Connection) writeClose() {
	c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump feeds page messages into the state service
func (c *Connection) readPump() {
	defer c.close()

	c.conn.SetReadLimit(c.hub.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("connection_id", c.ID.String()).Msg("unexpected websocket close")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))

		if err := c.handleMessage(data); err != nil {
			log.Debug().Err(err).Str("connection_id", c.ID.String()).Msg("rejected client message")
			c.reply(models.WSMessage{Type: "error", Error: err.Error()})
		}
	}
}

func (c *Connection) handleMessage(data []byte) error {
	var msg models.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return errors.New("invalid JSON")
	}

	switch msg.Type {
	case "playback":
		if msg.Event == nil {
			return errors.New("playback message without event")
		}
		_, err := c.hub.state.Apply(*msg.Event)
		return err
	case "category":
		_, err := c.hub.state.SelectCategory(msg.Category)
		return err
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (c *Connection) reply(msg models.WSMessage) {
	select {
	case c.replies <- msg:
	case <-c.done:
	default:
		log.Warn().Str("connection_id", c.ID.String()).Msg("reply buffer full, dropping error reply")
	}
}
