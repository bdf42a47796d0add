package display

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"uttt/gamemaster"
	"uttt/player"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
	sendBuffer   = 16
)

var ErrUnknownCommand = errors.New("unknown command")

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// command is a message from a browser. Click coordinates are pixels inside a
// square board of side Size.
type command struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
	// new_game roles; "x" is taken by the click coordinate
	PlayerX string `json:"player_x"`
	PlayerO string `json:"player_o"`
}

type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// Hub serves views to websocket clients and forwards their commands to a
// Controller. It implements Display.
type Hub struct {
	controller Controller
	logger     zerolog.Logger
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:   logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[*client]struct{}),
	}
}

// Router mounts the websocket at /ws and the latest view at /api/view.
// Commands from clients go to controller.
func (h *Hub) Router(controller Controller) http.Handler {
	h.controller = controller

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/api/view", h.serveView)
	r.Get("/ws", h.serveWS)
	return r
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// Update broadcasts view to every client and keeps it for new ones.
func (h *Hub) Update(view gamemaster.View) {
	data := mustMarshal(wsMessage{Type: "view", Payload: mustMarshal(view)})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = data
	for c := range h.clients {
		c.enqueue(data)
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) serveView(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	last := h.last
	h.mu.Unlock()

	if last == nil {
		http.Error(w, "no game yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(last)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.enqueue(h.last)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// enqueue drops the message when the client is not keeping up; the next
// view supersedes it anyway. Callers hold the hub lock.
func (c *client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{id: uuid.New(), conn: conn, send: make(chan []byte, sendBuffer)}
	logger := h.logger.With().Str("client", c.id.String()).Logger()
	logger.Info().Str("remote", r.RemoteAddr).Msg("client connected")

	h.register(c)
	go func() {
		defer conn.Close()
		if err := writeLoop(conn, c.send); err != nil {
			logger.Debug().Err(err).Msg("write loop stopped")
		}
	}()

	defer func() {
		h.unregister(c)
		logger.Info().Msg("client disconnected")
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := h.dispatch(data); err != nil {
			logger.Debug().Err(err).Msg("command rejected")
			h.mu.Lock()
			c.enqueue(mustMarshal(wsMessage{
				Type:    "error",
				Payload: mustMarshal(map[string]string{"message": err.Error()}),
			}))
			h.mu.Unlock()
		}
	}
}

func (h *Hub) dispatch(data []byte) error {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}
	switch cmd.Type {
	case "click":
		return h.controller.Click(cmd.X, cmd.Y, cmd.Size)
	case "toggle":
		return h.controller.Toggle()
	case "new_game":
		assignment, err := player.ParseAssignment(orDefault(cmd.PlayerX, "human"), orDefault(cmd.PlayerO, "ai"))
		if err != nil {
			return err
		}
		return h.controller.NewGame(assignment)
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, cmd.Type)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func writeLoop(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}
