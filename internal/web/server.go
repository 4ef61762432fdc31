// Package web exposes a small control surface over HTTP: a status endpoint,
// partial style updates, config save/load and a websocket that streams the
// live audio features to connected clients.
package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/emberarc/emberarc/internal/config"
	"github.com/emberarc/emberarc/internal/features"
)

// Controller is the slice of the application the server is allowed to touch.
type Controller interface {
	Style() config.Style
	ApplyStyle(config.Style)
	Snapshot() features.Snapshot
	FPS() float64
	Paused() bool
}

type Server struct {
	mu        sync.RWMutex
	ctrl      Controller
	clients   map[*wsClient]bool
	broadcast chan []byte
	upgrader  websocket.Upgrader
	done      chan struct{}
	closeOnce sync.Once
}

type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// StatusResponse is what /api/status and the websocket stream carry.
type StatusResponse struct {
	FPS      float64           `json:"fps"`
	Paused   bool              `json:"paused"`
	Features features.Snapshot `json:"features"`
	Style    config.Style      `json:"style"`
}

// StyleUpdate is a partial style patch: nil fields keep their current value.
type StyleUpdate struct {
	PrimaryColor  *string  `json:"primaryColor,omitempty"`
	Sensitivity   *float64 `json:"sensitivity,omitempty"`
	MirrorEnabled *bool    `json:"mirrorEnabled,omitempty"`
	RotationSpeed *float64 `json:"rotationSpeed,omitempty"`
	RainbowSpeed  *float64 `json:"rainbowSpeed,omitempty"`
	GlowStrength  *float64 `json:"glowStrength,omitempty"`
}

func NewServer(ctrl Controller) *Server {
	return &Server{
		ctrl:      ctrl,
		clients:   make(map[*wsClient]bool),
		broadcast: make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}
}

// Close stops the broadcast and telemetry goroutines. Safe to call more than
// once; connected clients are dropped by their own pump teardown.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Start registers the handlers and serves on the given port. Blocks, so run
// it on its own goroutine.
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/style", s.handleStyle)
	mux.HandleFunc("/api/save", s.handleSave)
	mux.HandleFunc("/ws", s.handleWebSocket)

	addr := fmt.Sprintf(":%d", port)
	log.Printf("[web] control server on http://0.0.0.0%s", addr)

	go s.broadcastLoop()
	go s.statusLoop()

	return http.ListenAndServe(addr, mux)
}

func (s *Server) status() StatusResponse {
	return StatusResponse{
		FPS:      s.ctrl.FPS(),
		Paused:   s.ctrl.Paused(),
		Features: s.ctrl.Snapshot(),
		Style:    s.ctrl.Style(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.status())
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req StyleUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	style := s.ctrl.Style()
	if req.PrimaryColor != nil {
		style.PrimaryColor = *req.PrimaryColor
	}
	if req.Sensitivity != nil {
		style.Sensitivity = *req.Sensitivity
	}
	if req.MirrorEnabled != nil {
		style.MirrorEnabled = *req.MirrorEnabled
	}
	if req.RotationSpeed != nil {
		style.RotationSpeed = *req.RotationSpeed
	}
	if req.RainbowSpeed != nil {
		style.RainbowSpeed = *req.RainbowSpeed
	}
	if req.GlowStrength != nil {
		style.GlowStrength = *req.GlowStrength
	}

	// ApplyStyle clamps, so junk values degrade instead of erroring.
	s.ctrl.ApplyStyle(style)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := ConfigPath()
	if err := SaveStyle(path, s.ctrl.Style()); err != nil {
		http.Error(w, fmt.Sprintf("save config: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "saved", "path": path})
}

// ConfigPath is where saved styles live: next to the binary when possible,
// otherwise in the home directory.
func ConfigPath() string {
	if exe, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(exe), "emberarc-config.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".emberarc-config.json")
}

// SaveStyle writes the style as indented JSON.
func SaveStyle(path string, style config.Style) error {
	data, err := json.MarshalIndent(style, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadStyle reads a previously saved style. Missing file is not an error to
// the caller beyond the wrapped os error.
func LoadStyle(path string) (config.Style, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.Style{}, err
	}
	var style config.Style
	if err := json.Unmarshal(data, &style); err != nil {
		return config.Style{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return style.Clamp(), nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] websocket upgrade: %v", err)
		return
	}

	client := &wsClient{
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	go client.writePump()
	go client.readPump()
}

func (s *Server) broadcastLoop() {
	for {
		select {
		case <-s.done:
			return
		case message := <-s.broadcast:
			s.mu.Lock()
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(s.clients, client)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Server) statusLoop() {
	// 100ms keeps feature telemetry readable as a meter without hammering
	// the render loop.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			data, err := json.Marshal(s.status())
			if err != nil {
				continue
			}
			select {
			case s.broadcast <- data:
			default:
			}
		}
	}
}

func (c *wsClient) readPump() {
	defer func() {
		c.server.mu.Lock()
		delete(c.server.clients, c)
		c.server.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
