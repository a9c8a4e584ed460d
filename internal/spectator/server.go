// Package spectator streams game events to websocket clients and serves the
// current game state over HTTP.
package spectator

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeusync/bricksmash/internal/core/events/bus"
	"github.com/zeusync/bricksmash/internal/core/observability/log"
	"github.com/zeusync/bricksmash/internal/game"
)

// StateSource provides the document served on /state.
type StateSource interface {
	Snapshot(ctx context.Context) (game.Snapshot, error)
}

type Config struct {
	Addr string
	// Token, when set, is required on every request.
	Token string
	// History is how many recent events a new client receives on connect.
	History      int
	WriteTimeout time.Duration
	SendBuffer   int
}

func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:8080",
		History:      64,
		WriteTimeout: 5 * time.Second,
		SendBuffer:   64,
	}
}

// Message is the JSON frame sent for every bus event.
type Message struct {
	Type   string    `json:"type"`
	Source string    `json:"source"`
	Time   time.Time `json:"time"`
	Data   any       `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

type Server struct {
	cfg    Config
	state  StateSource
	logger log.Log

	mu      sync.Mutex
	clients map[*client]struct{}
	history [][]byte
	sub     bus.Subscription
	server  *http.Server
}

func New(cfg Config, state StateSource, logger log.Log) *Server {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultConfig().SendBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	return &Server{
		cfg:     cfg,
		state:   state,
		logger:  logger.With(log.String("component", "spectator")),
		clients: make(map[*client]struct{}),
	}
}

// Attach forwards every event published on b to connected clients.
func (s *Server) Attach(b bus.EventBus) error {
	sub, err := b.Subscribe(bus.Wildcard, s.broadcast)
	if err != nil {
		return err
	}
	s.mu.Lock()
	prev := s.sub
	s.sub = sub
	s.mu.Unlock()
	if prev != nil {
		_ = prev.Cancel()
	}
	return nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully and
// disconnects every client.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrAlreadyServed
	}
	s.server = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	srv := s.server
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("spectator listening", log.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.disconnectAll()
	return err
}

// Clients reports how many websocket clients are connected.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) broadcast(e bus.Event) error {
	frame, err := json.Marshal(Message{Type: e.Type(), Source: e.Source(), Time: e.Timestamp(), Data: e.Data()})
	if err != nil {
		s.logger.Warn("encode event", log.String("event", e.Type()), log.Error(err))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.History > 0 {
		s.history = append(s.history, frame)
		if over := len(s.history) - s.cfg.History; over > 0 {
			s.history = append(s.history[:0:0], s.history[over:]...)
		}
	}
	for c := range s.clients {
		select {
		case c.send <- frame:
		default:
			// slow reader
			delete(s.clients, c)
			c.close()
			s.logger.Warn("dropping slow spectator", log.String("remote", c.conn.RemoteAddr().String()))
		}
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := s.authorize(r); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade", log.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, s.cfg.SendBuffer+s.cfg.History)}
	s.mu.Lock()
	for _, frame := range s.history {
		c.send <- frame
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("spectator connected", log.String("remote", conn.RemoteAddr().String()))

	go s.writePump(c)
	s.readPump(c)
}

// readPump discards client frames and unregisters the client once the
// connection closes.
func (s *Server) readPump(c *client) {
	defer func() {
		s.mu.Lock()
		if _, ok := s.clients[c]; ok {
			delete(s.clients, c)
			c.close()
		}
		s.mu.Unlock()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	defer c.conn.Close()
	for frame := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			s.logger.Debug("spectator write", log.Error(err))
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func (s *Server) disconnectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		c.close()
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if err := s.authorize(r); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.state == nil {
		http.Error(w, ErrNoState.Error(), http.StatusServiceUnavailable)
		return
	}
	snap, err := s.state.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Debug("write state", log.Error(err))
	}
}
