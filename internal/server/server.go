package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tbickford/vcs/internal/vcscore"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
)

// upgrader allows all origins; the server is meant to be bound to
// localhost for a single local user.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// Server pushes repository status snapshots to WebSocket clients and
// serves one-shot snapshots over HTTP.
type Server struct {
	repoPath string
	addr     string
	logger   *slog.Logger

	mu       sync.Mutex
	clients  map[*websocket.Conn]*sync.Mutex
	lastJSON []byte

	wg sync.WaitGroup
}

// New constructs a Server for the repository at repoPath.
func New(repoPath, addr string, logger *slog.Logger) *Server {
	return &Server{
		repoPath: repoPath,
		addr:     addr,
		logger:   logger,
		clients:  make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Run starts the watcher and the HTTP server, blocking until ctx is done
// or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWebSocket)

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := Watch(ctx, s.repoPath, s.logger, s.broadcast); err != nil {
			s.logger.Error("watcher stopped", "err", err)
			cancel()
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown", "err", err)
		}
		s.closeClients()
		s.wg.Wait()
		return nil
	case err := <-errCh:
		cancel()
		s.closeClients()
		s.wg.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleStatus serves a one-shot status snapshot as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	repo, err := vcscore.Open(s.repoPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	status, err := repo.Status()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error("encoding status response", "err", err)
	}
}

// handleWebSocket upgrades the connection, sends the latest snapshot, and
// keeps the client registered for broadcasts until it disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error("setting read deadline", "err", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s.logger.Info("client connected", "addr", conn.RemoteAddr())

	// Hold the client's write lock from registration until the current
	// snapshot is sent, so the client's baseline precedes any broadcast.
	writeMu := &sync.Mutex{}
	writeMu.Lock()
	s.mu.Lock()
	initial := s.lastJSON
	s.clients[conn] = writeMu
	s.mu.Unlock()

	if initial != nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err = conn.WriteMessage(websocket.TextMessage, initial)
	}
	writeMu.Unlock()
	if err != nil {
		s.logger.Info("dropping client", "addr", conn.RemoteAddr(), "err", err)
		s.removeClient(conn)
		return
	}

	go s.readPump(conn)
	go s.pingLoop(conn, writeMu)
}

// readPump consumes client frames (pongs, close) until the connection
// drops, then unregisters it.
func (s *Server) readPump(conn *websocket.Conn) {
	defer s.removeClient(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// pingLoop keeps the connection alive until the client goes away.
func (s *Server) pingLoop(conn *websocket.Conn, writeMu *sync.Mutex) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.PingMessage, nil)
		writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

// broadcast pushes a status snapshot to every connected client.
func (s *Server) broadcast(status *vcscore.WorkTreeStatus) {
	payload, err := json.Marshal(status)
	if err != nil {
		s.logger.Error("encoding status broadcast", "err", err)
		return
	}

	s.mu.Lock()
	s.lastJSON = payload
	conns := make(map[*websocket.Conn]*sync.Mutex, len(s.clients))
	for conn, mu := range s.clients {
		conns[conn] = mu
	}
	s.mu.Unlock()

	for conn, mu := range conns {
		s.writeTo(conn, mu, payload)
	}
}

// writeTo sends one message to a client, dropping the client on failure.
func (s *Server) writeTo(conn *websocket.Conn, writeMu *sync.Mutex, payload []byte) {
	writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := conn.WriteMessage(websocket.TextMessage, payload)
	writeMu.Unlock()
	if err != nil {
		s.logger.Info("dropping client", "addr", conn.RemoteAddr(), "err", err)
		s.removeClient(conn)
	}
}

// removeClient unregisters and closes a connection. Safe to call twice.
func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	_, present := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()
	if present {
		conn.Close()
	}
}

// closeClients drops every connected client during shutdown.
func (s *Server) closeClients() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.clients = make(map[*websocket.Conn]*sync.Mutex)
	s.mu.Unlock()
	for _, conn := range conns {
		conn.Close()
	}
}
