// Package server exposes a session over a WebSocket JSON-RPC channel.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/copyflow-project/copyflow/internal/session"
	"github.com/copyflow-project/copyflow/pkg/logging"
	"github.com/copyflow-project/copyflow/pkg/metrics"
	"github.com/copyflow-project/copyflow/pkg/webhook"
)

// Server serves /ws, /healthz and /metrics.
type Server struct {
	sess     *session.Session
	log      *logging.Logger
	metrics  *metrics.Registry
	hooks    *webhook.Client
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	// ctx bounds background generations and audits.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	clients []*wsClient
	unsub   func()
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// New creates a server for sess and starts forwarding session events to
// connected clients.
func New(sess *session.Session, log *logging.Logger, reg *metrics.Registry, opts ...Option) *Server {
	if log == nil {
		log = logging.Global()
	}
	if reg == nil {
		reg = metrics.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		sess:    sess,
		log:     log,
		metrics: reg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.Handle("/metrics", reg.Handler())
	s.unsub = sess.Subscribe(func(ev session.Event) {
		s.Broadcast("event", ev)
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close stops background work and detaches from the session.
func (s *Server) Close() {
	s.cancel()
	s.unsub()
	s.mu.Lock()
	clients := append([]*wsClient(nil), s.clients...)
	s.mu.Unlock()
	for _, c := range clients {
		c.conn.Close()
	}
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("server listening", map[string]any{"addr": addr})

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}
	client := &wsClient{conn: conn}
	s.mu.Lock()
	s.clients = append(s.clients, client)
	s.mu.Unlock()
	s.log.Debug("client connected", map[string]any{"remote": r.RemoteAddr})

	defer func() {
		conn.Close()
		s.mu.Lock()
		for i, c := range s.clients {
			if c == client {
				s.clients = append(s.clients[:i], s.clients[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		s.log.Debug("client disconnected", map[string]any{"remote": r.RemoteAddr})
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req rpcRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			data, _ := json.Marshal(rpcResponse{Error: &rpcError{Code: codeParseError, Message: err.Error()}})
			_ = client.write(data)
			continue
		}
		resp := s.handleRPC(req)
		data, err := json.Marshal(resp)
		if err != nil {
			s.log.ErrorErr("marshal rpc response", err, map[string]any{"method": req.Method})
			continue
		}
		if err := client.write(data); err != nil {
			return
		}
	}
}

// Broadcast sends a notification to all connected clients.
func (s *Server) Broadcast(method string, params any) {
	msg, err := json.Marshal(map[string]any{
		"method": method,
		"params": params,
	})
	if err != nil {
		return
	}
	s.mu.Lock()
	clients := append([]*wsClient(nil), s.clients...)
	s.mu.Unlock()

	for _, c := range clients {
		_ = c.write(msg)
	}
}
