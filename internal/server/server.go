// Package server exposes the room manager over HTTP and websockets.
package server

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lunablock/lunablock-server/internal/config"
	"github.com/lunablock/lunablock-server/internal/room"
	"github.com/lunablock/lunablock-server/internal/session"
)

// Server routes HTTP requests and websocket frames to the room manager.
type Server struct {
	cfg      config.ServerConfig
	hub      *Hub
	rooms    *room.Manager
	identity *session.Registry
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// New creates a server. The hub must be the notifier the room manager was
// built with.
func New(cfg config.ServerConfig, hub *Hub, rooms *room.Manager, identity *session.Registry, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		hub:      hub,
		rooms:    rooms,
		identity: identity,
		logger:   logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(s.corsHandler())

	mux.Get("/", s.handleRoot)
	mux.Get("/rooms", s.handleListRooms)
	mux.Get("/ws", s.handleWebsocket)

	return mux
}

func (s *Server) allowAnyOrigin() bool {
	return len(s.cfg.AllowedOrigins) == 0 || slices.Contains(s.cfg.AllowedOrigins, "*")
}

func (s *Server) corsHandler() func(http.Handler) http.Handler {
	if s.allowAnyOrigin() {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.allowAnyOrigin() {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, origin)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Luna-Block backend is running"))
}

func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.rooms.ListRooms()); err != nil {
		s.logger.Warn("failed to write room list", zap.Error(err))
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(uuid.NewString(), conn, s.cfg, s.logger)
	s.hub.register(client)
	s.logger.Info("client connected",
		zap.String("conn_id", client.id),
		zap.String("remote_addr", r.RemoteAddr),
	)

	go client.writePump()
	go func() {
		defer s.disconnect(client)
		client.readPump(func(frame []byte) {
			s.dispatch(client.id, frame)
		})
	}()
}

func (s *Server) disconnect(c *Client) {
	s.hub.unregister(c.id)
	s.rooms.Disconnect(c.id)
	c.conn.Close()
	s.logger.Info("client disconnected", zap.String("conn_id", c.id))
}
