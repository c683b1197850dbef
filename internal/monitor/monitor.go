// Package monitor exposes an optional HTTP surface for observing the
// converter: a health endpoint and a websocket feed of decoded frames.
// It is strictly a spectator: the stream core never waits on it.
package monitor

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/shenghaoyang/ola-video-convert/internal/pubsub"
)

// Server serves the monitor endpoints.
type Server struct {
	httpServer *http.Server
	ps         *pubsub.PubSub
	upgrader   websocket.Upgrader
}

// NewServer builds a monitor server on the given port, fed by ps.
func NewServer(port int, corsOrigin string, ps *pubsub.PubSub) *Server {
	s := &Server{
		ps: ps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // origin policy is handled by the CORS layer
			},
		},
	}

	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{corsOrigin},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})
	router.Use(corsMiddleware.Handler)

	router.Get("/health", s.healthHandler)
	router.Get("/ws", s.wsHandler)

	s.httpServer = &http.Server{
		Addr:        ":" + strconv.Itoa(port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		log.Printf("Monitor listening on http://localhost%s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Monitor server error: %v", err)
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// healthHandler reports the server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := fmt.Sprintf(`{
  "status": "ok",
  "timestamp": "%s"
}`, time.Now().UTC().Format(time.RFC3339))

	_, _ = w.Write([]byte(response))
}

// wsHandler upgrades the connection and streams one JSON document per
// decoded universe, plus geometry change notices. An optional
// ?universe=N query restricts the feed to a single universe.
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	filter := r.URL.Query().Get("universe")

	frames := s.ps.Subscribe(pubsub.TopicFrameDecoded, filter, 64)
	defer s.ps.Unsubscribe(frames)
	geometry := s.ps.Subscribe(pubsub.TopicGeometryChanged, "", 4)
	defer s.ps.Unsubscribe(geometry)

	// Drain the client side so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg := <-frames.Channel:
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case msg := <-geometry.Channel:
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
