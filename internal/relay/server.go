package relay

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	peerBufferSize = 256
	maxMessageSize = 512
)

// Server exposes the coordinator over HTTP:
//
//	GET /ws/:room   websocket upgrade into a room ("random" matchmakes)
//	GET /healthz    room and peer counts
//	GET /metrics    Prometheus metrics
type Server struct {
	coord    *Coordinator
	engine   *gin.Engine
	logger   *log.Logger
	registry *prometheus.Registry
	upgrader websocket.Upgrader
}

// NewServer creates a relay server with its own metrics registry.
func NewServer(cfg CoordinatorConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		coord:    NewCoordinator(cfg, logger, NewMetrics(registry)),
		logger:   logger,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Terminal clients send no Origin; browsers are not a supported client.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.GET("/ws/:room", s.handleWS)
	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	s.engine = r

	return s
}

// Handler returns the HTTP handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Coordinator returns the room coordinator.
func (s *Server) Coordinator() *Coordinator {
	return s.coord
}

// Start begins background room cleanup. ListenAndServe calls it.
func (s *Server) Start() {
	s.coord.Start()
}

// Stop closes every room.
func (s *Server) Stop() {
	s.coord.Stop()
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.Start()
	defer s.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("relay listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down relay")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Hijacked websocket connections are not tracked by Shutdown; Stop closes them.
	s.coord.Stop()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleWS(c *gin.Context) {
	peer := NewPeer(peerBufferSize)

	// Seat before upgrading so refusals are plain HTTP errors.
	room, err := s.coord.Join(c.Param("room"), peer)
	if err != nil {
		status := http.StatusConflict
		switch {
		case errors.Is(err, ErrBadRoomCode):
			status = http.StatusBadRequest
		case errors.Is(err, ErrTooManyRooms), errors.Is(err, ErrStopped):
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "room", room.Code, "err", err)
		s.coord.Leave(peer)
		peer.Close()
		return
	}

	go s.writePump(conn, peer)
	go s.readPump(conn, peer)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"rooms":  s.coord.RoomCount(),
		"peers":  s.coord.PeerCount(),
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
