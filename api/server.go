package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"yt2x/logger"
	"yt2x/state"
	"yt2x/types"
)

// OverrideSink accepts cursor overrides for the running loop.
type OverrideSink interface {
	SubmitOverride(o types.CursorOverride)
}

// NewRouter constructs a Gin engine with registered routes. maxHeartbeatAge bounds how stale
// the loop's liveness signal may be before /api/health reports unhealthy.
func NewRouter(status *state.Manager, overrides OverrideSink, maxHeartbeatAge time.Duration) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	RegisterStatusRoutes(r, status, maxHeartbeatAge)
	RegisterCursorRoutes(r, overrides)
	return r
}

// Server runs the status API next to the poll loop.
type Server struct {
	http   *http.Server
	logger *log.Logger
}

// NewServer binds the router to :port.
func NewServer(port string, handler http.Handler) *Server {
	return &Server{
		http:   &http.Server{Addr: ":" + port, Handler: handler, ReadHeaderTimeout: 10 * time.Second},
		logger: logger.New("api"),
	}
}

// Start serves in the background. Listen errors are logged; the loop keeps running without
// the API.
func (s *Server) Start() {
	s.logger.Printf("Starting API server on %s", s.http.Addr)
	s.logger.Println("API endpoints available:")
	s.logger.Println("  GET  /api/health")
	s.logger.Println("  GET  /api/status")
	s.logger.Println("  POST /api/cursor")

	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("❌ HTTP server error: %v", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
