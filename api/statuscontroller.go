package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"yt2x/state"
)

// RegisterStatusRoutes registers the liveness and status endpoints.
func RegisterStatusRoutes(r *gin.Engine, status *state.Manager, maxHeartbeatAge time.Duration) {
	g := r.Group("/api")
	g.GET("/health", func(c *gin.Context) {
		s := status.GetStatus()
		if !status.Healthy(maxHeartbeatAge) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":         "stale",
				"last_heartbeat": s.LastHeartbeat,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"state":          s.State,
			"last_heartbeat": s.LastHeartbeat,
		})
	})
	g.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, status.GetStatus())
	})
}
