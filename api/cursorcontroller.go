package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"yt2x/types"
)

// CursorOverrideRequest asks the loop to treat item_id as the last published item.
type CursorOverrideRequest struct {
	ItemID      string `json:"item_id" binding:"required"`
	RequestedBy string `json:"requested_by"`
}

// RegisterCursorRoutes registers the cursor override endpoint.
func RegisterCursorRoutes(r *gin.Engine, sink OverrideSink) {
	r.POST("/api/cursor", func(c *gin.Context) {
		var req CursorOverrideRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		id := strings.TrimSpace(req.ItemID)
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "item_id is required"})
			return
		}
		by := req.RequestedBy
		if by == "" {
			by = "api"
		}

		sink.SubmitOverride(types.CursorOverride{ItemID: id, RequestedBy: by, RequestedAt: time.Now()})
		c.JSON(http.StatusAccepted, gin.H{
			"status":  "queued",
			"item_id": id,
			"message": "override applies at the start of the next cycle",
		})
	})
}
