package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Nathansuares/SkySafe/reference"

	"github.com/gin-gonic/gin"
)

// Circulars handles GET /circulars.
func (h *Handlers) Circulars(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "circulars": reference.Circulars()})
}

// AircraftDocuments handles GET /aircraft-documents.
func (h *Handlers) AircraftDocuments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "documents": reference.AircraftDocuments()})
}

// Health reports whether the database answers.
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "ok"})
}
