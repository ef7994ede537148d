package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pos/backend/internal/infrastructure/persistence"
)

// SystemHandler exposes health endpoints
type SystemHandler struct {
	BaseHandler
	db *persistence.Database
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *persistence.Database) *SystemHandler {
	return &SystemHandler{db: db}
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// Health reports whether the store is reachable
func (h *SystemHandler) Health(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		h.InternalError(c, "Store unreachable")
		return
	}
	h.Success(c, gin.H{"status": "ok"})
}
