package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/infrastructure/migration"
)

// MigrationHandler exposes the schema migration and integrity endpoints
type MigrationHandler struct {
	BaseHandler
	migrator  *migration.Migrator
	validator *migration.Validator
	logger    *zap.Logger
}

// NewMigrationHandler creates a new MigrationHandler
func NewMigrationHandler(migrator *migration.Migrator, validator *migration.Validator, logger *zap.Logger) *MigrationHandler {
	return &MigrationHandler{
		migrator:  migrator,
		validator: validator,
		logger:    logger.Named("http.migration"),
	}
}

// RegisterRoutes registers migration routes
func (h *MigrationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/migration")
	group.POST("/run", h.Run)
	group.GET("/status", h.Status)

	rg.GET("/integrity", h.Integrity)
}

// Run executes the schema migration. Running against an already
// migrated store is a no-op reported as such.
func (h *MigrationHandler) Run(c *gin.Context) {
	result, err := h.migrator.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("Migration failed", zap.Error(err))
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Status reports whether the store has been migrated to UUID keys
func (h *MigrationHandler) Status(c *gin.Context) {
	complete, err := h.migrator.IsComplete(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, gin.H{"migrated": complete})
}

// Integrity runs the integrity validator on demand
func (h *MigrationHandler) Integrity(c *gin.Context) {
	report, err := h.validator.Validate(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, report)
}
