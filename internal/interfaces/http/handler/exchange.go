package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/application/exchange"
	"github.com/pos/backend/internal/infrastructure/migration"
)

// ExchangeHandler exposes the import and export endpoints
type ExchangeHandler struct {
	BaseHandler
	exporter  *exchange.Exporter
	importer  *exchange.Importer
	validator *migration.Validator
	logger    *zap.Logger
}

// NewExchangeHandler creates a new ExchangeHandler
func NewExchangeHandler(
	exporter *exchange.Exporter,
	importer *exchange.Importer,
	validator *migration.Validator,
	logger *zap.Logger,
) *ExchangeHandler {
	return &ExchangeHandler{
		exporter:  exporter,
		importer:  importer,
		validator: validator,
		logger:    logger.Named("http.exchange"),
	}
}

// RegisterRoutes registers export and import routes
func (h *ExchangeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/export/:scope", h.Export)
	rg.POST("/import", h.Import)
}

// Export runs an export of the requested scope and returns the result
// with the path of the written file
func (h *ExchangeHandler) Export(c *gin.Context) {
	scope := exchange.Scope(c.Param("scope"))
	if scope == "all" {
		scope = exchange.ScopeComplete
	}

	result, err := h.exporter.Export(c.Request.Context(), scope, h.logProgress("export"))
	if err != nil {
		h.logger.Error("Export failed", zap.String("scope", string(scope)), zap.Error(err))
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// importRequest accepts either a bare data set or a full export envelope
type importRequest struct {
	Data exchange.DataSet `json:"data"`
}

// Import applies an incoming batch and runs the integrity validator over
// the store afterwards
func (h *ExchangeHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid import payload: "+err.Error())
		return
	}

	result, err := h.importer.Import(c.Request.Context(), &req.Data, h.logProgress("import"))
	if err != nil {
		h.logger.Error("Import failed", zap.Error(err))
		h.HandleDomainError(c, err)
		return
	}

	report, err := h.validator.Validate(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{
		"result":    result,
		"integrity": report,
	})
}

// logProgress surfaces pipeline progress in the log so long batches do
// not run silently
func (h *ExchangeHandler) logProgress(operation string) exchange.ProgressFunc {
	return func(p exchange.Progress) {
		h.logger.Debug("Pipeline progress",
			zap.String("operation", operation),
			zap.String("stage", p.Stage),
			zap.Int("current", p.Current),
			zap.Int("total", p.Total),
			zap.Float64("percentage", p.Percentage),
		)
	}
}
