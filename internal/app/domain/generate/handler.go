package generate

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/decisionjar/backend/internal/app/middleware"
	"github.com/decisionjar/backend/internal/app/models"
)

// Handler exposes the orchestrator over HTTP.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ideas/bulk-generate", h.BulkGenerate)
}

// BulkGenerate handles POST /ideas/bulk-generate.
func (h *Handler) BulkGenerate(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.BulkGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.service.BulkGenerate(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if result.Preview {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"preview": true,
			"ideas":   result.Candidates,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(result.Persisted),
		"jarId":   result.JarID,
		"ideas":   result.Persisted,
	})
}

// writeError maps the error taxonomy onto one JSON envelope per status.
func (h *Handler) writeError(c *gin.Context, err error) {
	var upgrade *models.UpgradeRequiredError
	switch {
	case errors.As(err, &upgrade):
		c.JSON(http.StatusForbidden, gin.H{
			"error": upgrade.Error(),
			"code":  "UPGRADE_REQUIRED",
			"limit": upgrade.Limit,
			"usage": upgrade.Usage,
		})
	case errors.Is(err, models.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, models.ErrNoActiveJar),
		errors.Is(err, models.ErrJarNotFound),
		errors.Is(err, models.ErrNotJarMember),
		errors.Is(err, models.ErrMissingInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidAIResponse):
		h.logger.Error("Bulk generation produced unparseable output", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate ideas, please try again"})
	default:
		h.logger.Error("Bulk generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate ideas"})
	}
}
