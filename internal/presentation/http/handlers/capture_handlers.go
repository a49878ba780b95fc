package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/papapop/papapop-go/internal/application/services"
	"github.com/papapop/papapop-go/internal/domain/events"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
)

// CaptureHandlers ingests email captures from storefront runtimes.
type CaptureHandlers struct {
	captureService *services.CaptureService
	logger         *logging.ChanneledLogger
}

// NewCaptureHandlers creates new capture handlers.
func NewCaptureHandlers(captureService *services.CaptureService, logger *logging.ChanneledLogger) *CaptureHandlers {
	return &CaptureHandlers{
		captureService: captureService,
		logger:         logger,
	}
}

type captureRequest struct {
	events.EmailCapture
	Shop string `json:"shop"`
}

// PostCaptureEmail handles POST /api/capture-email. Duplicate submissions
// for the same popup and email succeed without creating a second lead.
func (h *CaptureHandlers) PostCaptureEmail(c *gin.Context) {
	var req captureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}
	if req.PopupID == "" || req.SessionID == "" || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing required fields: popupId, sessionId, email"})
		return
	}

	result, err := h.captureService.Capture(&req.EmailCapture, req.Shop)
	if err != nil {
		if strings.Contains(err.Error(), "invalid email") {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid email address"})
			return
		}
		h.logger.Delivery().Error("Failed to ingest email capture",
			"error", err.Error(), "popupId", req.PopupID)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to capture email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"id":            result.CaptureID,
		"alreadyExists": result.AlreadyExists,
	})
}
