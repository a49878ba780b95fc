package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/papapop/papapop-go/internal/application/services"
	"github.com/papapop/papapop-go/internal/domain/events"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
)

// TrackingHandlers ingests analytics events from storefront runtimes.
type TrackingHandlers struct {
	trackingService *services.TrackingService
	logger          *logging.ChanneledLogger
}

// NewTrackingHandlers creates new tracking handlers.
func NewTrackingHandlers(trackingService *services.TrackingService, logger *logging.ChanneledLogger) *TrackingHandlers {
	return &TrackingHandlers{
		trackingService: trackingService,
		logger:          logger,
	}
}

// PostTrackEvent handles POST /api/track-event.
func (h *TrackingHandlers) PostTrackEvent(c *gin.Context) {
	var ev events.AnalyticsEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}
	if ev.PopupID == "" || ev.Event == "" || ev.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing required fields: popupId, event, sessionId"})
		return
	}

	id, err := h.trackingService.TrackEvent(&ev)
	if err != nil {
		h.logger.Delivery().Error("Failed to ingest analytics event",
			"error", err.Error(), "popupId", ev.PopupID, "event", ev.Event)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to track event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}
