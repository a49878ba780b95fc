// Package handlers provides HTTP handlers for the presentation layer.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/papapop/papapop-go/internal/application/services"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/pkg/config"
)

// ConfigHandlers serves popup configurations to storefront runtimes.
type ConfigHandlers struct {
	configService *services.ConfigService
	logger        *logging.ChanneledLogger
}

// NewConfigHandlers creates new config handlers.
func NewConfigHandlers(configService *services.ConfigService, logger *logging.ChanneledLogger) *ConfigHandlers {
	return &ConfigHandlers{
		configService: configService,
		logger:        logger,
	}
}

// GetPopupConfig handles GET /api/popup-config?shop=<domain>. Responses are
// cacheable: short at the browser, longer at the CDN.
func (h *ConfigHandlers) GetPopupConfig(c *gin.Context) {
	shop := c.Query("shop")
	if shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing shop parameter"})
		return
	}

	defs, err := h.configService.GetActivePopups(shop)
	if err != nil {
		h.logger.Config().Error("Failed to load popup config", "error", err.Error(), "shop", shop)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to load popup configuration"})
		return
	}

	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d, s-maxage=%d",
		config.ConfigCacheMaxAge, config.ConfigCacheSharedMaxAge))
	c.JSON(http.StatusOK, gin.H{"success": true, "configs": defs})
}
