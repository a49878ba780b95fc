// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/papapop/papapop-go/internal/application/container"
	"github.com/papapop/papapop-go/internal/presentation/http/handlers"
	"github.com/papapop/papapop-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	// The storefront runtime treats anything but the expected method as a
	// delivery failure, so unknown methods answer 405 rather than 404.
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "error": "Method not allowed"})
	})

	// Initialize handlers
	configHandlers := handlers.NewConfigHandlers(container.ConfigService, container.Logger)
	trackingHandlers := handlers.NewTrackingHandlers(container.TrackingService, container.Logger)
	quizHandlers := handlers.NewQuizHandlers(container.QuizService, container.Logger)
	captureHandlers := handlers.NewCaptureHandlers(container.CaptureService, container.Logger)
	sysopHandlers := handlers.NewSysOpHandlers(container)

	// Storefront delivery endpoints, open to any merchant origin.
	api := r.Group("/api")
	api.Use(middleware.StorefrontCORSMiddleware())
	{
		api.GET("/popup-config", configHandlers.GetPopupConfig)
		api.POST("/track-event", trackingHandlers.PostTrackEvent)
		api.POST("/submit-quiz-response", quizHandlers.PostQuizResponse)
		api.POST("/capture-email", captureHandlers.PostCaptureEmail)
	}

	// Sysop dashboard endpoints.
	sysopAPI := r.Group("/api/sysop")
	sysopAPI.Use(middleware.SysopCORSMiddleware())
	{
		sysopAPI.GET("/auth", sysopHandlers.AuthCheck)
		sysopAPI.POST("/login", sysopHandlers.Login)

		sysopAPI.Use(sysopHandlers.SysOpAuthMiddleware())
		{
			sysopAPI.GET("/activity", sysopHandlers.GetActivityMetrics)
			sysopAPI.GET("/activity/stream", sysopHandlers.StreamActivity)
			sysopAPI.GET("/logs/levels", sysopHandlers.GetLogLevels)
			sysopAPI.POST("/logs/levels", sysopHandlers.SetLogLevel)
		}
	}

	return r
}
