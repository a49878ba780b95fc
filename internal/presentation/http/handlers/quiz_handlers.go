package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/papapop/papapop-go/internal/application/services"
	"github.com/papapop/papapop-go/internal/domain/events"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
)

// QuizHandlers ingests quiz responses from storefront runtimes.
type QuizHandlers struct {
	quizService *services.QuizService
	logger      *logging.ChanneledLogger
}

// NewQuizHandlers creates new quiz handlers.
func NewQuizHandlers(quizService *services.QuizService, logger *logging.ChanneledLogger) *QuizHandlers {
	return &QuizHandlers{
		quizService: quizService,
		logger:      logger,
	}
}

// PostQuizResponse handles POST /api/submit-quiz-response.
func (h *QuizHandlers) PostQuizResponse(c *gin.Context) {
	var resp events.QuizResponse
	if err := c.ShouldBindJSON(&resp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}
	if resp.PopupID == "" || resp.SessionID == "" || resp.QuestionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing required fields: popupId, sessionId, questionId"})
		return
	}
	if resp.Question == "" || len(resp.SelectedAnswers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing required fields: question, selectedAnswers"})
		return
	}

	id, err := h.quizService.StoreResponse(&resp)
	if err != nil {
		h.logger.Delivery().Error("Failed to ingest quiz response",
			"error", err.Error(), "popupId", resp.PopupID)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store quiz response"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}
