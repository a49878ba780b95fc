package services

import (
	"fmt"

	"github.com/papapop/papapop-go/internal/domain/events"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/analytics"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/user"
)

// QuizService ingests quiz responses from storefront runtimes.
type QuizService struct {
	logger      *logging.ChanneledLogger
	eventRepo   *analytics.SQLEventRepository
	sessionRepo *user.SQLSessionRepository
}

// NewQuizService creates a new quiz service.
func NewQuizService(logger *logging.ChanneledLogger, eventRepo *analytics.SQLEventRepository, sessionRepo *user.SQLSessionRepository) *QuizService {
	return &QuizService{
		logger:      logger,
		eventRepo:   eventRepo,
		sessionRepo: sessionRepo,
	}
}

// StoreResponse validates and stores one quiz response, returning the
// stored response id.
func (s *QuizService) StoreResponse(resp *events.QuizResponse) (string, error) {
	if resp.PopupID == "" || resp.SessionID == "" || resp.QuestionID == "" {
		return "", fmt.Errorf("popupId, sessionId, and questionId are required")
	}
	if resp.Question == "" || len(resp.SelectedAnswers) == 0 {
		return "", fmt.Errorf("question and selectedAnswers are required")
	}

	if err := s.sessionRepo.Ensure(resp.SessionID, "", ""); err != nil {
		return "", err
	}
	return s.eventRepo.StoreQuizResponse(resp)
}
