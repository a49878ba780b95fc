package services

import (
	"fmt"
	"regexp"
	"time"

	"github.com/papapop/papapop-go/internal/domain/events"
	"github.com/papapop/papapop-go/internal/domain/user"
	"github.com/papapop/papapop-go/internal/infrastructure/email"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/popups"
	persistenceuser "github.com/papapop/papapop-go/internal/infrastructure/persistence/user"
	"github.com/papapop/papapop-go/internal/infrastructure/security"
)

var captureEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CaptureService ingests email captures from storefront runtimes.
type CaptureService struct {
	logger       *logging.ChanneledLogger
	captureRepo  *persistenceuser.SQLCaptureRepository
	sessionRepo  *persistenceuser.SQLSessionRepository
	popupRepo    *popups.SQLPopupRepository
	emailService email.Service
}

// NewCaptureService creates a new capture service. The email service may be
// nil; captures still succeed, they just skip the discount email.
func NewCaptureService(logger *logging.ChanneledLogger, captureRepo *persistenceuser.SQLCaptureRepository, sessionRepo *persistenceuser.SQLSessionRepository, popupRepo *popups.SQLPopupRepository, emailService email.Service) *CaptureService {
	return &CaptureService{
		logger:       logger,
		captureRepo:  captureRepo,
		sessionRepo:  sessionRepo,
		popupRepo:    popupRepo,
		emailService: emailService,
	}
}

// CaptureResult reports whether the capture created a new lead or matched
// an existing one.
type CaptureResult struct {
	CaptureID     string
	AlreadyExists bool
}

// Capture stores one email capture, deduplicated on (popupId, email). A
// duplicate succeeds without writing; the storefront shows the same success
// view either way. New captures bump the popup's conversion counter and
// send the discount email off the request path.
func (s *CaptureService) Capture(c *events.EmailCapture, shop string) (*CaptureResult, error) {
	if c.PopupID == "" || c.SessionID == "" || c.Email == "" {
		return nil, fmt.Errorf("popupId, sessionId, and email are required")
	}
	if !captureEmailPattern.MatchString(c.Email) {
		return nil, fmt.Errorf("invalid email address")
	}

	if err := s.sessionRepo.Ensure(c.SessionID, shop, ""); err != nil {
		return nil, err
	}

	existing, err := s.captureRepo.FindByPopupAndEmail(c.PopupID, c.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Popup().Debug("Duplicate capture ignored",
			"popupId", c.PopupID, "email", logging.SanitizeEmail(c.Email))
		return &CaptureResult{CaptureID: existing.ID, AlreadyExists: true}, nil
	}

	capture := &user.Capture{
		ID:            security.GenerateULID(),
		PopupID:       c.PopupID,
		SessionID:     c.SessionID,
		Email:         c.Email,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		QuizData:      c.QuizData,
		DiscountGiven: c.DiscountGiven,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.captureRepo.Store(capture); err != nil {
		return nil, err
	}

	if err := s.popupRepo.IncrementConversions(c.PopupID); err != nil {
		s.logger.Database().Warn("Capture stored but conversion bump failed", "popupId", c.PopupID)
	}

	if s.emailService != nil && c.DiscountGiven != "" {
		go s.sendDiscountEmail(c.Email, shop, c.DiscountGiven)
	}

	return &CaptureResult{CaptureID: capture.ID}, nil
}

func (s *CaptureService) sendDiscountEmail(toEmail, shop, discountCode string) {
	if err := s.emailService.SendDiscountEmail(toEmail, shop, discountCode); err != nil {
		s.logger.Email().Error("Failed to send discount email",
			"error", err.Error(), "email", logging.SanitizeEmail(toEmail))
		return
	}
	s.logger.Email().Info("Discount email sent",
		"email", logging.SanitizeEmail(toEmail), "shop", shop)
}
