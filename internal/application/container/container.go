// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/papapop/papapop-go/internal/application/services"
	"github.com/papapop/papapop-go/internal/infrastructure/email"
	"github.com/papapop/papapop-go/internal/infrastructure/messaging"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/analytics"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/database"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/popups"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/user"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Infrastructure
	Logger      *logging.ChanneledLogger
	DB          *database.DB
	Broadcaster *messaging.ActivityBroadcaster

	// Repositories
	PopupRepo   *popups.SQLPopupRepository
	SessionRepo *user.SQLSessionRepository
	CaptureRepo *user.SQLCaptureRepository
	EventRepo   *analytics.SQLEventRepository

	// Application services
	ConfigService   *services.ConfigService
	TrackingService *services.TrackingService
	QuizService     *services.QuizService
	CaptureService  *services.CaptureService
	AuthService     *services.AuthService
}

// NewContainer creates and wires all singleton services
func NewContainer(logger *logging.ChanneledLogger, db *database.DB, emailService email.Service) *Container {
	popupRepo := popups.NewSQLPopupRepository(db, logger)
	sessionRepo := user.NewSQLSessionRepository(db, logger)
	captureRepo := user.NewSQLCaptureRepository(db, logger)
	eventRepo := analytics.NewSQLEventRepository(db, logger)

	return &Container{
		Logger:      logger,
		DB:          db,
		Broadcaster: messaging.NewActivityBroadcaster(sessionRepo, eventRepo, logger),

		PopupRepo:   popupRepo,
		SessionRepo: sessionRepo,
		CaptureRepo: captureRepo,
		EventRepo:   eventRepo,

		ConfigService:   services.NewConfigService(logger, popupRepo),
		TrackingService: services.NewTrackingService(logger, eventRepo, popupRepo, sessionRepo),
		QuizService:     services.NewQuizService(logger, eventRepo, sessionRepo),
		CaptureService:  services.NewCaptureService(logger, captureRepo, sessionRepo, popupRepo, emailService),
		AuthService:     services.NewAuthService(logger),
	}
}
