package services

import (
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/infrastructure/security"
	"github.com/papapop/papapop-go/pkg/config"
)

// AuthService handles sysop authentication and token validation.
type AuthService struct {
	logger *logging.ChanneledLogger
}

// NewAuthService creates a new authentication service.
func NewAuthService(logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{logger: logger}
}

// AuthResult holds authentication result data.
type AuthResult struct {
	Token   string `json:"token"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Authenticate validates the sysop password and mints a token. An empty
// configured password disables the sysop surface entirely.
func (a *AuthService) Authenticate(password string) *AuthResult {
	if config.SysopPassword == "" {
		a.logger.Sysop().Warn("Sysop login attempted but no password is configured")
		return &AuthResult{Success: false, Error: "sysop access is not configured"}
	}

	if !security.VerifyPassword(config.SysopPassword, password) {
		a.logger.Sysop().Warn("Sysop login failed")
		return &AuthResult{Success: false, Error: "invalid credentials"}
	}

	token, err := security.GenerateSysopToken(config.SysopJWTSecret, config.SysopTokenTTL)
	if err != nil {
		a.logger.Sysop().Error("Failed to generate sysop token", "error", err.Error())
		return &AuthResult{Success: false, Error: "token generation failed"}
	}

	a.logger.Sysop().Info("Sysop login succeeded")
	return &AuthResult{Success: true, Token: token}
}

// ValidateToken checks a bearer token minted by Authenticate.
func (a *AuthService) ValidateToken(token string) bool {
	if config.SysopJWTSecret == "" {
		return false
	}
	_, err := security.ValidateSysopToken(token, config.SysopJWTSecret)
	return err == nil
}
