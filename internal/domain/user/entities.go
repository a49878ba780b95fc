// Package user provides the server-side domain entities for anonymous
// storefront visitors: their sessions and captured leads.
package user

import (
	"time"

	"github.com/papapop/papapop-go/internal/domain/events"
)

// Session is one anonymous browser identity, keyed by the runtime-minted
// session id.
type Session struct {
	SessionID  string
	Shop       string
	DeviceType string
	FirstSeen  time.Time
	LastSeen   time.Time
}

// Capture is one captured lead: the email plus the quiz answers collected
// on the way to the submission.
type Capture struct {
	ID            string
	PopupID       string
	SessionID     string
	Email         string
	FirstName     string
	LastName      string
	QuizData      []events.QuizAnswer
	DiscountGiven string
	CreatedAt     time.Time
}
