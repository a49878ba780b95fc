// Package events defines the interaction records the storefront runtime
// produces and the durable outbox delivers.
package events

import "encoding/json"

// RecordType classifies a queued unit of work. Each type maps to one
// delivery endpoint.
type RecordType string

const (
	RecordAnalytics    RecordType = "analytics"
	RecordEmailCapture RecordType = "email-capture"
	RecordQuizResponse RecordType = "quiz-response"
)

// Analytics event names emitted over the popup lifecycle.
const (
	EventView        = "view"
	EventInteraction = "interaction"
	EventConversion  = "conversion"
	EventClose       = "close"
)

// OutboxRecord is a durable queued unit of work. Records persist as a JSON
// array; the payload is delivered as-is.
type OutboxRecord struct {
	ID        string          `json:"id"`
	Type      RecordType      `json:"type"`
	Payload   json.RawMessage `json:"data"`
	Attempts  int             `json:"retries"`
	Timestamp int64           `json:"timestamp"` // enqueue time, unix milliseconds
}

// AnalyticsEvent is the track-event payload. The envelope fields are filled
// by the manager; the optional fields carry per-event detail.
type AnalyticsEvent struct {
	PopupID    string `json:"popupId"`
	Event      string `json:"event"`
	SessionID  string `json:"sessionId"`
	Timestamp  int64  `json:"timestamp"`
	PageURL    string `json:"pageUrl"`
	PageType   string `json:"pageType"`
	DeviceType string `json:"deviceType"`

	StepNumber  *int   `json:"stepNumber,omitempty"`
	Action      string `json:"action,omitempty"`
	Value       string `json:"value,omitempty"`
	Email       string `json:"email,omitempty"`
	HasQuizData *bool  `json:"hasQuizData,omitempty"`
}

// EventDetail carries the optional per-event fields a session attaches when
// tracking an interaction or conversion.
type EventDetail struct {
	StepNumber  *int
	Action      string
	Value       string
	Email       string
	HasQuizData *bool
}

// QuizAnswer is one collected answer, kept in-session and echoed with the
// final email capture.
type QuizAnswer struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	StepOrder  int    `json:"stepOrder"`
}

// QuizResponse is the submit-quiz-response payload.
type QuizResponse struct {
	PopupID         string   `json:"popupId"`
	SessionID       string   `json:"sessionId"`
	QuestionID      string   `json:"questionId"`
	Question        string   `json:"question"`
	SelectedAnswers []string `json:"selectedAnswers"`
	ResponseTime    *int64   `json:"responseTime"`
	StepOrder       int      `json:"stepOrder"`
	Timestamp       int64    `json:"timestamp"`
}

// EmailCapture is the capture-email payload.
type EmailCapture struct {
	PopupID       string       `json:"popupId"`
	SessionID     string       `json:"sessionId"`
	Email         string       `json:"email"`
	FirstName     string       `json:"firstName,omitempty"`
	LastName      string       `json:"lastName,omitempty"`
	QuizData      []QuizAnswer `json:"quizData,omitempty"`
	DiscountGiven string       `json:"discountGiven,omitempty"`
	Timestamp     int64        `json:"timestamp"`
}
