// Package session provides the popup session state machine: one instance
// per active popup, from render through the multi-step flow to completion
// or dismissal. The machine is pure state; rendering subscribes to its
// transitions, and every user-facing transition is optimistic so the
// shopper never waits on the network.
package session

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/papapop/papapop-go/internal/domain/entities/popup"
	"github.com/papapop/papapop-go/internal/domain/events"
	"github.com/papapop/papapop-go/internal/runtime/clock"
	"github.com/papapop/papapop-go/pkg/config"
)

// Status is the lifecycle state of a popup session.
type Status string

const (
	StatusRendering  Status = "rendering"
	StatusActive     Status = "active"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusClosed     Status = "closed"
)

// ErrInvalidEmail is returned on a submission that fails client-side
// validation. It is non-fatal: the session state does not change.
var ErrInvalidEmail = errors.New("invalid email address")

// ErrNotActive is returned when an interaction arrives outside the active
// state.
var ErrNotActive = errors.New("popup session is not active")

// emailPattern is deliberately permissive: local-part@domain.tld. The
// server validates independently.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Sink receives the records a session produces. The manager implements it
// over the durable outbox.
type Sink interface {
	EnqueueQuizResponse(resp events.QuizResponse)
	EnqueueEmailCapture(capture events.EmailCapture)
	TrackEvent(popupID, event string, detail events.EventDetail)
}

// Listener observes session changes (status transitions and step advances).
type Listener func(s *PopupSession)

// StepKind tells the presentation layer what to render.
type StepKind string

const (
	KindQuiz    StepKind = "quiz"
	KindEmail   StepKind = "email"
	KindSuccess StepKind = "success"
)

// View is the renderable snapshot of a session.
type View struct {
	Kind         StepKind
	Step         *popup.Step
	StepIndex    int
	StepCount    int
	Heading      string
	Description  string
	ButtonText   string
	DiscountCode string
}

// PopupSession owns one popup's lifecycle. It is in-memory only and is
// destroyed when the flow completes or the user dismisses it.
type PopupSession struct {
	def       popup.Definition
	sessionID string
	sink      Sink
	clk       clock.Clock
	onRemove  func()

	mu          sync.Mutex
	status      Status
	currentStep int
	answers     []events.QuizAnswer
	listeners   []Listener
	closeTimer  clock.Timer
}

// New creates a session in the rendering state.
func New(def popup.Definition, sessionID string, sink Sink, clk clock.Clock, onRemove func()) *PopupSession {
	return &PopupSession{
		def:       def,
		sessionID: sessionID,
		sink:      sink,
		clk:       clk,
		onRemove:  onRemove,
		status:    StatusRendering,
	}
}

// Subscribe registers a listener for session changes.
func (s *PopupSession) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Definition returns the definition this session renders.
func (s *PopupSession) Definition() popup.Definition { return s.def }

// Status returns the current lifecycle state.
func (s *PopupSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CurrentStep returns the 0-based step index. It only ever increases.
func (s *PopupSession) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentStep
}

// Answers returns a copy of the collected quiz answers.
func (s *PopupSession) Answers() []events.QuizAnswer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.QuizAnswer, len(s.answers))
	copy(out, s.answers)
	return out
}

// Activate transitions rendering -> active once the presentation layer has
// mounted the popup.
func (s *PopupSession) Activate() {
	s.mu.Lock()
	if s.status != StatusRendering {
		s.mu.Unlock()
		return
	}
	s.status = StatusActive
	s.mu.Unlock()
	s.notify()
}

// View returns what the presentation layer should render for the current
// state: a quiz step, an email form (step-specific or the definition-level
// fallback), or the success view.
func (s *PopupSession) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusSuccess {
		return View{
			Kind:         KindSuccess,
			DiscountCode: s.def.DiscountCode,
			StepIndex:    s.currentStep,
			StepCount:    len(s.def.Steps),
		}
	}

	if s.def.PopupType == popup.TypeMultiStep {
		if step := s.def.StepAt(s.currentStep); step != nil {
			switch step.Type {
			case popup.StepQuiz:
				return View{
					Kind:      KindQuiz,
					Step:      step,
					StepIndex: s.currentStep,
					StepCount: len(s.def.Steps),
					Heading:   step.Question,
				}
			case popup.StepEmail:
				buttonText := step.ButtonText
				if buttonText == "" {
					buttonText = "Submit"
				}
				return View{
					Kind:        KindEmail,
					Step:        step,
					StepIndex:   s.currentStep,
					StepCount:   len(s.def.Steps),
					Heading:     step.Heading,
					Description: step.Description,
					ButtonText:  buttonText,
				}
			}
		}
	}

	// Single-step popups, unknown step types, and a step index past the end
	// all render the definition-level email capture form.
	return View{
		Kind:        KindEmail,
		StepIndex:   s.currentStep,
		StepCount:   len(s.def.Steps),
		Heading:     s.def.Heading,
		Description: s.def.Description,
		ButtonText:  s.def.ButtonText,
	}
}

// SelectAnswer records a quiz answer, enqueues the quiz-response and
// interaction records, and advances to the next step immediately. No
// network round trip gates the advance.
func (s *PopupSession) SelectAnswer(answer string) error {
	s.mu.Lock()
	if s.status != StatusActive {
		s.mu.Unlock()
		return ErrNotActive
	}
	step := s.def.StepAt(s.currentStep)
	if step == nil || step.Type != popup.StepQuiz {
		s.mu.Unlock()
		return fmt.Errorf("step %d is not a quiz step", s.currentStep)
	}

	stepIndex := s.currentStep
	questionID := step.ID
	if questionID == "" {
		questionID = fmt.Sprintf("%d", stepIndex)
	}

	s.answers = append(s.answers, events.QuizAnswer{
		QuestionID: questionID,
		Question:   step.Question,
		Answer:     answer,
		StepOrder:  stepIndex,
	})
	s.currentStep++
	s.mu.Unlock()

	now := s.clk.Now().UnixMilli()
	s.sink.EnqueueQuizResponse(events.QuizResponse{
		PopupID:         s.def.ID,
		SessionID:       s.sessionID,
		QuestionID:      questionID,
		Question:        step.Question,
		SelectedAnswers: []string{answer},
		StepOrder:       stepIndex,
		Timestamp:       now,
	})
	s.sink.TrackEvent(s.def.ID, events.EventInteraction, events.EventDetail{
		StepNumber: &stepIndex,
		Action:     "quiz_answer",
		Value:      answer,
	})

	s.notify()
	return nil
}

// SubmitEmail validates the address and, when valid, transitions to success
// immediately: the shopper sees the thank-you view before the network
// confirms. The email-capture record carries the address, the accumulated
// quiz answers, and the definition's discount code.
func (s *PopupSession) SubmitEmail(email string) error {
	s.mu.Lock()
	if s.status != StatusActive {
		s.mu.Unlock()
		return ErrNotActive
	}
	if !emailPattern.MatchString(email) {
		s.mu.Unlock()
		return ErrInvalidEmail
	}

	s.status = StatusSubmitting
	stepIndex := s.currentStep
	answers := make([]events.QuizAnswer, len(s.answers))
	copy(answers, s.answers)
	s.mu.Unlock()
	s.notify()

	s.mu.Lock()
	s.status = StatusSuccess
	s.closeTimer = s.clk.AfterFunc(config.SuccessAutoClose, s.autoClose)
	s.mu.Unlock()

	now := s.clk.Now().UnixMilli()
	s.sink.EnqueueEmailCapture(events.EmailCapture{
		PopupID:       s.def.ID,
		SessionID:     s.sessionID,
		Email:         email,
		QuizData:      answers,
		DiscountGiven: s.def.DiscountCode,
		Timestamp:     now,
	})
	hasQuizData := len(answers) > 0
	s.sink.TrackEvent(s.def.ID, events.EventConversion, events.EventDetail{
		StepNumber:  &stepIndex,
		Email:       email,
		HasQuizData: &hasQuizData,
	})

	s.notify()
	return nil
}

// Close handles an explicit dismissal (close control or overlay click) at
// any state: it enqueues a close analytics record and transitions to the
// terminal closed state.
func (s *PopupSession) Close() {
	s.mu.Lock()
	if s.status == StatusClosed {
		s.mu.Unlock()
		return
	}
	s.status = StatusClosed
	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}
	s.mu.Unlock()

	s.sink.TrackEvent(s.def.ID, events.EventClose, events.EventDetail{})
	s.notify()
	if s.onRemove != nil {
		s.onRemove()
	}
}

// autoClose ends the session after the success view has been shown. Unlike
// an explicit Close it emits no close record.
func (s *PopupSession) autoClose() {
	s.mu.Lock()
	if s.status != StatusSuccess {
		s.mu.Unlock()
		return
	}
	s.status = StatusClosed
	s.mu.Unlock()

	s.notify()
	if s.onRemove != nil {
		s.onRemove()
	}
}

func (s *PopupSession) notify() {
	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(s)
	}
}
