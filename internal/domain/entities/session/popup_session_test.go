package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapop/papapop-go/internal/domain/entities/popup"
	"github.com/papapop/papapop-go/internal/domain/events"
	"github.com/papapop/papapop-go/internal/runtime/clock"
)

type fakeSink struct {
	quizResponses []events.QuizResponse
	captures      []events.EmailCapture
	tracked       []string
}

func (s *fakeSink) EnqueueQuizResponse(resp events.QuizResponse) {
	s.quizResponses = append(s.quizResponses, resp)
}

func (s *fakeSink) EnqueueEmailCapture(capture events.EmailCapture) {
	s.captures = append(s.captures, capture)
}

func (s *fakeSink) TrackEvent(popupID, event string, detail events.EventDetail) {
	s.tracked = append(s.tracked, event)
}

func multiStepDefinition() popup.Definition {
	return popup.Definition{
		ID:           "pop-1",
		PopupType:    popup.TypeMultiStep,
		TriggerType:  popup.TriggerDelay,
		DiscountCode: "SAVE10",
		Heading:      "Get a discount",
		ButtonText:   "Unlock",
		Steps: []popup.Step{
			{ID: "q1", Type: popup.StepQuiz, Question: "Favorite color?", Options: []string{"Red", "Blue"}},
			{Type: popup.StepEmail, Heading: "Almost there", ButtonText: "Get my code"},
		},
	}
}

func newTestSession(t *testing.T, def popup.Definition) (*PopupSession, *fakeSink, *clock.Fake) {
	t.Helper()
	sink := &fakeSink{}
	clk := clock.NewFake(time.Unix(1700000000, 0))
	s := New(def, "pp_test", sink, clk, nil)
	s.Activate()
	require.Equal(t, StatusActive, s.Status())
	return s, sink, clk
}

func TestSelectAnswerAdvancesImmediately(t *testing.T) {
	s, sink, _ := newTestSession(t, multiStepDefinition())

	require.NoError(t, s.SelectAnswer("Blue"))

	// The step advances before any delivery happens.
	assert.Equal(t, 1, s.CurrentStep())
	assert.Equal(t, StatusActive, s.Status())

	require.Len(t, sink.quizResponses, 1)
	resp := sink.quizResponses[0]
	assert.Equal(t, "q1", resp.QuestionID)
	assert.Equal(t, []string{"Blue"}, resp.SelectedAnswers)
	assert.Equal(t, 0, resp.StepOrder)

	require.Len(t, sink.tracked, 1)
	assert.Equal(t, events.EventInteraction, sink.tracked[0])
}

func TestSelectAnswerRejectedOutsideQuizStep(t *testing.T) {
	s, _, _ := newTestSession(t, multiStepDefinition())

	require.NoError(t, s.SelectAnswer("Red"))
	// Step 1 is the email step.
	assert.Error(t, s.SelectAnswer("Red"))
	assert.Equal(t, 1, s.CurrentStep())
}

func TestSubmitEmailInvalidKeepsState(t *testing.T) {
	s, sink, _ := newTestSession(t, multiStepDefinition())
	require.NoError(t, s.SelectAnswer("Red"))

	for _, email := range []string{"", "nope", "a@b", "two words@x.com", "a@@b.com "} {
		err := s.SubmitEmail(email)
		assert.ErrorIs(t, err, ErrInvalidEmail, "email %q", email)
	}

	assert.Equal(t, StatusActive, s.Status())
	assert.Empty(t, sink.captures)
}

func TestSubmitEmailSuccessFlow(t *testing.T) {
	s, sink, clk := newTestSession(t, multiStepDefinition())
	require.NoError(t, s.SelectAnswer("Red"))

	require.NoError(t, s.SubmitEmail("shopper@example.com"))
	assert.Equal(t, StatusSuccess, s.Status())

	require.Len(t, sink.captures, 1)
	capture := sink.captures[0]
	assert.Equal(t, "shopper@example.com", capture.Email)
	assert.Equal(t, "SAVE10", capture.DiscountGiven)
	require.Len(t, capture.QuizData, 1)
	assert.Equal(t, "Red", capture.QuizData[0].Answer)

	assert.Contains(t, sink.tracked, events.EventConversion)

	// The success view closes itself without emitting a close event.
	clk.Advance(3 * time.Second)
	assert.Equal(t, StatusClosed, s.Status())
	assert.NotContains(t, sink.tracked, events.EventClose)
}

func TestSubmitEmailRejectedWhenNotActive(t *testing.T) {
	s, _, _ := newTestSession(t, multiStepDefinition())
	require.NoError(t, s.SelectAnswer("Red"))
	require.NoError(t, s.SubmitEmail("shopper@example.com"))

	assert.ErrorIs(t, s.SubmitEmail("other@example.com"), ErrNotActive)
}

func TestExplicitCloseTracksCloseEvent(t *testing.T) {
	removed := false
	sink := &fakeSink{}
	clk := clock.NewFake(time.Unix(1700000000, 0))
	s := New(multiStepDefinition(), "pp_test", sink, clk, func() { removed = true })
	s.Activate()

	s.Close()

	assert.Equal(t, StatusClosed, s.Status())
	assert.Contains(t, sink.tracked, events.EventClose)
	assert.True(t, removed)

	// A second close is a no-op.
	s.Close()
	assert.Equal(t, []string{events.EventClose}, sink.tracked)
}

func TestCloseDuringSuccessCancelsAutoClose(t *testing.T) {
	s, sink, clk := newTestSession(t, multiStepDefinition())
	require.NoError(t, s.SelectAnswer("Red"))
	require.NoError(t, s.SubmitEmail("shopper@example.com"))

	s.Close()
	closeEvents := 0
	for _, ev := range sink.tracked {
		if ev == events.EventClose {
			closeEvents++
		}
	}
	assert.Equal(t, 1, closeEvents)

	clk.Advance(5 * time.Second)
	assert.Equal(t, StatusClosed, s.Status())
}

func TestSingleStepViewFallsBackToDefinitionContent(t *testing.T) {
	def := popup.Definition{
		ID:          "pop-2",
		PopupType:   popup.TypeSingleStep,
		TriggerType: popup.TriggerExit,
		Heading:     "Wait!",
		Description: "Before you go",
		ButtonText:  "Stay",
	}
	s, _, _ := newTestSession(t, def)

	view := s.View()
	assert.Equal(t, KindEmail, view.Kind)
	assert.Equal(t, "Wait!", view.Heading)
	assert.Equal(t, "Stay", view.ButtonText)
}

func TestViewKindsAcrossFlow(t *testing.T) {
	s, _, _ := newTestSession(t, multiStepDefinition())

	assert.Equal(t, KindQuiz, s.View().Kind)

	require.NoError(t, s.SelectAnswer("Red"))
	view := s.View()
	assert.Equal(t, KindEmail, view.Kind)
	assert.Equal(t, "Almost there", view.Heading)

	require.NoError(t, s.SubmitEmail("shopper@example.com"))
	view = s.View()
	assert.Equal(t, KindSuccess, view.Kind)
	assert.Equal(t, "SAVE10", view.DiscountCode)
}

func TestListenersObserveTransitions(t *testing.T) {
	sink := &fakeSink{}
	clk := clock.NewFake(time.Unix(1700000000, 0))
	s := New(multiStepDefinition(), "pp_test", sink, clk, nil)

	var statuses []Status
	s.Subscribe(func(s *PopupSession) { statuses = append(statuses, s.Status()) })

	s.Activate()
	require.NoError(t, s.SelectAnswer("Red"))
	require.NoError(t, s.SubmitEmail("shopper@example.com"))
	clk.Advance(3 * time.Second)

	assert.Equal(t, StatusActive, statuses[0])
	assert.Equal(t, StatusClosed, statuses[len(statuses)-1])
	assert.Contains(t, statuses, StatusSubmitting)
	assert.Contains(t, statuses, StatusSuccess)
}
