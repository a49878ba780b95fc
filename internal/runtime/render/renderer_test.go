package render

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapop/papapop-go/internal/domain/entities/popup"
	"github.com/papapop/papapop-go/internal/domain/entities/session"
	"github.com/papapop/papapop-go/internal/domain/events"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/runtime/clock"
	"github.com/papapop/papapop-go/pkg/config"
)

type recordingSurface struct {
	mu     sync.Mutex
	frames []frame
}

type frame struct {
	op      string // mount, update, unmount
	popupID string
	html    string
}

func (s *recordingSurface) Mount(popupID, html string) {
	s.record(frame{op: "mount", popupID: popupID, html: html})
}

func (s *recordingSurface) Update(popupID, html string) {
	s.record(frame{op: "update", popupID: popupID, html: html})
}

func (s *recordingSurface) Unmount(popupID string) {
	s.record(frame{op: "unmount", popupID: popupID})
}

func (s *recordingSurface) record(f frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
}

func (s *recordingSurface) last() frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return frame{}
	}
	return s.frames[len(s.frames)-1]
}

func (s *recordingSurface) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.frames {
		if f.op == op {
			n++
		}
	}
	return n
}

type nullSink struct{}

func (nullSink) EnqueueQuizResponse(events.QuizResponse) {}
func (nullSink) EnqueueEmailCapture(events.EmailCapture) {}
func (nullSink) TrackEvent(string, string, events.EventDetail) {
}

func newTestRenderer(t *testing.T) (*HTMLRenderer, *recordingSurface, *clock.Fake) {
	t.Helper()
	surface := &recordingSurface{}
	clk := clock.NewFake(time.Unix(1700000000, 0))
	return NewHTMLRenderer(surface, clk, logging.NewTestLogger()), surface, clk
}

func newSession(def popup.Definition, clk clock.Clock) *session.PopupSession {
	return session.New(def, "pp_test", nullSink{}, clk, func() {})
}

func TestRenderMountsEmailForm(t *testing.T) {
	r, surface, clk := newTestRenderer(t)
	sess := newSession(popup.Definition{
		ID:          "pop-1",
		PopupType:   popup.TypeSingleStep,
		TriggerType: popup.TriggerDelay,
		Heading:     "Join the list",
		Description: "10% off your first order",
		ButtonText:  "Sign me up",
		Position:    "bottom-right",
	}, clk)

	r.Render(sess)

	f := surface.last()
	require.Equal(t, "mount", f.op)
	assert.Equal(t, "pop-1", f.popupID)
	assert.Contains(t, f.html, `data-popup-id="pop-1"`)
	assert.Contains(t, f.html, "papapop-pos-bottom-right")
	assert.Contains(t, f.html, "Join the list")
	assert.Contains(t, f.html, "10% off your first order")
	assert.Contains(t, f.html, "Sign me up")
	assert.Contains(t, f.html, `data-action="close"`)
}

func TestRenderQuizStepWithProgress(t *testing.T) {
	r, surface, clk := newTestRenderer(t)
	sess := newSession(popup.Definition{
		ID:          "pop-q",
		PopupType:   popup.TypeMultiStep,
		TriggerType: popup.TriggerDelay,
		Heading:     "Quiz",
		ButtonText:  "Go",
		Steps: []popup.Step{
			{ID: "q1", Type: popup.StepQuiz, Question: "Pick one", Options: []string{"A", "B", "C"}},
			{Type: popup.StepEmail, Heading: "Almost done"},
		},
	}, clk)

	r.Render(sess)

	f := surface.last()
	assert.Contains(t, f.html, "papapop-progress")
	assert.Contains(t, f.html, "Pick one")
	assert.Contains(t, f.html, `data-action="answer" data-value="A"`)
	assert.Contains(t, f.html, `data-value="C"`)
}

func TestRenderEscapesMerchantContent(t *testing.T) {
	r, surface, clk := newTestRenderer(t)
	sess := newSession(popup.Definition{
		ID:          "pop-x",
		PopupType:   popup.TypeSingleStep,
		TriggerType: popup.TriggerDelay,
		Heading:     `<script>alert("x")</script>`,
		ButtonText:  "Go",
	}, clk)

	r.Render(sess)

	f := surface.last()
	assert.NotContains(t, f.html, "<script>")
	assert.Contains(t, f.html, "&lt;script&gt;")
}

func TestRenderAppliesThemeColors(t *testing.T) {
	r, surface, clk := newTestRenderer(t)
	sess := newSession(popup.Definition{
		ID:          "pop-t",
		PopupType:   popup.TypeSingleStep,
		TriggerType: popup.TriggerDelay,
		Heading:     "Hi",
		ButtonText:  "Go",
		Theme: popup.Theme{
			BackgroundColor: "#1a1a2e",
			TextColor:       `red;} body{display:none`,
			ButtonColor:     "#e94560",
		},
	}, clk)

	r.Render(sess)

	f := surface.last()
	assert.Contains(t, f.html, "background-color: #1a1a2e")
	// Style-breaking characters in theme values are stripped.
	assert.NotContains(t, f.html, "display:none")
	assert.Contains(t, f.html, "background-color: #e94560")
}

func TestSecondRenderUpdatesInPlace(t *testing.T) {
	r, surface, clk := newTestRenderer(t)
	sess := newSession(popup.Definition{
		ID:           "pop-1",
		PopupType:    popup.TypeSingleStep,
		TriggerType:  popup.TriggerDelay,
		Heading:      "Hi",
		ButtonText:   "Go",
		DiscountCode: "WELCOME10",
	}, clk)

	r.Render(sess)
	sess.Activate()
	r.Render(sess)

	assert.Equal(t, 1, surface.count("mount"))
	assert.Equal(t, 1, surface.count("update"))

	require.NoError(t, sess.SubmitEmail("shopper@example.com"))
	r.Render(sess)
	assert.Contains(t, surface.last().html, "WELCOME10")
}

func TestRenderClosedSessionUnmounts(t *testing.T) {
	r, surface, clk := newTestRenderer(t)
	sess := newSession(popup.Definition{
		ID:          "pop-1",
		PopupType:   popup.TypeSingleStep,
		TriggerType: popup.TriggerDelay,
		Heading:     "Hi",
		ButtonText:  "Go",
	}, clk)

	r.Render(sess)
	sess.Activate()
	sess.Close()
	r.Render(sess)

	assert.Equal(t, 1, surface.count("unmount"))
}

func TestErrorBannerKeepsFormUsable(t *testing.T) {
	r, surface, clk := newTestRenderer(t)
	sess := newSession(popup.Definition{
		ID:          "pop-1",
		PopupType:   popup.TypeSingleStep,
		TriggerType: popup.TriggerDelay,
		Heading:     "Hi",
		ButtonText:  "Go",
	}, clk)

	r.Render(sess)
	r.ShowError("pop-1", "Something went wrong. Please try again.")

	// The banner sits above the email form inside the shell; the form is
	// still there to resubmit.
	f := surface.last()
	require.Equal(t, "update", f.op)
	assert.Contains(t, f.html, "papapop-error")
	assert.Contains(t, f.html, "Something went wrong. Please try again.")
	assert.Contains(t, f.html, "papapop-form")
	assert.Contains(t, f.html, `data-popup-id="pop-1"`)
	assert.Less(t, strings.Index(f.html, "papapop-error"), strings.Index(f.html, "papapop-form"))
}

func TestErrorBannerAutoDismisses(t *testing.T) {
	r, surface, clk := newTestRenderer(t)
	sess := newSession(popup.Definition{
		ID:          "pop-1",
		PopupType:   popup.TypeSingleStep,
		TriggerType: popup.TriggerDelay,
		Heading:     "Hi",
		ButtonText:  "Go",
	}, clk)

	r.Render(sess)
	r.ShowError("pop-1", "Something went wrong. Please try again.")

	clk.Advance(config.ErrorAutoDismiss)

	// Dismissal re-renders the current view without the banner.
	f := surface.last()
	require.Equal(t, "update", f.op)
	assert.NotContains(t, f.html, "papapop-error")
	assert.Contains(t, f.html, "papapop-form")
	assert.Contains(t, f.html, "Hi")
}

func TestErrorBannerClearedByStateChange(t *testing.T) {
	r, surface, clk := newTestRenderer(t)
	sess := newSession(popup.Definition{
		ID:           "pop-1",
		PopupType:    popup.TypeSingleStep,
		TriggerType:  popup.TriggerDelay,
		Heading:      "Hi",
		ButtonText:   "Go",
		DiscountCode: "WELCOME10",
	}, clk)

	r.Render(sess)
	sess.Activate()
	r.Render(sess)
	r.ShowError("pop-1", "boom")

	require.NoError(t, sess.SubmitEmail("shopper@example.com"))
	r.Render(sess)

	f := surface.last()
	assert.Contains(t, f.html, "WELCOME10")
	assert.NotContains(t, f.html, "papapop-error")
}

func TestShowErrorIgnoredWhenNotMounted(t *testing.T) {
	r, surface, _ := newTestRenderer(t)

	r.ShowError("ghost", "boom")
	assert.Empty(t, surface.frames)
}

func TestRemoveCancelsPendingErrorDismissal(t *testing.T) {
	r, surface, clk := newTestRenderer(t)
	sess := newSession(popup.Definition{
		ID:          "pop-1",
		PopupType:   popup.TypeSingleStep,
		TriggerType: popup.TriggerDelay,
		Heading:     "Hi",
		ButtonText:  "Go",
	}, clk)

	r.Render(sess)
	r.ShowError("pop-1", "boom")
	r.Remove("pop-1")

	before := surface.count("update")
	clk.Advance(config.ErrorAutoDismiss)
	assert.Equal(t, before, surface.count("update"))

	// A second Remove is a no-op.
	r.Remove("pop-1")
	assert.Equal(t, 1, surface.count("unmount"))
}
