// Package render is the presentation layer of the storefront runtime. It
// turns a popup session's current state into HTML fragments and hands them
// to a host-provided Surface, which owns the actual page mutation.
package render

import (
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/papapop/papapop-go/internal/domain/entities/popup"
	"github.com/papapop/papapop-go/internal/domain/entities/session"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/runtime/clock"
	"github.com/papapop/papapop-go/pkg/config"
)

// Surface is the host's mount point for popup markup. A browser host maps
// these to DOM insertion and removal; tests use an in-memory fake.
type Surface interface {
	Mount(popupID, html string)
	Update(popupID, html string)
	Unmount(popupID string)
}

// Renderer draws popup sessions and transient error banners.
type Renderer interface {
	Render(s *session.PopupSession)
	ShowError(popupID, message string)
	Remove(popupID string)
}

// HTMLRenderer renders sessions through the pre-parsed fragment templates.
type HTMLRenderer struct {
	surface Surface
	clk     clock.Clock
	logger  *logging.ChanneledLogger

	mu          sync.Mutex
	mounted     map[string]bool
	sessions    map[string]*session.PopupSession
	errors      map[string]inlineError
	errorTimers map[string]clock.Timer
}

// inlineError is an active banner, pinned to the session status it
// annotated so a state change clears it.
type inlineError struct {
	message string
	status  session.Status
}

// NewHTMLRenderer creates a renderer over the given surface.
func NewHTMLRenderer(surface Surface, clk clock.Clock, logger *logging.ChanneledLogger) *HTMLRenderer {
	return &HTMLRenderer{
		surface:     surface,
		clk:         clk,
		logger:      logger,
		mounted:     make(map[string]bool),
		sessions:    make(map[string]*session.PopupSession),
		errors:      make(map[string]inlineError),
		errorTimers: make(map[string]clock.Timer),
	}
}

type shellData struct {
	PopupID  string
	Position string
	Style    template.CSS
	Body     template.HTML
}

type quizData struct {
	Question  string
	Options   []string
	StepCount int
	Percent   int
}

type emailData struct {
	Heading     string
	Description string
	ButtonText  string
	ButtonStyle template.CSS
}

// Render draws the session's current view. The first call mounts the popup
// shell; subsequent calls swap the body in place. A closed session is
// unmounted.
func (r *HTMLRenderer) Render(s *session.PopupSession) {
	def := s.Definition()

	if s.Status() == session.StatusClosed {
		r.Remove(def.ID)
		return
	}

	view := s.View()
	body, err := r.renderBody(view, def.Theme.ButtonColor)
	if err != nil {
		r.logger.Popup().Error("Failed to render popup body", "popupId", def.ID, "error", err)
		return
	}

	// An active error banner sits above the current view; the form under it
	// stays rendered and usable. A status change outdates the banner.
	r.mu.Lock()
	active := r.errors[def.ID]
	if active.message != "" && s.Status() != active.status {
		delete(r.errors, def.ID)
		if t := r.errorTimers[def.ID]; t != nil {
			t.Stop()
			delete(r.errorTimers, def.ID)
		}
		active.message = ""
	}
	r.mu.Unlock()
	if active.message != "" {
		var banner strings.Builder
		if err := errorTmpl.Execute(&banner, active.message); err != nil {
			r.logger.Popup().Error("Failed to render error banner", "popupId", def.ID, "error", err)
		} else {
			body = banner.String() + body
		}
	}

	position := def.Position
	if position == "" {
		position = "center"
	}

	var html strings.Builder
	err = shellTmpl.Execute(&html, shellData{
		PopupID:  def.ID,
		Position: position,
		Style:    themeStyle(def.Theme),
		Body:     template.HTML(body),
	})
	if err != nil {
		r.logger.Popup().Error("Failed to render popup shell", "popupId", def.ID, "error", err)
		return
	}

	r.mu.Lock()
	alreadyMounted := r.mounted[def.ID]
	r.mounted[def.ID] = true
	r.sessions[def.ID] = s
	r.mu.Unlock()

	if alreadyMounted {
		r.surface.Update(def.ID, html.String())
	} else {
		r.surface.Mount(def.ID, html.String())
	}
}

func (r *HTMLRenderer) renderBody(view session.View, buttonColor string) (string, error) {
	var body strings.Builder
	switch view.Kind {
	case session.KindQuiz:
		percent := 0
		if view.StepCount > 0 {
			percent = (view.StepIndex + 1) * 100 / view.StepCount
		}
		err := quizTmpl.Execute(&body, quizData{
			Question:  view.Heading,
			Options:   view.Step.Options,
			StepCount: view.StepCount,
			Percent:   percent,
		})
		return body.String(), err

	case session.KindSuccess:
		err := successTmpl.Execute(&body, struct{ DiscountCode string }{view.DiscountCode})
		return body.String(), err

	case session.KindEmail:
		var buttonStyle template.CSS
		if buttonColor != "" {
			buttonStyle = template.CSS(fmt.Sprintf("background-color: %s", sanitizeColor(buttonColor)))
		}
		err := emailTmpl.Execute(&body, emailData{
			Heading:     view.Heading,
			Description: view.Description,
			ButtonText:  view.ButtonText,
			ButtonStyle: buttonStyle,
		})
		return body.String(), err
	}
	return "", fmt.Errorf("unknown view kind %q", view.Kind)
}

// ShowError places a dismissible error banner above a mounted popup's
// current view. The popup itself stays rendered; after the configured
// interval the view re-renders without the banner.
func (r *HTMLRenderer) ShowError(popupID, message string) {
	r.mu.Lock()
	sess := r.sessions[popupID]
	if sess == nil || !r.mounted[popupID] {
		r.mu.Unlock()
		return
	}
	if t := r.errorTimers[popupID]; t != nil {
		t.Stop()
	}
	r.errors[popupID] = inlineError{message: message, status: sess.Status()}
	r.mu.Unlock()

	r.Render(sess)

	timer := r.clk.AfterFunc(config.ErrorAutoDismiss, func() {
		r.mu.Lock()
		delete(r.errorTimers, popupID)
		delete(r.errors, popupID)
		sess := r.sessions[popupID]
		mounted := r.mounted[popupID]
		r.mu.Unlock()
		if mounted && sess != nil {
			r.Render(sess)
		}
	})
	r.mu.Lock()
	r.errorTimers[popupID] = timer
	r.mu.Unlock()
}

// Remove unmounts a popup and cancels any pending error dismissal.
func (r *HTMLRenderer) Remove(popupID string) {
	r.mu.Lock()
	mounted := r.mounted[popupID]
	delete(r.mounted, popupID)
	delete(r.sessions, popupID)
	delete(r.errors, popupID)
	if t := r.errorTimers[popupID]; t != nil {
		t.Stop()
		delete(r.errorTimers, popupID)
	}
	r.mu.Unlock()

	if mounted {
		r.surface.Unmount(popupID)
	}
}

// themeStyle builds the inline style for the modal from the definition's
// theme colors.
func themeStyle(theme popup.Theme) template.CSS {
	var parts []string
	if theme.BackgroundColor != "" {
		parts = append(parts, "background-color: "+sanitizeColor(theme.BackgroundColor))
	}
	if theme.TextColor != "" {
		parts = append(parts, "color: "+sanitizeColor(theme.TextColor))
	}
	if len(parts) == 0 {
		return ""
	}
	return template.CSS(strings.Join(parts, "; "))
}

// sanitizeColor keeps only characters valid in a CSS color token so theme
// values cannot break out of the style attribute.
func sanitizeColor(color string) string {
	var b strings.Builder
	for _, r := range color {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '#', r == '(', r == ')', r == ',', r == '.', r == '%', r == ' ':
			b.WriteRune(r)
		}
	}
	return b.String()
}
