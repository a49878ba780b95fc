// Package scheduler arms per-definition activation conditions and fires
// each definition at most once per page lifetime. Delay triggers run on
// one-shot timers; scroll and exit triggers are driven by host-page events
// fed through OnScroll and OnPointerLeave.
package scheduler

import (
	"time"

	"github.com/papapop/papapop-go/internal/domain/entities/popup"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/runtime/clock"
	"github.com/papapop/papapop-go/pkg/config"

	"sync"
)

// ScrollMetrics carries one scroll observation from the host page.
type ScrollMetrics struct {
	ScrollY        int
	ScrollHeight   int
	ViewportHeight int
}

// Percent computes the scroll fraction as a 0-100 percentage. A page no
// taller than the viewport counts as fully scrolled.
func (m ScrollMetrics) Percent() float64 {
	denom := m.ScrollHeight - m.ViewportHeight
	if denom <= 0 {
		return 100
	}
	return float64(m.ScrollY) / float64(denom) * 100
}

// FireFunc receives each definition exactly once, when its trigger fires.
type FireFunc func(def popup.Definition)

// Scheduler runs the armed -> fired state machine per definition,
// independently across definitions.
type Scheduler struct {
	clk      clock.Clock
	fire     FireFunc
	debounce time.Duration
	logger   *logging.ChanneledLogger

	mu          sync.Mutex
	scroll      map[string]popup.Definition
	exit        map[string]popup.Definition
	fired       map[string]bool
	delayTimers []clock.Timer
	scrollTimer clock.Timer
	lastScroll  ScrollMetrics
}

// New creates a scheduler that reports fires to the given callback.
func New(clk clock.Clock, fire FireFunc, logger *logging.ChanneledLogger) *Scheduler {
	return &Scheduler{
		clk:      clk,
		fire:     fire,
		debounce: config.ScrollDebounce,
		logger:   logger,
		scroll:   make(map[string]popup.Definition),
		exit:     make(map[string]popup.Definition),
		fired:    make(map[string]bool),
	}
}

// Arm registers activation conditions for the given definitions. Delay
// timers count from this call, not from page visibility or user activity.
func (s *Scheduler) Arm(defs []popup.Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, def := range defs {
		def := def
		switch def.TriggerType {
		case popup.TriggerDelay:
			delay := time.Duration(def.TriggerValue * float64(time.Second))
			timer := s.clk.AfterFunc(delay, func() { s.fireDefinition(def) })
			s.delayTimers = append(s.delayTimers, timer)
			s.logger.Trigger().Debug("Delay trigger armed", "popupId", def.ID, "seconds", def.TriggerValue)
		case popup.TriggerScroll:
			s.scroll[def.ID] = def
			s.logger.Trigger().Debug("Scroll trigger armed", "popupId", def.ID, "percent", def.TriggerValue)
		case popup.TriggerExit:
			s.exit[def.ID] = def
			s.logger.Trigger().Debug("Exit trigger armed", "popupId", def.ID)
		}
	}
}

// OnScroll records a scroll observation and evaluates armed scroll triggers
// after a debounce window. Only the latest observation within the window is
// evaluated.
func (s *Scheduler) OnScroll(m ScrollMetrics) {
	s.mu.Lock()
	s.lastScroll = m
	if s.scrollTimer != nil {
		s.scrollTimer.Stop()
	}
	s.scrollTimer = s.clk.AfterFunc(s.debounce, s.evaluateScroll)
	s.mu.Unlock()
}

// OnPointerLeave fires every still-armed exit definition when the pointer
// reaches the top edge. This is a best-effort proxy for leaving the
// viewport upward, not a guaranteed signal.
func (s *Scheduler) OnPointerLeave(clientY int) {
	if clientY > 0 {
		return
	}

	s.mu.Lock()
	var due []popup.Definition
	for _, def := range s.exit {
		due = append(due, def)
	}
	s.mu.Unlock()

	for _, def := range due {
		s.fireDefinition(def)
	}
}

func (s *Scheduler) evaluateScroll() {
	s.mu.Lock()
	percent := s.lastScroll.Percent()
	var due []popup.Definition
	for _, def := range s.scroll {
		if percent >= def.TriggerValue {
			due = append(due, def)
		}
	}
	s.mu.Unlock()

	for _, def := range due {
		s.logger.Trigger().Info("Scroll trigger reached", "popupId", def.ID, "percent", percent, "threshold", def.TriggerValue)
		s.fireDefinition(def)
	}
}

// fireDefinition transitions a definition from armed to fired. A fired
// definition is discarded and can never fire again within this page
// lifetime.
func (s *Scheduler) fireDefinition(def popup.Definition) {
	s.mu.Lock()
	if s.fired[def.ID] {
		s.mu.Unlock()
		return
	}
	s.fired[def.ID] = true
	delete(s.scroll, def.ID)
	delete(s.exit, def.ID)
	s.mu.Unlock()

	s.logger.Trigger().Info("Trigger fired", "popupId", def.ID, "triggerType", string(def.TriggerType))
	s.fire(def)
}

// Stop cancels all pending timers. Used when the runtime shuts down.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, timer := range s.delayTimers {
		timer.Stop()
	}
	s.delayTimers = nil
	if s.scrollTimer != nil {
		s.scrollTimer.Stop()
		s.scrollTimer = nil
	}
}
