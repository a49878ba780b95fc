// Package manager is the composition root of the storefront runtime. One
// Manager per page load: it probes the environment, replays the durable
// outbox, loads and filters popup definitions, arms triggers, and owns the
// active popup sessions.
package manager

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/papapop/papapop-go/internal/domain/entities/popup"
	"github.com/papapop/papapop-go/internal/domain/entities/session"
	"github.com/papapop/papapop-go/internal/domain/events"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/runtime/clock"
	"github.com/papapop/papapop-go/internal/runtime/loader"
	"github.com/papapop/papapop-go/internal/runtime/outbox"
	"github.com/papapop/papapop-go/internal/runtime/probe"
	"github.com/papapop/papapop-go/internal/runtime/render"
	"github.com/papapop/papapop-go/internal/runtime/scheduler"
	"github.com/papapop/papapop-go/internal/runtime/storage"
	"github.com/papapop/papapop-go/pkg/config"
)

// Options configures a Manager. Env, Store, Surface, and BaseURL are
// required; everything else has a working default.
type Options struct {
	Env      probe.Environment
	Store    storage.Store // durable store: session id and outbox queue
	Counters storage.Store // per-visit store: view counts; defaults to in-memory
	BaseURL  string

	HTTPClient *http.Client
	Clock      clock.Clock
	Surface    render.Surface
	Renderer   render.Renderer
	Logger     *logging.ChanneledLogger
}

// Manager drives the popup lifecycle for one page load.
type Manager struct {
	env       probe.Environment
	store     storage.Store
	counters  storage.Store
	clk       clock.Clock
	logger    *logging.ChanneledLogger
	loader    *loader.Loader
	outbox    *outbox.Outbox
	scheduler *scheduler.Scheduler
	renderer  render.Renderer

	mu          sync.Mutex
	sessionID   string
	initialized bool
	active      map[string]*session.PopupSession
}

// New assembles a manager from options. It does not touch the network;
// call Initialize to start the runtime.
func New(opts Options) *Manager {
	clk := opts.Clock
	if clk == nil {
		clk = clock.System()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewConsoleLogger()
	}
	counters := opts.Counters
	if counters == nil {
		counters = storage.NewMemoryStore()
	}
	client := opts.HTTPClient
	if client == nil {
		client = defaultHTTPClient()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.NewHTMLRenderer(opts.Surface, clk, logger)
	}

	m := &Manager{
		env:      opts.Env,
		store:    opts.Store,
		counters: counters,
		clk:      clk,
		logger:   logger,
		loader:   loader.New(opts.BaseURL, client, logger),
		renderer: renderer,
		active:   make(map[string]*session.PopupSession),
	}
	m.outbox = outbox.New(opts.Store, outbox.NewHTTPTransport(opts.BaseURL, client), logger, outbox.WithClock(clk))
	m.scheduler = scheduler.New(clk, m.show, logger)
	return m
}

// Initialize starts the runtime: it bails out inside the platform admin,
// establishes the session identity, replays any records left over from a
// previous page load, then loads, filters, and arms the shop's popup
// definitions. A load failure leaves the runtime idle but keeps the outbox
// replaying.
func (m *Manager) Initialize(ctx context.Context) error {
	if probe.IsHostAdminContext(m.env) {
		m.logger.System().Info("Admin context detected, popup runtime disabled", "hostname", m.env.Hostname())
		return nil
	}

	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return nil
	}
	m.initialized = true
	m.sessionID = probe.SessionID(m.store)
	m.mu.Unlock()

	m.logger.System().Info("Popup runtime initializing",
		"sessionId", logging.SanitizeSessionID(m.sessionID),
		"shop", m.env.ShopDomain())

	// Leftover records from a previous page load go first.
	m.clk.AfterFunc(0, func() { m.outbox.Flush(context.Background()) })

	defs, err := m.loader.Load(ctx, m.env.ShopDomain())
	if err != nil {
		m.logger.Config().Warn("Popup configuration unavailable", "error", err)
		return fmt.Errorf("loading popup configuration: %w", err)
	}

	device := probe.DeviceType(m.env.ViewportWidth())
	page := probe.PageType(m.env.Path())
	eligible := loader.Filter(defs, device, page, m)

	m.logger.Trigger().Info("Arming popup triggers",
		"loaded", len(defs), "eligible", len(eligible),
		"device", string(device), "page", string(page))
	m.scheduler.Arm(eligible)
	return nil
}

// SessionID returns the durable per-browser identifier, empty before
// Initialize.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// OnScroll forwards a scroll sample to the trigger scheduler.
func (m *Manager) OnScroll(metrics scheduler.ScrollMetrics) {
	m.scheduler.OnScroll(metrics)
}

// OnPointerLeave forwards an exit-intent signal to the trigger scheduler.
func (m *Manager) OnPointerLeave(clientY int) {
	m.scheduler.OnPointerLeave(clientY)
}

// SelectAnswer routes a quiz answer to the named popup's session.
func (m *Manager) SelectAnswer(popupID, answer string) error {
	s := m.session(popupID)
	if s == nil {
		return fmt.Errorf("no active popup %s", popupID)
	}
	return s.SelectAnswer(answer)
}

// SubmitEmail routes an email submission to the named popup's session. A
// validation failure surfaces as an inline error banner instead of a state
// change.
func (m *Manager) SubmitEmail(popupID, email string) error {
	s := m.session(popupID)
	if s == nil {
		return fmt.Errorf("no active popup %s", popupID)
	}
	err := s.SubmitEmail(email)
	if err == session.ErrInvalidEmail {
		m.renderer.ShowError(popupID, "Please enter a valid email address")
	}
	return err
}

// Close dismisses the named popup.
func (m *Manager) Close(popupID string) {
	if s := m.session(popupID); s != nil {
		s.Close()
	}
}

// Shutdown cancels pending triggers and flushes nothing: queued records
// stay durable for the next page load.
func (m *Manager) Shutdown() {
	m.scheduler.Stop()
}

// Pending exposes the undelivered outbox records, mainly for diagnostics.
func (m *Manager) Pending() []events.OutboxRecord {
	return m.outbox.Pending()
}

// defaultHTTPClient carries no overall timeout: a hung fetch stalls only
// the record chain waiting on it, and the outbox keeps everything durable.
func defaultHTTPClient() *http.Client {
	return &http.Client{}
}

// show is the scheduler's fire callback: it creates and mounts a session
// for a triggered definition. The view event and count increment happen
// before render so a render failure can never under-count.
func (m *Manager) show(def popup.Definition) {
	m.mu.Lock()
	if _, exists := m.active[def.ID]; exists {
		m.mu.Unlock()
		return
	}
	sess := session.New(def, m.sessionID, m, m.clk, func() { m.remove(def.ID) })
	m.active[def.ID] = sess
	m.mu.Unlock()

	m.logger.Popup().Info("Showing popup", "popupId", def.ID, "trigger", string(def.TriggerType))

	m.TrackEvent(def.ID, events.EventView, events.EventDetail{})
	m.incrementViewCount(def.ID)

	sess.Subscribe(func(s *session.PopupSession) { m.renderer.Render(s) })
	m.renderer.Render(sess)
	sess.Activate()
}

func (m *Manager) session(popupID string) *session.PopupSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[popupID]
}

func (m *Manager) remove(popupID string) {
	m.mu.Lock()
	delete(m.active, popupID)
	m.mu.Unlock()
	m.renderer.Remove(popupID)
}

// ViewCount implements loader.ViewCounter over the per-visit store.
func (m *Manager) ViewCount(popupID string) int {
	raw, ok := m.counters.Get(config.ViewCountKeyPrefix + popupID)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func (m *Manager) incrementViewCount(popupID string) {
	key := config.ViewCountKeyPrefix + popupID
	n := m.ViewCount(popupID)
	if err := m.counters.Set(key, strconv.Itoa(n+1)); err != nil {
		m.logger.Popup().Warn("Failed to persist view count", "popupId", popupID, "error", err)
	}
}

// EnqueueQuizResponse implements session.Sink.
func (m *Manager) EnqueueQuizResponse(resp events.QuizResponse) {
	if err := m.outbox.Enqueue(events.RecordQuizResponse, resp); err != nil {
		m.logger.Outbox().Error("Failed to enqueue quiz response", "popupId", resp.PopupID, "error", err)
	}
}

// EnqueueEmailCapture implements session.Sink.
func (m *Manager) EnqueueEmailCapture(capture events.EmailCapture) {
	if err := m.outbox.Enqueue(events.RecordEmailCapture, capture); err != nil {
		m.logger.Outbox().Error("Failed to enqueue email capture", "popupId", capture.PopupID, "error", err)
	}
}

// TrackEvent implements session.Sink: it wraps the event in the analytics
// envelope with the page and device context captured at call time.
func (m *Manager) TrackEvent(popupID, event string, detail events.EventDetail) {
	payload := events.AnalyticsEvent{
		PopupID:    popupID,
		Event:      event,
		SessionID:  m.SessionID(),
		Timestamp:  m.clk.Now().UnixMilli(),
		PageURL:    m.env.PageURL(),
		PageType:   string(probe.PageType(m.env.Path())),
		DeviceType: string(probe.DeviceType(m.env.ViewportWidth())),

		StepNumber:  detail.StepNumber,
		Action:      detail.Action,
		Value:       detail.Value,
		Email:       detail.Email,
		HasQuizData: detail.HasQuizData,
	}
	if err := m.outbox.Enqueue(events.RecordAnalytics, payload); err != nil {
		m.logger.Outbox().Error("Failed to enqueue analytics event", "popupId", popupID, "event", event, "error", err)
	}
}
