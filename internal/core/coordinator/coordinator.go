package coordinator

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"gazeguard/internal/core/link"
	"gazeguard/internal/core/model"
)

// ErrIdleUnsupported indicates idle detection is not available on this system.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// IdleChecker reports the duration of user inactivity.
type IdleChecker interface {
	IdleDuration() (time.Duration, error)
}

// ProximityAgent is the coordinator's handle on the sampler context. All
// calls are fire-and-forget; the sampler applies them on its own loop.
type ProximityAgent interface {
	RequestSample()
	ResetCalibration()
	Release()
}

// Store persists coordinator-owned state. Writes are best-effort: a failure
// is logged and the in-memory value stays authoritative.
type Store interface {
	ActiveMinutes() (int, bool, error)
	SaveActiveMinutes(minutes int) error
	SaveSettings(settings model.Settings) error
	Calibration() (model.Calibration, bool, error)
	SaveCalibration(calibration model.Calibration) error
	ClearCalibration() error
}

// Config contains runtime options for the Coordinator.
type Config struct {
	TickInterval time.Duration
	IdleWindow   time.Duration
}

// Status is a point-in-time snapshot answered to presentation surfaces.
type Status struct {
	ActiveMinutes    int
	MinutesRemaining int
	BreakInProgress  bool
	SnoozedUntil     time.Time
	Settings         model.Settings
}

// Coordinator is the state machine that tracks active screen time,
// schedules break reminders and proximity samples, and rebroadcasts
// sampler warnings. It is the sole owner of the runtime break state.
type Coordinator struct {
	mu              sync.Mutex
	settings        model.Settings
	options         Config
	active          int
	breakInProgress bool
	snoozedUntil    time.Time
	idleChecker     IdleChecker
	agent           ProximityAgent
	store           Store
	bridge          *link.Link
	logger          *zap.Logger
	events          []chan Event
	rewire          chan struct{}
	stopCh          chan struct{}
	running         bool
}

// New creates a Coordinator. Previously persisted active minutes are picked
// up so a restart does not lose break progress.
func New(settings model.Settings, store Store, options Config, logger *zap.Logger) *Coordinator {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Minute
	}
	if options.IdleWindow <= 0 {
		options.IdleWindow = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	keeper := &Coordinator{
		settings: settings,
		options:  options,
		store:    store,
		logger:   logger,
		rewire:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}

	if store != nil {
		minutes, found, err := store.ActiveMinutes()
		if err != nil {
			logger.Warn("load persisted active minutes", zap.Error(err))
		} else if found && minutes >= 0 {
			keeper.active = minutes
		}
	}
	return keeper
}

// SetIdleChecker injects an idle checker.
func (keeper *Coordinator) SetIdleChecker(checker IdleChecker) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.idleChecker = checker
}

// SetProximityAgent injects the sampler handle.
func (keeper *Coordinator) SetProximityAgent(agent ProximityAgent) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.agent = agent
}

// SetLink attaches the sampler-facing request bridge. The coordinator
// answers sensitivity reads and proxies calibration storage, since the
// sampler context has no store access of its own.
func (keeper *Coordinator) SetLink(bridge *link.Link) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.bridge = bridge
}

// Subscribe registers a new observer channel.
func (keeper *Coordinator) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	keeper.events = append(keeper.events, ch)
	keeper.mu.Unlock()
	return ch
}

// Start launches the ticking loop and the sampler request service.
func (keeper *Coordinator) Start() {
	keeper.mu.Lock()
	if keeper.running {
		keeper.mu.Unlock()
		return
	}
	keeper.running = true
	bridge := keeper.bridge
	keeper.mu.Unlock()

	go keeper.run()
	if bridge != nil {
		go bridge.Serve(keeper.stopCh, keeper.handleLinkRequest)
	}
}

// Stop terminates the ticking loop and closes observers.
func (keeper *Coordinator) Stop() {
	keeper.mu.Lock()
	if !keeper.running {
		keeper.mu.Unlock()
		return
	}
	close(keeper.stopCh)
	keeper.running = false
	events := keeper.events
	keeper.events = nil
	keeper.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// Status answers the current break state for presentation surfaces.
func (keeper *Coordinator) Status() Status {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return Status{
		ActiveMinutes:    keeper.active,
		MinutesRemaining: remainingMinutes(keeper.settings.BreakIntervalMinutes, keeper.active),
		BreakInProgress:  keeper.breakInProgress,
		SnoozedUntil:     keeper.snoozedUntil,
		Settings:         keeper.settings,
	}
}

// StartBreak marks a break as in progress and announces it so presentation
// surfaces can show the countdown. A non-positive duration falls back to the
// configured break length.
func (keeper *Coordinator) StartBreak(duration time.Duration) {
	keeper.mu.Lock()
	if duration <= 0 {
		duration = time.Duration(keeper.settings.BreakDurationSeconds) * time.Second
	}
	keeper.breakInProgress = true
	keeper.emitLocked(Event{
		Type:     EventBreakStarted,
		Duration: duration,
		At:       time.Now(),
	})
	keeper.mu.Unlock()
}

// CompleteBreak ends the current break and resets the active-minute count.
func (keeper *Coordinator) CompleteBreak() {
	keeper.mu.Lock()
	keeper.breakInProgress = false
	keeper.active = 0
	keeper.persistActiveLocked()
	keeper.emitLocked(Event{Type: EventBreakEnded, At: time.Now()})
	keeper.mu.Unlock()
}

// Snooze suppresses break reminders for the configured window. The
// active-minute count is left untouched.
func (keeper *Coordinator) Snooze() {
	keeper.mu.Lock()
	keeper.breakInProgress = false
	keeper.snoozedUntil = time.Now().Add(time.Duration(keeper.settings.SnoozeMinutes) * time.Minute)
	keeper.emitLocked(Event{
		Type:  EventSnoozed,
		Until: keeper.snoozedUntil,
		At:    time.Now(),
	})
	keeper.mu.Unlock()
}

// UpdateSettings replaces the settings record wholesale and re-derives the
// periodic schedules. The caller is expected to have validated the record.
func (keeper *Coordinator) UpdateSettings(settings model.Settings) {
	keeper.mu.Lock()
	wasProximity := keeper.settings.ProximityEnabled
	keeper.settings = settings
	if keeper.store != nil {
		if err := keeper.store.SaveSettings(settings); err != nil {
			keeper.logger.Warn("persist settings", zap.Error(err))
		}
	}
	agent := keeper.agent
	keeper.mu.Unlock()

	select {
	case keeper.rewire <- struct{}{}:
	default:
	}

	if wasProximity && !settings.ProximityEnabled && agent != nil {
		agent.Release()
	}
}

// NotifyProximityWarning rebroadcasts a sampler warning to all observers.
func (keeper *Coordinator) NotifyProximityWarning() {
	keeper.mu.Lock()
	keeper.emitLocked(Event{
		Type:    EventProximityWarning,
		Message: "too close to the screen",
		At:      time.Now(),
	})
	keeper.mu.Unlock()
}

// ResetProximity forwards a calibration reset to the sampler.
func (keeper *Coordinator) ResetProximity() {
	keeper.mu.Lock()
	agent := keeper.agent
	keeper.mu.Unlock()
	if agent != nil {
		agent.ResetCalibration()
	}
}

func (keeper *Coordinator) run() {
	breakTicker := time.NewTicker(keeper.options.TickInterval)
	defer breakTicker.Stop()

	proximityTicker := time.NewTicker(keeper.proximityPeriod())
	defer proximityTicker.Stop()
	if !keeper.proximityActive() {
		proximityTicker.Stop()
	}

	for {
		select {
		case <-keeper.stopCh:
			return
		case tickTime := <-breakTicker.C:
			keeper.tick(tickTime)
		case <-proximityTicker.C:
			keeper.requestSample()
		case <-keeper.rewire:
			if keeper.proximityActive() {
				proximityTicker.Reset(keeper.proximityPeriod())
			} else {
				proximityTicker.Stop()
			}
		}
	}
}

// tick advances the active-minute counter once per wall-clock minute.
func (keeper *Coordinator) tick(now time.Time) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	settings := keeper.settings
	if !settings.Enabled || !settings.BreaksEnabled {
		return
	}
	if now.Before(keeper.snoozedUntil) {
		return
	}

	engaged := keeper.userEngagedLocked(now)
	switch {
	case engaged && !keeper.breakInProgress:
		keeper.active++
		if keeper.active >= settings.BreakIntervalMinutes {
			keeper.active = 0
			keeper.persistActiveLocked()
			keeper.emitLocked(Event{
				Type:             EventBreakReminder,
				MinutesRemaining: 0,
				At:               now,
			})
			return
		}
		keeper.persistActiveLocked()
		keeper.emitLocked(Event{
			Type:             EventProgress,
			ActiveMinutes:    keeper.active,
			MinutesRemaining: remainingMinutes(settings.BreakIntervalMinutes, keeper.active),
			At:               now,
		})
	case !engaged:
		// Idle time does not count toward a break.
		if keeper.active != 0 {
			keeper.active = 0
			keeper.persistActiveLocked()
		}
	}
}

func (keeper *Coordinator) userEngagedLocked(now time.Time) bool {
	if keeper.idleChecker == nil {
		return true
	}
	idleDuration, err := keeper.idleChecker.IdleDuration()
	if err != nil {
		if errors.Is(err, ErrIdleUnsupported) {
			keeper.idleChecker = nil
		}
		keeper.emitLocked(Event{
			Type:    EventIdleError,
			Message: err.Error(),
			At:      now,
		})
		return true
	}
	return idleDuration < keeper.options.IdleWindow
}

func (keeper *Coordinator) requestSample() {
	keeper.mu.Lock()
	agent := keeper.agent
	enabled := keeper.settings.Enabled && keeper.settings.ProximityEnabled
	keeper.mu.Unlock()
	if enabled && agent != nil {
		agent.RequestSample()
	}
}

func (keeper *Coordinator) proximityPeriod() time.Duration {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	seconds := keeper.settings.ProximityPeriodSeconds
	if seconds <= 0 {
		seconds = model.DefaultSettings().ProximityPeriodSeconds
	}
	return time.Duration(seconds) * time.Second
}

func (keeper *Coordinator) proximityActive() bool {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.settings.Enabled && keeper.settings.ProximityEnabled
}

// handleLinkRequest services the sampler's settings reads and calibration
// storage, one request at a time.
func (keeper *Coordinator) handleLinkRequest(request link.Request) link.Response {
	switch request.Kind {
	case link.KindGetSensitivity:
		keeper.mu.Lock()
		sensitivity := keeper.settings.Sensitivity
		keeper.mu.Unlock()
		return link.Response{Sensitivity: sensitivity}
	case link.KindGetCalibration:
		if keeper.store == nil {
			return link.Response{}
		}
		calibration, found, err := keeper.store.Calibration()
		return link.Response{Calibration: calibration, Found: found, Err: err}
	case link.KindPutCalibration:
		if keeper.store == nil {
			return link.Response{}
		}
		return link.Response{Err: keeper.store.SaveCalibration(request.Calibration)}
	case link.KindClearCalibration:
		if keeper.store == nil {
			return link.Response{}
		}
		return link.Response{Err: keeper.store.ClearCalibration()}
	default:
		return link.Response{Err: errors.New("unknown request kind")}
	}
}

func (keeper *Coordinator) persistActiveLocked() {
	if keeper.store == nil {
		return
	}
	if err := keeper.store.SaveActiveMinutes(keeper.active); err != nil {
		keeper.logger.Warn("persist active minutes", zap.Error(err))
	}
}

func (keeper *Coordinator) emitLocked(event Event) {
	events := append([]chan Event(nil), keeper.events...)
	for _, ch := range events {
		// Observers that are not keeping up miss the event; one slow
		// surface must not stall delivery to the others.
		select {
		case ch <- event:
		default:
		}
	}
}

func remainingMinutes(interval, active int) int {
	remaining := interval - active
	if remaining < 0 {
		return 0
	}
	return remaining
}
