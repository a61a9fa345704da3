package escalation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"emergency-service/internal/dispatch"
	"emergency-service/internal/logging"
	"emergency-service/internal/models"
)

// Signals for expected races under concurrent responders. These are no-ops
// to the alert, never crashes.
var (
	ErrNotFound            = errors.New("alert not found or already terminal")
	ErrAlreadyTerminal     = errors.New("alert already terminal")
	ErrAlreadyAcknowledged = errors.New("alert already acknowledged")
	ErrUnknownChannel      = errors.New("unknown channel")
)

// Store persists alert state transitions.
type Store interface {
	CreateAlert(ctx context.Context, alert models.Alert) error
	UpdateAlert(ctx context.Context, alert models.Alert) error
	AppendAuditNote(ctx context.Context, alertID [16]byte, note string) error
}

// Directory supplies the channel targets owned by external collaborators.
type Directory interface {
	ContactsByUser(ctx context.Context, userID int64) ([]models.EmergencyContact, error)
	Facilities(ctx context.Context) ([]models.Facility, error)
}

// Dispatcher delivers to a single channel and reports the outcome.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert models.Alert, ch models.ChannelDispatch) dispatch.Outcome
}

// Options are the escalation timing/sizing constants.
type Options struct {
	AckDeadline      time.Duration
	MaxRounds        int
	FacilityTopK     int
	FacilityRadiusKm float64
}

// Engine owns the lifecycle of every open Alert. Each alert gets one runner
// goroutine consuming a serialized event stream, so all mutations of a given
// alert are totally ordered while distinct alerts proceed in parallel.
type Engine struct {
	opts       Options
	store      Store
	dir        Directory
	dispatcher Dispatcher
	logger     *logging.Logger
	listener   func(models.Alert)

	mu      sync.Mutex
	runners map[uuid.UUID]*runner
}

// New constructs an Engine.
func New(opts Options, store Store, dir Directory, dispatcher Dispatcher, logger *logging.Logger) *Engine {
	return &Engine{
		opts:       opts,
		store:      store,
		dir:        dir,
		dispatcher: dispatcher,
		logger:     logger,
		runners:    make(map[uuid.UUID]*runner),
	}
}

// SetListener registers a callback invoked after every persisted alert
// transition. Used for the websocket status stream.
func (e *Engine) SetListener(fn func(models.Alert)) {
	e.listener = fn
}

// OpenParams describes a new alert.
type OpenParams struct {
	OwnerUserID  int64
	ReportID     *[16]byte
	Severity     models.RiskTier
	UserDeclared bool
	Message      string
	Location     *models.Location
}

// Open creates an alert, populates its channel set and starts dispatching.
// Returns a snapshot of the alert as created.
func (e *Engine) Open(ctx context.Context, p OpenParams) (models.Alert, error) {
	id := uuid.New()
	now := time.Now()
	alert := models.Alert{
		ID:           id,
		OwnerUserID:  p.OwnerUserID,
		ReportID:     p.ReportID,
		Severity:     p.Severity,
		UserDeclared: p.UserDeclared,
		Message:      p.Message,
		Location:     p.Location,
		Status:       models.AlertOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	alert.Channels = e.initialChannels(ctx, alert)

	if len(alert.Channels) == 0 {
		// No contacts, nothing in radius, below critical: nobody to tell.
		alert.Status = models.AlertUnresolved
		alert.Reason = models.ReasonNoChannels
		if err := e.store.CreateAlert(ctx, alert); err != nil {
			return models.Alert{}, err
		}
		e.logger.Warnf("alert %s opened with no channels, unresolved immediately", id)
		e.notify(alert)
		return alert, nil
	}

	if err := e.store.CreateAlert(ctx, alert); err != nil {
		return models.Alert{}, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r := &runner{
		e:      e,
		alert:  cloneAlert(alert),
		events: make(chan event, 16),
		ctx:    runCtx,
		cancel: cancel,
	}
	e.mu.Lock()
	e.runners[id] = r
	e.mu.Unlock()

	go r.loop()

	e.logger.Infof("alert %s opened for user %d with %d channels (severity %s)",
		id, p.OwnerUserID, len(alert.Channels), p.Severity)
	return alert, nil
}

// Acknowledge routes a responder ack into the alert's event stream. The first
// ack wins; later ones are recorded and rejected with ErrAlreadyAcknowledged.
func (e *Engine) Acknowledge(ctx context.Context, alertID uuid.UUID, targetRef string) error {
	return e.ask(ctx, alertID, func(reply chan error) event {
		return ackEvent{targetRef: targetRef, reply: reply}
	})
}

// Resolve transitions the alert to resolved and cancels all pending timers
// and in-flight retries atomically with the transition.
func (e *Engine) Resolve(ctx context.Context, alertID uuid.UUID, notes string) error {
	return e.ask(ctx, alertID, func(reply chan error) event {
		return resolveEvent{notes: notes, reply: reply}
	})
}

// ask posts a request event to a live runner and waits for its reply.
func (e *Engine) ask(ctx context.Context, alertID uuid.UUID, build func(chan error) event) error {
	e.mu.Lock()
	r := e.runners[alertID]
	e.mu.Unlock()
	if r == nil {
		return ErrNotFound
	}

	reply := make(chan error, 1)
	select {
	case r.events <- build(reply):
	case <-r.ctx.Done():
		return ErrAlreadyTerminal
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-r.ctx.Done():
		return ErrAlreadyTerminal
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops all runners. Open alerts stay persisted and can be
// re-driven after a restart.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, r := range e.runners {
		r.cancel()
		delete(e.runners, id)
	}
}

func (e *Engine) remove(id uuid.UUID) {
	e.mu.Lock()
	delete(e.runners, id)
	e.mu.Unlock()
}

func (e *Engine) notify(alert models.Alert) {
	if e.listener != nil {
		e.listener(cloneAlert(alert))
	}
}

func cloneAlert(a models.Alert) models.Alert {
	c := a
	c.Channels = append([]models.ChannelDispatch(nil), a.Channels...)
	return c
}
