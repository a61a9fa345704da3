package escalation

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergency-service/internal/dispatch"
	"emergency-service/internal/logging"
	"emergency-service/internal/models"
)

type fakeStore struct {
	mu     sync.Mutex
	alerts map[uuid.UUID]models.Alert
	notes  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{alerts: make(map[uuid.UUID]models.Alert)}
}

func (s *fakeStore) CreateAlert(_ context.Context, a models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[uuid.UUID(a.ID)] = a
	return nil
}

func (s *fakeStore) UpdateAlert(_ context.Context, a models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[uuid.UUID(a.ID)] = a
	return nil
}

func (s *fakeStore) AppendAuditNote(_ context.Context, _ [16]byte, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, note)
	return nil
}

func (s *fakeStore) snapshot(id uuid.UUID) (models.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	return a, ok
}

func (s *fakeStore) noteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

type fakeDirectory struct {
	contacts   []models.EmergencyContact
	facilities []models.Facility
}

func (d *fakeDirectory) ContactsByUser(context.Context, int64) ([]models.EmergencyContact, error) {
	return d.contacts, nil
}

func (d *fakeDirectory) Facilities(context.Context) ([]models.Facility, error) {
	return d.facilities, nil
}

// fakeDispatcher delivers everything unless a target is listed in fail.
type fakeDispatcher struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (d *fakeDispatcher) Dispatch(_ context.Context, _ models.Alert, ch models.ChannelDispatch) dispatch.Outcome {
	d.mu.Lock()
	d.calls = append(d.calls, ch.TargetRef)
	failed := d.fail[ch.TargetRef]
	d.mu.Unlock()

	if failed {
		return dispatch.Outcome{Attempts: 1, Err: "provider unreachable"}
	}
	return dispatch.Outcome{Delivered: true, Attempts: 1}
}

func (d *fakeDispatcher) dispatched(targetRef string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ref := range d.calls {
		if ref == targetRef {
			return true
		}
	}
	return false
}

func testLogger() *logging.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logging.Logger{Logger: l}
}

func testDirectory() *fakeDirectory {
	return &fakeDirectory{
		contacts: []models.EmergencyContact{
			{ID: 1, UserID: 42, Name: "Sister", Phone: "+84901234567"},
		},
		facilities: []models.Facility{
			{ID: 10, Name: "District Clinic", Phone: "+84901111111",
				Coordinates: models.Location{Latitude: 21.03, Longitude: 105.85}},
			{ID: 11, Name: "City Hospital", Phone: "+84902222222",
				Coordinates: models.Location{Latitude: 21.05, Longitude: 105.85}},
		},
	}
}

func testEngine(t *testing.T, dir Directory, disp Dispatcher, opts Options) (*Engine, *fakeStore) {
	t.Helper()
	if opts.AckDeadline == 0 {
		opts.AckDeadline = 25 * time.Millisecond
	}
	if opts.MaxRounds == 0 {
		opts.MaxRounds = 3
	}
	if opts.FacilityTopK == 0 {
		opts.FacilityTopK = 1
	}
	if opts.FacilityRadiusKm == 0 {
		opts.FacilityRadiusKm = 25
	}
	store := newFakeStore()
	e := New(opts, store, dir, disp, testLogger())
	t.Cleanup(e.Shutdown)
	return e, store
}

func openParams(severity models.RiskTier) OpenParams {
	loc := models.Location{Latitude: 21.0285, Longitude: 105.8542}
	return OpenParams{
		OwnerUserID: 42,
		Severity:    severity,
		Message:     "severe bleeding reported",
		Location:    &loc,
	}
}

func waitForStatus(t *testing.T, store *fakeStore, id uuid.UUID, want models.AlertStatus) models.Alert {
	t.Helper()
	var got models.Alert
	require.Eventually(t, func() bool {
		a, ok := store.snapshot(id)
		got = a
		return ok && a.Status == want
	}, 2*time.Second, 5*time.Millisecond, "alert never reached status %s (last %s)", want, got.Status)
	return got
}

func TestOpenCriticalIncludesEmergencyServices(t *testing.T) {
	disp := &fakeDispatcher{}
	e, _ := testEngine(t, testDirectory(), disp, Options{})

	alert, err := e.Open(context.Background(), openParams(models.TierCritical))
	require.NoError(t, err)

	refs := make(map[string]bool)
	for _, ch := range alert.Channels {
		refs[ch.TargetRef] = true
		assert.Equal(t, models.DeliveryPending, ch.Status)
		assert.Equal(t, 0, ch.Round)
	}
	assert.True(t, refs["contact:1"])
	assert.True(t, refs["facility:10"], "nearest facility should be in round zero")
	assert.True(t, refs["service:ems"], "critical severity always notifies emergency services")
}

func TestOpenHighSeverityOmitsEmergencyServices(t *testing.T) {
	disp := &fakeDispatcher{}
	e, _ := testEngine(t, testDirectory(), disp, Options{})

	alert, err := e.Open(context.Background(), openParams(models.TierHigh))
	require.NoError(t, err)

	for _, ch := range alert.Channels {
		assert.NotEqual(t, "service:ems", ch.TargetRef)
	}
}

func TestAcknowledgeSettlesAlert(t *testing.T) {
	disp := &fakeDispatcher{}
	e, store := testEngine(t, testDirectory(), disp, Options{AckDeadline: time.Minute})

	alert, err := e.Open(context.Background(), openParams(models.TierHigh))
	require.NoError(t, err)
	id := uuid.UUID(alert.ID)
	waitForStatus(t, store, id, models.AlertAwaitingAck)

	require.NoError(t, e.Acknowledge(context.Background(), id, "contact:1"))

	got := waitForStatus(t, store, id, models.AlertAcknowledged)
	for _, ch := range got.Channels {
		if ch.TargetRef == "contact:1" {
			assert.Equal(t, models.DeliveryAcknowledged, ch.Status)
		}
	}
}

func TestDuplicateAcknowledgeIsNoOp(t *testing.T) {
	disp := &fakeDispatcher{}
	e, store := testEngine(t, testDirectory(), disp, Options{AckDeadline: time.Minute})

	alert, err := e.Open(context.Background(), openParams(models.TierHigh))
	require.NoError(t, err)
	id := uuid.UUID(alert.ID)
	waitForStatus(t, store, id, models.AlertAwaitingAck)

	require.NoError(t, e.Acknowledge(context.Background(), id, "contact:1"))
	err = e.Acknowledge(context.Background(), id, "facility:10")
	assert.ErrorIs(t, err, ErrAlreadyAcknowledged)

	got, _ := store.snapshot(id)
	assert.Equal(t, models.AlertAcknowledged, got.Status)
	assert.Equal(t, 1, store.noteCount(), "duplicate ack should be recorded for audit")
}

func TestAcknowledgeUnknownChannel(t *testing.T) {
	disp := &fakeDispatcher{}
	e, store := testEngine(t, testDirectory(), disp, Options{AckDeadline: time.Minute})

	alert, err := e.Open(context.Background(), openParams(models.TierHigh))
	require.NoError(t, err)
	id := uuid.UUID(alert.ID)
	waitForStatus(t, store, id, models.AlertAwaitingAck)

	err = e.Acknowledge(context.Background(), id, "contact:999")
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestOpenWithNoChannelsIsUnresolved(t *testing.T) {
	disp := &fakeDispatcher{}
	e, store := testEngine(t, &fakeDirectory{}, disp, Options{})

	alert, err := e.Open(context.Background(), openParams(models.TierHigh))
	require.NoError(t, err)

	assert.Equal(t, models.AlertUnresolved, alert.Status)
	assert.Equal(t, models.ReasonNoChannels, alert.Reason)

	got, ok := store.snapshot(uuid.UUID(alert.ID))
	require.True(t, ok)
	assert.Equal(t, models.AlertUnresolved, got.Status)

	err = e.Acknowledge(context.Background(), uuid.UUID(alert.ID), "contact:1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAllChannelsFailedIsUnresolved(t *testing.T) {
	disp := &fakeDispatcher{fail: map[string]bool{
		"contact:1": true, "facility:10": true,
	}}
	dir := testDirectory()
	dir.facilities = dir.facilities[:1]
	e, store := testEngine(t, dir, disp, Options{AckDeadline: time.Minute})

	alert, err := e.Open(context.Background(), openParams(models.TierHigh))
	require.NoError(t, err)

	got := waitForStatus(t, store, uuid.UUID(alert.ID), models.AlertUnresolved)
	assert.Equal(t, models.ReasonAllChannelsFailed, got.Reason)
}

func TestEscalationWidensChannelSet(t *testing.T) {
	disp := &fakeDispatcher{}
	e, store := testEngine(t, testDirectory(), disp, Options{
		AckDeadline: 20 * time.Millisecond,
		MaxRounds:   3,
	})

	alert, err := e.Open(context.Background(), openParams(models.TierHigh))
	require.NoError(t, err)
	id := uuid.UUID(alert.ID)

	// Round one should pull in the second-nearest facility and the
	// emergency-services fallback once nobody acknowledges.
	require.Eventually(t, func() bool {
		return disp.dispatched("facility:11") && disp.dispatched("service:ems")
	}, 2*time.Second, 5*time.Millisecond)

	got, _ := store.snapshot(id)
	assert.GreaterOrEqual(t, got.Round, 1)
}

func TestEscalationExhaustionIsUnresolved(t *testing.T) {
	disp := &fakeDispatcher{}
	e, store := testEngine(t, testDirectory(), disp, Options{
		AckDeadline: 15 * time.Millisecond,
		MaxRounds:   2,
	})

	alert, err := e.Open(context.Background(), openParams(models.TierHigh))
	require.NoError(t, err)

	got := waitForStatus(t, store, uuid.UUID(alert.ID), models.AlertUnresolved)
	assert.Equal(t, models.ReasonAckTimeout, got.Reason)
	assert.Less(t, got.Round, 2, "rounds are bounded by the configured maximum")
}

func TestResolveIsTerminal(t *testing.T) {
	disp := &fakeDispatcher{}
	e, store := testEngine(t, testDirectory(), disp, Options{AckDeadline: time.Minute})

	alert, err := e.Open(context.Background(), openParams(models.TierHigh))
	require.NoError(t, err)
	id := uuid.UUID(alert.ID)
	waitForStatus(t, store, id, models.AlertAwaitingAck)

	require.NoError(t, e.Resolve(context.Background(), id, "false alarm"))

	got := waitForStatus(t, store, id, models.AlertResolved)
	assert.Equal(t, "false alarm", got.ResolutionNotes)

	// The runner is gone; further actions see no live alert.
	assert.ErrorIs(t, e.Resolve(context.Background(), id, "again"), ErrNotFound)
	assert.ErrorIs(t, e.Acknowledge(context.Background(), id, "contact:1"), ErrNotFound)

	after, _ := store.snapshot(id)
	assert.Equal(t, models.AlertResolved, after.Status)
}

func TestListenerObservesTransitions(t *testing.T) {
	disp := &fakeDispatcher{}
	e, store := testEngine(t, testDirectory(), disp, Options{AckDeadline: time.Minute})

	var mu sync.Mutex
	var seen []models.AlertStatus
	e.SetListener(func(a models.Alert) {
		mu.Lock()
		seen = append(seen, a.Status)
		mu.Unlock()
	})

	alert, err := e.Open(context.Background(), openParams(models.TierHigh))
	require.NoError(t, err)
	id := uuid.UUID(alert.ID)
	waitForStatus(t, store, id, models.AlertAwaitingAck)
	require.NoError(t, e.Acknowledge(context.Background(), id, "contact:1"))
	waitForStatus(t, store, id, models.AlertAcknowledged)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, models.AlertAcknowledged, seen[len(seen)-1])
}
