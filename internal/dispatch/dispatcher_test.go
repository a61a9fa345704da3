package dispatch

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergency-service/internal/logging"
	"emergency-service/internal/models"
)

type memAudit struct {
	mu   sync.Mutex
	recs []models.DispatchRecord
}

func (a *memAudit) AppendDispatchRecord(_ context.Context, rec models.DispatchRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recs = append(a.recs, rec)
	return nil
}

func testLogger() *logging.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logging.Logger{Logger: l}
}

func contactChannel() models.ChannelDispatch {
	return models.ChannelDispatch{TargetRef: "contact:1", Kind: models.ChannelContact, Status: models.DeliveryPending}
}

func TestDispatchDelivers(t *testing.T) {
	audit := &memAudit{}
	calls := 0
	d := New(testLogger(), audit, map[models.ChannelKind]ProviderFunc{
		models.ChannelContact: func(context.Context, models.Alert, models.ChannelDispatch) error {
			calls++
			return nil
		},
	}, 3, time.Millisecond, 100)

	out := d.Dispatch(context.Background(), models.Alert{}, contactChannel())

	assert.True(t, out.Delivered)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, 1, calls)
	require.Len(t, audit.recs, 1)
	assert.True(t, audit.recs[0].Delivered)
}

func TestDispatchRetriesThenSucceeds(t *testing.T) {
	audit := &memAudit{}
	calls := 0
	d := New(testLogger(), audit, map[models.ChannelKind]ProviderFunc{
		models.ChannelContact: func(context.Context, models.Alert, models.ChannelDispatch) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		},
	}, 3, time.Millisecond, 100)

	out := d.Dispatch(context.Background(), models.Alert{}, contactChannel())

	assert.True(t, out.Delivered)
	assert.Equal(t, 3, out.Attempts)
	assert.Len(t, audit.recs, 3, "every attempt is audited")
}

func TestDispatchExhaustsAttempts(t *testing.T) {
	audit := &memAudit{}
	d := New(testLogger(), audit, map[models.ChannelKind]ProviderFunc{
		models.ChannelContact: func(context.Context, models.Alert, models.ChannelDispatch) error {
			return errors.New("provider down")
		},
	}, 3, time.Millisecond, 100)

	out := d.Dispatch(context.Background(), models.Alert{}, contactChannel())

	assert.False(t, out.Delivered)
	assert.Equal(t, 3, out.Attempts)
	assert.Contains(t, out.Err, "provider down")
	assert.Len(t, audit.recs, 3)
}

func TestDispatchUnknownKind(t *testing.T) {
	audit := &memAudit{}
	d := New(testLogger(), audit, map[models.ChannelKind]ProviderFunc{}, 3, time.Millisecond, 100)

	out := d.Dispatch(context.Background(), models.Alert{}, contactChannel())

	assert.False(t, out.Delivered)
	assert.Contains(t, out.Err, "no provider")
	require.Len(t, audit.recs, 1)
	assert.False(t, audit.recs[0].Delivered)
}

func TestDispatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	audit := &memAudit{}
	calls := 0
	d := New(testLogger(), audit, map[models.ChannelKind]ProviderFunc{
		models.ChannelContact: func(context.Context, models.Alert, models.ChannelDispatch) error {
			calls++
			cancel()
			return errors.New("transient")
		},
	}, 5, time.Minute, 100)

	out := d.Dispatch(ctx, models.Alert{}, contactChannel())

	assert.False(t, out.Delivered)
	assert.Equal(t, 1, calls, "cancellation must stop further attempts")
}
