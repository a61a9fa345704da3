package dispatch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"emergency-service/internal/logging"
	"emergency-service/internal/models"
)

// Outcome is the final per-channel delivery result reported back to the
// escalation engine.
type Outcome struct {
	Delivered bool
	Attempts  int
	Detail    string
	Err       string
}

// ProviderFunc delivers one notification over a concrete mechanism.
type ProviderFunc func(ctx context.Context, alert models.Alert, ch models.ChannelDispatch) error

// AuditLog records every dispatch attempt, success or not.
type AuditLog interface {
	AppendDispatchRecord(ctx context.Context, rec models.DispatchRecord) error
}

// Dispatcher fans alerts out to channels. It decides how to deliver, never
// whether to escalate; that stays with the escalation engine.
type Dispatcher struct {
	logger      *logging.Logger
	audit       AuditLog
	limiter     *rate.Limiter
	providers   map[models.ChannelKind]ProviderFunc
	maxAttempts int
	backoff     time.Duration
}

// New builds a Dispatcher. New channel kinds are added by registering another
// provider; the state machine upstream never changes for that.
func New(logger *logging.Logger, audit AuditLog, providers map[models.ChannelKind]ProviderFunc, maxAttempts int, backoff time.Duration, perSecond int) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Dispatcher{
		logger:      logger,
		audit:       audit,
		limiter:     rate.NewLimiter(rate.Limit(float64(perSecond)), perSecond),
		providers:   providers,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// Dispatch delivers to a single channel with bounded retries and exponential
// backoff. Every attempt is appended to the audit log regardless of outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, alert models.Alert, ch models.ChannelDispatch) Outcome {
	provider, ok := d.providers[ch.Kind]
	if !ok {
		out := Outcome{Attempts: 1, Err: fmt.Sprintf("no provider for channel kind %q", ch.Kind)}
		d.record(ctx, alert, ch, 1, out)
		return out
	}

	delay := d.backoff
	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			out := Outcome{Attempts: attempt, Err: fmt.Sprintf("dispatch cancelled: %v", err)}
			d.record(ctx, alert, ch, attempt, out)
			return out
		}

		err := provider(ctx, alert, ch)
		if err == nil {
			out := Outcome{Delivered: true, Attempts: attempt}
			d.record(ctx, alert, ch, attempt, out)
			return out
		}
		lastErr = err
		d.logger.Warnf("dispatch attempt %d/%d for %s failed: %v", attempt, d.maxAttempts, ch.TargetRef, err)
		d.record(ctx, alert, ch, attempt, Outcome{Attempts: attempt, Err: err.Error()})

		if attempt < d.maxAttempts {
			select {
			case <-ctx.Done():
				return Outcome{Attempts: attempt, Err: fmt.Sprintf("dispatch cancelled: %v", ctx.Err())}
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return Outcome{Attempts: d.maxAttempts, Err: lastErr.Error()}
}

func (d *Dispatcher) record(ctx context.Context, alert models.Alert, ch models.ChannelDispatch, attempt int, out Outcome) {
	rec := models.DispatchRecord{
		AlertID:   alert.ID,
		TargetRef: ch.TargetRef,
		Kind:      ch.Kind,
		Attempt:   attempt,
		Delivered: out.Delivered,
		Detail:    out.Detail,
		Error:     out.Err,
		At:        time.Now(),
	}
	if err := d.audit.AppendDispatchRecord(ctx, rec); err != nil {
		d.logger.Errorf("append dispatch record for %s failed: %v", ch.TargetRef, err)
	}
}
