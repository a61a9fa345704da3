package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"emergency-service/internal/models"
)

// runner is the single writer for one alert. All state changes flow through
// its event channel; timers and dispatch goroutines only post events.
type runner struct {
	e      *Engine
	alert  models.Alert
	events chan event
	ctx    context.Context
	cancel context.CancelFunc
}

func (r *runner) loop() {
	r.dispatchPending()

	for {
		select {
		case <-r.ctx.Done():
			return
		case ev := <-r.events:
			r.handle(ev)
		}
		if r.alert.Status.Terminal() {
			r.e.remove(uuid.UUID(r.alert.ID))
			r.cancel()
			return
		}
	}
}

func (r *runner) handle(ev event) {
	switch ev := ev.(type) {
	case deliveryEvent:
		r.onDelivery(ev)
	case ackEvent:
		ev.reply <- r.onAck(ev.targetRef)
	case deadlineEvent:
		r.maybeEscalate()
	case resolveEvent:
		ev.reply <- r.onResolve(ev.notes)
	}
}

// dispatchPending fans out every pending channel concurrently. Channels are
// independent I/O; only the aggregation of their outcomes is serialized.
func (r *runner) dispatchPending() {
	snapshot := r.alert
	snapshot.Channels = nil
	for _, ch := range r.alert.Channels {
		if ch.Status != models.DeliveryPending {
			continue
		}
		go func(ch models.ChannelDispatch) {
			out := r.e.dispatcher.Dispatch(r.ctx, snapshot, ch)
			r.post(deliveryEvent{targetRef: ch.TargetRef, outcome: out})
		}(ch)
	}
}

func (r *runner) onDelivery(ev deliveryEvent) {
	ch := r.channel(ev.targetRef)
	if ch == nil || ch.Status != models.DeliveryPending {
		// Duplicate or late callback for a settled channel; never
		// double-count a retried dispatch as a second channel.
		return
	}

	now := time.Now()
	ch.Attempts = ev.outcome.Attempts
	ch.LastAttemptAt = &now
	if ev.outcome.Delivered {
		ch.Status = models.DeliveryDelivered
		deadline := now.Add(r.e.opts.AckDeadline)
		ch.AckDeadline = &deadline
		r.armDeadline(ch.TargetRef, r.e.opts.AckDeadline)
	} else {
		ch.Status = models.DeliveryFailed
		ch.LastError = ev.outcome.Err
	}

	if allFailed(r.alert.Channels) {
		r.terminate(models.AlertUnresolved, models.ReasonAllChannelsFailed)
		return
	}
	r.refold()
	r.maybeEscalate()
}

func (r *runner) onAck(targetRef string) error {
	ch := r.channel(targetRef)
	if ch == nil {
		return ErrUnknownChannel
	}
	if r.alert.Status == models.AlertAcknowledged || ch.Status == models.DeliveryAcknowledged {
		// Recorded for audit, no state change.
		r.audit(fmt.Sprintf("duplicate acknowledgment from %s ignored", targetRef))
		return ErrAlreadyAcknowledged
	}

	ch.Status = models.DeliveryAcknowledged
	r.refold()
	r.e.logger.Infof("alert %s acknowledged by %s", uuid.UUID(r.alert.ID), targetRef)
	return nil
}

func (r *runner) onResolve(notes string) error {
	if r.alert.Status.Terminal() {
		return ErrAlreadyTerminal
	}
	r.alert.ResolutionNotes = notes
	r.terminate(models.AlertResolved, "")
	r.e.logger.Infof("alert %s resolved", uuid.UUID(r.alert.ID))
	return nil
}

// maybeEscalate fires when the current round is exhausted: no channel is
// still pending, at least one was delivered, and every delivered channel's
// ack window has elapsed without acknowledgment.
func (r *runner) maybeEscalate() {
	if r.alert.Status.Terminal() || r.alert.Status == models.AlertAcknowledged {
		return
	}
	now := time.Now()
	delivered := 0
	for _, ch := range r.alert.Channels {
		switch ch.Status {
		case models.DeliveryPending:
			return
		case models.DeliveryDelivered:
			delivered++
			if ch.AckDeadline == nil || ch.AckDeadline.After(now) {
				return
			}
		}
	}
	if delivered == 0 {
		return
	}
	r.escalate()
}

func (r *runner) escalate() {
	next := r.alert.Round + 1
	if next >= r.e.opts.MaxRounds {
		r.terminate(models.AlertUnresolved, models.ReasonAckTimeout)
		r.e.logger.Warnf("alert %s exhausted %d escalation rounds, unresolved",
			uuid.UUID(r.alert.ID), r.e.opts.MaxRounds)
		return
	}
	r.alert.Round = next

	added := r.e.nextChannels(r.ctx, &r.alert)
	if len(added) == 0 {
		// Nothing left to add; re-arm the ack window on delivered channels
		// so round exhaustion stays bounded.
		now := time.Now()
		for i := range r.alert.Channels {
			ch := &r.alert.Channels[i]
			if ch.Status == models.DeliveryDelivered {
				deadline := now.Add(r.e.opts.AckDeadline)
				ch.AckDeadline = &deadline
				r.armDeadline(ch.TargetRef, r.e.opts.AckDeadline)
			}
		}
		r.refold()
		return
	}

	r.alert.Channels = append(r.alert.Channels, added...)
	r.refold()
	r.e.logger.Infof("alert %s escalated to round %d with %d new channels",
		uuid.UUID(r.alert.ID), next, len(added))
	r.dispatchPending()
}

// refold recomputes status from channel states and persists.
func (r *runner) refold() {
	r.alert.Status = foldStatus(r.alert.Channels)
	r.alert.UpdatedAt = time.Now()
	r.persist()
	r.e.notify(r.alert)
}

func (r *runner) terminate(status models.AlertStatus, reason string) {
	r.alert.Status = status
	r.alert.Reason = reason
	r.alert.UpdatedAt = time.Now()
	r.persist()
	r.e.notify(r.alert)
}

// persist writes through to the store. The runner's in-memory alert stays
// authoritative; a failed write is logged, not propagated, so a flaky
// database cannot stall the event loop.
func (r *runner) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.e.store.UpdateAlert(ctx, cloneAlert(r.alert)); err != nil {
		r.e.logger.Errorf("persist alert %s failed: %v", uuid.UUID(r.alert.ID), err)
	}
}

func (r *runner) audit(note string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.e.store.AppendAuditNote(ctx, r.alert.ID, note); err != nil {
		r.e.logger.Errorf("append audit note for alert %s failed: %v", uuid.UUID(r.alert.ID), err)
	}
}

func (r *runner) channel(targetRef string) *models.ChannelDispatch {
	for i := range r.alert.Channels {
		if r.alert.Channels[i].TargetRef == targetRef {
			return &r.alert.Channels[i]
		}
	}
	return nil
}

func (r *runner) armDeadline(targetRef string, d time.Duration) {
	go func() {
		select {
		case <-time.After(d):
			r.post(deadlineEvent{targetRef: targetRef})
		case <-r.ctx.Done():
		}
	}()
}

func (r *runner) post(ev event) {
	select {
	case r.events <- ev:
	case <-r.ctx.Done():
	}
}
