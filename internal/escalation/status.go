package escalation

import "emergency-service/internal/models"

// foldStatus recomputes the non-terminal alert status from its channel
// states. The alert status is never mutated ad hoc; every channel event runs
// this fold, which keeps the status-is-a-function-of-channels invariant
// mechanically checkable. Terminal transitions (resolved, unresolved) are
// driven by the event loop, not by the fold.
func foldStatus(channels []models.ChannelDispatch) models.AlertStatus {
	if len(channels) == 0 {
		return models.AlertOpen
	}

	var pending, delivered, failed, acked int
	maxRound := 0
	for _, ch := range channels {
		switch ch.Status {
		case models.DeliveryPending:
			pending++
		case models.DeliveryDelivered:
			delivered++
		case models.DeliveryFailed:
			failed++
		case models.DeliveryAcknowledged:
			acked++
		}
		if ch.Round > maxRound {
			maxRound = ch.Round
		}
	}

	switch {
	case acked > 0:
		// First-responder semantics: one ack settles the alert.
		return models.AlertAcknowledged
	case pending > 0 && maxRound > 0:
		return models.AlertEscalated
	case pending > 0:
		return models.AlertDispatching
	case delivered > 0:
		return models.AlertAwaitingAck
	default:
		// Everything failed; the engine turns this into unresolved.
		return models.AlertDispatching
	}
}

// allFailed reports whether every channel reached permanent failure.
func allFailed(channels []models.ChannelDispatch) bool {
	if len(channels) == 0 {
		return false
	}
	for _, ch := range channels {
		if ch.Status != models.DeliveryFailed {
			return false
		}
	}
	return true
}
