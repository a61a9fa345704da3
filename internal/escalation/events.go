package escalation

import "emergency-service/internal/dispatch"

// Events posted into a runner's serialized stream. Timer expirations travel
// the same channel as external callbacks, so each alert sees a single total
// order of events.
type event interface{ isEvent() }

// deliveryEvent carries a channel's final dispatch outcome.
type deliveryEvent struct {
	targetRef string
	outcome   dispatch.Outcome
}

// ackEvent is a responder acknowledgment callback.
type ackEvent struct {
	targetRef string
	reply     chan error
}

// deadlineEvent fires when a delivered channel's ack window elapses.
type deadlineEvent struct {
	targetRef string
}

// resolveEvent is an explicit user/operator resolution.
type resolveEvent struct {
	notes string
	reply chan error
}

func (deliveryEvent) isEvent() {}
func (ackEvent) isEvent()      {}
func (deadlineEvent) isEvent() {}
func (resolveEvent) isEvent()  {}
