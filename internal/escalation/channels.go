package escalation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"emergency-service/internal/georank"
	"emergency-service/internal/models"
)

const serviceTargetRef = "service:ems"

// initialChannels builds the round-zero channel set: the owner's emergency
// contacts, the top-K ranked facilities, and the emergency-services channel
// for critical severity. Directory failures degrade the set rather than
// blocking the alert.
func (e *Engine) initialChannels(ctx context.Context, alert models.Alert) []models.ChannelDispatch {
	var channels []models.ChannelDispatch

	contacts, err := e.dir.ContactsByUser(ctx, alert.OwnerUserID)
	if err != nil {
		e.logger.Errorf("load contacts for user %d failed: %v", alert.OwnerUserID, err)
	}
	for _, c := range contacts {
		channels = append(channels, contactChannel(c, 0))
	}

	channels = append(channels, e.facilityChannels(ctx, &alert, 0, nil)...)

	if alert.Severity == models.TierCritical {
		channels = append(channels, serviceChannel(0))
	}
	return channels
}

// nextChannels returns the additions for the alert's current escalation
// round: facilities ranked beyond those already attached, plus the
// emergency-services channel if not yet included.
func (e *Engine) nextChannels(ctx context.Context, alert *models.Alert) []models.ChannelDispatch {
	have := make(map[string]bool, len(alert.Channels))
	for _, ch := range alert.Channels {
		have[ch.TargetRef] = true
	}

	added := e.facilityChannels(ctx, alert, alert.Round, have)
	if !have[serviceTargetRef] {
		added = append(added, serviceChannel(alert.Round))
	}
	return added
}

// facilityChannels ranks the registry for the alert location and returns
// channels for facilities not in skip. Each round widens the candidate list
// by another top-K.
func (e *Engine) facilityChannels(ctx context.Context, alert *models.Alert, round int, skip map[string]bool) []models.ChannelDispatch {
	facilities, err := e.dir.Facilities(ctx)
	if err != nil {
		e.logger.Errorf("load facility registry failed: %v", err)
		return nil
	}

	limit := e.opts.FacilityTopK * (round + 1)
	ranking := georank.Rank(alert.Location, facilities, e.opts.FacilityRadiusKm, limit)
	if ranking.Unordered {
		e.logger.Warnf("alert %s has no location, facility set unordered", uuid.UUID(alert.ID))
	}

	var channels []models.ChannelDispatch
	for _, rf := range ranking.Facilities {
		ref := fmt.Sprintf("facility:%d", rf.ID)
		if skip[ref] {
			continue
		}
		channels = append(channels, models.ChannelDispatch{
			TargetRef: ref,
			Kind:      models.ChannelFacility,
			Name:      rf.Name,
			Round:     round,
			Status:    models.DeliveryPending,
			Configuration: map[string]interface{}{
				"phone":       rf.Phone,
				"webhook_url": rf.WebhookURL,
			},
		})
	}
	return channels
}

func contactChannel(c models.EmergencyContact, round int) models.ChannelDispatch {
	return models.ChannelDispatch{
		TargetRef: fmt.Sprintf("contact:%d", c.ID),
		Kind:      models.ChannelContact,
		Name:      c.Name,
		Round:     round,
		Status:    models.DeliveryPending,
		Configuration: map[string]interface{}{
			"phone":            c.Phone,
			"email":            c.Email,
			"telegram_chat_id": c.TelegramChatID,
		},
	}
}

func serviceChannel(round int) models.ChannelDispatch {
	return models.ChannelDispatch{
		TargetRef: serviceTargetRef,
		Kind:      models.ChannelService,
		Name:      "Emergency Services",
		Round:     round,
		Status:    models.DeliveryPending,
		Configuration: map[string]interface{}{
			"number": "112",
		},
	}
}
