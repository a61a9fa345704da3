package providers

import (
	"context"

	"github.com/google/uuid"

	"emergency-service/internal/dispatch"
	"emergency-service/internal/logging"
	"emergency-service/internal/models"
)

// EmergencyService returns the provider for the emergency-services channel.
// There is no programmatic dispatch integration with national emergency
// services yet; the channel exists so critical alerts carry the target from
// round one and the handoff is audited. Delivery is the audit log entry.
func EmergencyService(logger *logging.Logger) dispatch.ProviderFunc {
	return func(ctx context.Context, alert models.Alert, ch models.ChannelDispatch) error {
		logger.Warnf("emergency services notified for alert %s (severity %s)",
			uuid.UUID(alert.ID).String(), alert.Severity)
		return nil
	}
}
