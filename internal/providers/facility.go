package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"emergency-service/internal/config"
	"emergency-service/internal/dispatch"
	"emergency-service/internal/logging"
	"emergency-service/internal/models"
	"emergency-service/pkg/sms"
)

type facilityConfig struct {
	WebhookURL string `json:"webhook_url"`
	Phone      string `json:"phone"`
}

// facilityPayload is the body posted to a facility's intake endpoint.
type facilityPayload struct {
	AlertID   string           `json:"alert_id"`
	Severity  models.RiskTier  `json:"severity"`
	Message   string           `json:"message"`
	Location  *models.Location `json:"location,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Facility returns the provider for care-facility channels: an HTTP call to
// the facility system when a webhook is registered, otherwise an SMS to the
// facility's emergency line.
func Facility(cfg config.Config, logger *logging.Logger) dispatch.ProviderFunc {
	client := &http.Client{Timeout: 10 * time.Second}

	return func(ctx context.Context, alert models.Alert, ch models.ChannelDispatch) error {
		var fc facilityConfig
		if err := decodeConfiguration(ch.Configuration, &fc); err != nil {
			return fmt.Errorf("invalid facility configuration for %s: %w", ch.TargetRef, err)
		}

		if fc.WebhookURL != "" {
			payload := facilityPayload{
				AlertID:   uuid.UUID(alert.ID).String(),
				Severity:  alert.Severity,
				Message:   alert.Message,
				Location:  alert.Location,
				Timestamp: time.Now(),
			}
			body, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("marshal facility payload: %w", err)
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, fc.WebhookURL, bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("build facility request for %s: %w", ch.TargetRef, err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("facility webhook %s unreachable: %w", fc.WebhookURL, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 300 {
				return fmt.Errorf("facility webhook %s returned %d", fc.WebhookURL, resp.StatusCode)
			}
			return nil
		}

		if fc.Phone != "" && cfg.SMS.AccountSID != "" {
			if err := sms.Send(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber, fc.Phone, alertText(alert, ch)); err != nil {
				return fmt.Errorf("facility sms to %s: %w", fc.Phone, err)
			}
			return nil
		}

		return fmt.Errorf("facility %s has no reachable endpoint", ch.TargetRef)
	}
}
