package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-telegram/bot"

	"emergency-service/internal/config"
	"emergency-service/internal/dispatch"
	"emergency-service/internal/logging"
	"emergency-service/internal/models"
	"emergency-service/pkg/email"
	"emergency-service/pkg/sms"
)

// contactConfig holds the delivery endpoints registered for one emergency
// contact. At least one of the endpoints must be set.
type contactConfig struct {
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	TelegramChatID int64  `json:"telegram_chat_id"`
}

// Contact returns the provider for emergency-contact channels. It tries
// telegram, then SMS, then email, in order of what the contact registered and
// what credentials are configured.
func Contact(cfg config.Config, logger *logging.Logger) dispatch.ProviderFunc {
	return func(ctx context.Context, alert models.Alert, ch models.ChannelDispatch) error {
		var cc contactConfig
		if err := decodeConfiguration(ch.Configuration, &cc); err != nil {
			return fmt.Errorf("invalid contact configuration for %s: %w", ch.TargetRef, err)
		}

		text := alertText(alert, ch)

		if cc.TelegramChatID != 0 && cfg.Telegram.BotToken != "" {
			b, err := bot.New(cfg.Telegram.BotToken)
			if err != nil {
				return fmt.Errorf("telegram bot init for %s: %w", ch.TargetRef, err)
			}
			_, err = b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: cc.TelegramChatID,
				Text:   text,
			})
			if err != nil {
				return fmt.Errorf("telegram send to chat %d: %w", cc.TelegramChatID, err)
			}
			return nil
		}

		if cc.Phone != "" && cfg.SMS.AccountSID != "" {
			if err := sms.Send(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber, cc.Phone, text); err != nil {
				return fmt.Errorf("sms send to %s: %w", cc.Phone, err)
			}
			return nil
		}

		if cc.Email != "" && cfg.Email.SMTPServer != "" {
			subject := fmt.Sprintf("Emergency alert for %s", ch.Name)
			if err := email.Send(cfg.Email.SMTPServer, cfg.Email.SMTPPort, cfg.Email.Username, cfg.Email.Password, cc.Email, subject, text); err != nil {
				return fmt.Errorf("email send to %s: %w", cc.Email, err)
			}
			return nil
		}

		return fmt.Errorf("contact %s has no reachable endpoint", ch.TargetRef)
	}
}

// alertText composes the message body sent to human responders.
func alertText(alert models.Alert, ch models.ChannelDispatch) string {
	text := fmt.Sprintf("EMERGENCY ALERT (%s)\n%s", alert.Severity, alert.Message)
	if alert.Location != nil {
		text += fmt.Sprintf("\nLocation: %.5f, %.5f", alert.Location.Latitude, alert.Location.Longitude)
	}
	text += fmt.Sprintf("\nReply via the app to acknowledge (%s).", ch.TargetRef)
	return text
}

// decodeConfiguration round-trips the generic configuration map into a typed
// struct, the same way contact-point configurations are parsed elsewhere.
func decodeConfiguration(conf map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(conf)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
