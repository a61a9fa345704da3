package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	Kafka struct {
		Broker  string
		Topic   string
		GroupID string
	}
	API struct {
		Port     string
		BasePath string
	}
	Escalation struct {
		AckDeadline         time.Duration
		MaxRounds           int
		FacilityTopK        int
		FacilityRadiusKm    float64
		DispatchMaxAttempts int
		DispatchBackoff     time.Duration
		EscalationThreshold string // minimum risk tier that opens an alert
	}
	SMS struct {
		AccountSID string
		AuthToken  string
		FromNumber string
	}
	Telegram struct {
		BotToken string
	}
	Email struct {
		SMTPServer string
		SMTPPort   int
		Username   string
		Password   string
	}
	RateLimit struct {
		MessagesPerSecond int
	}
	Intake struct {
		QueueSize  int
		MaxWorkers int
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	cfg.DB.DSN = os.Getenv("DB_DSN")

	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", "symptom_reports")
	cfg.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", "emergency-service")

	cfg.API.Port = getEnv("API_PORT", ":8080")
	cfg.API.BasePath = getEnv("API_BASE_PATH", "/api/v0")

	cfg.Escalation.AckDeadline = secondsEnv("ACK_DEADLINE_SECONDS", 300)
	cfg.Escalation.MaxRounds = intEnv("MAX_ESCALATION_ROUNDS", 3)
	cfg.Escalation.FacilityTopK = intEnv("FACILITY_TOP_K", 3)
	cfg.Escalation.FacilityRadiusKm = floatEnv("FACILITY_RADIUS_KM", 25)
	cfg.Escalation.DispatchMaxAttempts = intEnv("DISPATCH_MAX_ATTEMPTS", 3)
	cfg.Escalation.DispatchBackoff = secondsEnv("DISPATCH_BACKOFF_SECONDS", 2)
	cfg.Escalation.EscalationThreshold = getEnv("ESCALATION_THRESHOLD", "high")

	cfg.SMS.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.SMS.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.SMS.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	cfg.Email.SMTPServer = os.Getenv("EMAIL_SMTP_SERVER")
	cfg.Email.SMTPPort = intEnv("EMAIL_SMTP_PORT", 587)
	cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")

	cfg.RateLimit.MessagesPerSecond = intEnv("MESSAGES_PER_SECOND", 10)

	cfg.Intake.QueueSize = intEnv("QUEUE_SIZE", 500)
	cfg.Intake.MaxWorkers = intEnv("MAX_WORKERS", 10)

	cfg.Logging.Dir = getEnv("LOG_DIR", "logs")
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if cfg.Kafka.Broker == "" {
		missing = append(missing, "KAFKA_BROKER")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func floatEnv(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func secondsEnv(key string, fallback int) time.Duration {
	return time.Duration(intEnv(key, fallback)) * time.Second
}
