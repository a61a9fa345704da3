package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"emergency-service/internal/escalation"
	"emergency-service/internal/logging"
	"emergency-service/internal/models"
	"emergency-service/internal/triage"
)

// ReportStore persists symptom reports.
type ReportStore interface {
	CreateSymptomReport(ctx context.Context, r models.SymptomReport) error
}

// AlertOpener opens alerts; implemented by the escalation engine.
type AlertOpener interface {
	Open(ctx context.Context, p escalation.OpenParams) (models.Alert, error)
}

// Service is the triage intake path: validate, classify, persist, and open
// an alert when the risk tier crosses the escalation threshold. Used by both
// the HTTP API and the Kafka consumer.
type Service struct {
	store     ReportStore
	engine    AlertOpener
	logger    *logging.Logger
	threshold models.RiskTier

	reports chan models.SymptomReportCreate
	ctx     context.Context
	cancel  context.CancelFunc
	workers int
}

// New constructs a Service. threshold names the minimum tier that opens an
// alert ("high" by default).
func New(store ReportStore, engine AlertOpener, logger *logging.Logger, threshold string, queueSize, workers int) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	tier := models.RiskTier(threshold)
	switch tier {
	case models.TierLow, models.TierMedium, models.TierHigh, models.TierCritical:
	default:
		tier = models.TierHigh
	}
	return &Service{
		store:     store,
		engine:    engine,
		logger:    logger,
		threshold: tier,
		reports:   make(chan models.SymptomReportCreate, queueSize),
		ctx:       ctx,
		cancel:    cancel,
		workers:   workers,
	}
}

// Logger exposes the Service's logger to the Kafka consumer.
func (s *Service) Logger() *logging.Logger {
	return s.logger
}

// Start launches the intake worker pool draining the queued-report channel.
func (s *Service) Start(wg *sync.WaitGroup) {
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go s.worker(wg, i)
	}
}

// Stop cancels the worker pool.
func (s *Service) Stop() {
	s.cancel()
}

func (s *Service) worker(wg *sync.WaitGroup, id int) {
	defer wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Infof("intake worker %d stopped", id)
			return
		case create := <-s.reports:
			if _, err := s.LogSymptom(s.ctx, create); err != nil {
				s.logger.Errorf("queued symptom report rejected: %v", err)
			}
		}
	}
}

// QueueReport enqueues a report from the event stream for asynchronous
// intake.
func (s *Service) QueueReport(create models.SymptomReportCreate) {
	select {
	case s.reports <- create:
	default:
		s.logger.Errorf("intake queue full, dropping report for user %d", create.UserID)
	}
}

// LogSymptom validates and classifies a report, persists it, and opens an
// alert when the tier is at or above the escalation threshold. The caller
// always gets the assessment back immediately; alert dispatch proceeds
// asynchronously.
func (s *Service) LogSymptom(ctx context.Context, create models.SymptomReportCreate) (models.SymptomReport, error) {
	if err := create.Validate(); err != nil {
		return models.SymptomReport{}, fmt.Errorf("invalid symptom report: %w", err)
	}

	report := models.SymptomReport{
		ID:           uuid.New(),
		UserID:       create.UserID,
		PregnancyID:  create.PregnancyID,
		Type:         models.SymptomType(create.Type),
		Severity:     models.Severity(create.Severity),
		Description:  create.Description,
		Duration:     create.Duration,
		Triggers:     create.Triggers,
		BodyLocation: create.BodyLocation,
		Location:     create.Location,
		CreatedAt:    time.Now(),
	}
	assessment := triage.Classify(report)
	report.Assessment = &assessment

	if err := s.store.CreateSymptomReport(ctx, report); err != nil {
		return models.SymptomReport{}, fmt.Errorf("persist symptom report: %w", err)
	}
	s.logger.Infof("symptom report %s logged for user %d: %s/%s -> %s",
		uuid.UUID(report.ID), report.UserID, report.Type, report.Severity, assessment.RiskTier)

	if assessment.RiskTier.AtLeast(s.threshold) {
		reportID := report.ID
		_, err := s.engine.Open(ctx, escalation.OpenParams{
			OwnerUserID: report.UserID,
			ReportID:    &reportID,
			Severity:    assessment.RiskTier,
			Message: fmt.Sprintf("%s symptom reported: %s (%s)",
				assessment.RiskTier, report.Type, report.Severity),
			Location: report.Location,
		})
		if err != nil {
			// The user already has their assessment; a failed alert open is
			// an operational error, not a reason to reject the report.
			s.logger.Errorf("open alert for report %s failed: %v", uuid.UUID(report.ID), err)
		}
	}
	return report, nil
}

// RaiseEmergency opens a critical, user-declared alert regardless of any
// prior classification.
func (s *Service) RaiseEmergency(ctx context.Context, userID int64, message string, loc *models.Location) (models.Alert, error) {
	if message == "" {
		message = "Emergency assistance needed"
	}
	alert, err := s.engine.Open(ctx, escalation.OpenParams{
		OwnerUserID:  userID,
		Severity:     models.TierCritical,
		UserDeclared: true,
		Message:      message,
		Location:     loc,
	})
	if err != nil {
		return models.Alert{}, fmt.Errorf("open emergency alert: %w", err)
	}
	return alert, nil
}
