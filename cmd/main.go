package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"emergency-service/internal/api"
	"emergency-service/internal/config"
	"emergency-service/internal/db"
	"emergency-service/internal/dispatch"
	"emergency-service/internal/escalation"
	"emergency-service/internal/kafka"
	"emergency-service/internal/logging"
	"emergency-service/internal/models"
	"emergency-service/internal/providers"
	"emergency-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	dbConn, err := db.New(cfg.DB.DSN)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	dispatcher := dispatch.New(logger, dbConn, map[models.ChannelKind]dispatch.ProviderFunc{
		models.ChannelContact:  providers.Contact(cfg, logger),
		models.ChannelFacility: providers.Facility(cfg, logger),
		models.ChannelService:  providers.EmergencyService(logger),
	}, cfg.Escalation.DispatchMaxAttempts, cfg.Escalation.DispatchBackoff, cfg.RateLimit.MessagesPerSecond)

	engine := escalation.New(escalation.Options{
		AckDeadline:      cfg.Escalation.AckDeadline,
		MaxRounds:        cfg.Escalation.MaxRounds,
		FacilityTopK:     cfg.Escalation.FacilityTopK,
		FacilityRadiusKm: cfg.Escalation.FacilityRadiusKm,
	}, dbConn, dbConn, dispatcher, logger)

	wsManager := api.NewWebSocketManager(logger)
	engine.SetListener(wsManager.BroadcastAlert)

	svc := service.New(dbConn, engine, logger, cfg.Escalation.EscalationThreshold,
		cfg.Intake.QueueSize, cfg.Intake.MaxWorkers)
	var wg sync.WaitGroup
	svc.Start(&wg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Broker, cfg.Kafka.Topic, cfg.Kafka.GroupID, svc, logger)
	consumer.Start(ctx, &wg)

	handler := api.NewHandler(svc, engine, dbConn, logger,
		cfg.Escalation.FacilityRadiusKm, cfg.Escalation.FacilityTopK)
	router := api.NewRouter(handler, wsManager, logger)

	go func() {
		<-ctx.Done()
		logger.Infof("shutting down")
		engine.Shutdown()
		svc.Stop()
	}()

	logger.Infof("Starting API server on %s", cfg.API.Port)
	if err := router.Run(cfg.API.Port); err != nil {
		logger.Errorf("API server failed: %v", err)
	}
	wg.Wait()
}
