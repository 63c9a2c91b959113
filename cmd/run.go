package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"owldoor/api"
	"owldoor/config"
	"owldoor/database"
	"owldoor/events"
	"owldoor/repository"
	"owldoor/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting owldoor...")

	// Load configuration
	cfg := config.Get()
	configureLogging(cfg)

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	log.Println("Initializing event bus...")
	eventBus := events.NewBus()
	subscribeAuditHandlers(eventBus)
	log.Println("Event bus initialized successfully")

	// Initialize unit of work factory
	log.Println("Initializing unit of work factory...")
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	log.Println("Unit of work factory initialized successfully")

	// Initialize services
	log.Println("Initializing services...")
	leadService := service.NewLeadService(uowFactory)
	clientService := service.NewClientService(uowFactory, cfg)
	creditService := service.NewCreditService(uowFactory)
	matchService := service.NewMatchService(uowFactory, cfg)
	log.Println("Services initialized successfully")

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	server := api.NewServer(cfg, matchService, leadService, clientService, creditService)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Optionally schedule periodic matching runs
	scheduler, err := startScheduler(cfg, matchService)
	if err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Printf("owldoor is running in %s mode...", cfg.Environment)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")

	if scheduler != nil {
		stopCtx := scheduler.Stop()
		<-stopCtx.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")

	return nil
}

func configureLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

// subscribeAuditHandlers attaches log-only observers for the domain events
func subscribeAuditHandlers(bus *events.Bus) {
	bus.Subscribe(events.EventTypeMatchCreated, func(ctx context.Context, event events.Event) {
		e := event.(events.MatchCreatedEvent)
		logrus.WithFields(logrus.Fields{
			"matchID":        e.MatchID,
			"leadID":         e.LeadID,
			"clientID":       e.ClientID,
			"creditsCharged": e.CreditsCharged,
			"runID":          e.RunID,
		}).Info("Match created")
	})

	bus.Subscribe(events.EventTypeMatchMissed, func(ctx context.Context, event events.Event) {
		e := event.(events.MatchMissedEvent)
		logrus.WithFields(logrus.Fields{
			"missedMatchID": e.MissedMatchID,
			"leadID":        e.LeadID,
			"clientID":      e.ClientID,
			"reason":        e.Reason,
			"runID":         e.RunID,
		}).Info("Match missed")
	})

	bus.Subscribe(events.EventTypeCreditChange, func(ctx context.Context, event events.Event) {
		e := event.(events.CreditChangeEvent)
		logrus.WithFields(logrus.Fields{
			"clientID":   e.ClientID,
			"oldBalance": e.OldBalance,
			"newBalance": e.NewBalance,
			"amount":     e.ChangeAmount,
			"reason":     e.Reason,
		}).Info("Credit balance changed")
	})
}

// startScheduler registers the periodic matching run when a schedule is
// configured. Scheduled runs act as the first configured admin.
func startScheduler(cfg *config.Config, matchService service.MatchService) (*cron.Cron, error) {
	if cfg.AutoMatchSchedule == "" {
		return nil, nil
	}
	if len(cfg.AdminIDs) == 0 {
		return nil, fmt.Errorf("AUTO_MATCH_SCHEDULE requires at least one admin ID")
	}
	actorID := cfg.AdminIDs[0]

	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.AutoMatchSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		summary, err := matchService.RunAutoMatch(ctx, actorID)
		if err != nil {
			logrus.WithError(err).Error("Scheduled matching run failed")
			return
		}
		logrus.WithFields(logrus.Fields{
			"runID":     summary.RunID,
			"processed": summary.Processed,
			"matched":   summary.Matched,
			"missed":    summary.Missed,
			"errors":    summary.Errors,
		}).Info("Scheduled matching run finished")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.AutoMatchSchedule, err)
	}

	scheduler.Start()
	log.Printf("Scheduled matching runs registered: %s", cfg.AutoMatchSchedule)
	return scheduler, nil
}
