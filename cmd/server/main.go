// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courseloom/praeceptor/internal/api"
	"github.com/courseloom/praeceptor/internal/config"
	"github.com/courseloom/praeceptor/internal/database"
	"github.com/courseloom/praeceptor/internal/logging"
	"github.com/courseloom/praeceptor/internal/supervisor"
	"github.com/courseloom/praeceptor/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Praeceptor with supervisor tree")
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("recommend_enabled", cfg.Recommend.Enabled).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Bool("wal_enabled", cfg.WAL.Enabled).
		Str("environment", cfg.Server.Environment).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Recommendation engine and feedback learner. Both are always
	// constructed; the API handlers require them even when
	// personalized scoring is disabled.
	rec, err := initRecommend(ctx, cfg, db, tree)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}

	// Durable feedback journal (optional)
	journal, err := initJournal(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize feedback journal")
	}

	// Feedback event pipeline (optional)
	evc, err := initEvents(cfg, rec.Learner, journal.Journal())
	if err != nil {
		// Close the journal before fatal exit so BadgerDB releases its
		// lock cleanly
		journal.Close()
		logging.Fatal().Err(err).Msg("Failed to initialize feedback event pipeline")
	}

	// Replay of unconfirmed journal entries goes through the event
	// publisher, so the relay exists only when both are enabled
	if relay := journal.wireRelay(evc.Publisher()); relay != nil {
		tree.AddDataService(services.NewRelayService(relay))
		logging.Info().Msg("Journal relay added to supervisor tree")
	}
	if compactor := journal.Compactor(); compactor != nil {
		tree.AddDataService(services.NewCompactorService(compactor))
		logging.Info().Msg("Journal compactor added to supervisor tree")
	}

	// === HTTP API ===

	handler := api.NewHandler(db, rec.Engine, rec.Learner)
	if j := journal.Journal(); j != nil {
		handler.SetFeedbackJournal(j)
		logging.Info().Msg("Feedback journal wired to API handler")
	}
	if evc != nil {
		handler.SetFeedbackPublisher(evc.Publisher())
		rec.Engine.SetEventSink(evc.Sink())
		logging.Info().Msg("Event pipeline wired to API handler and engine")
	}

	router := api.NewRouter(handler, buildMiddlewareConfig(&cfg.API))
	if j := journal.Journal(); j != nil {
		router.ConfigureJournalHandlers(api.NewJournalHandlers(j, journal.Compactor()))
		logging.Info().Msg("Journal routes configured")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	if r := evc.Router(); r != nil {
		tree.AddMessagingService(services.NewEventRouterService(r))
		logging.Info().Msg("Event router added to supervisor tree")
	}
	tree.AddMessagingService(services.NewLearnerService(rec.Learner))
	logging.Info().Msg("Feedback learner added to supervisor tree")

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	// The supervised loops are down; close what this package owns.
	// Fresh context because the serve context is already canceled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	evc.Shutdown(shutdownCtx)
	journal.Close()

	logging.Info().Msg("Application stopped gracefully")
}

// buildMiddlewareConfig maps API config onto the chi middleware stack.
func buildMiddlewareConfig(ac *config.APIConfig) *api.ChiMiddlewareConfig {
	mw := api.DefaultChiMiddlewareConfig()
	if len(ac.CORSOrigins) > 0 {
		mw.CORSAllowedOrigins = ac.CORSOrigins
	}
	mw.RateLimitRequests = ac.RateLimitReqs
	mw.RateLimitWindow = ac.RateLimitWindow
	mw.RateLimitDisabled = ac.RateLimitDisabled
	return mw
}
