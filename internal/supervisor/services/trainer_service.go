// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/courseloom/praeceptor/internal/recommend"
)

// Trainer defines the training surface of the recommendation engine.
// This allows the service to work with the engine without pulling the
// full engine type into tests.
type Trainer interface {
	// Train rebuilds all registered scorers.
	Train(ctx context.Context) error
}

// Checkpointer persists model and learner state between training
// passes. Wired from the artifact store in cmd/server; nil disables
// checkpointing.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// CheckpointerFunc adapts a plain function to the Checkpointer
// interface.
type CheckpointerFunc func(ctx context.Context) error

// Checkpoint calls f(ctx).
func (f CheckpointerFunc) Checkpoint(ctx context.Context) error {
	return f(ctx)
}

// TrainerConfig holds configuration for the model trainer service.
type TrainerConfig struct {
	// TrainOnStartup triggers training when the service starts.
	TrainOnStartup bool

	// TrainInterval is how often to retrain models. Default: 24h.
	TrainInterval time.Duration
}

// TrainerService keeps the recommendation models fresh under Suture
// supervision. It trains on a schedule, checkpoints state after each
// successful pass, and writes a final checkpoint on shutdown so the
// learner's accumulated signal survives restarts.
//
// A training pass triggered over the API while a scheduled pass is due
// is not an error; the scheduled pass is skipped and the next tick
// tries again.
type TrainerService struct {
	engine       Trainer
	checkpointer Checkpointer
	config       TrainerConfig
	logger       zerolog.Logger
	name         string
}

// NewTrainerService creates a new model trainer service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainerService(engine Trainer, checkpointer Checkpointer, cfg TrainerConfig, logger zerolog.Logger) *TrainerService {
	if cfg.TrainInterval <= 0 {
		cfg.TrainInterval = 24 * time.Hour
	}
	return &TrainerService{
		engine:       engine,
		checkpointer: checkpointer,
		config:       cfg,
		logger:       logger.With().Str("service", "trainer").Logger(),
		name:         "model-trainer",
	}
}

// Serve implements the suture.Service interface.
// It manages the training loop for the recommendation engine.
func (s *TrainerService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("train_interval", s.config.TrainInterval).
		Msg("model trainer starting")

	if s.config.TrainOnStartup {
		s.logger.Info().Msg("training models on startup")
		if err := s.train(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("initial training failed (will retry on schedule)")
		}
	}

	ticker := time.NewTicker(s.config.TrainInterval)
	defer ticker.Stop()

	s.logger.Info().Msg("model trainer running")

	for {
		select {
		case <-ctx.Done():
			s.finalCheckpoint()
			s.logger.Info().Msg("model trainer shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.logger.Debug().Msg("scheduled training triggered")
			if err := s.train(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled training failed")
			}
		}
	}
}

// train performs a training cycle with proper context handling and
// checkpoints state when the pass succeeds.
func (s *TrainerService) train(ctx context.Context) error {
	// Use a separate context with timeout for training
	trainCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	start := time.Now()
	s.logger.Info().Msg("starting model training")

	if err := s.engine.Train(trainCtx); err != nil {
		if errors.Is(err, recommend.ErrTrainingInProgress) {
			// Another caller holds the training lock, typically the
			// train endpoint. The next tick picks it up.
			s.logger.Debug().Msg("training already running, skipping scheduled pass")
			return nil
		}
		return err
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Msg("model training complete")

	s.checkpoint(trainCtx)
	return nil
}

// checkpoint persists state through the configured checkpointer.
// Failures are logged, not propagated; a missed checkpoint costs one
// interval of learner history, not the service.
func (s *TrainerService) checkpoint(ctx context.Context) {
	if s.checkpointer == nil {
		return
	}
	if err := s.checkpointer.Checkpoint(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("state checkpoint failed")
		return
	}
	s.logger.Debug().Msg("state checkpoint written")
}

// finalCheckpoint runs a last checkpoint during shutdown on a fresh
// context, since the service context is already canceled.
func (s *TrainerService) finalCheckpoint() {
	if s.checkpointer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.checkpoint(ctx)
}

// String returns the service name for logging.
func (s *TrainerService) String() string {
	return s.name
}
