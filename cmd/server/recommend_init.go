// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/courseloom/praeceptor/internal/config"
	"github.com/courseloom/praeceptor/internal/database"
	"github.com/courseloom/praeceptor/internal/logging"
	"github.com/courseloom/praeceptor/internal/recommend"
	"github.com/courseloom/praeceptor/internal/recommend/algorithms"
	"github.com/courseloom/praeceptor/internal/recommend/learning"
	"github.com/courseloom/praeceptor/internal/recommend/reranking"
	"github.com/courseloom/praeceptor/internal/recommend/storage"
	"github.com/courseloom/praeceptor/internal/supervisor"
	"github.com/courseloom/praeceptor/internal/supervisor/services"
)

// mmrLambda balances relevance against diversity in the MMR reranker.
const mmrLambda = 0.7

// RecommendComponents holds the recommendation engine, the feedback
// learner and their artifact stores. Engine and Learner are always
// non-nil; the HTTP handlers require both even when personalized
// scoring is disabled.
type RecommendComponents struct {
	Engine  *recommend.Engine
	Learner *learning.Learner

	store      *storage.Store // model artifacts, nil when unavailable
	stateStore *storage.Store // learner state, may alias store
	content    *algorithms.Content

	// Versions loaded into the running engine. Only the trainer
	// goroutine touches these after startup.
	vectorsVersion int
	encoderVersion int

	log zerolog.Logger
}

// initRecommend builds the recommendation engine and feedback learner.
// When personalized scoring is disabled no scorers are registered and
// no trainer service is added; the engine serves the popularity
// fallback only.
func initRecommend(ctx context.Context, cfg *config.Config, db *database.DB, tree *supervisor.SupervisorTree) (*RecommendComponents, error) {
	log := logging.WithComponent("recommend-init")

	engine, err := recommend.NewEngine(buildEngineConfig(&cfg.Recommend), logging.WithComponent("recommend"))
	if err != nil {
		return nil, fmt.Errorf("create recommendation engine: %w", err)
	}
	engine.SetDataProvider(db)

	learner := learning.New(buildLearnerConfig(&cfg.Recommend.Learning), logging.WithComponent("learning"))

	rec := &RecommendComponents{
		Engine:  engine,
		Learner: learner,
		log:     log,
	}

	if !cfg.Recommend.Enabled {
		log.Warn().Msg("Personalized scoring disabled (RECOMMEND_ENABLED=false), serving popularity fallback only")
		return rec, nil
	}

	log.Info().
		Int("default_limit", cfg.Recommend.DefaultLimit).
		Int("min_interactions", cfg.Recommend.MinInteractions).
		Dur("refresh_interval", cfg.Recommend.RefreshInterval).
		Str("model_path", cfg.Recommend.ModelPath).
		Msg("Initializing recommendation engine")

	rec.content = registerScorers(engine, &cfg.Recommend, log)
	registerRescorers(engine, &cfg.Recommend, log)

	rec.openStores(cfg)
	rec.bootstrapArtifacts(ctx)

	var checkpointer services.Checkpointer
	if rec.stateStore != nil {
		checkpointer = services.CheckpointerFunc(rec.checkpointLearner)
	}
	tree.AddDataService(services.NewTrainerService(
		trainerFunc(rec.refreshAndTrain),
		checkpointer,
		services.TrainerConfig{
			TrainOnStartup: true,
			TrainInterval:  cfg.Recommend.RefreshInterval,
		},
		logging.WithComponent("trainer"),
	))

	return rec, nil
}

// buildEngineConfig maps application config onto the engine tuning
// knobs, keeping engine defaults for everything the app config does
// not expose.
func buildEngineConfig(rc *config.RecommendConfig) *recommend.Config {
	ec := recommend.DefaultConfig()
	ec.Limits.DefaultLimit = rc.DefaultLimit
	ec.Limits.MaxLimit = rc.MaxLimit
	ec.Limits.RequestTimeout = rc.RequestTimeout
	ec.Gate.MinInteractions = int64(rc.MinInteractions)
	ec.Gate.MinEnrollments = int64(rc.MinEnrollments)
	ec.Decay.HorizonDays = float64(rc.DecayHorizonDays)
	ec.Decay.Floor = rc.MinDecay
	ec.Context.Blend = rc.ContextBlend
	ec.Context.MaxConfidence = rc.MaxConfidence
	ec.Cache.TTL = rc.CacheTTL
	return ec
}

// buildLearnerConfig maps application config onto the learner.
func buildLearnerConfig(lc *config.LearningConfig) learning.Config {
	c := learning.DefaultConfig()
	c.BufferSize = lc.BufferSize
	c.DrainInterval = lc.DrainInterval
	c.HistoryLimit = lc.HistoryLimit
	c.TrendWindow = lc.TrendWindow
	c.MinTrendSamples = lc.MinTrendSamples
	c.FeedbackRate = rate.Limit(lc.FeedbackRate)
	c.FeedbackBurst = lc.FeedbackBurst
	return c
}

// registerScorers registers the candidate generation scorers and
// returns the content scorer, which receives embedding artifacts as
// they load.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func registerScorers(engine *recommend.Engine, rc *config.RecommendConfig, logger zerolog.Logger) *algorithms.Content {
	collabCfg := algorithms.DefaultCollaborativeConfig()
	collabCfg.Neighbors = rc.SimilarUserLimit
	collabCfg.MinSimilarity = rc.MinSimilarity
	collabCfg.DecayHorizonDays = float64(rc.DecayHorizonDays)
	collabCfg.DecayFloor = rc.MinDecay
	engine.RegisterScorer(recommend.AlgorithmCollaborative, algorithms.NewCollaborative(collabCfg))
	logger.Debug().
		Int("neighbors", collabCfg.Neighbors).
		Float64("min_similarity", collabCfg.MinSimilarity).
		Msg("Registered collaborative scorer")

	contentCfg := algorithms.DefaultContentConfig()
	contentCfg.MaxConfidence = rc.MaxConfidence
	contentCfg.DecayHorizonDays = float64(rc.DecayHorizonDays)
	contentCfg.DecayFloor = rc.MinDecay
	content := algorithms.NewContent(contentCfg)
	engine.RegisterScorer(recommend.AlgorithmContent, content)
	logger.Debug().Msg("Registered content scorer")

	engine.RegisterScorer(recommend.AlgorithmPopularity, algorithms.NewPopularity())
	logger.Debug().Msg("Registered popularity scorer")

	return content
}

// registerRescorers wires the contextual rescorer and the diversity
// reranker.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func registerRescorers(engine *recommend.Engine, rc *config.RecommendConfig, logger zerolog.Logger) {
	engine.SetContextRescorer(reranking.NewContextual(reranking.Config{
		Blend:         rc.ContextBlend,
		MaxConfidence: rc.MaxConfidence,
	}, engine.LookupCourse))
	logger.Debug().Float64("blend", rc.ContextBlend).Msg("Registered contextual rescorer")

	engine.RegisterReranker(reranking.NewMMR(mmrLambda, engine.LookupCourse))
	logger.Debug().Float64("lambda", mmrLambda).Msg("Registered MMR reranker")
}

// openStores opens the model artifact store and the learner state
// store. Both are best-effort: an unusable directory means a cold
// start, not a failed boot.
func (r *RecommendComponents) openStores(cfg *config.Config) {
	store, err := storage.NewStore(cfg.Recommend.ModelPath)
	if err != nil {
		r.log.Warn().Err(err).Str("path", cfg.Recommend.ModelPath).
			Msg("Model artifact store unavailable, starting cold")
	} else {
		r.store = store
	}

	statePath := cfg.Recommend.Learning.StatePath
	switch {
	case statePath == "":
		r.log.Info().Msg("Learner state persistence disabled (no state path)")
	case statePath == cfg.Recommend.ModelPath && r.store != nil:
		r.stateStore = r.store
	default:
		stateStore, err := storage.NewStore(statePath)
		if err != nil {
			r.log.Warn().Err(err).Str("path", statePath).
				Msg("Learner state store unavailable, state will not persist")
		} else {
			r.stateStore = stateStore
		}
	}
}

// bootstrapArtifacts loads the latest stored model artifacts and
// learner state into the fresh components. Missing artifacts are a
// normal cold start.
func (r *RecommendComponents) bootstrapArtifacts(ctx context.Context) {
	r.reloadArtifacts(ctx)

	if r.stateStore == nil {
		return
	}
	state, err := r.stateStore.LoadLearnerState(ctx)
	switch {
	case errors.Is(err, storage.ErrArtifactNotFound):
		r.log.Info().Msg("No learner state artifact, starting fresh")
	case err != nil:
		r.log.Warn().Err(err).Msg("Learner state load failed, starting fresh")
	default:
		r.Learner.ImportState(state)
		r.log.Info().Msg("Learner state restored")
	}
}

// reloadArtifacts rescans the artifact store and loads any course
// vector or encoder versions newer than what the engine is running.
// The offline embedding pipeline drops artifacts into the model
// directory out of band; this is how the server picks them up.
func (r *RecommendComponents) reloadArtifacts(ctx context.Context) {
	if r.store == nil || r.content == nil {
		return
	}
	if err := r.store.Rescan(); err != nil {
		r.log.Warn().Err(err).Msg("Artifact store rescan failed")
		return
	}

	if v, ok := r.store.GetLatestVersion(storage.ArtifactVectors); ok && v > r.vectorsVersion {
		vectors, meta, err := r.store.LoadVectors(ctx)
		if err != nil {
			r.log.Warn().Err(err).Msg("Course vector load failed")
		} else {
			r.content.SetVectors(vectors)
			index := recommend.NewSimilarityIndex()
			indexed := index.Rebuild(vectors)
			r.Engine.SetSimilarityIndex(index)
			r.vectorsVersion = meta.Version
			r.log.Info().
				Int("version", meta.Version).
				Int("courses", indexed).
				Msg("Course vectors loaded")
		}
	}

	if v, ok := r.store.GetLatestVersion(storage.ArtifactUserEncoder); ok && v > r.encoderVersion {
		encoder, meta, err := r.store.LoadUserEncoder(ctx)
		if err != nil {
			r.log.Warn().Err(err).Msg("User encoder load failed")
		} else {
			r.content.SetEncoder(encoder)
			r.encoderVersion = meta.Version
			r.log.Info().Int("version", meta.Version).Msg("User encoder loaded")
		}
	}
}

// refreshAndTrain is the periodic trainer pass: pick up new artifacts,
// then retrain the scorers on current interaction data.
func (r *RecommendComponents) refreshAndTrain(ctx context.Context) error {
	r.reloadArtifacts(ctx)
	return r.Engine.Train(ctx)
}

// checkpointLearner persists learner state to the state store.
func (r *RecommendComponents) checkpointLearner(ctx context.Context) error {
	return r.stateStore.SaveLearnerState(ctx, r.Learner.ExportState())
}

// trainerFunc adapts a function to the services.Trainer interface.
type trainerFunc func(ctx context.Context) error

// Train implements services.Trainer.
func (f trainerFunc) Train(ctx context.Context) error {
	return f(ctx)
}
