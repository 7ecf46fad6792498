// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/courseloom/praeceptor/internal/config"
	"github.com/courseloom/praeceptor/internal/events"
	"github.com/courseloom/praeceptor/internal/logging"
	"github.com/courseloom/praeceptor/internal/recommend/learning"
	"github.com/courseloom/praeceptor/internal/wal"
)

// EventComponents holds the feedback event pipeline for lifecycle
// management. The router loop runs under the supervisor tree; this
// package owns connection and broker lifetime.
type EventComponents struct {
	server     *events.EmbeddedServer
	natsConn   *natsgo.Conn
	publisher  *events.Publisher
	subscriber *events.Subscriber
	router     *events.Router
	handler    *events.FeedbackHandler
	sink       *events.RecommendationSink
}

// initEvents initializes the feedback event pipeline when
// NATS_ENABLED=true. Returns nil when disabled; the API handler then
// feeds accepted feedback straight into the learner.
func initEvents(cfg *config.Config, learner *learning.Learner, journal *wal.BadgerJournal) (*EventComponents, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("Feedback event pipeline disabled (NATS_ENABLED=false), feedback feeds the learner directly")
		return nil, nil
	}

	logging.Info().Msg("Initializing feedback event pipeline")

	components := &EventComponents{}

	// Step 1: Embedded or external broker.
	var natsURL string
	if cfg.NATS.EmbeddedServer {
		serverCfg := events.DefaultServerConfig()
		serverCfg.StoreDir = cfg.NATS.StoreDir
		serverCfg.JetStreamMaxMem = cfg.NATS.MaxMemory
		serverCfg.JetStreamMaxStore = cfg.NATS.MaxStore

		server, err := events.NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		components.server = server
		natsURL = server.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	} else {
		natsURL = cfg.NATS.URL
		logging.Info().Str("url", natsURL).Msg("Using external NATS server")
	}

	// Step 2: Provisioning connection and durable stream.
	nc, err := natsgo.Connect(natsURL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	components.natsConn = nc
	logging.Info().Msg("NATS connection established")

	js, err := jetstream.New(nc)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := events.DefaultStreamConfig()
	if cfg.NATS.StreamRetentionDays > 0 {
		streamCfg.MaxAge = time.Duration(cfg.NATS.StreamRetentionDays) * 24 * time.Hour
	}
	initializer, err := events.NewStreamInitializer(js, &streamCfg)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create stream initializer: %w", err)
	}
	stream, err := initializer.EnsureStream(context.Background())
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("ensure stream exists: %w", err)
	}
	info := stream.CachedInfo()
	logging.Info().
		Str("name", info.Config.Name).
		Strs("subjects", info.Config.Subjects).
		Dur("max_age", info.Config.MaxAge).
		Msg("JetStream stream ready")

	// Step 3: Publisher behind a circuit breaker.
	wmLogger := events.NewLoggerAdapter(logging.WithComponent("watermill"))
	publisher, err := events.NewPublisher(events.DefaultPublisherConfig(natsURL), wmLogger)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create publisher: %w", err)
	}
	publisher.SetCircuitBreaker(events.NewCircuitBreaker(
		events.DefaultCircuitBreakerConfig("feedback-publisher")))
	components.publisher = publisher
	logging.Info().Msg("Feedback publisher created")

	// Step 4: Consumer router.
	routerCfg := events.RouterConfig{
		CloseTimeout:         cfg.NATS.RouterCloseTimeout,
		RetryMaxRetries:      cfg.NATS.RouterRetryCount,
		RetryInitialInterval: cfg.NATS.RouterRetryInitialInterval,
		RetryMaxInterval:     cfg.NATS.RouterRetryInitialInterval * 10,
		RetryMultiplier:      2.0,
		ThrottlePerSecond:    int64(cfg.NATS.RouterThrottlePerSecond),
		DeduplicationEnabled: cfg.NATS.RouterDeduplicationEnabled,
		DeduplicationTTL:     cfg.NATS.RouterDeduplicationTTL,
	}
	var poisonPub message.Publisher
	if cfg.NATS.RouterPoisonQueueEnabled {
		routerCfg.PoisonQueueTopic = cfg.NATS.RouterPoisonQueueTopic
		poisonPub = publisher.WatermillPublisher()
	}
	router, err := events.NewRouter(&routerCfg, poisonPub, wmLogger)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create router: %w", err)
	}
	components.router = router
	logging.Info().
		Int("retry", routerCfg.RetryMaxRetries).
		Bool("dedup", routerCfg.DeduplicationEnabled).
		Bool("poison", cfg.NATS.RouterPoisonQueueEnabled).
		Msg("Event router created")

	// Step 5: Durable subscriber and the feedback handler.
	subCfg := events.DefaultSubscriberConfig(natsURL)
	subCfg.DurableName = cfg.NATS.DurableName
	subCfg.QueueGroup = cfg.NATS.QueueGroup
	subCfg.SubscribersCount = cfg.NATS.SubscribersCount
	subCfg.StreamName = streamCfg.Name
	subscriber, err := events.NewSubscriber(&subCfg, wmLogger)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create subscriber: %w", err)
	}
	components.subscriber = subscriber

	// A nil *wal.BadgerJournal must stay a nil interface, or the
	// handler's nil check would see a typed non-nil value.
	var confirmer events.JournalConfirmer
	if journal != nil {
		confirmer = journal
	}
	handler := events.NewFeedbackHandler(learner, confirmer, logging.WithComponent("feedback-handler"))
	components.handler = handler

	router.AddConsumerHandler(
		"feedback-handler",
		events.TopicPrefixFeedback+".>",
		subscriber.WatermillSubscriber(),
		handler.Handle,
	)
	logging.Info().
		Str("durable", subCfg.DurableName).
		Str("queue_group", subCfg.QueueGroup).
		Int("subscribers", subCfg.SubscribersCount).
		Msg("Feedback handler registered with router")

	// Step 6: Sink for recommendation-served events.
	components.sink = events.NewRecommendationSink(publisher, logging.WithComponent("recommendation-sink"))

	logging.Info().Msg("Feedback event pipeline initialized")
	return components, nil
}

// Publisher returns the feedback publisher, or nil when disabled.
func (c *EventComponents) Publisher() *events.Publisher {
	if c == nil {
		return nil
	}
	return c.publisher
}

// Router returns the consumer router, or nil when disabled.
func (c *EventComponents) Router() *events.Router {
	if c == nil {
		return nil
	}
	return c.router
}

// Sink returns the recommendation event sink, or nil when disabled.
func (c *EventComponents) Sink() *events.RecommendationSink {
	if c == nil {
		return nil
	}
	return c.sink
}

// Shutdown stops the pipeline. Order matters: router first so handlers
// stop consuming, then subscriber and publisher, the provisioning
// connection, and the embedded server last. Safe on partially
// initialized components; every helper nil-checks its target.
func (c *EventComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}

	logging.Info().Msg("Shutting down feedback event pipeline")

	c.shutdownRouter()
	c.shutdownSubscriber()
	c.shutdownPublisher()
	c.shutdownConnection(ctx)

	logging.Info().Msg("Feedback event pipeline shutdown complete")
}

// shutdownRouter stops the consumer router.
func (c *EventComponents) shutdownRouter() {
	if c.router == nil {
		return
	}
	if err := c.router.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event router")
		return
	}
	logging.Info().Msg("Event router stopped")
}

// shutdownSubscriber closes the JetStream subscriber.
func (c *EventComponents) shutdownSubscriber() {
	if c.subscriber == nil {
		return
	}
	if err := c.subscriber.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing subscriber")
		return
	}
	logging.Info().Msg("Subscriber closed")
}

// shutdownPublisher closes the feedback publisher.
func (c *EventComponents) shutdownPublisher() {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing publisher")
		return
	}
	logging.Info().Msg("Publisher closed")
}

// shutdownConnection closes the provisioning connection and the
// embedded server.
func (c *EventComponents) shutdownConnection(ctx context.Context) {
	if c.natsConn != nil {
		c.natsConn.Close()
		logging.Info().Msg("NATS connection closed")
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
		} else {
			logging.Info().Msg("Embedded NATS server stopped")
		}
	}
}
