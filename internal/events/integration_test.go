// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package events

import (
	"context"
	"sync"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/courseloom/praeceptor/internal/recommend"
	"github.com/courseloom/praeceptor/internal/recommend/learning"
	"github.com/courseloom/praeceptor/internal/testinfra"
)

// pipelineRecorder collects feedback delivered through the full wire
// path so assertions can run against what the learner would see.
type pipelineRecorder struct {
	mu  sync.Mutex
	fbs []learning.Feedback
}

func (r *pipelineRecorder) Record(fb learning.Feedback) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fbs = append(r.fbs, fb)
	return true
}

func (r *pipelineRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fbs)
}

func (r *pipelineRecorder) feedback() []learning.Feedback {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]learning.Feedback, len(r.fbs))
	copy(out, r.fbs)
	return out
}

type pipelineConfirmer struct {
	mu      sync.Mutex
	entries []string
}

func (c *pipelineConfirmer) Confirm(_ context.Context, entryID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entryID)
	return nil
}

func (c *pipelineConfirmer) confirmed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.entries))
	copy(out, c.entries)
	return out
}

func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return cond()
}

// TestFeedbackPipelineEndToEnd publishes feedback events through a
// real JetStream server and verifies they arrive at the recorder via
// stream, durable consumer, router, and handler. One event carries a
// journal entry ID to prove delivery confirmation flows back.
func TestFeedbackPipelineEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	natsC, err := testinfra.NewNATSContainer(ctx)
	if err != nil {
		t.Fatalf("NewNATSContainer() error = %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, natsC.Container)

	// Provision the stream the way server startup does.
	nc, err := natsgo.Connect(natsC.URL)
	if err != nil {
		t.Fatalf("Connect(%q) error = %v", natsC.URL, err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("jetstream.New() error = %v", err)
	}

	streamCfg := DefaultStreamConfig()
	initializer, err := NewStreamInitializer(js, &streamCfg)
	if err != nil {
		t.Fatalf("NewStreamInitializer() error = %v", err)
	}
	if _, err := initializer.EnsureStream(ctx); err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}

	wmLogger := NewLoggerAdapter(zerolog.Nop())

	pub, err := NewPublisher(DefaultPublisherConfig(natsC.URL), wmLogger)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer pub.Close()

	subCfg := DefaultSubscriberConfig(natsC.URL)
	sub, err := NewSubscriber(&subCfg, wmLogger)
	if err != nil {
		t.Fatalf("NewSubscriber() error = %v", err)
	}
	defer sub.Close()

	recorder := &pipelineRecorder{}
	confirmer := &pipelineConfirmer{}
	handler := NewFeedbackHandler(recorder, confirmer, zerolog.Nop())

	routerCfg := DefaultRouterConfig()
	router, err := NewRouter(&routerCfg, pub.WatermillPublisher(), wmLogger)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	router.AddConsumerHandler(
		"feedback-consumer",
		TopicPrefixFeedback+".>",
		sub.WatermillSubscriber(),
		handler.Handle,
	)

	runCtx, stopRouter := context.WithCancel(ctx)
	defer stopRouter()

	routerDone := make(chan error, 1)
	go func() { routerDone <- router.Run(runCtx) }()

	select {
	case <-router.Running():
	case err := <-routerDone:
		t.Fatalf("router exited before running: %v", err)
	case <-time.After(30 * time.Second):
		t.Fatal("router did not start within 30s")
	}

	// Publish after the durable consumer exists. The subscriber
	// delivers new messages only, so earlier publishes would be lost.
	rating := 4.5
	published := []*FeedbackEvent{
		NewFeedbackEvent(101, 2001, recommend.InteractionEnroll),
		NewFeedbackEvent(101, 2002, recommend.InteractionComplete),
		NewFeedbackEvent(202, 2001, recommend.InteractionRate),
	}
	published[2].Rating = &rating

	for i, ev := range published {
		journalID := ""
		if i == 0 {
			journalID = "journal-entry-1"
		}
		if err := pub.PublishFeedback(ctx, ev, journalID); err != nil {
			t.Fatalf("PublishFeedback(%d) error = %v", i, err)
		}
	}

	if !waitForCondition(t, 30*time.Second, func() bool {
		return recorder.count() >= len(published)
	}) {
		t.Fatalf("recorded %d feedback items, want %d", recorder.count(), len(published))
	}

	got := recorder.feedback()
	find := func(userID, courseID int64) *learning.Feedback {
		for i := range got {
			if got[i].UserID == userID && got[i].CourseID == courseID {
				return &got[i]
			}
		}
		return nil
	}

	// Delivery order across queue-group subscribers is not guaranteed,
	// so match by content.
	if fb := find(101, 2001); fb == nil {
		t.Error("enroll feedback for user 101 course 2001 not recorded")
	} else if fb.Type != recommend.InteractionEnroll {
		t.Errorf("feedback type = %q, want %q", fb.Type, recommend.InteractionEnroll)
	}

	if fb := find(202, 2001); fb == nil {
		t.Error("rate feedback for user 202 course 2001 not recorded")
	} else if fb.Rating == nil || *fb.Rating != rating {
		t.Errorf("feedback rating = %v, want %v", fb.Rating, rating)
	}

	// Confirmation runs after Record inside the handler, so give the
	// first event's handler a moment to reach it.
	if !waitForCondition(t, 10*time.Second, func() bool {
		return len(confirmer.confirmed()) >= 1
	}) {
		t.Fatal("journal entry was not confirmed")
	}
	if entries := confirmer.confirmed(); len(entries) != 1 || entries[0] != "journal-entry-1" {
		t.Errorf("confirmed entries = %v, want [journal-entry-1]", entries)
	}

	stats := handler.Stats()
	if stats.Recorded != int64(len(published)) {
		t.Errorf("stats.Recorded = %d, want %d", stats.Recorded, len(published))
	}
	if stats.ParseErrors != 0 {
		t.Errorf("stats.ParseErrors = %d, want 0", stats.ParseErrors)
	}

	stopRouter()
	select {
	case err := <-routerDone:
		if err != nil {
			t.Errorf("router Run() returned error on shutdown: %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("router did not stop within 30s")
	}
}
