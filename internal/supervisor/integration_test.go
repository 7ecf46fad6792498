// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestSupervisorTreeIntegration exercises the complete supervisor tree
// with services across all layers, shaped like the production wiring.
func TestSupervisorTreeIntegration(t *testing.T) {
	t.Run("full tree with services in all layers", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   50 * time.Millisecond,
			ShutdownTimeout:  500 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}

		relaySvc := NewMockService("wal-relay")
		compactorSvc := NewMockService("wal-compactor")
		routerSvc := NewMockService("event-router")
		learnerSvc := NewMockService("feedback-learner")
		httpSvc := NewMockService("http-server")

		tree.AddDataService(relaySvc)
		tree.AddDataService(compactorSvc)
		tree.AddMessagingService(routerSvc)
		tree.AddMessagingService(learnerSvc)
		tree.AddAPIService(httpSvc)

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		errCh := tree.ServeBackground(ctx)

		// Poll for startup, more reliable in CI under load
		services := []*MockService{relaySvc, compactorSvc, routerSvc, learnerSvc, httpSvc}
		var allStarted bool
		for i := 0; i < 10; i++ {
			time.Sleep(20 * time.Millisecond)
			allStarted = true
			for _, svc := range services {
				if svc.StartCount() < 1 {
					allStarted = false
					break
				}
			}
			if allStarted {
				break
			}
		}
		if !allStarted {
			for _, svc := range services {
				if svc.StartCount() < 1 {
					t.Errorf("%s was not started", svc.String())
				}
			}
		}

		// Wait for context timeout to trigger shutdown
		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("tree did not shut down")
		}
	})

	t.Run("cascade failure isolation", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
			FailureThreshold: 10,
			FailureBackoff:   10 * time.Millisecond,
			ShutdownTimeout:  500 * time.Millisecond,
		})

		// A crashing router in the messaging layer must not disturb
		// the data and api layers.
		failingRouter := NewMockService("failing-router")
		failingRouter.SetFailCount(3)

		stableRelay := NewMockService("stable-relay")
		stableAPI := NewMockService("stable-api")

		tree.AddDataService(stableRelay)
		tree.AddMessagingService(failingRouter)
		tree.AddAPIService(stableAPI)

		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()

		errCh := tree.ServeBackground(ctx)

		time.Sleep(150 * time.Millisecond)

		if failingRouter.StartCount() < 3 {
			t.Errorf("failing service should have been restarted at least 3 times, got %d", failingRouter.StartCount())
		}

		// Stable services should have started exactly once, untouched
		// by the restarts next door.
		if stableRelay.StartCount() != 1 {
			t.Errorf("expected stable data service started once, got %d", stableRelay.StartCount())
		}
		if stableAPI.StartCount() != 1 {
			t.Errorf("expected stable api service started once, got %d", stableAPI.StartCount())
		}

		cancel()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Error("tree did not shut down")
		}
	})

	t.Run("graceful shutdown stops all services", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
			ShutdownTimeout: time.Second,
		})

		dataSvc := NewMockService("data")
		apiSvc := NewMockService("api")
		tree.AddDataService(dataSvc)
		tree.AddAPIService(apiSvc)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := tree.ServeBackground(ctx)

		// Wait for startup, then cancel
		for i := 0; i < 10; i++ {
			time.Sleep(20 * time.Millisecond)
			if dataSvc.StartCount() >= 1 && apiSvc.StartCount() >= 1 {
				break
			}
		}
		cancel()

		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Fatal("tree did not shut down")
		}

		if dataSvc.StopCount() < 1 {
			t.Error("data service did not stop")
		}
		if apiSvc.StopCount() < 1 {
			t.Error("api service did not stop")
		}
	})
}
