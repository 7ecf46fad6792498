// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

/*
Package services provides suture.Service wrappers for Praeceptor components.

This package adapts application components to the suture v4 supervision
model, translating various lifecycle patterns (Start/Stop, Run,
ListenAndServe) into suture's context-aware Serve pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation (Start/Stop to Serve pattern)
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Event Router (EventRouterService):
  - Wraps the watermill router driving the feedback pipeline
  - A router that dies on its own is restarted by the supervisor

Feedback Learner (LearnerService):
  - Wraps the learner's drain loop
  - A final drain on shutdown flushes buffered feedback

Model Trainer (TrainerService):
  - Trains the recommendation engine on a schedule
  - Checkpoints learner state after successful passes and on shutdown

Journal Services (RelayService, CompactorService):
  - Wrap the write-ahead journal's relay and compactor loops
  - Only wired when the journal is enabled in configuration

# Lifecycle Patterns

The package handles three lifecycle shapes:

Start/Stop Pattern (RelayService, CompactorService):

	func (s *Service) Serve(ctx context.Context) error {
	    if err := s.loop.Start(ctx); err != nil {
	        return err
	    }
	    <-ctx.Done()
	    s.loop.Stop()
	    return ctx.Err()
	}

Run Pattern (EventRouterService, LearnerService):

	func (s *Service) Serve(ctx context.Context) error {
	    return s.component.Run(ctx)
	}

ListenAndServe Pattern (HTTPServerService):

	func (s *Service) Serve(ctx context.Context) error {
	    go s.server.ListenAndServe()
	    <-ctx.Done()
	    return s.server.Shutdown(shutdownCtx)
	}

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

# Service Identification

All services implement fmt.Stringer. Suture uses this for log messages:

	INFO http-server: starting
	ERROR event-router: restarting after failure

# Testing

Each wrapper accepts a narrow interface rather than a concrete
component, so tests exercise the lifecycle with small hand-rolled
mocks. See the _test.go files alongside each wrapper.

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: Underlying supervision library
*/
package services
