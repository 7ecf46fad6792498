// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package services

import (
	"context"
	"errors"
	"fmt"
)

// MessageRouter interface matches the event router's Run method.
//
// This interface allows the EventRouterService to work with the router
// without importing the events package.
//
// Satisfied by *events.Router from internal/events/router.go:
//   - Run(ctx context.Context) error
type MessageRouter interface {
	Run(ctx context.Context) error
}

// EventRouterService wraps the feedback event router as a supervised
// service.
//
// The router's Run method blocks until the context is canceled and
// handles its own graceful close, so this wrapper mostly delegates.
// The one translation it adds is around Run's return value: watermill
// returns nil after a context-triggered shutdown, and suture would
// read a bare nil as "done, never restart". The wrapper keeps that
// meaning for real shutdowns and converts a spontaneous nil return
// into an error so the supervisor brings the router back.
//
// Example usage:
//
//	router, _ := events.NewRouter(cfg, poisonPub, logger)
//	svc := services.NewEventRouterService(router)
//	tree.AddMessagingService(svc)
type EventRouterService struct {
	router MessageRouter
	name   string
}

// NewEventRouterService creates a new event router service wrapper.
func NewEventRouterService(router MessageRouter) *EventRouterService {
	return &EventRouterService{
		router: router,
		name:   "event-router",
	}
}

// Serve implements suture.Service.
//
// This method:
//  1. Runs the router (blocks, processing registered handlers)
//  2. On a router error, wraps and returns it for restart
//  3. On shutdown, returns ctx.Err() for normal termination
func (s *EventRouterService) Serve(ctx context.Context) error {
	if err := s.router.Run(ctx); err != nil {
		return fmt.Errorf("event router failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		// Normal shutdown path
		return err
	}

	// Run returned nil without a shutdown signal. Treat as a crash so
	// the supervisor restarts message processing.
	return errors.New("event router stopped unexpectedly")
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *EventRouterService) String() string {
	return s.name
}
