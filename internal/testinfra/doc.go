// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

// Package testinfra provides Docker-backed infrastructure for
// integration tests.
//
// The helpers start real service containers through testcontainers-go
// so tests exercise actual wire behavior instead of mocks. The NATS
// container runs the same server version the production deployment
// embeds, with JetStream enabled, so durable-stream semantics match
// what the event pipeline sees in deployment.
//
// Tests that use these helpers are double-gated: skipped under -short
// and skipped when no Docker daemon is reachable. The default unit
// test run therefore never requires Docker.
//
//	func TestPipeline(t *testing.T) {
//	    if testing.Short() {
//	        t.Skip("skipping integration test in short mode")
//	    }
//	    testinfra.SkipIfNoDocker(t)
//
//	    ctx := context.Background()
//	    natsC, err := testinfra.NewNATSContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, natsC.Container)
//
//	    nc, err := nats.Connect(natsC.URL)
//	    ...
//	}
package testinfra
