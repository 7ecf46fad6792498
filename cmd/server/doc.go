// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

/*
Package main is the entry point for the Praeceptor server.

Praeceptor is a self-hosted course recommendation engine. It scores
personalized course candidates from collaborative and content-based
signals, re-scores them against the learner's current context, and
adapts continuously from explicit and implicit feedback flowing through
a durable event pipeline.

# Application Architecture

The server implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("praeceptor")
	├── DataSupervisor ("data-layer")
	│   ├── Journal relay (unconfirmed feedback replay)
	│   ├── Journal compactor (confirmed entry cleanup)
	│   └── Model trainer (artifact reload + scorer retraining)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── Event router (feedback consumption)
	│   └── Feedback learner (buffered drain loop)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router, REST API)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB course catalog and interaction store
 4. Recommendation engine: scorers, contextual rescorer, model artifacts
 5. Feedback journal: BadgerDB write-ahead journal (optional)
 6. Event pipeline: embedded NATS JetStream, publisher, router (optional)
 7. Supervisor tree: Suture v4 process supervision
 8. HTTP server: chi router with middleware stack

DuckDB, the BadgerDB journal handle, and the embedded NATS broker are
owned by this package, not the supervisor tree: they are embedded
libraries whose fatal failures need a process restart. Their transient
failures surface through the supervised services that use them.

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest
priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	HTTP_PORT=8591               # HTTP server port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Database
	DUCKDB_PATH=/data/praeceptor.duckdb

	# Recommendation engine
	RECOMMEND_ENABLED=true
	RECOMMEND_MODEL_PATH=/data/praeceptor/models
	RECOMMEND_REFRESH_INTERVAL=24h

	# Feedback pipeline
	NATS_ENABLED=true
	NATS_EMBEDDED=true
	WAL_ENABLED=true
	WAL_DIR=/data/praeceptor/wal

CONFIG_PATH points at an explicit YAML config file; without it the
loader probes config.yaml in the working directory and /etc/praeceptor.

# Degraded Modes

Every optional subsystem degrades instead of failing the boot:

  - RECOMMEND_ENABLED=false serves the popularity fallback only. No
    scorers are registered and no background training runs.
  - NATS_ENABLED=false feeds accepted feedback straight into the
    learner, skipping the event pipeline.
  - WAL_ENABLED=false skips the durable journal write, so feedback
    accepted during an outage of the event pipeline can be lost.
  - Missing model artifacts disable embedding-based scoring until the
    next refresh pass finds them; rule-based scoring still runs.

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Waits for in-flight requests (10s timeout)
 3. Drains buffered feedback into the learner
 4. Checkpoints learner state to the artifact store
 5. Stops the event router, relay and compactor
 6. Closes the event pipeline, journal and database
 7. Reports any services that failed to stop

# Usage Examples

Development:

	export LOG_FORMAT=console LOG_LEVEL=debug
	export DUCKDB_PATH=./praeceptor.duckdb
	export WAL_DIR=./wal NATS_STORE_DIR=./jetstream
	export RECOMMEND_MODEL_PATH=./models
	go run ./cmd/server

Production:

	export DUCKDB_PATH=/data/praeceptor.duckdb
	./praeceptor

Docker:

	docker run -d \
	  -v praeceptor-data:/data/praeceptor \
	  -p 8591:8591 \
	  ghcr.io/courseloom/praeceptor

# Port 8591

The default port 8591 was chosen to avoid conflicts with common
self-hosted services (Moodle 8080, Open edX 18000, JupyterHub 8000).
Override with HTTP_PORT.

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/recommend: Scoring engine and feedback learning
  - internal/events: Feedback event pipeline
  - internal/wal: Durable feedback journal
*/
package main
