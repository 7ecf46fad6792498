// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package database

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/courseloom/praeceptor/internal/logging"
)

// defaultQueryTimeout bounds individual repository queries when the
// caller's context carries no deadline of its own.
const defaultQueryTimeout = 30 * time.Second

// ensureContext returns the context with a default timeout applied when
// none is set. The returned cancel func must always be called.
func ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// closeQuietly closes a resource, ignoring any error. Used in cleanup
// paths where the original error already determines the outcome.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// closeWithLog closes a resource and logs a warning on failure.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Err(err).Str("resource", resourceType).Msg("Failed to close resource")
	}
}

// splitAndTrim splits a comma-separated stored list back into a slice,
// trimming whitespace and dropping empty elements. Returns nil for an
// empty or all-whitespace input so omitempty JSON fields stay absent.
func splitAndTrim(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// joinList serializes a slice into the comma-separated storage form.
func joinList(items []string) string {
	return strings.Join(items, ", ")
}
