// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/courseloom/praeceptor/internal/models"
	"github.com/courseloom/praeceptor/internal/wal"
)

// backlogWarning is the pending-entry count above which the journal
// reports backpressure. Sustained backlog above this level means the
// stream is not draining and replay load will spike on restart.
const backlogWarning = 10000

// JournalStatsProvider supplies journal statistics without coupling
// the handlers to the badger implementation.
type JournalStatsProvider interface {
	Stats() wal.Stats
}

// CompactionRunner triggers an immediate journal compaction pass.
type CompactionRunner interface {
	RunNow()
}

// JournalStats is the payload for GET /api/v1/journal/stats.
type JournalStats struct {
	PendingCount      int64     `json:"pending_count"`
	ConfirmedCount    int64     `json:"confirmed_count"`
	TotalWrites       int64     `json:"total_writes"`
	TotalConfirms     int64     `json:"total_confirms"`
	TotalRetries      int64     `json:"total_retries"`
	LastCompaction    time.Time `json:"last_compaction,omitempty"`
	DBSizeBytes       int64     `json:"db_size_bytes"`
	DBSizeFormatted   string    `json:"db_size_formatted"`
	WriteRatePerMin   float64   `json:"write_rate_per_min"`
	ConfirmRatePerMin float64   `json:"confirm_rate_per_min"`
	Status            string    `json:"status"`
	Healthy           bool      `json:"healthy"`
}

// JournalHandlers serves the feedback journal endpoints. The compactor
// may be nil, in which case manual compaction answers 503.
type JournalHandlers struct {
	provider  JournalStatsProvider
	compactor CompactionRunner
	startTime time.Time
}

// NewJournalHandlers creates handlers backed by the given journal.
func NewJournalHandlers(provider JournalStatsProvider, compactor CompactionRunner) *JournalHandlers {
	return &JournalHandlers{
		provider:  provider,
		compactor: compactor,
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/v1/journal/stats.
func (jh *JournalHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	stats := jh.provider.Stats()
	uptime := time.Since(jh.startTime).Minutes()

	var writeRate, confirmRate float64
	if uptime > 0 {
		writeRate = float64(stats.TotalWrites) / uptime
		confirmRate = float64(stats.TotalConfirms) / uptime
	}

	healthy := stats.PendingCount < backlogWarning
	status := "healthy"
	switch {
	case stats.TotalWrites == 0:
		status = "idle"
	case !healthy:
		status = "backpressure"
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: JournalStats{
			PendingCount:      stats.PendingCount,
			ConfirmedCount:    stats.ConfirmedCount,
			TotalWrites:       stats.TotalWrites,
			TotalConfirms:     stats.TotalConfirms,
			TotalRetries:      stats.TotalRetries,
			LastCompaction:    stats.LastCompaction,
			DBSizeBytes:       stats.DBSizeBytes,
			DBSizeFormatted:   formatBytes(stats.DBSizeBytes),
			WriteRatePerMin:   writeRate,
			ConfirmRatePerMin: confirmRate,
			Status:            status,
			Healthy:           healthy,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// GetHealth handles GET /api/v1/journal/health, grading the pending
// backlog into bands so dashboards can alert before the journal
// reaches backpressure.
func (jh *JournalHandlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	stats := jh.provider.Stats()

	var level string
	switch {
	case stats.PendingCount == 0:
		level = "idle"
	case stats.PendingCount < 1000:
		level = "healthy"
	case stats.PendingCount < 5000:
		level = "moderate"
	case stats.PendingCount < backlogWarning:
		level = "elevated"
	default:
		level = "critical"
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"level":         level,
			"pending_count": stats.PendingCount,
			"healthy":       stats.PendingCount < backlogWarning,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// TriggerCompaction handles POST /api/v1/journal/compact. The pass
// runs synchronously; confirmed and expired removals show up in the
// stats immediately after the response.
func (jh *JournalHandlers) TriggerCompaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if jh.compactor == nil {
		respondError(w, http.StatusServiceUnavailable, "COMPACTOR_UNAVAILABLE", "Journal compaction is not enabled", nil)
		return
	}

	jh.compactor.RunNow()

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"compacted": true,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// formatBytes renders a byte count in human-readable form.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
