// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package api

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/courseloom/praeceptor/internal/wal"
)

// fakeStatsProvider returns canned journal statistics.
type fakeStatsProvider struct {
	stats wal.Stats
}

func (p *fakeStatsProvider) Stats() wal.Stats { return p.stats }

// fakeCompactor counts RunNow calls.
type fakeCompactor struct {
	runs atomic.Int64
}

func (c *fakeCompactor) RunNow() { c.runs.Add(1) }

func TestJournalGetStats(t *testing.T) {
	t.Parallel()

	provider := &fakeStatsProvider{stats: wal.Stats{
		PendingCount:   12,
		ConfirmedCount: 3,
		TotalWrites:    100,
		TotalConfirms:  88,
		DBSizeBytes:    2048,
	}}
	jh := NewJournalHandlers(provider, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/journal/stats", nil)
	rec := httptest.NewRecorder()

	jh.GetStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}

	response := decodeEnvelope(t, rec)
	data, ok := response["data"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected data to be an object")
	}
	if data["pending_count"] != float64(12) {
		t.Errorf("Expected pending_count 12, got %v", data["pending_count"])
	}
	if data["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", data["status"])
	}
	if data["healthy"] != true {
		t.Errorf("Expected healthy true, got %v", data["healthy"])
	}
	if data["db_size_formatted"] != "2.0 KiB" {
		t.Errorf("Expected '2.0 KiB', got %v", data["db_size_formatted"])
	}
}

func TestJournalGetStats_Idle(t *testing.T) {
	t.Parallel()

	jh := NewJournalHandlers(&fakeStatsProvider{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/journal/stats", nil)
	rec := httptest.NewRecorder()

	jh.GetStats(rec, req)

	response := decodeEnvelope(t, rec)
	data, _ := response["data"].(map[string]interface{})
	if data["status"] != "idle" {
		t.Errorf("Expected status 'idle', got %v", data["status"])
	}
}

func TestJournalGetStats_Backpressure(t *testing.T) {
	t.Parallel()

	provider := &fakeStatsProvider{stats: wal.Stats{
		PendingCount: 50000,
		TotalWrites:  60000,
	}}
	jh := NewJournalHandlers(provider, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/journal/stats", nil)
	rec := httptest.NewRecorder()

	jh.GetStats(rec, req)

	response := decodeEnvelope(t, rec)
	data, _ := response["data"].(map[string]interface{})
	if data["status"] != "backpressure" {
		t.Errorf("Expected status 'backpressure', got %v", data["status"])
	}
	if data["healthy"] != false {
		t.Errorf("Expected healthy false, got %v", data["healthy"])
	}
}

func TestJournalGetHealth_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pending int64
		level   string
	}{
		{name: "idle", pending: 0, level: "idle"},
		{name: "healthy", pending: 500, level: "healthy"},
		{name: "moderate", pending: 3000, level: "moderate"},
		{name: "elevated", pending: 8000, level: "elevated"},
		{name: "critical", pending: 20000, level: "critical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			provider := &fakeStatsProvider{stats: wal.Stats{PendingCount: tt.pending}}
			jh := NewJournalHandlers(provider, nil)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/journal/health", nil)
			rec := httptest.NewRecorder()

			jh.GetHealth(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
			}

			response := decodeEnvelope(t, rec)
			data, _ := response["data"].(map[string]interface{})
			if data["level"] != tt.level {
				t.Errorf("Expected level %q, got %v", tt.level, data["level"])
			}
		})
	}
}

func TestJournalTriggerCompaction(t *testing.T) {
	t.Parallel()

	compactor := &fakeCompactor{}
	jh := NewJournalHandlers(&fakeStatsProvider{}, compactor)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/journal/compact", nil)
	rec := httptest.NewRecorder()

	jh.TriggerCompaction(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := compactor.runs.Load(); got != 1 {
		t.Errorf("Expected 1 compaction run, got %d", got)
	}
}

func TestJournalTriggerCompaction_Unavailable(t *testing.T) {
	t.Parallel()

	jh := NewJournalHandlers(&fakeStatsProvider{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/journal/compact", nil)
	rec := httptest.NewRecorder()

	jh.TriggerCompaction(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestJournalTriggerCompaction_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	jh := NewJournalHandlers(&fakeStatsProvider{}, &fakeCompactor{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/journal/compact", nil)
	rec := httptest.NewRecorder()

	jh.TriggerCompaction(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int64
		want string
	}{
		{in: 0, want: "0 B"},
		{in: 512, want: "512 B"},
		{in: 2048, want: "2.0 KiB"},
		{in: 1536, want: "1.5 KiB"},
		{in: 5 * 1024 * 1024, want: "5.0 MiB"},
		{in: 3 * 1024 * 1024 * 1024, want: "3.0 GiB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
