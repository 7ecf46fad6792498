// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package wal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// testEvent mirrors the feedback event shape without importing the
// events package, which would create an import cycle in tests.
type testEvent struct {
	EventID    string    `json:"event_id"`
	UserID     int64     `json:"user_id"`
	CourseID   int64     `json:"course_id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
}

func createTestConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "journal")
	cfg.SyncWrites = false
	cfg.MemTableSize = 16 * 1024 * 1024
	cfg.ValueLogFileSize = 16 * 1024 * 1024
	return cfg
}

func createTestEvent(id string) *testEvent {
	return &testEvent{
		EventID:    id,
		UserID:     42,
		CourseID:   7,
		Type:       "enroll",
		OccurredAt: time.Now().UTC(),
	}
}

func setupJournal(t *testing.T) *BadgerJournal {
	t.Helper()
	cfg := createTestConfig(t)
	journal, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = journal.Close() })
	return journal
}

func TestJournal_Write(t *testing.T) {
	journal := setupJournal(t)
	ctx := context.Background()

	entryID, err := journal.Write(ctx, createTestEvent("evt-1"))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if entryID == "" {
		t.Fatal("Write returned empty entry ID")
	}

	pending, err := journal.GetPending(ctx)
	if err != nil {
		t.Fatalf("GetPending error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Pending entries = %d, want 1", len(pending))
	}
	if pending[0].ID != entryID {
		t.Errorf("Entry ID = %q, want %q", pending[0].ID, entryID)
	}
	if pending[0].Confirmed {
		t.Error("New entry should not be confirmed")
	}
	if pending[0].Attempts != 0 {
		t.Errorf("Attempts = %d, want 0", pending[0].Attempts)
	}

	var event testEvent
	if err := pending[0].UnmarshalPayload(&event); err != nil {
		t.Fatalf("UnmarshalPayload error: %v", err)
	}
	if event.EventID != "evt-1" {
		t.Errorf("Payload EventID = %q, want evt-1", event.EventID)
	}
}

func TestJournal_Write_NilEvent(t *testing.T) {
	journal := setupJournal(t)

	_, err := journal.Write(context.Background(), nil)
	if !errors.Is(err, ErrNilEvent) {
		t.Errorf("Error = %v, want ErrNilEvent", err)
	}
}

func TestJournal_Confirm(t *testing.T) {
	journal := setupJournal(t)
	ctx := context.Background()

	entryID, err := journal.Write(ctx, createTestEvent("evt-1"))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}

	if err := journal.Confirm(ctx, entryID); err != nil {
		t.Fatalf("Confirm error: %v", err)
	}

	pending, err := journal.GetPending(ctx)
	if err != nil {
		t.Fatalf("GetPending error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Pending entries after confirm = %d, want 0", len(pending))
	}

	stats := journal.Stats()
	if stats.ConfirmedCount != 1 {
		t.Errorf("ConfirmedCount = %d, want 1", stats.ConfirmedCount)
	}
	if stats.TotalConfirms != 1 {
		t.Errorf("TotalConfirms = %d, want 1", stats.TotalConfirms)
	}
}

func TestJournal_Confirm_Errors(t *testing.T) {
	journal := setupJournal(t)
	ctx := context.Background()

	t.Run("empty entry ID", func(t *testing.T) {
		if err := journal.Confirm(ctx, ""); !errors.Is(err, ErrEmptyEntryID) {
			t.Errorf("Error = %v, want ErrEmptyEntryID", err)
		}
	})

	t.Run("unknown entry", func(t *testing.T) {
		if err := journal.Confirm(ctx, "no-such-entry"); !errors.Is(err, ErrEntryNotFound) {
			t.Errorf("Error = %v, want ErrEntryNotFound", err)
		}
	})

	t.Run("double confirm", func(t *testing.T) {
		entryID, err := journal.Write(ctx, createTestEvent("evt-2"))
		if err != nil {
			t.Fatalf("Write error: %v", err)
		}
		if err := journal.Confirm(ctx, entryID); err != nil {
			t.Fatalf("Confirm error: %v", err)
		}
		if err := journal.Confirm(ctx, entryID); !errors.Is(err, ErrEntryNotFound) {
			t.Errorf("Second confirm error = %v, want ErrEntryNotFound", err)
		}
	})
}

func TestJournal_UpdateAttempt(t *testing.T) {
	journal := setupJournal(t)
	ctx := context.Background()

	entryID, err := journal.Write(ctx, createTestEvent("evt-1"))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}

	if err := journal.UpdateAttempt(ctx, entryID, "connection refused"); err != nil {
		t.Fatalf("UpdateAttempt error: %v", err)
	}

	pending, err := journal.GetPending(ctx)
	if err != nil {
		t.Fatalf("GetPending error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Pending entries = %d, want 1", len(pending))
	}
	if pending[0].Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", pending[0].Attempts)
	}
	if pending[0].LastError != "connection refused" {
		t.Errorf("LastError = %q, want connection refused", pending[0].LastError)
	}
	if pending[0].LastAttemptAt.IsZero() {
		t.Error("LastAttemptAt should be set")
	}

	if err := journal.UpdateAttempt(ctx, "no-such-entry", "x"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Error = %v, want ErrEntryNotFound", err)
	}
}

func TestJournal_DeleteEntry(t *testing.T) {
	journal := setupJournal(t)
	ctx := context.Background()

	t.Run("pending entry", func(t *testing.T) {
		entryID, err := journal.Write(ctx, createTestEvent("evt-1"))
		if err != nil {
			t.Fatalf("Write error: %v", err)
		}
		if err := journal.DeleteEntry(ctx, entryID); err != nil {
			t.Fatalf("DeleteEntry error: %v", err)
		}
		pending, err := journal.GetPending(ctx)
		if err != nil {
			t.Fatalf("GetPending error: %v", err)
		}
		if len(pending) != 0 {
			t.Errorf("Pending entries = %d, want 0", len(pending))
		}
	})

	t.Run("confirmed entry", func(t *testing.T) {
		entryID, err := journal.Write(ctx, createTestEvent("evt-2"))
		if err != nil {
			t.Fatalf("Write error: %v", err)
		}
		if err := journal.Confirm(ctx, entryID); err != nil {
			t.Fatalf("Confirm error: %v", err)
		}
		if err := journal.DeleteEntry(ctx, entryID); err != nil {
			t.Fatalf("DeleteEntry error: %v", err)
		}
		if got := journal.Stats().ConfirmedCount; got != 0 {
			t.Errorf("ConfirmedCount = %d, want 0", got)
		}
	})

	t.Run("unknown entry", func(t *testing.T) {
		if err := journal.DeleteEntry(ctx, "no-such-entry"); !errors.Is(err, ErrEntryNotFound) {
			t.Errorf("Error = %v, want ErrEntryNotFound", err)
		}
	})
}

func TestJournal_Stats(t *testing.T) {
	journal := setupJournal(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := journal.Write(ctx, createTestEvent("evt")); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}

	entryID, err := journal.Write(ctx, createTestEvent("evt-confirm"))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if err := journal.Confirm(ctx, entryID); err != nil {
		t.Fatalf("Confirm error: %v", err)
	}

	stats := journal.Stats()
	if stats.PendingCount != 3 {
		t.Errorf("PendingCount = %d, want 3", stats.PendingCount)
	}
	if stats.ConfirmedCount != 1 {
		t.Errorf("ConfirmedCount = %d, want 1", stats.ConfirmedCount)
	}
	if stats.TotalWrites != 4 {
		t.Errorf("TotalWrites = %d, want 4", stats.TotalWrites)
	}
	if stats.TotalConfirms != 1 {
		t.Errorf("TotalConfirms = %d, want 1", stats.TotalConfirms)
	}
}

func TestJournal_Close(t *testing.T) {
	cfg := createTestConfig(t)
	journal, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	if err := journal.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	// Second close is a no-op.
	if err := journal.Close(); err != nil {
		t.Errorf("Second Close error: %v", err)
	}

	ctx := context.Background()
	if _, err := journal.Write(ctx, createTestEvent("evt")); !errors.Is(err, ErrJournalClosed) {
		t.Errorf("Write after close error = %v, want ErrJournalClosed", err)
	}
	if err := journal.Confirm(ctx, "x"); !errors.Is(err, ErrJournalClosed) {
		t.Errorf("Confirm after close error = %v, want ErrJournalClosed", err)
	}
	if _, err := journal.GetPending(ctx); !errors.Is(err, ErrJournalClosed) {
		t.Errorf("GetPending after close error = %v, want ErrJournalClosed", err)
	}
}

func TestJournal_PersistsAcrossReopen(t *testing.T) {
	cfg := createTestConfig(t)

	journal, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	ctx := context.Background()
	entryID, err := journal.Write(ctx, createTestEvent("evt-durable"))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	reopened, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Reopen error: %v", err)
	}
	defer reopened.Close()

	pending, err := reopened.GetPending(ctx)
	if err != nil {
		t.Fatalf("GetPending error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Pending entries after reopen = %d, want 1", len(pending))
	}
	if pending[0].ID != entryID {
		t.Errorf("Entry ID = %q, want %q", pending[0].ID, entryID)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		cfg := DefaultConfig()
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty path", func(c *Config) { c.Path = "" }},
		{"short entry TTL", func(c *Config) { c.EntryTTL = time.Minute }},
		{"short retry interval", func(c *Config) { c.RetryInterval = 100 * time.Millisecond }},
		{"zero max retries", func(c *Config) { c.MaxRetries = 0 }},
		{"short retry backoff", func(c *Config) { c.RetryBackoff = 100 * time.Millisecond }},
		{"short compact interval", func(c *Config) { c.CompactInterval = time.Second }},
		{"tiny memtable", func(c *Config) { c.MemTableSize = 1024 }},
		{"tiny value log", func(c *Config) { c.ValueLogFileSize = 1024 }},
		{"one compactor", func(c *Config) { c.NumCompactors = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}

			var cfgErr *ConfigError
			if err := cfg.Validate(); !errors.As(err, &cfgErr) {
				t.Errorf("Error type = %T, want *ConfigError", err)
			}
		})
	}
}
