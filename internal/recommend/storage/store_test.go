// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/gob"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/courseloom/praeceptor/internal/recommend"
	"github.com/courseloom/praeceptor/internal/recommend/learning"
)

func testVectors(ids ...int64) []recommend.CourseVector {
	out := make([]recommend.CourseVector, len(ids))
	for i, id := range ids {
		out[i] = recommend.CourseVector{
			CourseID:  id,
			Embedding: []float64{float64(id), 1},
		}
	}
	return out
}

func TestStoreSaveLoad(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v, want nil", err)
	}

	ctx := context.Background()
	trainedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	meta := ArtifactMetadata{
		TrainedAt:          trainedAt,
		InteractionCount:   42,
		CourseCount:        7,
		UserCount:          3,
		TrainingDurationMS: 1234,
	}

	if err := store.Save(ctx, "demo", 1, testVectors(1, 2), meta); err != nil {
		t.Fatalf("Save() error = %v, want nil", err)
	}

	var loaded []recommend.CourseVector
	got, err := store.Load(ctx, "demo", 1, &loaded)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if len(loaded) != 2 || loaded[0].CourseID != 1 || loaded[1].CourseID != 2 {
		t.Errorf("loaded vectors = %+v, want courses 1 and 2", loaded)
	}
	if len(loaded[0].Embedding) != 2 || loaded[0].Embedding[0] != 1 {
		t.Errorf("embedding = %v, want [1 1]", loaded[0].Embedding)
	}

	if got.Name != "demo" || got.Version != 1 {
		t.Errorf("metadata identity = %s v%d, want demo v1", got.Name, got.Version)
	}
	if !got.TrainedAt.Equal(trainedAt) {
		t.Errorf("TrainedAt = %v, want %v", got.TrainedAt, trainedAt)
	}
	if got.InteractionCount != 42 || got.CourseCount != 7 || got.UserCount != 3 {
		t.Errorf("counts = %d/%d/%d, want 42/7/3",
			got.InteractionCount, got.CourseCount, got.UserCount)
	}
	if got.TrainingDurationMS != 1234 {
		t.Errorf("TrainingDurationMS = %d, want 1234", got.TrainingDurationMS)
	}
	if len(got.Checksum) != 64 {
		t.Errorf("checksum = %q, want 64 hex chars", got.Checksum)
	}
	if got.SizeBytes <= 0 {
		t.Errorf("SizeBytes = %d, want positive", got.SizeBytes)
	}
	if got.SavedAt.IsZero() {
		t.Error("SavedAt not set")
	}
}

func TestStoreVersions(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v, want nil", err)
	}

	ctx := context.Background()
	if err := store.Save(ctx, "demo", 1, testVectors(1), ArtifactMetadata{}); err != nil {
		t.Fatalf("Save(v1) error = %v", err)
	}
	if err := store.Save(ctx, "demo", 2, testVectors(1, 2, 3), ArtifactMetadata{}); err != nil {
		t.Fatalf("Save(v2) error = %v", err)
	}

	if version, ok := store.GetLatestVersion("demo"); !ok || version != 2 {
		t.Errorf("GetLatestVersion() = %d, %v, want 2, true", version, ok)
	}
	if _, ok := store.GetLatestVersion("unknown"); ok {
		t.Error("GetLatestVersion(unknown) = true, want false")
	}

	// Version 0 resolves to the latest.
	var loaded []recommend.CourseVector
	meta, err := store.Load(ctx, "demo", 0, &loaded)
	if err != nil {
		t.Fatalf("Load(latest) error = %v, want nil", err)
	}
	if meta.Version != 2 || len(loaded) != 3 {
		t.Errorf("latest = v%d with %d vectors, want v2 with 3", meta.Version, len(loaded))
	}

	// Specific older versions stay addressable.
	if _, err := store.Load(ctx, "demo", 1, &loaded); err != nil {
		t.Errorf("Load(v1) error = %v, want nil", err)
	}
	if len(loaded) != 1 {
		t.Errorf("v1 vectors = %d, want 1", len(loaded))
	}
}

func TestStoreMissing(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v, want nil", err)
	}

	ctx := context.Background()

	var out []recommend.CourseVector
	if _, err := store.Load(ctx, "ghost", 0, &out); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("Load(unknown name) error = %v, want ErrArtifactNotFound", err)
	}

	if err := store.Save(ctx, "demo", 1, testVectors(1), ArtifactMetadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := store.Load(ctx, "demo", 9, &out); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("Load(absent version) error = %v, want ErrArtifactNotFound", err)
	}
}

func TestStoreCorrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// A file that is not a gob stream at all.
	if err := os.WriteFile(filepath.Join(dir, "garbage_v1.gob.gz"), []byte("not a gob"), 0o600); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	// A well-formed file whose checksum does not match its payload.
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(testVectors(1)); err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		t.Fatalf("compress payload: %v", err)
	}
	if err := gzw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}

	f, err := os.Create(filepath.Join(dir, "tampered_v1.gob.gz"))
	if err != nil {
		t.Fatalf("create tampered file: %v", err)
	}
	sf := storedFile{
		Metadata:       ArtifactMetadata{Name: "tampered", Version: 1, Checksum: "beef"},
		CompressedData: compressed.Bytes(),
	}
	if err := gob.NewEncoder(f).Encode(sf); err != nil {
		t.Fatalf("write tampered file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close tampered file: %v", err)
	}

	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v, want nil", err)
	}

	ctx := context.Background()

	var out []recommend.CourseVector
	if _, err := store.Load(ctx, "garbage", 0, &out); !errors.Is(err, ErrArtifactCorrupt) {
		t.Errorf("Load(garbage) error = %v, want ErrArtifactCorrupt", err)
	}
	if _, err := store.Load(ctx, "tampered", 0, &out); !errors.Is(err, ErrArtifactCorrupt) {
		t.Errorf("Load(tampered) error = %v, want ErrArtifactCorrupt", err)
	}
}

func TestStoreScan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v, want nil", err)
	}
	if err := first.Save(ctx, "demo", 1, testVectors(1), ArtifactMetadata{}); err != nil {
		t.Fatalf("Save(v1) error = %v", err)
	}
	if err := first.Save(ctx, "demo", 2, testVectors(2), ArtifactMetadata{}); err != nil {
		t.Fatalf("Save(v2) error = %v", err)
	}

	// Unrelated directory entries are skipped.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600); err != nil {
		t.Fatalf("write stray file: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o750); err != nil {
		t.Fatalf("make stray dir: %v", err)
	}

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore(reopen) error = %v, want nil", err)
	}
	if version, ok := reopened.GetLatestVersion("demo"); !ok || version != 2 {
		t.Errorf("reopened GetLatestVersion() = %d, %v, want 2, true", version, ok)
	}

	var out []recommend.CourseVector
	meta, err := reopened.Load(ctx, "demo", 0, &out)
	if err != nil {
		t.Fatalf("reopened Load() error = %v, want nil", err)
	}
	if meta.Version != 2 || out[0].CourseID != 2 {
		t.Errorf("reopened latest = v%d course %d, want v2 course 2", meta.Version, out[0].CourseID)
	}
}

func TestStoreRescan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	reader, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore(reader) error = %v, want nil", err)
	}

	// A second handle standing in for an external training pipeline
	// writes a version the reader has never seen.
	writer, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore(writer) error = %v, want nil", err)
	}
	if err := writer.Save(ctx, "demo", 3, testVectors(3), ArtifactMetadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, ok := reader.GetLatestVersion("demo"); ok {
		t.Fatal("GetLatestVersion() before Rescan() found artifact, want miss")
	}

	if err := reader.Rescan(); err != nil {
		t.Fatalf("Rescan() error = %v, want nil", err)
	}
	if version, ok := reader.GetLatestVersion("demo"); !ok || version != 3 {
		t.Errorf("GetLatestVersion() after Rescan() = %d, %v, want 3, true", version, ok)
	}
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v, want nil", err)
	}

	ctx := context.Background()
	for v := 1; v <= 2; v++ {
		if err := store.Save(ctx, "demo", v, testVectors(int64(v)), ArtifactMetadata{}); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}

	// Deleting the latest falls back to the previous version.
	if err := store.Delete(ctx, "demo", 2); err != nil {
		t.Fatalf("Delete(v2) error = %v, want nil", err)
	}
	if version, ok := store.GetLatestVersion("demo"); !ok || version != 1 {
		t.Errorf("GetLatestVersion() after delete = %d, %v, want 1, true", version, ok)
	}

	if err := store.Delete(ctx, "demo", 1); err != nil {
		t.Fatalf("Delete(v1) error = %v, want nil", err)
	}
	if _, ok := store.GetLatestVersion("demo"); ok {
		t.Error("GetLatestVersion() after deleting all versions = true, want false")
	}

	if err := store.Delete(ctx, "demo", 5); err == nil {
		t.Error("Delete(absent version) error = nil, want error")
	}
}

func TestStorePrune(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v, want nil", err)
	}

	ctx := context.Background()
	for v := 1; v <= 4; v++ {
		if err := store.Save(ctx, "demo", v, testVectors(int64(v)), ArtifactMetadata{}); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}

	if err := store.Prune(ctx, "demo", 2); err != nil {
		t.Fatalf("Prune() error = %v, want nil", err)
	}

	versions, err := store.listVersions("demo")
	if err != nil {
		t.Fatalf("listVersions() error = %v", err)
	}
	if len(versions) != 2 || versions[0] != 4 || versions[1] != 3 {
		t.Errorf("versions after prune = %v, want [4 3]", versions)
	}

	var out []recommend.CourseVector
	if _, err := store.Load(ctx, "demo", 1, &out); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("Load(pruned version) error = %v, want ErrArtifactNotFound", err)
	}
	if _, err := store.Load(ctx, "demo", 4, &out); err != nil {
		t.Errorf("Load(kept version) error = %v, want nil", err)
	}

	// Pruning an unknown artifact is a no-op.
	if err := store.Prune(ctx, "ghost", 2); err != nil {
		t.Errorf("Prune(unknown) error = %v, want nil", err)
	}
}

func TestStoreList(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v, want nil", err)
	}

	ctx := context.Background()
	if err := store.Save(ctx, "alpha", 1, testVectors(1), ArtifactMetadata{}); err != nil {
		t.Fatalf("Save(alpha) error = %v", err)
	}
	if err := store.Save(ctx, "beta", 1, testVectors(2), ArtifactMetadata{}); err != nil {
		t.Fatalf("Save(beta) error = %v", err)
	}
	if err := store.Save(ctx, "beta", 2, testVectors(3), ArtifactMetadata{}); err != nil {
		t.Fatalf("Save(beta v2) error = %v", err)
	}

	artifacts, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v, want nil", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("List() = %d artifacts, want 2", len(artifacts))
	}

	byName := make(map[string]ArtifactMetadata, len(artifacts))
	for _, meta := range artifacts {
		byName[meta.Name] = meta
	}
	if byName["alpha"].Version != 1 {
		t.Errorf("alpha version = %d, want 1", byName["alpha"].Version)
	}
	if byName["beta"].Version != 2 {
		t.Errorf("beta version = %d, want latest 2", byName["beta"].Version)
	}
}

func TestParseArtifactFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base        string
		wantName    string
		wantVersion int
	}{
		{"course_vectors_v2", "course_vectors", 2},
		{"learner_state_v10", "learner_state", 10},
		{"noversion", "", 0},
		{"bad_v0", "", 0},
		{"bad_vx", "", 0},
	}
	for _, tt := range tests {
		name, version := parseArtifactFilename(tt.base)
		if name != tt.wantName || version != tt.wantVersion {
			t.Errorf("parseArtifactFilename(%q) = %q, %d, want %q, %d",
				tt.base, name, version, tt.wantName, tt.wantVersion)
		}
	}

	if base, ok := trimArtifactExt("demo_v1.gob.gz"); !ok || base != "demo_v1" {
		t.Errorf("trimArtifactExt(.gob.gz) = %q, %v", base, ok)
	}
	if base, ok := trimArtifactExt("demo_v1.gob"); !ok || base != "demo_v1" {
		t.Errorf("trimArtifactExt(.gob) = %q, %v", base, ok)
	}
	if _, ok := trimArtifactExt("demo.txt"); ok {
		t.Error("trimArtifactExt(.txt) = true, want false")
	}
}

func TestTypedArtifacts(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v, want nil", err)
	}

	ctx := context.Background()

	t.Run("vectors auto-version", func(t *testing.T) {
		if err := store.SaveVectors(ctx, testVectors(1), ArtifactMetadata{}); err != nil {
			t.Fatalf("SaveVectors() error = %v", err)
		}
		if err := store.SaveVectors(ctx, testVectors(1, 2), ArtifactMetadata{}); err != nil {
			t.Fatalf("SaveVectors(again) error = %v", err)
		}

		vectors, meta, err := store.LoadVectors(ctx)
		if err != nil {
			t.Fatalf("LoadVectors() error = %v, want nil", err)
		}
		if meta.Version != 2 || len(vectors) != 2 {
			t.Errorf("latest vectors = v%d with %d entries, want v2 with 2", meta.Version, len(vectors))
		}
	})

	t.Run("encoder roundtrip", func(t *testing.T) {
		encoder := &recommend.FeatureEncoder{
			Dim:   3,
			Index: map[string]int{"category:programming": 0, "skill:go": 2},
		}
		if err := store.SaveUserEncoder(ctx, encoder, ArtifactMetadata{}); err != nil {
			t.Fatalf("SaveUserEncoder() error = %v", err)
		}

		restored, _, err := store.LoadUserEncoder(ctx)
		if err != nil {
			t.Fatalf("LoadUserEncoder() error = %v, want nil", err)
		}
		if restored.Dim != 3 || restored.Index["skill:go"] != 2 {
			t.Errorf("restored encoder = %+v, want original", restored)
		}
	})

	t.Run("missing artifact is reported", func(t *testing.T) {
		if _, _, err := store.LoadCourseEncoder(ctx); !errors.Is(err, ErrArtifactNotFound) {
			t.Errorf("LoadCourseEncoder() error = %v, want ErrArtifactNotFound", err)
		}
	})

	t.Run("learner state roundtrip", func(t *testing.T) {
		state := &learning.State{
			Users: map[int64]*learning.UserState{
				1: {
					Engagement:  []float64{0.3, 0.6},
					Accuracy:    0.8,
					HasAccuracy: true,
					Conversion:  0.4,
					Updates: []learning.PreferenceUpdate{
						{CourseID: 10, Weight: 0.8, AppliedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
					},
					LastSignal: learning.SignalIncreaseDifficulty,
				},
			},
			History: []learning.Snapshot{
				{Accuracy: 0.8, Satisfaction: 0.9, Timestamp: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
			},
			Processed: 17,
		}
		if err := store.SaveLearnerState(ctx, state); err != nil {
			t.Fatalf("SaveLearnerState() error = %v", err)
		}

		restored, err := store.LoadLearnerState(ctx)
		if err != nil {
			t.Fatalf("LoadLearnerState() error = %v, want nil", err)
		}
		if restored.Processed != 17 || len(restored.Users) != 1 || len(restored.History) != 1 {
			t.Fatalf("restored state = %+v, want original shape", restored)
		}

		user := restored.Users[1]
		if user == nil || len(user.Engagement) != 2 || user.Engagement[1] != 0.6 {
			t.Errorf("restored user = %+v, want engagement [0.3 0.6]", user)
		}
		if !user.HasAccuracy || user.Accuracy != 0.8 {
			t.Errorf("restored accuracy = %v, want 0.8", user.Accuracy)
		}
		if len(user.Updates) != 1 || user.Updates[0].CourseID != 10 {
			t.Errorf("restored updates = %+v, want course 10", user.Updates)
		}
		if user.LastSignal != learning.SignalIncreaseDifficulty {
			t.Errorf("restored signal = %q, want %q", user.LastSignal, learning.SignalIncreaseDifficulty)
		}
	})
}
