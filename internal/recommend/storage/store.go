// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// ErrArtifactNotFound is returned when no stored version of an
	// artifact exists.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrArtifactCorrupt is returned when a stored artifact fails
	// checksum or decode validation.
	ErrArtifactCorrupt = errors.New("artifact corrupt")
)

// ArtifactMetadata describes a stored artifact.
type ArtifactMetadata struct {
	// Name is the artifact name (e.g., "course_vectors").
	Name string `json:"name"`

	// Version is the artifact version (monotonically increasing).
	Version int `json:"version"`

	// TrainedAt is when the underlying model was trained.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the artifact was saved.
	SavedAt time.Time `json:"saved_at"`

	// InteractionCount is the number of interactions used for training.
	InteractionCount int `json:"interaction_count"`

	// CourseCount is the number of unique courses.
	CourseCount int `json:"course_count"`

	// UserCount is the number of unique users.
	UserCount int `json:"user_count"`

	// Checksum is the SHA-256 checksum of the uncompressed data.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed artifact size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// TrainingDurationMS is how long training took.
	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// storedFile is the on-disk format for artifact files.
type storedFile struct {
	Metadata       ArtifactMetadata
	CompressedData []byte
}

// Store manages artifact persistence under a single directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// Latest known version per artifact name.
	versions map[string]int
}

// NewStore creates an artifact store at the given directory, creating
// it if needed and scanning it for existing artifacts.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}

	if err := s.scanArtifacts(); err != nil {
		return nil, fmt.Errorf("scan existing artifacts: %w", err)
	}

	return s, nil
}

// Rescan re-walks the storage directory and picks up artifacts written
// by other processes since the store was opened. An offline training
// pipeline drops new versions into the directory; a periodic Rescan is
// how a long-running server notices them.
func (s *Store) Rescan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scanArtifacts()
}

// scanArtifacts walks the storage directory and records the latest
// version per artifact name.
func (s *Store) scanArtifacts() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		base, ok := trimArtifactExt(entry.Name())
		if !ok {
			continue
		}

		name, version := parseArtifactFilename(base)
		if name == "" {
			continue
		}

		if current, found := s.versions[name]; !found || version > current {
			s.versions[name] = version
		}
	}

	return nil
}

// trimArtifactExt strips the artifact file extension, reporting whether
// the filename carried one.
func trimArtifactExt(name string) (string, bool) {
	switch {
	case strings.HasSuffix(name, ".gob.gz"):
		return strings.TrimSuffix(name, ".gob.gz"), true
	case strings.HasSuffix(name, ".gob"):
		return strings.TrimSuffix(name, ".gob"), true
	default:
		return "", false
	}
}

// parseArtifactFilename extracts artifact name and version from a
// basename like "course_vectors_v2".
func parseArtifactFilename(base string) (name string, version int) {
	idx := strings.LastIndex(base, "_v")
	if idx < 0 {
		return "", 0
	}

	version, err := strconv.Atoi(base[idx+2:])
	if err != nil || version < 1 {
		return "", 0
	}

	return base[:idx], version
}

// Save stores an artifact under the given name and version.
//
//nolint:gocritic // hugeParam: meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, name string, version int, data interface{}, meta ArtifactMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer

	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return fmt.Errorf("compress artifact: %w", err)
	}

	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now()
	meta.Name = name
	meta.Version = version

	filename := s.artifactPath(name, version)

	f, err := os.Create(filename) //nolint:gosec // filename is constructed from trusted name parameter
	if err != nil {
		return fmt.Errorf("create artifact file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after write is surfaced via Encode

	// Write as a single gob-encoded struct to avoid buffering issues.
	sf := storedFile{
		Metadata:       meta,
		CompressedData: compressed.Bytes(),
	}

	fileEnc := gob.NewEncoder(f)
	if err := fileEnc.Encode(sf); err != nil {
		return fmt.Errorf("write artifact file: %w", err)
	}

	if current, ok := s.versions[name]; !ok || version > current {
		s.versions[name] = version
	}

	return nil
}

// Load loads an artifact by name and version into target. Version 0
// loads the latest version.
func (s *Store) Load(ctx context.Context, name string, version int, target interface{}) (*ArtifactMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		var ok bool

		version, ok = s.versions[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
		}
	}

	filename := s.artifactPath(name, version)

	f, err := os.Open(filename) //nolint:gosec // filename is constructed from trusted name parameter
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s v%d", ErrArtifactNotFound, name, version)
		}

		return nil, fmt.Errorf("open artifact file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile

	fileDec := gob.NewDecoder(f)
	if err := fileDec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("%w: read %s v%d: %v", ErrArtifactCorrupt, name, version, err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("%w: decompress %s v%d: %v", ErrArtifactCorrupt, name, version, err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress %s v%d: %v", ErrArtifactCorrupt, name, version, err)
	}

	hash := sha256.Sum256(rawData)
	checksum := hex.EncodeToString(hash[:])

	if checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch: expected %s, got %s",
			ErrArtifactCorrupt, sf.Metadata.Checksum, checksum)
	}

	dec := gob.NewDecoder(bytes.NewReader(rawData))
	if err := dec.Decode(target); err != nil {
		return nil, fmt.Errorf("%w: decode %s v%d: %v", ErrArtifactCorrupt, name, version, err)
	}

	return &sf.Metadata, nil
}

// GetLatestVersion returns the latest version number for an artifact.
func (s *Store) GetLatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, ok := s.versions[name]

	return version, ok
}

// List returns metadata for the latest version of every stored
// artifact.
func (s *Store) List(ctx context.Context) ([]ArtifactMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var artifacts []ArtifactMetadata

	for name, version := range s.versions {
		f, err := os.Open(s.artifactPath(name, version)) //nolint:gosec // path is constructed from tracked names
		if err != nil {
			continue
		}

		var sf storedFile

		dec := gob.NewDecoder(f)
		err = dec.Decode(&sf)

		_ = f.Close() //nolint:errcheck // error on close after read is not actionable

		if err != nil {
			continue
		}

		artifacts = append(artifacts, sf.Metadata)
	}

	return artifacts, nil
}

// Delete removes a specific artifact version.
func (s *Store) Delete(ctx context.Context, name string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.artifactPath(name, version)); err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}

	if s.versions[name] != version {
		return nil
	}

	// The deleted version was the latest; rescan for the next one.
	versions, err := s.listVersions(name)
	if err != nil {
		return err
	}

	if len(versions) == 0 {
		delete(s.versions, name)

		return nil
	}

	s.versions[name] = versions[0]

	return nil
}

// Prune removes old artifact versions, keeping the latest N.
func (s *Store) Prune(ctx context.Context, name string, keepVersions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keepVersions < 1 {
		keepVersions = 1
	}

	if _, ok := s.versions[name]; !ok {
		return nil
	}

	versions, err := s.listVersions(name)
	if err != nil {
		return err
	}

	for i := keepVersions; i < len(versions); i++ {
		_ = os.Remove(s.artifactPath(name, versions[i])) //nolint:errcheck // best-effort cleanup of old versions
	}

	return nil
}

// listVersions returns the on-disk versions of an artifact, newest
// first. Callers hold the lock.
func (s *Store) listVersions(name string) ([]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var versions []int

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		base, ok := trimArtifactExt(entry.Name())
		if !ok {
			continue
		}

		entryName, version := parseArtifactFilename(base)
		if entryName != name {
			continue
		}

		versions = append(versions, version)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(versions)))

	return versions, nil
}

// artifactPath returns the file path for an artifact version.
func (s *Store) artifactPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d.gob.gz", name, version))
}
