// Package featurestore lays derived feature arrays out on disk: one
// directory per series under a phase root, one flat float32 .npy file per
// channel. Array index encodes chronological order; the store never reorders
// what it is given.
package featurestore

import (
	"fmt"
	"path/filepath"

	"github.com/somno-data/sleepstate.report/internal/fsutil"
	"github.com/somno-data/sleepstate.report/internal/npy"
)

// Store reads and writes per-series feature arrays under a single phase root
// (e.g. processed/train).
type Store struct {
	root string
	fs   fsutil.FileSystem
}

// New creates a store over the given root using the given filesystem.
func New(root string, fs fsutil.FileSystem) *Store {
	return &Store{root: root, fs: fs}
}

// Open creates an OS-backed store over root.
func Open(root string) *Store {
	return New(root, fsutil.OSFileSystem{})
}

// Root returns the phase root directory.
func (s *Store) Root() string { return s.root }

// Reset deletes the entire tree under the root. Clean-rebuild semantics:
// stale output from a previous run is never merged with new output.
func (s *Store) Reset() error {
	if err := s.fs.RemoveAll(s.root); err != nil {
		return fmt.Errorf("reset store %s: %w", s.root, err)
	}
	return nil
}

// WriteSeries writes one array file per channel for a series. All channels
// must be the same length and the order slice names every channel to write.
func (s *Store) WriteSeries(seriesID string, channels map[string][]float32, order []string) error {
	if seriesID == "" {
		return fmt.Errorf("write series: empty series id")
	}
	n := -1
	for _, name := range order {
		xs, ok := channels[name]
		if !ok {
			return fmt.Errorf("write series %s: missing channel %s", seriesID, name)
		}
		if n == -1 {
			n = len(xs)
		} else if len(xs) != n {
			return fmt.Errorf("write series %s: channel %s has %d samples, want %d",
				seriesID, name, len(xs), n)
		}
	}

	dir := filepath.Join(s.root, seriesID)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create series dir %s: %w", dir, err)
	}
	for _, name := range order {
		path := filepath.Join(dir, name+".npy")
		if err := npy.WriteFloat32(s.fs, path, channels[name]); err != nil {
			return err
		}
	}
	return nil
}

// ListSeries returns the sorted series IDs present in the store.
func (s *Store) ListSeries() ([]string, error) {
	if !s.fs.Exists(s.root) {
		return nil, nil
	}
	names, err := s.fs.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list series under %s: %w", s.root, err)
	}
	return names, nil
}

// ReadChannel loads one channel array for a series.
func (s *Store) ReadChannel(seriesID, channel string) ([]float32, error) {
	path := filepath.Join(s.root, seriesID, channel+".npy")
	return npy.ReadFloat32(s.fs, path)
}

// ReadSeries loads the named channels for a series and verifies they are
// index-aligned (equal length).
func (s *Store) ReadSeries(seriesID string, channels []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(channels))
	n := -1
	for _, name := range channels {
		xs, err := s.ReadChannel(seriesID, name)
		if err != nil {
			return nil, err
		}
		if n == -1 {
			n = len(xs)
		} else if len(xs) != n {
			return nil, fmt.Errorf("series %s: channel %s has %d samples, want %d",
				seriesID, name, len(xs), n)
		}
		out[name] = xs
	}
	return out, nil
}

// SeriesLength returns the sample count of a series, using the first channel
// in the list as the reference.
func (s *Store) SeriesLength(seriesID string, channel string) (int, error) {
	xs, err := s.ReadChannel(seriesID, channel)
	if err != nil {
		return 0, err
	}
	return len(xs), nil
}
