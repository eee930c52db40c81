// Package snapshot persists stage outputs to date-rotated files so that
// re-runs within the same calendar day reuse cached data instead of
// refetching it from the upstream APIs.
package snapshot

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Store reads and writes named gob snapshots under a base directory. A
// snapshot is only ever valid for the calendar date it was written on; reads
// never fall back to an older date's file.
type Store struct {
	dir    string
	clock  clockwork.Clock
	logger zerolog.Logger
}

// New creates a snapshot store rooted at dir.
func New(dir string, clock clockwork.Clock, logger zerolog.Logger) *Store {
	return &Store{
		dir:    dir,
		clock:  clock,
		logger: logger.With().Str("component", "snapshot").Logger(),
	}
}

// RotatedPath inserts today's ISO date as the second-to-last dot-separated
// component of path, e.g. "data/prices.gob" becomes
// "data/prices.2024-03-01.gob". Single-application contract: calling it on
// its own output inserts a second date.
func (s *Store) RotatedPath(path string) string {
	components := strings.Split(path, ".")
	last := components[len(components)-1]
	today := s.clock.Now().Format("2006-01-02")
	components = append(components[:len(components)-1], today, last)
	return strings.Join(components, ".")
}

func (s *Store) path(name string) string {
	return s.RotatedPath(filepath.Join(s.dir, name+".gob"))
}

// Save serializes value into today's snapshot file for name.
func (s *Store) Save(name string, value any) error {
	path := s.path(name)
	s.logger.Info().Str("path", path).Msg("saving snapshot")

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	if err := gob.NewEncoder(file).Encode(value); err != nil {
		_ = file.Close()
		return fmt.Errorf("encoding snapshot %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing snapshot file: %w", err)
	}
	return nil
}

// Read loads today's snapshot for name into out. It returns false with a nil
// error when no snapshot exists for today; older dates are never consulted.
func (s *Store) Read(name string, out any) (bool, error) {
	path := s.path(name)

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	s.logger.Info().Str("path", path).Msg("reading snapshot")
	if err := gob.NewDecoder(file).Decode(out); err != nil {
		return false, fmt.Errorf("decoding snapshot %s: %w", name, err)
	}
	return true, nil
}

// Resolve returns today's cached value for name, invoking compute when no
// snapshot exists. compute is responsible for saving its own result, so a
// freshly computed value is cached for the rest of the day.
func Resolve[T any](s *Store, name string, compute func() (T, error)) (T, error) {
	var value T
	ok, err := s.Read(name, &value)
	if err != nil {
		return value, err
	}
	if ok {
		return value, nil
	}
	return compute()
}
