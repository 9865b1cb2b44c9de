// Package statistics exposes per-year aggregate area statistics behind a
// read-through cache. Entries are immutable once loaded and live for the
// whole process; a fresh process picks up updated source data.
package statistics

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"triscore-platform/internal/models"
)

// Source loads the statistics records for one year. Implemented by the
// repository; tests use fixture sources.
type Source interface {
	LoadYear(ctx context.Context, year int) ([]models.AreaStatistics, error)
}

// Store is a read-through cache over a Source, keyed by year. Concurrent
// first-loads of the same year are collapsed into a single source call;
// reads of a cached year never touch the source again.
type Store struct {
	source Source
	group  singleflight.Group

	mu    sync.RWMutex
	years map[int][]models.AreaStatistics
}

// NewStore creates an empty store over the given source.
func NewStore(source Source) *Store {
	return &Store{
		source: source,
		years:  make(map[int][]models.AreaStatistics),
	}
}

// Load returns the statistics snapshot for a year. The returned slice is
// shared and must be treated as read-only. Returns DataUnavailableError
// when the source has no statistics for the year; load failures are not
// cached.
func (s *Store) Load(ctx context.Context, year int) ([]models.AreaStatistics, error) {
	s.mu.RLock()
	snapshot, ok := s.years[year]
	s.mu.RUnlock()
	if ok {
		return snapshot, nil
	}

	result, err, _ := s.group.Do(strconv.Itoa(year), func() (interface{}, error) {
		// Re-check: another caller may have populated the entry between
		// the cache miss and this flight starting.
		s.mu.RLock()
		cached, ok := s.years[year]
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := s.source.LoadYear(ctx, year)
		if err != nil {
			return nil, err
		}
		if len(loaded) == 0 {
			return nil, &models.DataUnavailableError{Year: year}
		}
		for i := range loaded {
			if err := loaded[i].Validate(); err != nil {
				return nil, fmt.Errorf("invalid statistics for year %d: %w", year, err)
			}
		}

		s.mu.Lock()
		s.years[year] = loaded
		s.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.AreaStatistics), nil
}

// HasYear reports whether statistics for the year can be loaded.
func (s *Store) HasYear(ctx context.Context, year int) bool {
	_, err := s.Load(ctx, year)
	return err == nil
}

// CachedYears returns the years currently held in the cache, for
// diagnostics.
func (s *Store) CachedYears() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	years := make([]int, 0, len(s.years))
	for year := range s.years {
		years = append(years, year)
	}
	return years
}
