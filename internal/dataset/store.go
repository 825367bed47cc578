package dataset

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Snapshot holds both granularities of a loaded dataset
type Snapshot struct {
	Daily    []Record  `json:"-"`
	Hourly   []Record  `json:"-"`
	LoadedAt time.Time `json:"loaded_at"`
}

// DateRange returns the first and last dates present in the daily data
func (s *Snapshot) DateRange() (min, max time.Time) {
	for i, r := range s.Daily {
		if i == 0 || r.Date.Before(min) {
			min = r.Date
		}
		if i == 0 || r.Date.After(max) {
			max = r.Date
		}
	}
	return min, max
}

// Years returns the distinct calendar years in the daily data, ascending
func (s *Snapshot) Years() []int {
	seen := make(map[int]bool)
	var years []int
	for _, r := range s.Daily {
		if !seen[r.Year] {
			seen[r.Year] = true
			years = append(years, r.Year)
		}
	}
	for i := 1; i < len(years); i++ {
		for j := i; j > 0 && years[j] < years[j-1]; j-- {
			years[j], years[j-1] = years[j-1], years[j]
		}
	}
	return years
}

// Store caches a loaded snapshot and reloads it when the source files change
// on disk. Reloads are keyed by file modification time so repeated requests
// between changes hit the cache.
type Store struct {
	loader     *Loader
	logger     *slog.Logger
	dailyPath  string
	hourlyPath string

	mu         sync.RWMutex
	snapshot   *Snapshot
	dailyMod   time.Time
	hourlyMod  time.Time
}

// NewStore creates a store backed by the given file paths
func NewStore(loader *Loader, dailyPath, hourlyPath string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		loader:     loader,
		logger:     logger.With(slog.String("component", "dataset.store")),
		dailyPath:  dailyPath,
		hourlyPath: hourlyPath,
	}
}

// Snapshot returns the cached dataset, loading or reloading it if the source
// files changed since the last load
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	dailyMod, hourlyMod, err := s.modTimes()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	if s.snapshot != nil && s.dailyMod.Equal(dailyMod) && s.hourlyMod.Equal(hourlyMod) {
		snap := s.snapshot
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have reloaded while we waited for the lock
	if s.snapshot != nil && s.dailyMod.Equal(dailyMod) && s.hourlyMod.Equal(hourlyMod) {
		return s.snapshot, nil
	}

	snap, err := s.loader.Load(ctx, s.dailyPath, s.hourlyPath)
	if err != nil {
		return nil, err
	}

	s.snapshot = snap
	s.dailyMod = dailyMod
	s.hourlyMod = hourlyMod

	s.logger.InfoContext(ctx, "snapshot refreshed",
		slog.Time("daily_mtime", dailyMod),
		slog.Time("hourly_mtime", hourlyMod),
	)

	return snap, nil
}

// Invalidate drops the cached snapshot so the next request reloads from disk
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	s.dailyMod = time.Time{}
	s.hourlyMod = time.Time{}
}

func (s *Store) modTimes() (daily, hourly time.Time, err error) {
	dailyInfo, err := os.Stat(s.dailyPath)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	hourlyInfo, err := os.Stat(s.hourlyPath)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return dailyInfo.ModTime(), hourlyInfo.ModTime(), nil
}
