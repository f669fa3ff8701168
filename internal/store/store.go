// Package store persists one JSON snapshot per trading day. File
// existence is the incremental-skip signal for batch collection.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fupan/pkg/model"
)

// Store reads and writes day snapshots under a single data directory.
type Store struct {
	dir string
}

// Open binds a store to dir, creating it if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory path.
func (s *Store) Dir() string { return s.dir }

// Exists reports whether a snapshot file is present for the day key.
func (s *Store) Exists(day string) bool {
	_, err := os.Stat(s.path(day))
	return err == nil
}

// Load reads the snapshot for the day key.
func (s *Store) Load(day string) (*model.Snapshot, error) {
	data, err := os.ReadFile(s.path(day))
	if err != nil {
		return nil, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", day, err)
	}
	return &snap, nil
}

// Save writes the snapshot as <date>.json, replacing any existing file.
// The document is marshaled in full before a single write.
func (s *Store) Save(snap *model.Snapshot) error {
	if snap.Date == "" {
		return fmt.Errorf("snapshot has no date")
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(snap.Date), data, 0644)
}

// Days returns the sorted day keys with a snapshot present.
func (s *Store) Days() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var days []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		key := strings.TrimSuffix(name, ".json")
		if len(key) != 8 {
			continue
		}
		if _, err := model.ParseDay(key); err != nil {
			continue
		}
		days = append(days, key)
	}
	sort.Strings(days)
	return days, nil
}

// RecentTurnovers returns up to n (day, turnover) pairs for stored days
// strictly before the given day key, most recent first. Days with zero
// turnover are skipped. Used for the day-over-day volume comparison.
func (s *Store) RecentTurnovers(before string, n int) ([]Turnover, error) {
	days, err := s.Days()
	if err != nil {
		return nil, err
	}
	var out []Turnover
	for i := len(days) - 1; i >= 0 && len(out) < n; i-- {
		if days[i] >= before {
			continue
		}
		snap, err := s.Load(days[i])
		if err != nil || snap.TurnoverYi <= 0 {
			continue
		}
		out = append(out, Turnover{Day: days[i], Yi: snap.TurnoverYi})
	}
	return out, nil
}

// Turnover is one day's combined two-market turnover in 100M CNY.
type Turnover struct {
	Day string
	Yi  float64
}

func (s *Store) path(day string) string {
	return filepath.Join(s.dir, day+".json")
}
