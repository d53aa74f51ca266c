// Package rawstore manages the on-disk layout of raw device exports. One
// directory holds everything: per-day documents named
// "YYYY-MM-DD_<category>.json", multi-day body-battery batches named
// "body_battery_<start>_<end>.json", and error sidecars recording fetch
// failures next to where the data would have been.
package rawstore

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/banshee-data/pulse.report/internal/dateutil"
	"github.com/banshee-data/pulse.report/internal/fsutil"
	"github.com/banshee-data/pulse.report/internal/monitoring"
)

// Per-day export categories, named as they appear in filenames.
const (
	CategoryHeartRates  = "heart_rates"
	CategoryStress      = "stress"
	CategoryRespiration = "respiration"
	CategorySleep       = "sleep"
	CategoryUserSummary = "user_summary"
)

// Categories lists every per-day category in fetch order.
var Categories = []string{
	CategoryHeartRates,
	CategoryStress,
	CategoryRespiration,
	CategorySleep,
	CategoryUserSummary,
}

// Store reads and writes raw export files in a single directory.
type Store struct {
	fs  fsutil.FileSystem
	dir string
}

// New returns a Store over dir using the given filesystem.
func New(fs fsutil.FileSystem, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Dir returns the store's directory.
func (s *Store) Dir() string { return s.dir }

// EnsureDir creates the store directory if it does not exist.
func (s *Store) EnsureDir() error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating raw dir %s: %w", s.dir, err)
	}
	return nil
}

// DayPath returns the path of one per-day document.
func (s *Store) DayPath(day, category string) string {
	return filepath.Join(s.dir, day+"_"+category+".json")
}

// HasDay reports whether a per-day document already exists.
func (s *Store) HasDay(day, category string) bool {
	return s.fs.Exists(s.DayPath(day, category))
}

// WriteDay stores one per-day document.
func (s *Store) WriteDay(day, category string, data []byte) error {
	return s.fs.WriteFile(s.DayPath(day, category), data, 0o644)
}

// WriteDayError stores an error sidecar for a per-day fetch failure.
func (s *Store) WriteDayError(day, category string, fetchErr error) error {
	path := filepath.Join(s.dir, day+"_"+category+"_error.json")
	return s.writeError(path, fetchErr)
}

// BodyBatteryPath returns the path of one body-battery batch document.
func (s *Store) BodyBatteryPath(startDay, endDay string) string {
	return filepath.Join(s.dir, fmt.Sprintf("body_battery_%s_%s.json", startDay, endDay))
}

// HasBodyBattery reports whether a body-battery batch already exists.
func (s *Store) HasBodyBattery(startDay, endDay string) bool {
	return s.fs.Exists(s.BodyBatteryPath(startDay, endDay))
}

// WriteBodyBattery stores one body-battery batch document.
func (s *Store) WriteBodyBattery(startDay, endDay string, data []byte) error {
	return s.fs.WriteFile(s.BodyBatteryPath(startDay, endDay), data, 0o644)
}

// WriteBodyBatteryError stores an error sidecar for a body-battery fetch
// failure.
func (s *Store) WriteBodyBatteryError(startDay, endDay string, fetchErr error) error {
	path := filepath.Join(s.dir, fmt.Sprintf("body_battery_error_%s_%s.json", startDay, endDay))
	return s.writeError(path, fetchErr)
}

func (s *Store) writeError(path string, fetchErr error) error {
	data, err := json.MarshalIndent(map[string]string{"error": fetchErr.Error()}, "", "  ")
	if err != nil {
		return err
	}
	return s.fs.WriteFile(path, data, 0o644)
}

// Days returns the sorted distinct calendar days that have at least one
// per-day file, error sidecars included. Filenames whose leading segment
// is not a valid date are ignored.
func (s *Store) Days() ([]string, error) {
	matches, err := s.fs.Glob(filepath.Join(s.dir, "????-??-??_*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing raw days in %s: %w", s.dir, err)
	}
	seen := make(map[string]bool)
	for _, m := range matches {
		day, _, ok := strings.Cut(filepath.Base(m), "_")
		if !ok {
			continue
		}
		if _, err := dateutil.ParseDay(day, time.UTC); err != nil {
			continue
		}
		seen[day] = true
	}
	days := make([]string, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Strings(days)
	return days, nil
}

// LastDay returns the most recent day present in the store. ok is false
// when the store holds no per-day files.
func (s *Store) LastDay() (day string, ok bool, err error) {
	days, err := s.Days()
	if err != nil {
		return "", false, err
	}
	if len(days) == 0 {
		return "", false, nil
	}
	return days[len(days)-1], true, nil
}

// ReadDay returns one per-day document. ok is false when the file is
// absent or unreadable; a missing category is a normal condition, not an
// error.
func (s *Store) ReadDay(day, category string) (data []byte, ok bool) {
	data, err := s.fs.ReadFile(s.DayPath(day, category))
	if err != nil {
		return nil, false
	}
	return data, true
}

// BodyBatteryDocs returns the contents of every body-battery batch in
// lexicographic filename order, skipping error sidecars. The order is what
// makes overlapping batches resolve deterministically: later filenames
// override earlier ones during series normalization. Unreadable files are
// skipped.
func (s *Store) BodyBatteryDocs() ([][]byte, error) {
	matches, err := s.fs.Glob(filepath.Join(s.dir, "body_battery_*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing body battery files in %s: %w", s.dir, err)
	}
	var docs [][]byte
	for _, m := range matches {
		if strings.Contains(strings.ToLower(filepath.Base(m)), "error") {
			continue
		}
		data, err := s.fs.ReadFile(m)
		if err != nil {
			monitoring.Debugf("skipping unreadable %s: %v", m, err)
			continue
		}
		docs = append(docs, data)
	}
	return docs, nil
}
