package stats

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MonthlyStats holds audit activity counters for one calendar month.
type MonthlyStats struct {
	AuditsRun        int       `json:"audits_run"`
	PagesScored      int       `json:"pages_scored"`
	CrawlCacheHits   int       `json:"crawl_hits"`
	CrawlCacheMisses int       `json:"crawl_misses"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Storage persists monthly audit counters to a JSON file. Writes are
// batched through a background goroutine and land atomically via a temp
// file rename.
type Storage struct {
	mutex       sync.RWMutex
	months      map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeSignal chan struct{}
}

// NewStorage creates a storage instance rooted at dataDir, loading any
// previously persisted counters.
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		months:      make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeSignal: make(chan struct{}, 1),
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return json.Unmarshal(data, &s.months)
}

func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.months)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	// Write to a temp file first so a crash mid-write never corrupts the
	// existing file.
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

func (s *Storage) backgroundWriter() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeSignal:
			s.save()
		case <-ticker.C:
			s.save()
		}
	}
}

func currentMonth() string {
	return time.Now().Format("2006-01")
}

func (s *Storage) requestWrite() {
	select {
	case s.writeSignal <- struct{}{}:
	default:
		// write already pending
	}
}

// TrackAudit records one audit run and how many pages it scored.
func (s *Storage) TrackAudit(pagesScored int) {
	s.increment(func(m *MonthlyStats) {
		m.AuditsRun++
		m.PagesScored += pagesScored
	})
}

// TrackCrawlCache records crawl cache hit/miss counts.
func (s *Storage) TrackCrawlCache(hits, misses int) {
	s.increment(func(m *MonthlyStats) {
		m.CrawlCacheHits += hits
		m.CrawlCacheMisses += misses
	})
}

func (s *Storage) increment(apply func(*MonthlyStats)) {
	month := currentMonth()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	m, exists := s.months[month]
	if !exists {
		m = &MonthlyStats{}
		s.months[month] = m
	}

	apply(m)
	m.LastUpdated = time.Now()

	if time.Since(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = time.Now()
	}
}

// GetCurrentStats returns counters for the current month.
func (s *Storage) GetCurrentStats() MonthlyStats {
	month := currentMonth()

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if m, exists := s.months[month]; exists {
		return *m
	}
	return MonthlyStats{}
}

// GetMonthlyStats returns counters for a specific "YYYY-MM" month.
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if m, exists := s.months[yearMonth]; exists {
		return *m, true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns every month with recorded counters, newest first.
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.months))
	for month := range s.months {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	return months
}

// Cleanup drops everything except the current and previous month.
func (s *Storage) Cleanup() {
	now := time.Now()
	current := now.Format("2006-01")
	previous := now.AddDate(0, -1, 0).Format("2006-01")

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for key := range s.months {
		if key != current && key != previous {
			delete(s.months, key)
		}
	}

	s.requestWrite()
	log.Printf("Retained statistics for months: %s, %s", current, previous)
}
