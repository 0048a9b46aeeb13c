package logging

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// Environment variable name for controlling statistics visibility
const ENV_DEV_MODE = "DEV_MODE"

// Statistics tracks in-process service activity: visitors, audit requests,
// errors and timing.
type Statistics struct {
	UniqueVisitors   map[string]time.Time `json:"uniqueVisitors"` // IP -> last visit time
	AuditRequests    int                  `json:"auditRequests"`
	ErrorCount       int                  `json:"errorCount"`
	PopularSites     map[string]int       `json:"popularSites"` // audited site -> count
	AverageAuditTime float64              `json:"averageAuditTime"` // milliseconds
	TotalAuditTime   float64              `json:"-"`
	RequestCount     int                  `json:"-"`
	LastPersisted    time.Time            `json:"lastPersisted"`
	mutex            sync.RWMutex
}

var (
	stats *Statistics
	once  sync.Once
)

// Initialize creates or loads the statistics singleton.
func Initialize() *Statistics {
	once.Do(func() {
		stats = &Statistics{
			UniqueVisitors: make(map[string]time.Time),
			PopularSites:   make(map[string]int),
			LastPersisted:  time.Now(),
		}

		if err := stats.Load(); err != nil {
			fmt.Printf("Could not load existing statistics: %v\n", err)
		}
	})
	return stats
}

// TrackVisitor records a unique visitor
func (s *Statistics) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.UniqueVisitors[ip] = time.Now()
}

// cleanSite reduces an audited URL to its scheme+host+path, dropping query
// parameters and our own API addresses.
func cleanSite(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}

	if strings.Contains(u.Host, "localhost") ||
		strings.Contains(u.Host, "127.0.0.1") ||
		strings.Contains(strings.ToLower(u.Path), "/api/") {
		return ""
	}

	clean := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		clean += u.Path
	}

	return strings.TrimSuffix(clean, "/")
}

// TrackAudit records one audit request against the site it targeted.
func (s *Statistics) TrackAudit(site string, auditTime float64, hasError bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.AuditRequests++

	if cleaned := cleanSite(site); cleaned != "" {
		s.PopularSites[cleaned]++
	}

	if hasError {
		s.ErrorCount++
	}

	s.TotalAuditTime += auditTime
	s.RequestCount++
	s.AverageAuditTime = s.TotalAuditTime / float64(s.RequestCount)
}

// GetUniqueVisitorsCount returns the number of unique visitors in the last 24 hours
func (s *Statistics) GetUniqueVisitorsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	count := 0
	cutoff := time.Now().Add(-24 * time.Hour)

	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}

	return count
}

// GetPopularSites returns up to n audited sites with their counts.
func (s *Statistics) GetPopularSites(n int) map[string]int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make(map[string]int)
	count := 0

	for site, freq := range s.PopularSites {
		if count < n {
			result[site] = freq
			count++
		}
	}

	return result
}

// GetErrorRate returns the error rate as a percentage
func (s *Statistics) GetErrorRate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.AuditRequests == 0 {
		return 0
	}

	return (float64(s.ErrorCount) / float64(s.AuditRequests)) * 100
}

// Save persists the statistics to a file
func (s *Statistics) Save() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.LastPersisted = time.Now()

	file, err := os.Create("statistics.json")
	if err != nil {
		return fmt.Errorf("could not create statistics file: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(s); err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}

	return nil
}

// Load reads the statistics from a file
func (s *Statistics) Load() error {
	file, err := os.Open("statistics.json")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open statistics file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(s); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}

	return nil
}

// GetStatistics returns the current statistics. Full detail, including the
// popular-sites list, is only exposed in development mode. The sub-values
// are computed inline under one lock: calling the public getters here would
// re-acquire the read lock and deadlock against a queued writer.
func (s *Statistics) GetStatistics() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	visitors := 0
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			visitors++
		}
	}

	errorRate := 0.0
	if s.AuditRequests > 0 {
		errorRate = (float64(s.ErrorCount) / float64(s.AuditRequests)) * 100
	}

	result := map[string]interface{}{
		"uniqueVisitors24h": visitors,
		"totalRequests":     s.AuditRequests,
		"errorRate":         errorRate,
		"averageAuditTime":  s.AverageAuditTime,
	}

	if os.Getenv(ENV_DEV_MODE) == "true" {
		popular := make(map[string]int)
		count := 0
		for site, freq := range s.PopularSites {
			if count < 5 {
				popular[site] = freq
				count++
			}
		}
		result["popularSites"] = popular
	}

	return result
}
