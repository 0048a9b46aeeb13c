package logging

import (
	"sync"
	"testing"
	"time"
)

func newStatistics() *Statistics {
	return &Statistics{
		UniqueVisitors: make(map[string]time.Time),
		PopularSites:   make(map[string]int),
	}
}

func TestTrackAudit(t *testing.T) {
	s := newStatistics()

	s.TrackAudit("https://example.lt/services?utm=x", 120, false)
	s.TrackAudit("https://example.lt/services", 80, true)

	if s.AuditRequests != 2 {
		t.Errorf("Expected 2 audit requests, got %d", s.AuditRequests)
	}
	// Query parameters are stripped, so both audits count the same site.
	if s.PopularSites["https://example.lt/services"] != 2 {
		t.Errorf("Unexpected popular sites: %v", s.PopularSites)
	}
	if rate := s.GetErrorRate(); rate != 50 {
		t.Errorf("Expected 50%% error rate, got %v", rate)
	}
	if s.AverageAuditTime != 100 {
		t.Errorf("Expected average 100ms, got %v", s.AverageAuditTime)
	}
}

func TestGetStatisticsFields(t *testing.T) {
	s := newStatistics()
	s.TrackVisitor("10.0.0.1")
	s.TrackAudit("https://example.lt", 40, false)

	stats := s.GetStatistics()

	if stats["uniqueVisitors24h"].(int) != 1 {
		t.Errorf("Expected 1 unique visitor, got %v", stats["uniqueVisitors24h"])
	}
	if stats["totalRequests"].(int) != 1 {
		t.Errorf("Expected 1 request, got %v", stats["totalRequests"])
	}
	if stats["errorRate"].(float64) != 0 {
		t.Errorf("Expected 0 error rate, got %v", stats["errorRate"])
	}
}

// Readers and writers must interleave freely: GetStatistics computes its
// sub-values under a single lock acquisition, so a queued writer can never
// wedge a reader.
func TestGetStatisticsConcurrent(t *testing.T) {
	s := newStatistics()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.TrackVisitor("10.0.0.1")
				s.TrackAudit("https://example.lt", 10, false)
				s.GetStatistics()
			}
		}()
	}
	wg.Wait()

	stats := s.GetStatistics()
	if stats["totalRequests"].(int) != 1000 {
		t.Errorf("Expected 1000 requests, got %v", stats["totalRequests"])
	}
}
