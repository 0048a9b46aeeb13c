// Package crawler fetches a site's pages over HTTP and turns them into
// audit records. Crawl state lives in an explicit per-run session, so
// concurrent crawls never share visited-URL sets.
package crawler

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/site-pulse/backend/audit"
	"github.com/site-pulse/backend/stats"
)

// Options tunes one crawler instance.
type Options struct {
	MaxPages          int
	Concurrency       int
	RequestsPerSecond float64
	Timeout           time.Duration
	UserAgent         string
}

// DefaultOptions returns conservative crawl settings.
func DefaultOptions() Options {
	return Options{
		MaxPages:          25,
		Concurrency:       4,
		RequestsPerSecond: 5,
		Timeout:           15 * time.Second,
		UserAgent:         "site-pulse-audit/1.0",
	}
}

type cacheEntry struct {
	pages     []audit.PageRecord
	timestamp time.Time
}

// Crawler fetches sites and caches recent crawl results so repeated audits
// of the same root URL do not re-hit the target.
type Crawler struct {
	client *http.Client
	opts   Options

	cache        map[string]cacheEntry
	cacheMutex   sync.RWMutex
	cacheTTL     time.Duration
	maxCacheSize int

	stats *stats.Storage
}

// New creates a crawler with a pooled, keep-alive HTTP client. The stats
// storage may be nil when counters are not wanted.
func New(opts Options, statsStorage *stats.Storage) *Crawler {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultOptions().MaxPages
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultOptions().Concurrency
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultOptions().RequestsPerSecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultOptions().UserAgent
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	c := &Crawler{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:         opts,
		cache:        make(map[string]cacheEntry),
		cacheTTL:     30 * time.Minute,
		maxCacheSize: 100,
		stats:        statsStorage,
	}

	go c.periodicCleanup()

	return c
}

func cacheKey(rawURL string) string {
	hash := md5.Sum([]byte(rawURL))
	return hex.EncodeToString(hash[:])
}

func (c *Crawler) periodicCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *Crawler) cleanup() {
	now := time.Now()

	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	for key, entry := range c.cache {
		if now.Sub(entry.timestamp) > c.cacheTTL {
			delete(c.cache, key)
		}
	}

	// Drop oldest entries if the cache is still over its size limit.
	for len(c.cache) > c.maxCacheSize {
		oldestKey := ""
		var oldest time.Time
		for key, entry := range c.cache {
			if oldestKey == "" || entry.timestamp.Before(oldest) {
				oldestKey = key
				oldest = entry.timestamp
			}
		}
		delete(c.cache, oldestKey)
	}
}

func (c *Crawler) cachedPages(key string) ([]audit.PageRecord, bool) {
	c.cacheMutex.RLock()
	defer c.cacheMutex.RUnlock()

	entry, exists := c.cache[key]
	if !exists || time.Since(entry.timestamp) > c.cacheTTL {
		return nil, false
	}
	pages := make([]audit.PageRecord, len(entry.pages))
	copy(pages, entry.pages)
	return pages, true
}

func (c *Crawler) storePages(key string, pages []audit.PageRecord) {
	stored := make([]audit.PageRecord, len(pages))
	copy(stored, pages)

	c.cacheMutex.Lock()
	c.cache[key] = cacheEntry{pages: stored, timestamp: time.Now()}
	c.cacheMutex.Unlock()
}

// IsCached reports whether a fresh crawl result exists for the URL.
func (c *Crawler) IsCached(rawURL string) bool {
	_, ok := c.cachedPages(cacheKey(rawURL))
	return ok
}

// ClearCache drops all cached crawl results.
func (c *Crawler) ClearCache() {
	c.cacheMutex.Lock()
	c.cache = make(map[string]cacheEntry)
	c.cacheMutex.Unlock()
}

// Crawl fetches up to maxPages same-site pages starting at rootURL and
// returns their audit records. maxPages <= 0 uses the configured default.
// Results are served from cache when a recent crawl of the same root exists.
func (c *Crawler) Crawl(ctx context.Context, rootURL string, maxPages int) ([]audit.PageRecord, error) {
	key := cacheKey(rootURL)
	if pages, ok := c.cachedPages(key); ok {
		if c.stats != nil {
			c.stats.TrackCrawlCache(1, 0)
		}
		return pages, nil
	}
	if c.stats != nil {
		c.stats.TrackCrawlCache(0, 1)
	}

	if maxPages <= 0 || maxPages > c.opts.MaxPages {
		maxPages = c.opts.MaxPages
	}

	sess, err := newSession(c, rootURL, maxPages)
	if err != nil {
		return nil, fmt.Errorf("failed to start crawl of %s: %w", rootURL, err)
	}

	pages := sess.run(ctx)
	if len(pages) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no pages could be fetched from %s", rootURL)
	}

	c.storePages(key, pages)

	return pages, nil
}
