package crawler

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"github.com/site-pulse/backend/audit"
)

const maxBodySize = 5 << 20 // 5 MB per page

// session holds the state of one crawl run: the frontier, the visited set,
// and the collected pages. Sessions are single-use.
type session struct {
	crawler *Crawler
	root    *url.URL
	robots  *robotstxt.Group
	limiter *rate.Limiter

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []string
	visited  map[string]bool
	inflight int
	budget   int
	closed   bool

	pages []audit.PageRecord
}

func newSession(c *Crawler, rootURL string, maxPages int) (*session, error) {
	root, err := url.Parse(rootURL)
	if err != nil {
		return nil, err
	}
	if root.Scheme != "http" && root.Scheme != "https" {
		return nil, &url.Error{Op: "crawl", URL: rootURL, Err: errUnsupportedScheme}
	}

	s := &session{
		crawler: c,
		root:    root,
		limiter: rate.NewLimiter(rate.Limit(c.opts.RequestsPerSecond), 1),
		visited: make(map[string]bool),
		budget:  maxPages,
	}
	s.cond = sync.NewCond(&s.mu)
	s.robots = s.fetchRobots()
	s.enqueue(root.String())

	return s, nil
}

var errUnsupportedScheme = errors.New("unsupported URL scheme")

// fetchRobots loads robots.txt for the root host. Any failure falls back to
// allow-all, matching how the status-code rules treat unreachable files.
func (s *session) fetchRobots() *robotstxt.Group {
	robotsURL := s.root.Scheme + "://" + s.root.Host + "/robots.txt"
	resp, err := s.crawler.client.Get(robotsURL)
	if err != nil {
		data, _ := robotstxt.FromStatusAndBytes(503, nil)
		return data.FindGroup(s.crawler.opts.UserAgent)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		data, _ = robotstxt.FromStatusAndBytes(404, nil)
	}
	return data.FindGroup(s.crawler.opts.UserAgent)
}

// run drains the frontier with a bounded worker pool and returns the
// collected pages. Context cancellation closes the frontier; pages fetched
// before cancellation are still returned.
func (s *session) run(ctx context.Context) []audit.PageRecord {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.close()
		case <-done:
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < s.crawler.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}
	wg.Wait()
	close(done)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages
}

func (s *session) worker(ctx context.Context) {
	for {
		pageURL, ok := s.next()
		if !ok {
			return
		}
		s.crawl(ctx, pageURL)
		s.release()
	}
}

// next pops the frontier, blocking while other workers may still discover
// links. Returns false once the frontier is drained, the page budget is
// spent, or the session is closed.
func (s *session) next() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.closed || s.budget <= 0 {
			return "", false
		}
		if len(s.queue) > 0 {
			pageURL := s.queue[0]
			s.queue = s.queue[1:]
			s.inflight++
			s.budget--
			return pageURL, true
		}
		if s.inflight == 0 {
			s.closed = true
			s.cond.Broadcast()
			return "", false
		}
		s.cond.Wait()
	}
}

func (s *session) release() {
	s.mu.Lock()
	s.inflight--
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *session) close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// enqueue adds a URL to the frontier if it has not been seen yet.
func (s *session) enqueue(pageURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.visited[pageURL] {
		return
	}
	s.visited[pageURL] = true
	s.queue = append(s.queue, pageURL)
	s.cond.Broadcast()
}

func (s *session) addPage(p audit.PageRecord) {
	s.mu.Lock()
	s.pages = append(s.pages, p)
	s.mu.Unlock()
}

// crawl fetches one page, records its audit data, and enqueues the
// same-site links it finds. Per-page failures are logged and skipped so one
// bad page never aborts the crawl.
func (s *session) crawl(ctx context.Context, pageURL string) {
	if s.robots != nil && !s.robots.Test(pathOf(pageURL)) {
		return
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		log.Printf("crawl: bad URL %s: %v", pageURL, err)
		return
	}
	req.Header.Set("User-Agent", s.crawler.opts.UserAgent)

	resp, err := s.crawler.client.Do(req)
	if err != nil {
		log.Printf("crawl: fetch %s failed: %v", pageURL, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("crawl: fetch %s returned status %d", pageURL, resp.StatusCode)
		return
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		log.Printf("crawl: read %s failed: %v", pageURL, err)
		return
	}

	html := string(body)
	s.addPage(audit.ExtractPage(pageURL, html))

	for _, link := range s.extractLinks(pageURL, html) {
		s.enqueue(link)
	}
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// sameSite reports whether a host belongs to the crawled site: the root
// host itself or a subdomain of it, ignoring a www prefix.
func (s *session) sameSite(host string) bool {
	rootHost := strings.TrimPrefix(strings.ToLower(s.root.Hostname()), "www.")
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return host == rootHost || strings.HasSuffix(host, "."+rootHost)
}

// extractLinks resolves every same-site anchor on the page to an absolute
// URL with its fragment stripped.
func (s *session) extractLinks(pageURL, html string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || href == "#" || strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "javascript:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if !s.sameSite(resolved.Hostname()) {
			return
		}
		resolved.Fragment = ""
		links = append(links, resolved.String())
	})
	return links
}
