package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/site-pulse/backend/audit"
	"github.com/site-pulse/backend/signals"
)

// Per-pillar caps on the ranked task list, to keep output bounded.
const (
	taskCapPrimary   = 25 // SEO, AEO
	taskCapSecondary = 20
)

// SiteScore is the aggregated result of scoring one batch of pages.
type SiteScore struct {
	PillarPercentages map[audit.Pillar]int `json:"pillarPercentages"`
	Overall           int                  `json:"overall"`
	PagesEvaluated    int                  `json:"pagesEvaluated"`

	DetectedLanguages map[string]int `json:"detectedLanguages"`
	DetectedCities    map[string]int `json:"detectedCities"`
	DetectedCountries map[string]int `json:"detectedCountries"`

	RankedTasks map[audit.Pillar][]string `json:"rankedTasks"`

	// Pages holds per-page detail when the caller asks for it.
	Pages []PageScore `json:"pages,omitempty"`

	// Error is set instead of raising when aggregation cannot produce a
	// meaningful score, e.g. an empty page list. Callers check this field.
	Error string `json:"error,omitempty"`
}

func taskCap(pillar audit.Pillar) int {
	if pillar == audit.PillarSEO || pillar == audit.PillarAEO {
		return taskCapPrimary
	}
	return taskCapSecondary
}

// roundHalfUp rounds to the nearest integer with ties going up.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clampPercent(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func emptySiteScore(errMsg string) SiteScore {
	s := SiteScore{
		PillarPercentages: make(map[audit.Pillar]int, len(audit.Pillars)),
		DetectedLanguages: map[string]int{},
		DetectedCities:    map[string]int{},
		DetectedCountries: map[string]int{},
		RankedTasks:       make(map[audit.Pillar][]string, len(audit.Pillars)),
		Error:             errMsg,
	}
	for _, pillar := range audit.Pillars {
		s.PillarPercentages[pillar] = 0
	}
	return s
}

// AggregateSite reduces per-page scores into one site-level result. Pages
// are weighted by max(wordCount, 1) so thin boilerplate pages influence the
// site score far less than content-rich ones. A page without a matching
// score entry is skipped rather than failing the whole aggregation.
func AggregateSite(pages []audit.PageRecord, scores []PageScore) SiteScore {
	if len(pages) == 0 || len(scores) == 0 {
		return emptySiteScore("no pages to score")
	}

	site := emptySiteScore("")
	weightedPoints := make(map[audit.Pillar]float64, len(audit.Pillars))
	weightedMax := make(map[audit.Pillar]float64, len(audit.Pillars))
	taskCounts := make(map[audit.Pillar]map[string]int, len(audit.Pillars))
	for _, pillar := range audit.Pillars {
		taskCounts[pillar] = map[string]int{}
	}

	n := len(pages)
	if len(scores) < n {
		n = len(scores)
	}
	for i := 0; i < n; i++ {
		weight := float64(pages[i].WordCount)
		if weight < 1 {
			weight = 1
		}
		score := scores[i]

		for _, pillar := range audit.Pillars {
			result, ok := score.Pillars[pillar]
			if !ok {
				continue
			}
			weightedPoints[pillar] += weight * float64(result.Points)
			weightedMax[pillar] += weight * float64(result.MaxPoints)
			for _, task := range result.Tasks {
				taskCounts[pillar][task]++
			}
		}

		if score.Language != "" {
			site.DetectedLanguages[score.Language]++
		}
		if score.City != "" {
			site.DetectedCities[score.City]++
		}
		if score.Country != "" {
			site.DetectedCountries[score.Country]++
		}
		site.PagesEvaluated++
	}

	total := 0
	for _, pillar := range audit.Pillars {
		pct := 0
		if weightedMax[pillar] > 0 {
			pct = clampPercent(roundHalfUp(100 * weightedPoints[pillar] / weightedMax[pillar]))
		}
		site.PillarPercentages[pillar] = pct
		total += pct
		site.RankedTasks[pillar] = rankTasks(taskCounts[pillar], taskCap(pillar))
	}
	site.Overall = roundHalfUp(float64(total) / float64(len(audit.Pillars)))

	return site
}

// rankTasks orders task frequency counts descending, breaking count ties by
// task text so output is deterministic, and formats each as "task (xN)".
func rankTasks(counts map[string]int, limit int) []string {
	type entry struct {
		task  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for task, count := range counts {
		entries = append(entries, entry{task, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].task < entries[j].task
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = fmt.Sprintf("%s (x%d)", e.task, e.count)
	}
	return out
}

// ScoreSite scores every page and aggregates the results. When detail is
// true the per-page scores are attached to the response.
func ScoreSite(pages []audit.PageRecord, loc *signals.Locator, detail bool) SiteScore {
	scores := make([]PageScore, len(pages))
	for i, p := range pages {
		scores[i] = ScorePage(p, loc)
	}
	site := AggregateSite(pages, scores)
	if detail && site.Error == "" {
		site.Pages = scores
	}
	return site
}
