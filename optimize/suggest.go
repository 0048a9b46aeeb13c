package optimize

import (
	"github.com/site-pulse/backend/audit"
	"github.com/site-pulse/backend/scoring"
	"github.com/site-pulse/backend/signals"
)

// Coverage thresholds: below needsWorkThreshold a suggestion is emitted,
// below priorityThreshold it is additionally marked priority.
const (
	needsWorkThreshold = 50
	priorityThreshold  = 30
)

// Suggestion is one site-wide remediation recommendation, driven by how few
// pages exhibit a signal.
type Suggestion struct {
	Signal   string `json:"signal"`
	Message  string `json:"message"`
	Coverage int    `json:"coverage"`
	Priority bool   `json:"priority"`
}

// coverageSignal names a per-page signal and the suggestion to emit when
// site-wide coverage is low.
type coverageSignal struct {
	name    string
	message string
	has     func(p *audit.PageRecord, s *scoring.PageScore) bool
}

var coverageSignals = []coverageSignal{
	{
		name:    "faq_schema",
		message: "Add FAQ schema markup (JSON-LD)",
		has: func(p *audit.PageRecord, _ *scoring.PageScore) bool {
			return signals.HasAnyType(signals.SchemaTypes(p.StructuredData), signals.FAQTypes)
		},
	},
	{
		name:    "answer_schema",
		message: "Add answer-friendly schema types (FAQPage, HowTo, Article, Product)",
		has: func(p *audit.PageRecord, _ *scoring.PageScore) bool {
			return signals.HasAnyType(signals.SchemaTypes(p.StructuredData), signals.AnswerTypes)
		},
	},
	{
		name:    "article_schema",
		message: "Add Article or BlogPosting schema to long-form content",
		has: func(p *audit.PageRecord, _ *scoring.PageScore) bool {
			return signals.HasAnyType(signals.SchemaTypes(p.StructuredData), signals.ArticleTypes)
		},
	},
	{
		name:    "question_headings",
		message: "Add FAQ-style question headings with concise answers",
		has: func(p *audit.PageRecord, _ *scoring.PageScore) bool {
			return len(p.FAQ) > 0
		},
	},
	{
		name:    "geo_mention",
		message: "Mention your city or service area in titles and descriptions",
		has: func(_ *audit.PageRecord, s *scoring.PageScore) bool {
			return s.City != "" || s.Country != ""
		},
	},
	{
		name:    "hreflang",
		message: "Add hreflang tags for language and region variants",
		has: func(p *audit.PageRecord, _ *scoring.PageScore) bool {
			return len(p.HreflangEntries) > 0
		},
	},
	{
		name:    "local_business_schema",
		message: "Add LocalBusiness schema markup (JSON-LD)",
		has: func(p *audit.PageRecord, _ *scoring.PageScore) bool {
			return signals.HasAnyType(signals.SchemaTypes(p.StructuredData), signals.LocalTypes)
		},
	},
	{
		name:    "nap",
		message: "Publish your business name, address and phone consistently",
		has: func(p *audit.PageRecord, _ *scoring.PageScore) bool {
			return p.NAP.Phone != "" || p.NAP.Address != ""
		},
	},
	{
		name:    "alt_text",
		message: "Add descriptive alt text to all images",
		has: func(p *audit.PageRecord, _ *scoring.PageScore) bool {
			return p.MissingAltCount() == 0
		},
	},
	{
		name:    "open_graph",
		message: "Complete Open Graph tags (og:title, og:description, og:image)",
		has: func(p *audit.PageRecord, _ *scoring.PageScore) bool {
			return len(missingOGTags(p)) == 0
		},
	},
}

func missingOGTags(p *audit.PageRecord) []string {
	missing := map[string]bool{}
	for _, w := range p.Warnings {
		switch w {
		case "missing og:title", "missing og:description", "missing og:image":
			missing[w] = true
		}
	}
	out := make([]string, 0, len(missing))
	for w := range missing {
		out = append(out, w)
	}
	return out
}

// BuildSuggestions computes site-wide coverage for each tracked signal and
// emits a suggestion for every signal below the threshold. Scores must be
// index-aligned with pages; a missing score entry skips score-derived
// signals for that page only.
func BuildSuggestions(pages []audit.PageRecord, scores []scoring.PageScore) []Suggestion {
	if len(pages) == 0 {
		return nil
	}

	var out []Suggestion
	for _, sig := range coverageSignals {
		withSignal := 0
		for i := range pages {
			var score *scoring.PageScore
			if i < len(scores) {
				score = &scores[i]
			} else {
				score = &scoring.PageScore{}
			}
			if sig.has(&pages[i], score) {
				withSignal++
			}
		}
		coverage := 100 * withSignal / len(pages)
		if coverage >= needsWorkThreshold {
			continue
		}
		out = append(out, Suggestion{
			Signal:   sig.name,
			Message:  sig.message,
			Coverage: coverage,
			Priority: coverage < priorityThreshold,
		})
	}
	return out
}
