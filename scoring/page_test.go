package scoring

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/site-pulse/backend/audit"
	"github.com/site-pulse/backend/signals"
)

func strongPage() audit.PageRecord {
	return audit.PageRecord{
		URL:             "https://acme.lt/services",
		Title:           "Car Detailing in Vilnius | Acme",
		MetaDescription: strings.Repeat("Professional detailing. ", 4), // 96 chars
		H1:              "Car Detailing",
		WordCount:       800,
		IsHTTPS:         true,
		HasCanonical:    true,
		RobotsMeta:      "index, follow",
		Images: []audit.Image{
			{Src: "a.jpg", Alt: "before", Width: "640", Height: "480", Loading: "lazy"},
		},
		InternalLinkCount: 5,
		StructuredData: []json.RawMessage{
			json.RawMessage(`{"@context":"https://schema.org","@type":"FAQPage"}`),
		},
		HreflangEntries: []audit.Hreflang{{Hreflang: "en", Href: "https://acme.lt/en"}},
		Keywords:        []string{"detailing", "reviews"},
	}
}

func TestScorePageIdempotent(t *testing.T) {
	p := strongPage()
	loc := signals.DefaultLocator()

	first := ScorePage(p, loc)
	second := ScorePage(p, loc)

	if !reflect.DeepEqual(first, second) {
		t.Error("ScorePage is not idempotent for identical input")
	}
}

func TestScorePageBounded(t *testing.T) {
	pages := []audit.PageRecord{
		strongPage(),
		{},
		{URL: "ftp://weird", Title: strings.Repeat("x", 500), WordCount: -1},
	}

	for i, p := range pages {
		score := ScorePage(p, nil)
		for pillar, result := range score.Pillars {
			if result.Points < 0 || result.Points > result.MaxPoints {
				t.Errorf("page %d pillar %s: points %d outside [0,%d]",
					i, pillar, result.Points, result.MaxPoints)
			}
		}
	}
}

func TestScorePageStrong(t *testing.T) {
	score := ScorePage(strongPage(), signals.DefaultLocator())

	seo := score.Pillars[audit.PillarSEO]
	if seo.Points != seo.MaxPoints {
		t.Errorf("Strong page should max SEO, got %d/%d; tasks: %v",
			seo.Points, seo.MaxPoints, seo.Tasks)
	}
	acc := score.Pillars[audit.PillarAccessibility]
	if acc.Points != acc.MaxPoints {
		t.Errorf("Strong page should max accessibility, got %d/%d; tasks: %v",
			acc.Points, acc.MaxPoints, acc.Tasks)
	}
	tech := score.Pillars[audit.PillarTechnical]
	if tech.Points != tech.MaxPoints {
		t.Errorf("Strong page should max technical, got %d/%d; tasks: %v",
			tech.Points, tech.MaxPoints, tech.Tasks)
	}
	geo := score.Pillars[audit.PillarGEO]
	if geo.Points != geo.MaxPoints {
		t.Errorf("City mention + lt TLD + hreflang should max GEO, got %d/%d; tasks: %v",
			geo.Points, geo.MaxPoints, geo.Tasks)
	}
	if score.City != "vilnius" {
		t.Errorf("Expected city vilnius, got %q", score.City)
	}
	if score.Country != "Lithuania" {
		t.Errorf("Expected country Lithuania, got %q", score.Country)
	}
}

// Adding a missing signal must never lower the pillar it serves.
func TestAccessibilityMonotonicity(t *testing.T) {
	worse := audit.PageRecord{
		URL: "https://example.com",
		Images: []audit.Image{
			{Src: "a.jpg"},
			{Src: "b.jpg", Alt: "ok", Width: "10", Height: "10", Loading: "lazy"},
		},
	}
	better := worse
	better.Images = []audit.Image{
		{Src: "a.jpg", Alt: "now described", Width: "20", Height: "20"},
		{Src: "b.jpg", Alt: "ok", Width: "10", Height: "10", Loading: "lazy"},
	}

	worseScore := ScorePage(worse, nil).Pillars[audit.PillarAccessibility]
	betterScore := ScorePage(better, nil).Pillars[audit.PillarAccessibility]

	if betterScore.Points < worseScore.Points {
		t.Errorf("Adding alt text decreased accessibility: %d -> %d",
			worseScore.Points, betterScore.Points)
	}
}

// An explicit FAQPage entity must score the answer-schema check even when
// no textual Q&A pairs were found.
func TestFAQSchemaPrecedence(t *testing.T) {
	p := audit.PageRecord{
		URL: "https://example.com",
		StructuredData: []json.RawMessage{
			json.RawMessage(`{"@context":"https://schema.org","@type":"FAQPage"}`),
		},
	}

	aeo := ScorePage(p, nil).Pillars[audit.PillarAEO]
	for _, task := range aeo.Tasks {
		if strings.Contains(task, "answer-friendly schema") {
			t.Errorf("FAQPage schema present but answer-schema task emitted: %v", aeo.Tasks)
		}
	}
}

// A weak page: overlong title, no meta description, no content.
func TestScorePageWeak(t *testing.T) {
	p := audit.PageRecord{
		URL:     "https://example.com/page",
		Title:   strings.Repeat("t", 65),
		IsHTTPS: true,
	}

	seo := ScorePage(p, nil).Pillars[audit.PillarSEO]

	if seo.Points > 25 {
		t.Errorf("Weak page should lose at least 15 SEO points, got %d/%d",
			seo.Points, seo.MaxPoints)
	}

	tasks := strings.Join(seo.Tasks, "; ")
	for _, want := range []string{"title", "meta description", "500 words"} {
		if !strings.Contains(tasks, want) {
			t.Errorf("Expected a task mentioning %q, got: %v", want, seo.Tasks)
		}
	}
}

// Length limits count characters, not bytes: multibyte text within the
// limits must not be penalized.
func TestScorePageMultibyteLimits(t *testing.T) {
	p := audit.PageRecord{
		URL:             "https://example.lt",
		Title:           strings.Repeat("ž", 55),
		MetaDescription: strings.Repeat("ū", 120),
		H1:              strings.Repeat("ė", 65),
	}

	seo := ScorePage(p, nil).Pillars[audit.PillarSEO]

	tasks := strings.Join(seo.Tasks, "; ")
	for _, field := range []string{"page title", "meta description", "H1"} {
		if strings.Contains(tasks, field) {
			t.Errorf("Field %q is within its character limit but a task was emitted: %v", field, seo.Tasks)
		}
	}
}

func TestScorePageNAPConsistency(t *testing.T) {
	content := "Acme Ltd is the leading provider. Call 555-123-4567 today."
	p := audit.PageRecord{
		URL:   "https://acme.com",
		Title: "Acme Ltd",
		StructuredData: []json.RawMessage{
			json.RawMessage(`{"@type":"LocalBusiness","name":"Acme Ltd","telephone":"+1 555 123 4567"}`),
		},
		Content: content,
		NAP:     signals.NAP{Phone: "555-123-4567"},
	}

	score := ScorePage(p, nil)
	if score.NAPConsistency < 67 {
		t.Errorf("Expected NAP consistency >= 67, got %d", score.NAPConsistency)
	}
	if score.NAPConsistency > 100 {
		t.Errorf("NAP consistency out of bounds: %d", score.NAPConsistency)
	}
}

func TestMapCheckSkipped(t *testing.T) {
	base := audit.PageRecord{
		URL:      "https://example.lt",
		Title:    "Shop in Vilnius",
		Warnings: []string{"missing og:image"},
	}
	withWarning := base
	withWarning.Warnings = []string{"missing og:image", "map embed failed to load"}

	baseAEO := ScorePage(base, nil).Pillars[audit.PillarAEO]
	skippedAEO := ScorePage(withWarning, nil).Pillars[audit.PillarAEO]

	// The skipped check contributes neither points nor a task.
	if len(skippedAEO.Tasks) >= len(baseAEO.Tasks) {
		t.Errorf("Map warning should suppress the map task: %d vs %d tasks",
			len(skippedAEO.Tasks), len(baseAEO.Tasks))
	}
}
