package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/site-pulse/backend/audit"
	"github.com/site-pulse/backend/signals"
)

// pageContext carries one page plus the detector signals derived from it,
// computed once before the check tables run.
type pageContext struct {
	page *audit.PageRecord

	schemaTypes []string
	hasGeo      bool
	city        string
	country     string
	language    string
}

// check is one scoring rule: points awarded when pass returns true, the
// task emitted when it does not. An optional skip predicate drops the check
// entirely (no points, no task). An optional detail func appends specifics
// to the task text.
type check struct {
	points int
	task   string
	pass   func(*pageContext) bool
	skip   func(*pageContext) bool
	detail func(*pageContext) string
}

// reviewKeywords are tokens whose presence in the page's keywords or
// warnings suggests review/testimonial content.
var reviewKeywords = []string{"review", "testimonial", "rating", "atsiliepim"}

func hasWarning(p *audit.PageRecord, substr string) bool {
	for _, w := range p.Warnings {
		if strings.Contains(strings.ToLower(w), substr) {
			return true
		}
	}
	return false
}

func hasOG(p *audit.PageRecord, tag string) bool {
	return !hasWarning(p, "missing og:"+tag)
}

func missingOGTags(p *audit.PageRecord) []string {
	var missing []string
	for _, tag := range []string{"title", "description", "image"} {
		if !hasOG(p, tag) {
			missing = append(missing, "og:"+tag)
		}
	}
	return missing
}

func hasReviewSignal(p *audit.PageRecord) bool {
	blob := strings.ToLower(strings.Join(p.Keywords, " ") + " " + strings.Join(p.Warnings, " "))
	for _, kw := range reviewKeywords {
		if strings.Contains(blob, kw) {
			return true
		}
	}
	return false
}

// Check tables. Each table is the single source of truth for its pillar's
// point budget: tests assert the per-table sums match the declared maxima.

var seoChecks = []check{
	{
		points: 5,
		task:   "Write a page title between 1 and 60 characters",
		pass: func(c *pageContext) bool {
			n := utf8.RuneCountInString(c.page.Title)
			return n >= 1 && n <= 60
		},
	},
	{
		points: 5,
		task:   "Add a single H1 heading under 70 characters",
		pass: func(c *pageContext) bool {
			return c.page.H1 != "" && utf8.RuneCountInString(c.page.H1) <= 70
		},
	},
	{
		points: 5,
		task:   "Write a meta description between 50 and 160 characters",
		pass: func(c *pageContext) bool {
			n := utf8.RuneCountInString(c.page.MetaDescription)
			return n >= 50 && n <= 160
		},
	},
	{
		points: 5,
		task:   "Expand page content to at least 500 words",
		pass:   func(c *pageContext) bool { return c.page.WordCount >= 500 },
	},
	{
		points: 5,
		task:   "Add at least 3 internal links",
		pass:   func(c *pageContext) bool { return c.page.InternalLinkCount >= 3 },
	},
	{
		points: 5,
		task:   "Serve the page over HTTPS",
		pass:   func(c *pageContext) bool { return c.page.IsHTTPS },
	},
	{
		points: 5,
		task:   "Add a viewport meta tag for mobile rendering",
		pass:   func(c *pageContext) bool { return !hasWarning(c.page, "missing viewport") },
	},
	{
		points: 5,
		task:   "Add alt text to all images",
		pass:   func(c *pageContext) bool { return !hasWarning(c.page, "missing alt") },
	},
	{
		points: 5,
		task:   "Add Open Graph tags",
		pass:   func(c *pageContext) bool { return len(missingOGTags(c.page)) == 0 },
		detail: func(c *pageContext) string { return strings.Join(missingOGTags(c.page), ", ") },
	},
}

var aeoChecks = []check{
	{
		points: 5,
		task:   "Publish in-depth content (600+ words) with a clear H1",
		pass: func(c *pageContext) bool {
			return c.page.WordCount >= 600 && c.page.H1 != ""
		},
	},
	{
		points: 5,
		task:   "Add structured data with @context and @type",
		pass:   func(c *pageContext) bool { return signals.HasContextAndType(c.page.StructuredData) },
	},
	{
		points: 5,
		task:   "Add answer-friendly schema (FAQPage, HowTo, Article, Service or Product)",
		pass:   func(c *pageContext) bool { return signals.HasAnyType(c.schemaTypes, signals.AnswerTypes) },
	},
	{
		points: 5,
		task:   "Mention your city or use a country domain so answers can be localized",
		pass:   func(c *pageContext) bool { return c.hasGeo },
	},
	{
		points: 5,
		task:   "Embed a map or make your business location visible",
		skip:   func(c *pageContext) bool { return hasWarning(c.page, "map") },
		pass:   func(c *pageContext) bool { return c.hasGeo && hasOG(c.page, "image") },
	},
	{
		points: 5,
		task:   "Surface customer reviews or testimonials",
		pass:   func(c *pageContext) bool { return hasReviewSignal(c.page) },
	},
	{
		points: 5,
		task:   "Add og:title and og:description for answer cards",
		pass: func(c *pageContext) bool {
			return hasOG(c.page, "title") && hasOG(c.page, "description")
		},
	},
}

var geoChecks = []check{
	{
		points: 10,
		task:   "Add a recognizable city or country signal to your content",
		pass:   func(c *pageContext) bool { return c.hasGeo },
	},
	{
		points: 5,
		task:   "Add hreflang tags for language/region variants",
		pass:   func(c *pageContext) bool { return len(c.page.HreflangEntries) > 0 },
	},
	{
		points: 5,
		task:   "Use a country-code domain for local targeting",
		pass:   func(c *pageContext) bool { return c.country != "" },
	},
}

var accessibilityChecks = []check{
	{
		points: 10,
		task:   "Add alt text to every image",
		pass:   func(c *pageContext) bool { return c.page.MissingAltCount() == 0 },
	},
	{
		points: 5,
		task:   "Set explicit width and height on images",
		pass:   func(c *pageContext) bool { return c.page.MissingDimensionsCount() == 0 },
	},
	{
		points: 5,
		task:   "Enable lazy loading on below-the-fold images",
		pass:   func(c *pageContext) bool { return c.page.LazyImageCount() > 0 },
	},
}

var technicalChecks = []check{
	{
		points: 5,
		task:   "Serve the site over HTTPS",
		pass:   func(c *pageContext) bool { return c.page.IsHTTPS },
	},
	{
		points: 5,
		task:   "Add a canonical link tag",
		pass:   func(c *pageContext) bool { return c.page.HasCanonical },
	},
	{
		points: 5,
		task:   "Fix broken internal links",
		pass:   func(c *pageContext) bool { return c.page.BrokenLinkCount == 0 },
	},
	{
		points: 5,
		task:   "Remove the noindex directive so the page can be indexed",
		pass: func(c *pageContext) bool {
			return !strings.Contains(strings.ToLower(c.page.RobotsMeta), "noindex")
		},
	},
}

// pillarChecks maps each pillar to its check table, in canonical order.
var pillarChecks = map[audit.Pillar][]check{
	audit.PillarSEO:           seoChecks,
	audit.PillarAEO:           aeoChecks,
	audit.PillarGEO:           geoChecks,
	audit.PillarAccessibility: accessibilityChecks,
	audit.PillarTechnical:     technicalChecks,
}

// tableMax sums a check table's point budget.
func tableMax(table []check) int {
	total := 0
	for _, c := range table {
		total += c.points
	}
	return total
}
