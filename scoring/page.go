package scoring

import (
	"strings"

	"github.com/site-pulse/backend/audit"
	"github.com/site-pulse/backend/signals"
)

// PillarResult is one pillar's outcome for a single page.
type PillarResult struct {
	Points    int      `json:"points"`
	MaxPoints int      `json:"maxPoints"`
	Tasks     []string `json:"tasks"`
}

// PageScore is the full scoring result for one page: per-pillar points and
// tasks plus the detector signals the checks were computed from.
type PageScore struct {
	URL     string                        `json:"url"`
	Pillars map[audit.Pillar]PillarResult `json:"pillars"`

	Language string `json:"language,omitempty"`
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`

	NAPConsistency int  `json:"napConsistency"`
	NAPConsistent  bool `json:"napConsistent"`
}

// ScorePage evaluates every pillar's check table against one page. It is a
// pure function: no I/O, no shared state, and it never fails — missing data
// degrades to lost points and remediation tasks.
func ScorePage(p audit.PageRecord, loc *signals.Locator) PageScore {
	if loc == nil {
		loc = signals.DefaultLocator()
	}

	ctx := &pageContext{page: &p}
	ctx.schemaTypes = signals.SchemaTypes(p.StructuredData)
	ctx.hasGeo, ctx.city, ctx.country = loc.Locate(p.Title, p.MetaDescription, p.Keywords, p.URL)
	ctx.language = signals.DetectLanguage(
		p.Title + " " + p.MetaDescription + " " + strings.Join(p.Keywords, " "))

	score := PageScore{
		URL:      p.URL,
		Pillars:  make(map[audit.Pillar]PillarResult, len(audit.Pillars)),
		Language: ctx.language,
		City:     ctx.city,
		Country:  ctx.country,
	}

	for _, pillar := range audit.Pillars {
		score.Pillars[pillar] = runChecks(pillarChecks[pillar], ctx)
	}

	score.NAPConsistency = napConsistency(&p)
	score.NAPConsistent = signals.Consistent(score.NAPConsistency)

	return score
}

// runChecks evaluates a check table in declaration order. Each failed check
// appends exactly one task; skipped checks contribute neither points nor
// tasks but still count toward the pillar maximum.
func runChecks(table []check, ctx *pageContext) PillarResult {
	result := PillarResult{MaxPoints: tableMax(table)}
	for _, c := range table {
		if c.skip != nil && c.skip(ctx) {
			continue
		}
		if c.pass(ctx) {
			result.Points += c.points
			continue
		}
		task := c.task
		if c.detail != nil {
			if d := c.detail(ctx); d != "" {
				task += ": " + d
			}
		}
		result.Tasks = append(result.Tasks, task)
	}
	return result
}

// napConsistency compares the page's schema-declared NAP against what the
// visible content shows. The content-side name is the page title plus body
// text, since a business name is rarely isolated into its own field.
func napConsistency(p *audit.PageRecord) int {
	schema := signals.NAPFromSchema(p.StructuredData)
	content := signals.NAP{
		Name:    strings.TrimSpace(p.Title + " " + p.Content),
		Phone:   p.NAP.Phone,
		Address: p.NAP.Address,
	}
	if content.Phone == "" {
		content.Phone = signals.ExtractPhone(p.Content)
	}
	if content.Address == "" {
		content.Address = signals.ExtractAddress(p.Content)
	}
	return signals.ConsistencyScore(schema, content)
}
