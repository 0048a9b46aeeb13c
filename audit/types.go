package audit

import (
	"encoding/json"

	"github.com/site-pulse/backend/signals"
)

// Pillar names one of the five independent scoring categories.
type Pillar string

const (
	PillarSEO           Pillar = "SEO"
	PillarAEO           Pillar = "AEO"
	PillarGEO           Pillar = "GEO"
	PillarAccessibility Pillar = "ACCESSIBILITY"
	PillarTechnical     Pillar = "TECHNICAL"
)

// Pillars lists every pillar in canonical evaluation order.
var Pillars = []Pillar{PillarSEO, PillarAEO, PillarGEO, PillarAccessibility, PillarTechnical}

// Image describes one <img> on a page. Alt is always a string — empty means
// the attribute was missing — so "missing alt" checks stay simple.
type Image struct {
	Src     string `json:"src"`
	Alt     string `json:"alt"`
	Loading string `json:"loading,omitempty"`
	Width   string `json:"width,omitempty"`
	Height  string `json:"height,omitempty"`
}

// Hreflang is one alternate-language link entry.
type Hreflang struct {
	Hreflang string `json:"hreflang"`
	Href     string `json:"href"`
}

// PageRecord is the normalized, immutable representation of one crawled
// page — the sole input to scoring. Partially populated records are valid:
// missing fields default to zero values and degrade to lower scores, never
// to errors.
type PageRecord struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	MetaDescription string   `json:"metaDescription"`
	H1              string   `json:"h1"`
	H2              []string `json:"h2"`
	H3              []string `json:"h3"`

	WordCount    int    `json:"wordCount"`
	IsHTTPS      bool   `json:"isHttps"`
	HasCanonical bool   `json:"hasCanonical"`
	RobotsMeta   string `json:"robotsMeta"`

	Images            []Image           `json:"images"`
	InternalLinkCount int               `json:"internalLinkCount"`
	BrokenLinkCount   int               `json:"brokenLinkCount"`
	StructuredData    []json.RawMessage `json:"structuredData"`
	HreflangEntries   []Hreflang        `json:"hreflangEntries"`
	NAP               signals.NAP       `json:"nap"`
	FAQ               []signals.QA      `json:"faq,omitempty"`

	Keywords []string `json:"keywords,omitempty"`
	Content  string   `json:"content,omitempty"`

	// Warnings carries extractor-detected issues not otherwise modeled,
	// e.g. "missing viewport" or "missing og:title".
	Warnings []string `json:"warnings"`
}

// MissingAltCount returns how many images lack alt text.
func (p *PageRecord) MissingAltCount() int {
	n := 0
	for _, img := range p.Images {
		if img.Alt == "" {
			n++
		}
	}
	return n
}

// MissingDimensionsCount returns how many images lack explicit width or
// height attributes.
func (p *PageRecord) MissingDimensionsCount() int {
	n := 0
	for _, img := range p.Images {
		if img.Width == "" || img.Height == "" {
			n++
		}
	}
	return n
}

// LazyImageCount returns how many images opt into lazy loading.
func (p *PageRecord) LazyImageCount() int {
	n := 0
	for _, img := range p.Images {
		if img.Loading == "lazy" {
			n++
		}
	}
	return n
}
