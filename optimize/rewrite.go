package optimize

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/site-pulse/backend/audit"
	"github.com/site-pulse/backend/scoring"
	"github.com/site-pulse/backend/signals"
)

const (
	titleMaxLen = 60
	metaMinLen  = 50
	metaMaxLen  = 160
	h1MaxLen    = 70
	altMaxLen   = 100
	slugMaxLen  = 80

	// defaultRewriteLimit bounds how many pages get full rewrite detail;
	// pages are taken richest-first by word count.
	defaultRewriteLimit = 10
)

var (
	brandSplitRe   = regexp.MustCompile(`\s*[|\-–]\s*`)
	slugInvalidRe  = regexp.MustCompile(`[^A-Za-z0-9\-\s]`)
	slugSpaceRe    = regexp.MustCompile(`\s+`)
	slugCollapseRe = regexp.MustCompile(`-+`)
)

// faqPrompts holds the two localized FAQ question templates per language,
// keyed by two-letter code. %s is the primary keyword.
var faqPrompts = map[string][2]string{
	"en": {"What is %s?", "How much does %s cost?"},
	"lt": {"Kas yra %s?", "Kiek kainuoja %s?"},
	"lv": {"Kas ir %s?", "Cik maksā %s?"},
	"et": {"Mis on %s?", "Kui palju maksab %s?"},
	"pl": {"Co to jest %s?", "Ile kosztuje %s?"},
	"de": {"Was ist %s?", "Wie viel kostet %s?"},
	"fr": {"Qu'est-ce que %s ?", "Combien coûte %s ?"},
	"es": {"¿Qué es %s?", "¿Cuánto cuesta %s?"},
	"it": {"Che cos'è %s?", "Quanto costa %s?"},
	"nl": {"Wat is %s?", "Wat kost %s?"},
	"pt": {"O que é %s?", "Quanto custa %s?"},
	"ro": {"Ce este %s?", "Cât costă %s?"},
	"cs": {"Co je %s?", "Kolik stojí %s?"},
	"sk": {"Čo je %s?", "Koľko stojí %s?"},
	"hu": {"Mi az a %s?", "Mennyibe kerül a %s?"},
	"el": {"Τι είναι το %s;", "Πόσο κοστίζει το %s;"},
	"da": {"Hvad er %s?", "Hvad koster %s?"},
	"sv": {"Vad är %s?", "Vad kostar %s?"},
	"fi": {"Mikä on %s?", "Kuinka paljon %s maksaa?"},
	"bg": {"Какво е %s?", "Колко струва %s?"},
	"hr": {"Što je %s?", "Koliko košta %s?"},
	"sl": {"Kaj je %s?", "Koliko stane %s?"},
	"mt": {"X'inhu %s?", "Kemm jiswa %s?"},
}

// AltSuggestion proposes alt text for one image that lacks it.
type AltSuggestion struct {
	Src          string `json:"src"`
	SuggestedAlt string `json:"suggestedAlt"`
}

// PageRewrite carries per-page corrective suggestions: fixed meta fields,
// localized FAQ prompts, JSON-LD artifacts, alt texts and a slug hint.
type PageRewrite struct {
	URL       string `json:"url"`
	Language  string `json:"language"`
	WordCount int    `json:"wordCount"`

	CurrentTitle string `json:"currentTitle"`
	CurrentMeta  string `json:"currentMeta"`
	CurrentH1    string `json:"currentH1"`

	NewTitle string `json:"newTitle"`
	NewMeta  string `json:"newMeta"`
	NewH1    string `json:"newH1"`

	FAQ                 []signals.QA    `json:"faq"`
	FAQSchema           json.RawMessage `json:"faqSchema,omitempty"`
	LocalBusinessSchema json.RawMessage `json:"localBusinessSchema,omitempty"`
	ProductSchema       json.RawMessage `json:"productSchema,omitempty"`

	AltTexts       []AltSuggestion `json:"altTexts,omitempty"`
	SlugSuggestion string          `json:"slugSuggestion,omitempty"`
}

// SiteOptimization is the full suggestion-builder output for one audit.
type SiteOptimization struct {
	BrandGuess         string          `json:"brandGuess"`
	OrganizationSchema json.RawMessage `json:"organizationSchema"`
	Suggestions        []Suggestion    `json:"suggestions"`
	Pages              []PageRewrite   `json:"pages"`
}

// shorten trims s to at most n characters, appending an ASCII ellipsis.
// Counted in runes, not bytes, so multibyte text never splits mid-character.
func shorten(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n >= 3 {
		return strings.TrimRight(string(runes[:n-3]), " ") + "..."
	}
	return string(runes[:n])
}

// BrandGuess derives the site's brand from the first non-empty page title:
// the last segment after a "|" or dash separator.
func BrandGuess(pages []audit.PageRecord) string {
	for _, p := range pages {
		if p.Title == "" {
			continue
		}
		parts := brandSplitRe.Split(p.Title, -1)
		if len(parts) > 1 {
			return strings.TrimSpace(parts[len(parts)-1])
		}
		return ""
	}
	return ""
}

// slugKeyword turns the URL's last path segment into keyword-ish text.
func slugKeyword(rawURL string) string {
	path := rawURL
	if i := strings.Index(path, "://"); i >= 0 {
		path = path[i+3:]
	}
	if i := strings.Index(path, "/"); i >= 0 {
		path = path[i+1:]
	} else {
		return ""
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	seg := segments[len(segments)-1]
	return strings.TrimSpace(strings.ReplaceAll(seg, "-", " "))
}

// primaryKeyword picks the page's main keyword: explicit keywords first,
// then the URL slug, then the first title segment.
func primaryKeyword(p *audit.PageRecord) string {
	if len(p.Keywords) > 0 {
		return p.Keywords[0]
	}
	if slug := slugKeyword(p.URL); slug != "" {
		return slug
	}
	if p.Title != "" {
		return strings.TrimSpace(brandSplitRe.Split(p.Title, -1)[0])
	}
	return ""
}

func filenameFromSrc(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	if i := strings.LastIndex(src, "/"); i >= 0 {
		src = src[i+1:]
	}
	if i := strings.LastIndex(src, "."); i > 0 {
		src = src[:i]
	}
	src = strings.ReplaceAll(src, "-", " ")
	src = strings.ReplaceAll(src, "_", " ")
	return strings.TrimSpace(src)
}

func suggestAltText(img audit.Image, keyword, brand, h1 string) string {
	key := keyword
	if key == "" {
		key = h1
	}
	if key == "" {
		key = filenameFromSrc(img.Src)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "Descriptive image of the page topic."
	}
	if brand != "" && !strings.Contains(strings.ToLower(key), strings.ToLower(brand)) {
		return shorten(key+" | "+brand, altMaxLen)
	}
	return shorten(key, altMaxLen)
}

// needsSlugImprovement flags URLs whose last segment is overlong, carries
// query-like tokens, or is mostly digits.
func needsSlugImprovement(rawURL string) bool {
	path := rawURL
	if i := strings.Index(path, "://"); i >= 0 {
		path = path[i+3:]
	}
	if i := strings.Index(path, "/"); i >= 0 {
		path = path[i+1:]
	} else {
		return false
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	seg := segments[len(segments)-1]
	if seg == "" {
		return false
	}
	if len(seg) > 60 {
		return true
	}
	if strings.ContainsAny(seg, "?&=,") {
		return true
	}
	digits := 0
	for _, ch := range seg {
		if ch >= '0' && ch <= '9' {
			digits++
		}
	}
	threshold := len(seg) / 3
	if threshold < 6 {
		threshold = 6
	}
	return digits > threshold
}

func slugify(text string) string {
	s := slugInvalidRe.ReplaceAllString(strings.TrimSpace(text), "")
	s = slugSpaceRe.ReplaceAllString(s, "-")
	s = slugCollapseRe.ReplaceAllString(s, "-")
	return strings.ToLower(strings.Trim(s, "-"))
}

// FAQPrompts returns two localized FAQ starter pairs for the keyword.
// Unknown languages fall back to English.
func FAQPrompts(lang, keyword string) []signals.QA {
	if len(lang) > 2 {
		lang = lang[:2]
	}
	templates, ok := faqPrompts[strings.ToLower(lang)]
	if !ok {
		templates = faqPrompts["en"]
	}
	return []signals.QA{
		{
			Question: strings.ReplaceAll(templates[0], "%s", keyword),
			Answer:   "Add a concise answer in the site's language.",
		},
		{
			Question: strings.ReplaceAll(templates[1], "%s", keyword),
			Answer:   "Add a pricing note and call to action in the site's language.",
		},
	}
}

func makeTitle(keyword, brand string) string {
	base := strings.TrimSpace(keyword)
	if base == "" {
		base = brand
	}
	if base == "" {
		base = "Home"
	}
	if brand != "" && !strings.Contains(strings.ToLower(base), strings.ToLower(brand)) {
		return shorten(base+" | "+brand, titleMaxLen)
	}
	return shorten(base, titleMaxLen)
}

func makeMeta(existing, titleLike, brand string) string {
	if existing != "" {
		d := strings.TrimSpace(existing)
		if utf8.RuneCountInString(d) < metaMinLen {
			d = strings.TrimSpace(d + " " + titleLike)
		}
		return shorten(d, metaMaxLen)
	}
	msg := titleLike
	if brand != "" {
		msg = titleLike + " - " + brand
	}
	if utf8.RuneCountInString(msg) < metaMinLen {
		msg += "."
	}
	return shorten(msg, metaMaxLen)
}

func makeH1(keyword, titleLike string) string {
	h := strings.TrimSpace(keyword)
	if h == "" {
		h = strings.TrimSpace(brandSplitRe.Split(titleLike, -1)[0])
	}
	return shorten(h, h1MaxLen)
}

var productTokens = []string{"/product", "/products", "product", "shop", "price"}

func looksProductLike(p *audit.PageRecord) bool {
	blob := strings.ToLower(strings.Join(p.Keywords, " ") + " " + p.URL)
	for _, tok := range productTokens {
		if strings.Contains(blob, tok) {
			return true
		}
	}
	return false
}

// RewritePage builds corrective suggestions for one page. Fields already
// within limits are kept as-is; only failing ones are rewritten from the
// primary keyword and brand.
func RewritePage(p audit.PageRecord, brand string) PageRewrite {
	lang := signals.DetectLanguage(p.Title + " " + p.MetaDescription)
	if lang == "" {
		lang = "en"
	}
	keyword := primaryKeyword(&p)

	r := PageRewrite{
		URL:          p.URL,
		Language:     lang,
		WordCount:    p.WordCount,
		CurrentTitle: p.Title,
		CurrentMeta:  p.MetaDescription,
		CurrentH1:    p.H1,
	}

	r.NewTitle = p.Title
	if n := utf8.RuneCountInString(p.Title); n < 1 || n > titleMaxLen {
		kw := keyword
		if kw == "" {
			kw = p.Title
		}
		r.NewTitle = makeTitle(kw, brand)
	}

	titleLike := p.Title
	if titleLike == "" {
		titleLike = r.NewTitle
	}

	r.NewMeta = p.MetaDescription
	if n := utf8.RuneCountInString(p.MetaDescription); n < metaMinLen || n > metaMaxLen {
		r.NewMeta = makeMeta(p.MetaDescription, titleLike, brand)
	}

	r.NewH1 = p.H1
	if n := utf8.RuneCountInString(p.H1); n < 1 || n > h1MaxLen {
		r.NewH1 = makeH1(keyword, titleLike)
	}

	faqKeyword := keyword
	if faqKeyword == "" {
		faqKeyword = r.NewH1
	}
	if faqKeyword == "" {
		faqKeyword = r.NewTitle
	}
	r.FAQ = FAQPrompts(lang, faqKeyword)
	r.FAQSchema = BuildFAQSchema(r.FAQ)

	for _, img := range p.Images {
		if img.Alt != "" {
			continue
		}
		r.AltTexts = append(r.AltTexts, AltSuggestion{
			Src:          img.Src,
			SuggestedAlt: suggestAltText(img, keyword, brand, r.NewH1),
		})
	}

	if p.NAP.Phone != "" || p.NAP.Address != "" {
		name := brand
		if name == "" {
			name = r.NewH1
		}
		if name == "" {
			name = r.NewTitle
		}
		r.LocalBusinessSchema = BuildLocalBusinessSchema(name, p.NAP.Phone, p.NAP.Address, p.URL)
	}

	if looksProductLike(&p) {
		name := keyword
		if name == "" {
			name = r.NewH1
		}
		if name == "" {
			name = r.NewTitle
		}
		r.ProductSchema = BuildProductSchema(name, brand, r.NewMeta)
	}

	if needsSlugImprovement(p.URL) {
		base := keyword
		if base == "" {
			base = r.NewH1
		}
		if base == "" {
			base = r.NewTitle
		}
		if slug := slugify(base); slug != "" {
			if len(slug) > slugMaxLen {
				slug = strings.Trim(slug[:slugMaxLen], "-")
			}
			r.SlugSuggestion = slug
		}
	}

	return r
}

// OptimizeSite builds the full suggestion set for an audited page batch:
// coverage-driven site suggestions plus per-page rewrites for up to limit
// pages, richest content first.
func OptimizeSite(pages []audit.PageRecord, scores []scoring.PageScore, limit int) SiteOptimization {
	if limit <= 0 {
		limit = defaultRewriteLimit
	}

	order := make([]int, len(pages))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pages[order[a]].WordCount > pages[order[b]].WordCount
	})
	if len(order) > limit {
		order = order[:limit]
	}

	selected := make([]audit.PageRecord, len(order))
	for i, idx := range order {
		selected[i] = pages[idx]
	}

	brand := BrandGuess(selected)
	opt := SiteOptimization{
		BrandGuess:         brand,
		OrganizationSchema: BuildOrganizationSchema(brand),
		Suggestions:        BuildSuggestions(pages, scores),
	}
	for _, p := range selected {
		opt.Pages = append(opt.Pages, RewritePage(p, brand))
	}
	return opt
}
