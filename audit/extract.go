package audit

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/site-pulse/backend/signals"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// ExtractPage parses raw HTML into a PageRecord. Extraction degrades
// gracefully: anything missing from the document leaves its field at the
// zero value, and detected issues are appended to Warnings.
func ExtractPage(pageURL, html string) PageRecord {
	p := PageRecord{
		URL:     pageURL,
		IsHTTPS: strings.HasPrefix(strings.ToLower(pageURL), "https://"),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return p
	}

	p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	p.MetaDescription = metaContent(doc, "description")
	p.RobotsMeta = metaContent(doc, "robots")
	p.Keywords = splitKeywords(metaContent(doc, "keywords"))

	if metaContent(doc, "viewport") == "" {
		p.Warnings = append(p.Warnings, "missing viewport")
	}
	for _, prop := range []string{"og:title", "og:description", "og:image"} {
		if ogContent(doc, prop) == "" {
			p.Warnings = append(p.Warnings, "missing "+prop)
		}
	}

	p.H1 = strings.TrimSpace(doc.Find("h1").First().Text())
	doc.Find("h2").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			p.H2 = append(p.H2, t)
		}
	})
	doc.Find("h3").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			p.H3 = append(p.H3, t)
		}
	})

	doc.Find("link[rel='canonical']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
			p.HasCanonical = true
		}
		return !p.HasCanonical
	})

	doc.Find("link[rel='alternate'][hreflang]").Each(func(_ int, s *goquery.Selection) {
		lang, _ := s.Attr("hreflang")
		href, _ := s.Attr("href")
		if lang != "" && href != "" {
			p.HreflangEntries = append(p.HreflangEntries, Hreflang{Hreflang: lang, Href: href})
		}
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		img := Image{}
		img.Src, _ = s.Attr("src")
		alt, _ := s.Attr("alt")
		img.Alt = strings.TrimSpace(alt)
		loading, _ := s.Attr("loading")
		img.Loading = strings.ToLower(strings.TrimSpace(loading))
		img.Width, _ = s.Attr("width")
		img.Height, _ = s.Attr("height")
		p.Images = append(p.Images, img)
	})
	if missing := p.MissingAltCount(); missing > 0 {
		p.Warnings = append(p.Warnings, "missing alt text on images")
	}

	p.InternalLinkCount = countInternalLinks(doc, pageURL)

	doc.Find("script[type='application/ld+json']").Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw != "" {
			p.StructuredData = append(p.StructuredData, json.RawMessage(raw))
		}
	})

	p.Content = visibleText(doc)
	p.WordCount = len(strings.Fields(p.Content))

	p.NAP = signals.NAP{
		Phone:   signals.ExtractPhone(p.Content),
		Address: signals.ExtractAddress(p.Content),
	}
	if schemaNAP := signals.NAPFromSchema(p.StructuredData); schemaNAP.Name != "" {
		p.NAP.Name = schemaNAP.Name
	}

	// Question-word matching is locale-aware, so detect the page language
	// first. Undetectable pages fall back to the English word list.
	lang := signals.DetectLanguage(p.Title + " " + p.MetaDescription + " " + p.Content)
	if lang == "" {
		lang = "en"
	}
	p.FAQ = signals.DedupeQA(signals.ExtractQA(headingBlocks(doc), p.Content, lang), 20)

	return p
}

func metaContent(doc *goquery.Document, name string) string {
	content, _ := doc.Find("meta[name='" + name + "']").First().Attr("content")
	return strings.TrimSpace(content)
}

func ogContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find("meta[property='" + property + "']").First().Attr("content")
	return strings.TrimSpace(content)
}

func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, kw := range strings.Split(raw, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// countInternalLinks counts unique same-host anchors, including relative ones.
func countInternalLinks(doc *goquery.Document, pageURL string) int {
	base, err := url.Parse(pageURL)
	if err != nil {
		return 0
	}
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
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
		if resolved.Hostname() != base.Hostname() {
			return
		}
		resolved.Fragment = ""
		seen[resolved.String()] = true
	})
	return len(seen)
}

// visibleText returns the document's rendered text with scripts, styles and
// templates removed and runs of whitespace collapsed. Block boundaries are
// preserved as newlines so line-based Q&A extraction keeps working.
func visibleText(doc *goquery.Document) string {
	clone := doc.Clone()
	clone.Find("script, style, noscript, template").Remove()

	var blocks []string
	body := clone.Find("body")
	if body.Length() == 0 {
		return ""
	}
	body.Find("p, li, h1, h2, h3, h4, h5, h6, td, div").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		if t := collapseSpace(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	if len(blocks) == 0 {
		return collapseSpace(body.Text())
	}
	return strings.Join(blocks, "\n")
}

func collapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// headingBlocks pairs each heading with the text of its next sibling block
// for structural Q&A extraction.
func headingBlocks(doc *goquery.Document) []signals.HeadingBlock {
	var blocks []signals.HeadingBlock
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		heading := collapseSpace(s.Text())
		if heading == "" {
			return
		}
		blocks = append(blocks, signals.HeadingBlock{
			Heading:  heading,
			NextText: collapseSpace(s.Next().Text()),
		})
	})
	return blocks
}
