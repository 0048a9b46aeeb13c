package audit

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/site-pulse/backend/signals"
)

// Normalize adapts a raw crawler page map into a typed PageRecord. External
// fetchers disagree on field names, so near-synonym fallbacks live here —
// and only here; scoring code never does map lookups. Missing or oddly
// typed fields degrade to zero values, never to errors.
func Normalize(raw map[string]interface{}) PageRecord {
	p := PageRecord{
		URL:             firstString(raw, "url"),
		Title:           firstString(raw, "title", "meta_title"),
		MetaDescription: firstString(raw, "description", "meta", "meta_description"),
		H1:              headingValue(raw),
		H2:              stringList(raw["h2"]),
		H3:              stringList(raw["h3"]),
		RobotsMeta:      firstString(raw, "meta_robots", "robots_meta", "robots"),
		Keywords:        stringList(raw["keywords"]),
		Warnings:        stringList(raw["warnings"]),
		Content:         firstString(raw, "body_text", "text", "content"),
	}

	p.IsHTTPS = strings.HasPrefix(strings.ToLower(p.URL), "https://")
	p.HasCanonical = firstString(raw, "canonical") != ""
	p.WordCount = wordCount(raw, p.Content)
	p.Images = imageList(raw["images"])
	p.InternalLinkCount, p.BrokenLinkCount = linkCounts(raw)
	p.StructuredData = structuredData(raw)
	p.HreflangEntries = hreflangList(raw["hreflang"])
	p.NAP = napValue(raw["nap"])
	p.FAQ = faqList(raw["faq"])

	return p
}

// firstText returns the first non-empty string in a scalar-or-list value.
func firstText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// firstString tries the given keys in order; first non-empty value wins.
func firstString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s := firstText(raw[key]); s != "" {
			return s
		}
	}
	return ""
}

func stringList(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		if strings.TrimSpace(t) != "" {
			return []string{strings.TrimSpace(t)}
		}
	}
	return nil
}

// headingValue resolves h1 from a scalar, a list, or a nested headers map.
func headingValue(raw map[string]interface{}) string {
	if s := firstText(raw["h1"]); s != "" {
		return s
	}
	if headers, ok := raw["headers"].(map[string]interface{}); ok {
		for _, key := range []string{"h1", "H1"} {
			if s := firstText(headers[key]); s != "" {
				return s
			}
		}
	}
	return ""
}

// wordCount prefers an explicit numeric field and falls back to counting
// whitespace-delimited tokens of the body text. Negative counts clamp to 0.
func wordCount(raw map[string]interface{}, content string) int {
	switch n := raw["word_count"].(type) {
	case float64:
		if n > 0 {
			return int(n)
		}
		return 0
	case int:
		if n > 0 {
			return n
		}
		return 0
	}
	return len(strings.Fields(content))
}

func imageList(v interface{}) []Image {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []Image
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, Image{
			Src:     firstText(m["src"]),
			Alt:     firstText(m["alt"]),
			Loading: strings.ToLower(firstText(m["loading"])),
			Width:   scalarString(m["width"]),
			Height:  scalarString(m["height"]),
		})
	}
	return out
}

// scalarString renders numeric or string attribute values as strings.
func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

// linkCounts resolves internal/broken link counts from either flat count
// fields or a nested links object with URL lists.
func linkCounts(raw map[string]interface{}) (internal, broken int) {
	for _, key := range []string{"internal_links", "internal_links_count", "links_count"} {
		if n, ok := raw[key].(float64); ok {
			internal = int(n)
			break
		}
	}
	if links, ok := raw["links"].(map[string]interface{}); ok {
		if internal == 0 {
			internal = len(stringList(links["internal"]))
		}
		broken = len(stringList(links["broken_internal"]))
	}
	return internal, broken
}

// structuredData accepts either a flat list of entities or a schema object
// with a json_ld list, re-encoding each entry as a raw blob.
func structuredData(raw map[string]interface{}) []json.RawMessage {
	v := raw["structured_data"]
	if v == nil {
		if schema, ok := raw["schema"].(map[string]interface{}); ok {
			v = schema["json_ld"]
		}
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []json.RawMessage
	for _, item := range items {
		blob, err := json.Marshal(item)
		if err != nil {
			continue
		}
		out = append(out, json.RawMessage(blob))
	}
	return out
}

func hreflangList(v interface{}) []Hreflang {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []Hreflang
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		entry := Hreflang{Hreflang: firstText(m["hreflang"]), Href: firstText(m["href"])}
		if entry.Hreflang != "" && entry.Href != "" {
			out = append(out, entry)
		}
	}
	return out
}

func napValue(v interface{}) signals.NAP {
	m, ok := v.(map[string]interface{})
	if !ok {
		return signals.NAP{}
	}
	return signals.NAP{
		Name:    firstText(m["name"]),
		Phone:   firstText(m["phone"]),
		Address: firstText(m["address"]),
	}
}

func faqList(v interface{}) []signals.QA {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []signals.QA
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		qa := signals.QA{Question: firstText(m["question"]), Answer: firstText(m["answer"])}
		if qa.Question != "" {
			out = append(out, qa)
		}
	}
	return out
}
