package signals

import (
	"encoding/json"
	"regexp"
	"strings"
)

// NAP holds the local-business identity triplet: name, address, phone.
type NAP struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ConsistencyThreshold is the score above which schema and content NAP
// data are considered consistent.
const ConsistencyThreshold = 70

var (
	// Permissive on purpose: phone formats vary wildly across markets.
	phoneRe = regexp.MustCompile(`\+?\d[\d\s\-().]{9,}`)
	// A street-number, two comma groups, and a postal code.
	addressRe    = regexp.MustCompile(`\d+[^,\n]*,[^,\n]*,[^,\n]*\d{4,5}`)
	nonDigitRe   = regexp.MustCompile(`\D`)
	addressKeys  = []string{"streetAddress", "addressLocality", "addressRegion", "postalCode", "addressCountry"}
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ExtractPhone returns the first phone-shaped token in the text, or "".
func ExtractPhone(text string) string {
	return strings.TrimSpace(phoneRe.FindString(text))
}

// ExtractAddress returns the first address-shaped span in the text, or "".
func ExtractAddress(text string) string {
	return strings.TrimSpace(addressRe.FindString(text))
}

// addressString flattens a schema.org address value, which may be a plain
// string or a PostalAddress object.
func addressString(v interface{}) string {
	switch addr := v.(type) {
	case string:
		return strings.TrimSpace(addr)
	case map[string]interface{}:
		var parts []string
		for _, key := range addressKeys {
			if s, ok := addr[key].(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}

// NAPFromSchema reads name/address/telephone fields off any entity in the
// structured-data blobs. First non-empty value per field wins; malformed
// blobs are skipped.
func NAPFromSchema(blobs []json.RawMessage) NAP {
	var nap NAP
	for _, blob := range blobs {
		for _, entity := range parseEntities(blob) {
			if nap.Name == "" {
				if s, ok := entity["name"].(string); ok {
					nap.Name = strings.TrimSpace(s)
				}
			}
			if nap.Address == "" {
				nap.Address = addressString(entity["address"])
			}
			if nap.Phone == "" {
				if s, ok := entity["telephone"].(string); ok {
					nap.Phone = strings.TrimSpace(s)
				}
			}
		}
	}
	return nap
}

// ConsistencyScore measures agreement between schema-declared and
// content-derived NAP data on a 0-100 scale: name +33, address +33,
// phone +34. Each check only fires when both sides carry a value, so
// entirely absent data neither gains nor loses points. Matching is
// deliberately fuzzy — substring and token overlap — because real-world
// formatting varies ("+370 6xx" vs "86xx").
func ConsistencyScore(schema, content NAP) int {
	score := 0

	if schema.Name != "" && content.Name != "" {
		if strings.Contains(strings.ToLower(content.Name), strings.ToLower(schema.Name)) {
			score += 33
		}
	}

	if schema.Address != "" && content.Address != "" {
		contentAddr := strings.ToLower(content.Address)
		for _, token := range whitespaceRe.Split(strings.ToLower(schema.Address), -1) {
			if token != "" && strings.Contains(contentAddr, token) {
				score += 33
				break
			}
		}
	}

	if schema.Phone != "" && content.Phone != "" {
		schemaDigits := nonDigitRe.ReplaceAllString(schema.Phone, "")
		contentDigits := nonDigitRe.ReplaceAllString(content.Phone, "")
		// Either side may carry a country-code prefix the other lacks.
		if schemaDigits != "" && contentDigits != "" &&
			(strings.Contains(contentDigits, schemaDigits) || strings.Contains(schemaDigits, contentDigits)) {
			score += 34
		}
	}

	return score
}

// Consistent reports whether a consistency score clears the threshold.
func Consistent(score int) bool {
	return score > ConsistencyThreshold
}
