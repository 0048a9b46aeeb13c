package signals

import (
	"encoding/json"
)

// Schema type interest sets used by the scorer and suggestion builder.
var (
	FAQTypes     = []string{"FAQPage", "Question"}
	LocalTypes   = []string{"LocalBusiness", "Organization"}
	ProductTypes = []string{"Product"}
	ArticleTypes = []string{"Article", "BlogPosting"}
	AnswerTypes  = []string{"FAQPage", "HowTo", "Article", "Service", "Product"}
)

// parseEntities decodes a structured-data blob into its entity maps. A blob
// may hold a single object or an array of objects. Malformed JSON yields nil:
// a broken entry contributes no signal and never aborts scoring.
func parseEntities(blob json.RawMessage) []map[string]interface{} {
	var single map[string]interface{}
	if err := json.Unmarshal(blob, &single); err == nil {
		return []map[string]interface{}{single}
	}

	var list []map[string]interface{}
	if err := json.Unmarshal(blob, &list); err == nil {
		return list
	}
	return nil
}

// typeValues reads the @type field of an entity, which schema.org allows to
// be either a string or an array of strings.
func typeValues(entity map[string]interface{}) []string {
	switch v := entity["@type"].(type) {
	case string:
		if v != "" {
			return []string{v}
		}
	case []interface{}:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// SchemaTypes collects every @type value declared across the given
// structured-data blobs, in document order. Malformed blobs are skipped.
func SchemaTypes(blobs []json.RawMessage) []string {
	var types []string
	for _, blob := range blobs {
		for _, entity := range parseEntities(blob) {
			types = append(types, typeValues(entity)...)
		}
	}
	return types
}

// HasAnyType reports whether any collected type is in the interest set.
func HasAnyType(types []string, interest []string) bool {
	for _, t := range types {
		for _, want := range interest {
			if t == want {
				return true
			}
		}
	}
	return false
}

// HasContextAndType reports whether the structured data declares both an
// @context and an @type somewhere across its valid entities.
func HasContextAndType(blobs []json.RawMessage) bool {
	sawContext, sawType := false, false
	for _, blob := range blobs {
		for _, entity := range parseEntities(blob) {
			if _, ok := entity["@context"]; ok {
				sawContext = true
			}
			if len(typeValues(entity)) > 0 {
				sawType = true
			}
			if sawContext && sawType {
				return true
			}
		}
	}
	return false
}
