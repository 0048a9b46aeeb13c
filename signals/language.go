package signals

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// DetectLanguage returns the ISO 639-1 code of the dominant language in the
// given text, or "" when the text is empty or detection is unreliable.
// Detection is deterministic: identical input always yields the same code.
func DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	info := whatlanggo.Detect(text)
	if info.Lang == -1 || !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
