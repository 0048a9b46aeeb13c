package signals

import (
	"regexp"
	"strings"
)

// QA is one extracted question/answer pair.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// HeadingBlock pairs a heading with the text of its next sibling block,
// as produced by the HTML extractor.
type HeadingBlock struct {
	Heading  string
	NextText string
}

const answerMaxLen = 200

// questionWords lists interrogative words per language. Headings containing
// one of these (or ending in "?") are treated as questions.
var questionWords = map[string][]string{
	"en": {"what", "how", "why", "when", "where", "who"},
	"es": {"qué", "cómo", "por qué", "cuándo", "dónde", "quién"},
	"fr": {"quoi", "comment", "pourquoi", "quand", "où", "qui"},
	"de": {"was", "wie", "warum", "wann", "wo", "wer"},
	"it": {"cosa", "come", "perché", "quando", "dove", "chi"},
	"lt": {"kas", "kaip", "kodėl", "kada", "kur", "ar"},
}

var (
	qMarkerRe        = regexp.MustCompile(`(?i)\bQ:`)
	aMarkerRe        = regexp.MustCompile(`(?i)\bA:`)
	questionMarkerRe = regexp.MustCompile(`(?i)\bQuestion:`)
	answerMarkerRe   = regexp.MustCompile(`(?i)\bAnswer:`)
)

// IsQuestion reports whether the text reads as a question in the given
// language: it ends with "?" or contains an interrogative word. Unknown
// languages fall back to the English word list.
func IsQuestion(text, lang string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if strings.HasSuffix(trimmed, "?") {
		return true
	}

	words, ok := questionWords[strings.ToLower(lang)]
	if !ok {
		words = questionWords["en"]
	}
	lower := strings.ToLower(trimmed)
	for _, token := range strings.Fields(lower) {
		token = strings.Trim(token, ".,;:!?\"'()")
		for _, w := range words {
			if token == w {
				return true
			}
		}
	}
	return false
}

// truncateAnswer caps an answer at answerMaxLen characters with an ellipsis.
// Counted in runes, not bytes, so multibyte text never splits mid-character.
func truncateAnswer(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= answerMaxLen {
		return s
	}
	return string(runes[:answerMaxLen]) + "..."
}

// qaFromMarkers extracts pairs delimited by explicit question/answer
// markers such as "Q: ... A: ..." or "Question: ... Answer: ...".
func qaFromMarkers(text string, qRe, aRe *regexp.Regexp) []QA {
	var pairs []QA
	chunks := qRe.Split(text, -1)
	if len(chunks) < 2 {
		return nil
	}
	for _, chunk := range chunks[1:] {
		parts := aRe.Split(chunk, 2)
		if len(parts) != 2 {
			continue
		}
		q := strings.TrimSpace(parts[0])
		a := strings.TrimSpace(parts[1])
		if q != "" && a != "" {
			pairs = append(pairs, QA{Question: q, Answer: a})
		}
	}
	return pairs
}

// qaFromQuestionLines pairs any line ending in "?" with the following
// non-empty line as its answer.
func qaFromQuestionLines(text string) []QA {
	var pairs []QA
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		q := strings.TrimSpace(line)
		if q == "" || !strings.HasSuffix(q, "?") {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			a := strings.TrimSpace(lines[j])
			if a == "" {
				continue
			}
			if !strings.HasSuffix(a, "?") {
				pairs = append(pairs, QA{Question: q, Answer: a})
			}
			break
		}
	}
	return pairs
}

// ExtractQA finds question/answer pairs on a page using two independent
// strategies whose results are concatenated:
//
//  1. Structural: a heading that reads as a question, answered by the text
//     of its next sibling block (truncated to 200 characters).
//  2. Textual: "Q:/A:" and "Question:/Answer:" marker patterns plus bare
//     question lines followed by a text block.
//
// Duplicates are possible; deduplication is the caller's concern.
func ExtractQA(blocks []HeadingBlock, text, lang string) []QA {
	var pairs []QA

	for _, b := range blocks {
		if !IsQuestion(b.Heading, lang) {
			continue
		}
		answer := truncateAnswer(b.NextText)
		if answer == "" {
			continue
		}
		pairs = append(pairs, QA{
			Question: strings.TrimSpace(b.Heading),
			Answer:   answer,
		})
	}

	pairs = append(pairs, qaFromMarkers(text, qMarkerRe, aMarkerRe)...)
	pairs = append(pairs, qaFromMarkers(text, questionMarkerRe, answerMarkerRe)...)
	pairs = append(pairs, qaFromQuestionLines(text)...)

	return pairs
}

// DedupeQA removes pairs whose question text repeats (case-insensitive),
// keeping first occurrences and capping the result at limit when limit > 0.
func DedupeQA(pairs []QA, limit int) []QA {
	seen := make(map[string]bool, len(pairs))
	var out []QA
	for _, qa := range pairs {
		key := strings.ToLower(strings.TrimSpace(qa.Question))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, qa)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
