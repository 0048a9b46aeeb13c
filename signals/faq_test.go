package signals

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestIsQuestion(t *testing.T) {
	cases := []struct {
		text string
		lang string
		want bool
	}{
		{"What is shipping?", "en", true},
		{"How we work", "en", true},
		{"Our services", "en", false},
		{"Kaip užsisakyti", "lt", true},
		{"Was kostet das", "de", true},
		{"Pricing", "unknown-lang", false},
		{"Delivery options?", "unknown-lang", true},
		{"", "en", false},
	}

	for _, tc := range cases {
		if got := IsQuestion(tc.text, tc.lang); got != tc.want {
			t.Errorf("IsQuestion(%q, %q) = %v, expected %v", tc.text, tc.lang, got, tc.want)
		}
	}
}

func TestExtractQAFromHeadings(t *testing.T) {
	blocks := []HeadingBlock{
		{Heading: "What is shipping?", NextText: "We ship within 3 days."},
		{Heading: "Our team", NextText: "We are twelve people."},
	}

	pairs := ExtractQA(blocks, "", "en")
	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].Question != "What is shipping?" {
		t.Errorf("Unexpected question: %q", pairs[0].Question)
	}
	if pairs[0].Answer != "We ship within 3 days." {
		t.Errorf("Unexpected answer: %q", pairs[0].Answer)
	}
}

func TestExtractQAAnswerTruncation(t *testing.T) {
	long := strings.Repeat("a", 300)
	blocks := []HeadingBlock{{Heading: "Why choose us?", NextText: long}}

	pairs := ExtractQA(blocks, "", "en")
	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}
	if len(pairs[0].Answer) != answerMaxLen+3 {
		t.Errorf("Expected answer truncated to %d+ellipsis, got length %d", answerMaxLen, len(pairs[0].Answer))
	}
	if !strings.HasSuffix(pairs[0].Answer, "...") {
		t.Error("Truncated answer should end with ellipsis")
	}
}

func TestExtractQAAnswerTruncationMultibyte(t *testing.T) {
	long := strings.Repeat("ž", 300)
	blocks := []HeadingBlock{{Heading: "Kodėl rinktis mus?", NextText: long}}

	pairs := ExtractQA(blocks, "", "lt")
	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}

	answer := pairs[0].Answer
	if !utf8.ValidString(answer) {
		t.Error("Truncated answer is not valid UTF-8")
	}
	if got := utf8.RuneCountInString(answer); got != answerMaxLen+3 {
		t.Errorf("Expected %d runes including ellipsis, got %d", answerMaxLen+3, got)
	}
}

func TestExtractQAFromMarkers(t *testing.T) {
	t.Run("ShortMarkers", func(t *testing.T) {
		text := "Q: Do you deliver? A: Yes, nationwide."
		pairs := ExtractQA(nil, text, "en")
		if len(pairs) == 0 {
			t.Fatal("Expected at least one pair from Q:/A: markers")
		}
		if pairs[0].Question != "Do you deliver?" || pairs[0].Answer != "Yes, nationwide." {
			t.Errorf("Unexpected pair: %+v", pairs[0])
		}
	})

	t.Run("LongMarkers", func(t *testing.T) {
		text := "Question: What payment methods do you accept? Answer: Cards and bank transfer."
		pairs := ExtractQA(nil, text, "en")
		if len(pairs) == 0 {
			t.Fatal("Expected at least one pair from Question:/Answer: markers")
		}
	})

	t.Run("MultiplePairs", func(t *testing.T) {
		text := "Q: One? A: First. Q: Two? A: Second."
		pairs := qaFromMarkers(text, qMarkerRe, aMarkerRe)
		if len(pairs) != 2 {
			t.Fatalf("Expected 2 pairs, got %d: %+v", len(pairs), pairs)
		}
	})
}

func TestExtractQAFromQuestionLines(t *testing.T) {
	text := "How long is delivery?\nUsually two business days.\nSome other line."
	pairs := ExtractQA(nil, text, "en")

	found := false
	for _, qa := range pairs {
		if qa.Question == "How long is delivery?" && qa.Answer == "Usually two business days." {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected question-line pair, got %+v", pairs)
	}
}

func TestDedupeQA(t *testing.T) {
	pairs := []QA{
		{Question: "What is it?", Answer: "first"},
		{Question: "what is it?", Answer: "duplicate, different case"},
		{Question: "Another?", Answer: "second"},
		{Question: "Third?", Answer: "third"},
	}

	out := DedupeQA(pairs, 2)
	if len(out) != 2 {
		t.Fatalf("Expected 2 pairs after dedupe+cap, got %d", len(out))
	}
	if out[0].Answer != "first" {
		t.Error("Dedupe should keep first occurrence")
	}
	if out[1].Question != "Another?" {
		t.Errorf("Unexpected second pair: %+v", out[1])
	}
}
