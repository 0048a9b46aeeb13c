package signals

import "testing"

func TestDetectLanguage(t *testing.T) {
	t.Run("EnglishText", func(t *testing.T) {
		text := "Our company provides professional car detailing services with free pickup and delivery across the city."
		if lang := DetectLanguage(text); lang != "en" {
			t.Errorf("Expected language en, got %q", lang)
		}
	})

	t.Run("EmptyText", func(t *testing.T) {
		if lang := DetectLanguage(""); lang != "" {
			t.Errorf("Expected empty language for empty text, got %q", lang)
		}
	})

	t.Run("WhitespaceOnly", func(t *testing.T) {
		if lang := DetectLanguage("   \n\t  "); lang != "" {
			t.Errorf("Expected empty language for whitespace, got %q", lang)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		text := "Professional web design and development agency building fast and accessible websites."
		first := DetectLanguage(text)
		for i := 0; i < 5; i++ {
			if got := DetectLanguage(text); got != first {
				t.Fatalf("Detection not deterministic: %q then %q", first, got)
			}
		}
	})
}
