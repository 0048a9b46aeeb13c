package signals

import (
	"encoding/json"
	"testing"
)

func TestExtractPhone(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Call us at +370 612 34567 today", "+370 612 34567"},
		{"Phone: 555-123-4567 weekdays", "555-123-4567"},
		{"No numbers here", ""},
	}

	for _, tc := range cases {
		if got := ExtractPhone(tc.text); got != tc.want {
			t.Errorf("ExtractPhone(%q) = %q, expected %q", tc.text, got, tc.want)
		}
	}
}

func TestExtractAddress(t *testing.T) {
	text := "Visit us at 12 Main Street, Vilnius, LT 01100 any weekday."
	if got := ExtractAddress(text); got == "" {
		t.Error("Expected an address-shaped match")
	}
	if got := ExtractAddress("no address in this sentence"); got != "" {
		t.Errorf("Expected no match, got %q", got)
	}
}

func TestNAPFromSchema(t *testing.T) {
	t.Run("StringAddress", func(t *testing.T) {
		nap := NAPFromSchema(blobs(`{"@type":"LocalBusiness","name":"Acme Ltd","telephone":"+1 555 123 4567","address":"12 Main St"}`))
		if nap.Name != "Acme Ltd" || nap.Phone != "+1 555 123 4567" || nap.Address != "12 Main St" {
			t.Errorf("Unexpected NAP: %+v", nap)
		}
	})

	t.Run("PostalAddressObject", func(t *testing.T) {
		nap := NAPFromSchema(blobs(`{"name":"Acme","address":{"@type":"PostalAddress","streetAddress":"12 Main St","addressLocality":"Vilnius","postalCode":"01100"}}`))
		if nap.Address != "12 Main St Vilnius 01100" {
			t.Errorf("Unexpected flattened address: %q", nap.Address)
		}
	})

	t.Run("MalformedSkipped", func(t *testing.T) {
		nap := NAPFromSchema([]json.RawMessage{json.RawMessage(`{broken`), json.RawMessage(`{"name":"Acme"}`)})
		if nap.Name != "Acme" {
			t.Errorf("Expected name from valid blob, got %+v", nap)
		}
	})
}

func TestConsistencyScoreBounds(t *testing.T) {
	full := ConsistencyScore(
		NAP{Name: "Acme", Phone: "+1 555 123 4567", Address: "12 Main Street"},
		NAP{Name: "Welcome to Acme headquarters", Phone: "555 123 4567", Address: "12 Main Street, Vilnius"},
	)
	if full != 100 {
		t.Errorf("Expected exactly 100 when all three match, got %d", full)
	}

	empty := ConsistencyScore(NAP{}, NAP{})
	if empty != 0 {
		t.Errorf("Expected 0 for empty inputs, got %d", empty)
	}

	// Mismatches on every field still never go negative.
	none := ConsistencyScore(
		NAP{Name: "Acme", Phone: "999", Address: "Elm"},
		NAP{Name: "Other", Phone: "111", Address: "Oak"},
	)
	if none < 0 || none > 100 {
		t.Errorf("Score out of bounds: %d", none)
	}
}

// A LocalBusiness entity matched against visible text: name and phone agree
// (with a country-code prefix on one side), address is absent on both sides
// so its points are neither gained nor lost.
func TestConsistencyScoreNameAndPhone(t *testing.T) {
	schema := NAPFromSchema(blobs(`{"@type":"LocalBusiness","name":"Acme Ltd","telephone":"+1 555 123 4567"}`))
	content := NAP{
		Name:  "Acme Ltd is the leading provider. Call 555-123-4567 today.",
		Phone: ExtractPhone("Acme Ltd is the leading provider. Call 555-123-4567 today."),
	}

	score := ConsistencyScore(schema, content)
	if score < 67 {
		t.Errorf("Expected score >= 67 from name+phone match, got %d", score)
	}
	if score > 67 {
		t.Errorf("Address data is absent, score should cap at 67, got %d", score)
	}
}

func TestConsistent(t *testing.T) {
	if Consistent(70) {
		t.Error("70 should not clear the threshold")
	}
	if !Consistent(71) {
		t.Error("71 should clear the threshold")
	}
}
