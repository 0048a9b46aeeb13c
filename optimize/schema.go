// Package optimize turns audit results into remediation suggestions and
// ready-to-paste JSON-LD artifacts. Builders only use values that were
// actually extracted from the site; unknown fields are emitted empty,
// never invented.
package optimize

import (
	"encoding/json"

	"github.com/site-pulse/backend/signals"
)

type question struct {
	Type           string `json:"@type"`
	Name           string `json:"name"`
	AcceptedAnswer answer `json:"acceptedAnswer"`
}

type answer struct {
	Type string `json:"@type"`
	Text string `json:"text"`
}

type faqPage struct {
	Context    string     `json:"@context"`
	Type       string     `json:"@type"`
	MainEntity []question `json:"mainEntity"`
}

type postalAddress struct {
	Type          string `json:"@type"`
	StreetAddress string `json:"streetAddress"`
}

type localBusiness struct {
	Context   string        `json:"@context"`
	Type      string        `json:"@type"`
	Name      string        `json:"name"`
	Telephone string        `json:"telephone"`
	Address   postalAddress `json:"address"`
	URL       string        `json:"url,omitempty"`
}

type product struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Description string `json:"description"`
}

type organization struct {
	Context string `json:"@context"`
	Type    string `json:"@type"`
	Name    string `json:"name"`
}

const schemaContext = "https://schema.org"

func marshalSchema(v interface{}) json.RawMessage {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil
	}
	return blob
}

// BuildFAQSchema renders Q&A pairs as an FAQPage entity. Returns nil when
// there are no pairs to publish.
func BuildFAQSchema(pairs []signals.QA) json.RawMessage {
	if len(pairs) == 0 {
		return nil
	}
	page := faqPage{Context: schemaContext, Type: "FAQPage"}
	for _, qa := range pairs {
		page.MainEntity = append(page.MainEntity, question{
			Type:           "Question",
			Name:           qa.Question,
			AcceptedAnswer: answer{Type: "Answer", Text: qa.Answer},
		})
	}
	return marshalSchema(page)
}

// BuildLocalBusinessSchema renders a LocalBusiness entity from extracted NAP
// values. Returns nil when neither a phone nor an address was found.
func BuildLocalBusinessSchema(name, phone, address, pageURL string) json.RawMessage {
	if phone == "" && address == "" {
		return nil
	}
	return marshalSchema(localBusiness{
		Context:   schemaContext,
		Type:      "LocalBusiness",
		Name:      name,
		Telephone: phone,
		Address:   postalAddress{Type: "PostalAddress", StreetAddress: address},
		URL:       pageURL,
	})
}

// BuildProductSchema renders a minimal Product entity. Offer data (price,
// availability) is never included because it cannot be verified from the
// page alone.
func BuildProductSchema(name, brand, description string) json.RawMessage {
	if name == "" {
		return nil
	}
	return marshalSchema(product{
		Context:     schemaContext,
		Type:        "Product",
		Name:        name,
		Brand:       brand,
		Description: description,
	})
}

// BuildOrganizationSchema renders the site-wide Organization entity.
func BuildOrganizationSchema(name string) json.RawMessage {
	return marshalSchema(organization{Context: schemaContext, Type: "Organization", Name: name})
}
