package signals

import (
	"net/url"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

// Locator resolves geographic signals from page content and URLs using two
// closed lookup tables: a city gazetteer and a TLD-to-country map. Both are
// configuration data, not logic — ship a different YAML file to retarget the
// detector to another market. Places outside the tables are simply not
// detected; that is expected.
type Locator struct {
	cities       []string // lowercased, sorted for deterministic first-match
	tldCountries map[string]string
}

// LocatorConfig is the on-disk shape of a locator table.
type LocatorConfig struct {
	Cities       []string          `yaml:"cities"`
	TLDCountries map[string]string `yaml:"tld_countries"`
}

// euTLDCountries maps EU (plus UK) country-code TLDs to country names.
var euTLDCountries = map[string]string{
	"at": "Austria", "be": "Belgium", "bg": "Bulgaria", "hr": "Croatia",
	"cy": "Cyprus", "cz": "Czechia", "dk": "Denmark", "ee": "Estonia",
	"fi": "Finland", "fr": "France", "de": "Germany", "gr": "Greece",
	"hu": "Hungary", "ie": "Ireland", "it": "Italy", "lv": "Latvia",
	"lt": "Lithuania", "lu": "Luxembourg", "mt": "Malta", "nl": "Netherlands",
	"pl": "Poland", "pt": "Portugal", "ro": "Romania", "sk": "Slovakia",
	"si": "Slovenia", "es": "Spain", "se": "Sweden", "gb": "United Kingdom",
	"uk": "United Kingdom",
}

// euCities lists capitals and major cities per EU country, lowercased.
var euCities = []string{
	"vienna", "linz", "graz", "brussels", "antwerp", "sofia", "plovdiv",
	"zagreb", "split", "nicosia", "prague", "brno", "copenhagen", "aarhus",
	"tallinn", "helsinki", "tampere", "paris", "lyon", "marseille", "berlin",
	"munich", "hamburg", "athens", "thessaloniki", "budapest", "dublin",
	"rome", "milan", "naples", "riga", "vilnius", "kaunas", "luxembourg",
	"valletta", "amsterdam", "rotterdam", "eindhoven", "warsaw", "krakow",
	"wroclaw", "lisbon", "porto", "bucharest", "cluj", "bratislava",
	"kosice", "ljubljana", "madrid", "barcelona", "valencia", "stockholm",
	"gothenburg", "malmo", "london", "manchester", "birmingham",
}

// NewLocator builds a locator from explicit tables.
func NewLocator(cities []string, tldCountries map[string]string) *Locator {
	normalized := make([]string, 0, len(cities))
	for _, c := range cities {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			normalized = append(normalized, c)
		}
	}
	sort.Strings(normalized)

	tlds := make(map[string]string, len(tldCountries))
	for tld, country := range tldCountries {
		tlds[strings.ToLower(strings.TrimSpace(tld))] = country
	}

	return &Locator{cities: normalized, tldCountries: tlds}
}

// DefaultLocator returns a locator configured for the EU market.
func DefaultLocator() *Locator {
	return NewLocator(euCities, euTLDCountries)
}

// LoadLocator reads a locator table from a YAML file.
func LoadLocator(path string) (*Locator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg LocatorConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return NewLocator(cfg.Cities, cfg.TLDCountries), nil
}

// City returns the first gazetteer city mentioned in the text, or "".
// Matching is case-insensitive; first match in sorted city order wins.
func (l *Locator) City(text string) string {
	text = strings.ToLower(text)
	for _, city := range l.cities {
		if strings.Contains(text, city) {
			return city
		}
	}
	return ""
}

// CountryForURL resolves the page URL's final domain-suffix label against
// the TLD table. Unknown or unparseable URLs resolve to "".
func (l *Locator) CountryForURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		return ""
	}
	labels := strings.Split(host, ".")
	tld := strings.ToLower(labels[len(labels)-1])
	return l.tldCountries[tld]
}

// Locate combines the city and country signals with OR semantics: a page
// has a geographic signal if either its content mentions a known city or
// its domain carries a known country TLD.
func (l *Locator) Locate(title, description string, keywords []string, pageURL string) (hasGeo bool, city, country string) {
	blob := title + " " + description + " " + strings.Join(keywords, " ")
	city = l.City(blob)
	country = l.CountryForURL(pageURL)
	return city != "" || country != "", city, country
}
