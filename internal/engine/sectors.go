package engine

import (
	"os"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SectorGroups maps related sector keywords into affinity groups: two labels
// that fall in the same group count as a related-sector match. The table is
// built once (defaults or a YAML file) and never mutated afterwards.
type SectorGroups struct {
	groups [][]string
}

// DefaultSectorGroups returns the built-in keyword groupings covering the
// common startup sectors in the catalog.
func DefaultSectorGroups() SectorGroups {
	return SectorGroups{groups: [][]string{
		{"ev", "electric vehicle", "mobility", "battery", "automotive"},
		{"ai", "artificial intelligence", "ml", "machine learning", "deep tech", "data"},
		{"fintech", "finance", "banking", "payments", "insurance", "lending"},
		{"agritech", "agriculture", "farming", "food processing", "dairy"},
		{"health", "healthcare", "healthtech", "medical", "pharma", "biotech"},
		{"edtech", "education", "learning", "training", "skilling"},
		{"clean energy", "renewable", "solar", "green", "sustainability", "climate"},
		{"ecommerce", "retail", "d2c", "consumer", "marketplace", "logistics"},
	}}
}

// LoadSectorGroups reads keyword groups from a YAML file shaped as a list of
// string lists. Used to override the defaults per deployment.
func LoadSectorGroups(path string) (SectorGroups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SectorGroups{}, eris.Wrap(err, "sectors: read groups file")
	}

	var raw struct {
		Groups [][]string `yaml:"groups"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return SectorGroups{}, eris.Wrap(err, "sectors: parse groups file")
	}
	if len(raw.Groups) == 0 {
		return SectorGroups{}, eris.New("sectors: groups file defines no groups")
	}

	groups := make([][]string, 0, len(raw.Groups))
	for _, g := range raw.Groups {
		var clean []string
		for _, kw := range g {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				clean = append(clean, kw)
			}
		}
		if len(clean) > 1 {
			groups = append(groups, clean)
		}
	}
	return SectorGroups{groups: groups}, nil
}

// Related reports whether two lower-cased sector labels fall in the same
// keyword group. A label matches a group keyword by substring in either
// direction, so "electric vehicles" hits the "electric vehicle" keyword.
func (sg SectorGroups) Related(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	for _, group := range sg.groups {
		if containsLabel(group, a) && containsLabel(group, b) {
			return true
		}
	}
	return false
}

func containsLabel(group []string, label string) bool {
	for _, kw := range group {
		if labelMatches(label, kw) {
			return true
		}
	}
	return false
}

// labelMatches compares two lower-cased labels. An exact match always
// counts. Substring containment in either direction counts when the shorter
// label is long enough that the containment is not accidental, and short
// codes still match as whole tokens of the longer label: "ai" hits "ai/ml"
// and "ev" hits "ev charging", but neither hits the interior of "dairy".
func labelMatches(a, b string) bool {
	if a == b {
		return true
	}
	shorter, longer := a, b
	if len(b) < len(a) {
		shorter, longer = b, a
	}
	if len(shorter) >= 4 && strings.Contains(longer, shorter) {
		return true
	}
	for _, tok := range labelTokens(longer) {
		if tok == shorter {
			return true
		}
	}
	return false
}

func labelTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
