// Package engine ranks funding catalogs against a startup profile. It is a
// pure transform: (profile, entities, records) in, ordered match results out.
// No I/O, no shared state, safe for concurrent use.
package engine

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrEmptyProfile is returned when a match is requested for a profile that
// carries no usable fields at all.
var ErrEmptyProfile = eris.New("engine: profile is empty")

// Profile describes the startup asking for a funding shortlist. All fields
// are optional individually; a profile with nothing set is rejected.
type Profile struct {
	Industry           string   `json:"industry"`
	Stage              string   `json:"stage"`
	RequiredFunding    *int64   `json:"required_funding,omitempty"`
	RegisteredState    string   `json:"registered_state,omitempty"`
	PrefersGrant       bool     `json:"prefers_grant"`
	PreferredBankTypes []string `json:"preferred_bank_types,omitempty"`
	SpecialCriteria    []string `json:"special_criteria,omitempty"`
	ServicesNeeded     []string `json:"services_needed,omitempty"`

	// Lower-cased copies for comparison. Original casing is kept above for
	// explanation text. Populated by Normalize.
	industryLower  string
	stateLower     string
	bankTypesLower []string
	criteriaLower  []string
}

// Normalize returns a canonical copy of the profile: trimmed fields,
// lower-cased comparison copies, and a nil RequiredFunding for non-positive
// amounts. An empty profile is the only rejected input.
func Normalize(p *Profile) (*Profile, error) {
	if p == nil {
		return nil, ErrEmptyProfile
	}

	n := *p
	n.Industry = strings.TrimSpace(n.Industry)
	n.Stage = strings.TrimSpace(n.Stage)
	n.RegisteredState = strings.TrimSpace(n.RegisteredState)

	if n.RequiredFunding != nil && *n.RequiredFunding <= 0 {
		n.RequiredFunding = nil
	}

	if n.Industry == "" && n.Stage == "" && n.RequiredFunding == nil &&
		n.RegisteredState == "" && !n.PrefersGrant &&
		len(n.PreferredBankTypes) == 0 && len(n.SpecialCriteria) == 0 &&
		len(n.ServicesNeeded) == 0 {
		return nil, ErrEmptyProfile
	}

	n.industryLower = strings.ToLower(n.Industry)
	n.stateLower = strings.ToLower(n.RegisteredState)
	n.bankTypesLower = lowerAll(n.PreferredBankTypes)
	n.criteriaLower = lowerAll(append(append([]string{}, n.SpecialCriteria...), n.ServicesNeeded...))

	return &n, nil
}

func lowerAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, strings.ToLower(s))
		}
	}
	return out
}

// CoerceFunding converts a loosely-typed funding amount (JSON number,
// numeric string with currency marks or separators) into smallest-unit
// rupees. Anything non-numeric or non-positive yields nil, which downstream
// scorers treat as "funding size unknown" rather than zero.
func CoerceFunding(v any) *int64 {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return positive(int64(x))
	case int64:
		return positive(x)
	case float64:
		return positive(int64(x))
	case string:
		// Digits after a decimal point are fractional, not more rupees:
		// "2,500,000.75" must not read as 250000075.
		if i := strings.IndexByte(x, '.'); i >= 0 {
			x = x[:i]
		}
		s := strings.Map(func(r rune) rune {
			switch {
			case r >= '0' && r <= '9', r == '-':
				return r
			default:
				return -1
			}
		}, x)
		if s == "" {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil
		}
		return positive(n)
	default:
		return nil
	}
}

func positive(n int64) *int64 {
	if n <= 0 {
		return nil
	}
	return &n
}
