package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrInt64(v int64) *int64       { return &v }
func ptrFloat64(v float64) *float64 { return &v }

func TestCoerceFunding(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *int64
	}{
		{"nil", nil, nil},
		{"int", 2000000, ptrInt64(2000000)},
		{"int64", int64(500), ptrInt64(500)},
		{"json number", float64(2500000), ptrInt64(2500000)},
		{"plain string", "2000000", ptrInt64(2000000)},
		{"grouped string", "2,000,000", ptrInt64(2000000)},
		{"currency string", "₹2,000,000", ptrInt64(2000000)},
		{"decimal string truncates", "2,500,000.75", ptrInt64(2500000)},
		{"bare decimal", "2.5", ptrInt64(2)},
		{"leading decimal", ".75", nil},
		{"non-numeric", "about two lakh", nil},
		{"empty string", "", nil},
		{"negative", -5, nil},
		{"zero", 0, nil},
		{"bool", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceFunding(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestNormalizeRejectsEmptyProfile(t *testing.T) {
	_, err := Normalize(nil)
	assert.ErrorIs(t, err, ErrEmptyProfile)

	_, err = Normalize(&Profile{})
	assert.ErrorIs(t, err, ErrEmptyProfile)

	// Whitespace-only fields count as empty.
	_, err = Normalize(&Profile{Industry: "  ", RegisteredState: "\t"})
	assert.ErrorIs(t, err, ErrEmptyProfile)
}

func TestNormalizeCanonicalizes(t *testing.T) {
	p := &Profile{
		Industry:        "  FinTech ",
		Stage:           "seed",
		RegisteredState: "Karnataka",
		RequiredFunding: ptrInt64(2_000_000),
	}

	n, err := Normalize(p)
	require.NoError(t, err)

	// Original casing survives for explanation text.
	assert.Equal(t, "FinTech", n.Industry)
	assert.Equal(t, "Karnataka", n.RegisteredState)
	assert.Equal(t, "fintech", n.industryLower)
	assert.Equal(t, "karnataka", n.stateLower)

	// The input profile is untouched.
	assert.Equal(t, "  FinTech ", p.Industry)
}

func TestNormalizeDropsNonPositiveFunding(t *testing.T) {
	n, err := Normalize(&Profile{Industry: "AI", RequiredFunding: ptrInt64(-100)})
	require.NoError(t, err)
	assert.Nil(t, n.RequiredFunding)
}

func TestNormalizeLowersBankPreferences(t *testing.T) {
	n, err := Normalize(&Profile{
		Industry:           "AI",
		PreferredBankTypes: []string{" Public ", "NBFC"},
		SpecialCriteria:    []string{"Women Founder"},
		ServicesNeeded:     []string{"Working Capital"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"public", "nbfc"}, n.bankTypesLower)
	assert.Equal(t, []string{"women founder", "working capital"}, n.criteriaLower)
}
