//go:build !integration

package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startupbase/fundmatch/internal/engine"
)

// newProfileFlagsCmd mirrors the match command's flag definitions on a
// fresh flag set, so no flag values leak between tests.
func newProfileFlagsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	registerProfileFlags(cmd.Flags())
	return cmd
}

func TestProfileFlagsAreIsolated(t *testing.T) {
	first := newProfileFlagsCmd()
	require.NoError(t, first.Flags().Set("industry", "fintech"))

	// A second command starts from unset flags.
	second := newProfileFlagsCmd()
	v, err := second.Flags().GetString("industry")
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.False(t, second.Flags().Changed("industry"))
}

func TestBuildProfile_InlineFlags(t *testing.T) {
	cmd := newProfileFlagsCmd()
	require.NoError(t, cmd.Flags().Set("industry", "fintech"))
	require.NoError(t, cmd.Flags().Set("stage", "seed"))
	require.NoError(t, cmd.Flags().Set("funding", "₹20,00,000"))
	require.NoError(t, cmd.Flags().Set("state", "Karnataka"))
	require.NoError(t, cmd.Flags().Set("prefers-grant", "true"))
	require.NoError(t, cmd.Flags().Set("bank-types", "public, fintech"))
	require.NoError(t, cmd.Flags().Set("criteria", "dpiit,msme registration"))

	p, err := buildProfile(cmd)
	require.NoError(t, err)

	assert.Equal(t, "fintech", p.Industry)
	assert.Equal(t, "seed", p.Stage)
	require.NotNil(t, p.RequiredFunding)
	assert.Equal(t, int64(2_000_000), *p.RequiredFunding)
	assert.Equal(t, "Karnataka", p.RegisteredState)
	assert.True(t, p.PrefersGrant)
	assert.Equal(t, []string{"public", "fintech"}, p.PreferredBankTypes)
	assert.Equal(t, []string{"dpiit", "msme registration"}, p.SpecialCriteria)
}

func TestBuildProfile_FromJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "startup.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"industry": "agritech",
		"stage": "growth",
		"required_funding": 5000000,
		"registered_state": "Punjab"
	}`), 0o644))

	cmd := newProfileFlagsCmd()
	require.NoError(t, cmd.Flags().Set("profile", path))

	p, err := buildProfile(cmd)
	require.NoError(t, err)

	assert.Equal(t, "agritech", p.Industry)
	assert.Equal(t, "growth", p.Stage)
	require.NotNil(t, p.RequiredFunding)
	assert.Equal(t, int64(5_000_000), *p.RequiredFunding)
	assert.Equal(t, "Punjab", p.RegisteredState)
}

func TestBuildProfile_FromYAMLFile_FlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "startup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
industry: edtech
stage: idea
registered_state: Kerala
`), 0o644))

	cmd := newProfileFlagsCmd()
	require.NoError(t, cmd.Flags().Set("profile", path))
	require.NoError(t, cmd.Flags().Set("state", "Tamil Nadu"))

	p, err := buildProfile(cmd)
	require.NoError(t, err)

	assert.Equal(t, "edtech", p.Industry)
	// Inline flags win over file fields.
	assert.Equal(t, "Tamil Nadu", p.RegisteredState)
}

func TestBuildProfile_MissingFile(t *testing.T) {
	cmd := newProfileFlagsCmd()
	require.NoError(t, cmd.Flags().Set("profile", filepath.Join(t.TempDir(), "nope.json")))

	_, err := buildProfile(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read profile")
}

func TestOutputResults_CSVToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	results := []engine.MatchResult{{
		TargetEntityID: "e-ka",
		TargetName:     "Karnataka",
		Score:          91,
		Explanation:    []engine.FactorScore{{Factor: "sector", Value: 40, Weight: 0.4}},
	}}

	require.NoError(t, outputResults(results, "csv", path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Karnataka", rows[1][1])
	assert.Equal(t, "91", rows[1][2])
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim("a, b"))
	assert.Equal(t, []string{"public"}, splitAndTrim("public,"))
	assert.Nil(t, splitAndTrim(" , "))
}
