package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDomain(t *testing.T) {
	d, err := ParseDomain("schemes")
	require.NoError(t, err)
	assert.Equal(t, DomainSchemes, d)

	d, err = ParseDomain("banks")
	require.NoError(t, err)
	assert.Equal(t, DomainBanks, d)

	_, err = ParseDomain("everything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown domain")
}
