package tenantsql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseName(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		audience string
		want     string
	}{
		{"plain", "", "acme", "acme"},
		{"with prefix", "org_", "acme", "org_acme"},
		{"underscores kept", "", "acme_school", "acme_school"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DatabaseName(tt.prefix, tt.audience)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDatabaseName_LossyGetsHashSuffix(t *testing.T) {
	a, err := DatabaseName("", "Acme.School")
	require.NoError(t, err)
	b, err := DatabaseName("", "acme-school")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "acme_school_"), a)
	assert.True(t, strings.HasPrefix(b, "acme_school_"), b)
	assert.NotEqual(t, a, b, "distinct audiences must not share a database")
	assert.Len(t, a, len("acme_school_")+8)

	// Determinístico.
	again, _ := DatabaseName("", "Acme.School")
	assert.Equal(t, a, again)
}

func TestDatabaseName_LeadingDigit(t *testing.T) {
	got, err := DatabaseName("", "123456789.apps.googleusercontent.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "t_123456789_apps_"), got)
	assert.LessOrEqual(t, len(got), maxIdentLen)
}

func TestDatabaseName_Truncates(t *testing.T) {
	long := strings.Repeat("a", 100)
	got, err := DatabaseName("", long)
	require.NoError(t, err)
	assert.Len(t, got, maxIdentLen)

	other, err := DatabaseName("", long+"b")
	require.NoError(t, err)
	assert.NotEqual(t, got, other)
}

func TestDatabaseName_Invalid(t *testing.T) {
	for _, aud := range []string{"", "   ", "...", "--"} {
		_, err := DatabaseName("", aud)
		assert.ErrorIs(t, err, ErrInvalidAudience, "audience %q", aud)
	}
}
