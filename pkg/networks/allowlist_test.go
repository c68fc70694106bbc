package networks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyAllowlistAllowsAll(t *testing.T) {
	a, err := NewAllowlist(nil)
	require.NoError(t, err)

	ok, err := a.Allowed("203.0.113.7")
	require.NoError(t, err)
	assert.True(t, ok)

	var nilList *Allowlist
	ok, _ = nilList.Allowed("203.0.113.7")
	assert.True(t, ok)
}

func TestAllowlist(t *testing.T) {
	a, err := NewAllowlist([]string{"10.0.0.0/8", "192.168.1.5", "fd00::/8"})
	require.NoError(t, err)

	tests := map[string]bool{
		"10.1.2.3":    true,
		"11.0.0.1":    false,
		"192.168.1.5": true,
		"192.168.1.6": false,
		"fd00::1":     true,
		"::1":         false,
		"not an ip":   false,
		"":            false,
	}
	for addr, want := range tests {
		got, err := a.Allowed(addr)
		require.NoError(t, err, addr)
		assert.Equal(t, want, got, addr)
	}
}

func TestAllowlistRejectsBadNetwork(t *testing.T) {
	_, err := NewAllowlist([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}
