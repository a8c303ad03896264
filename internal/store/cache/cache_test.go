package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoCacheRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Get("1.2.3.4")
	assert.False(t, ok)

	s.Set("1.2.3.4", "US")
	cc, ok := s.Get("1.2.3.4")
	require.True(t, ok)
	assert.Equal(t, "US", cc)

	s.Set("1.2.3.4", "CA")
	cc, ok = s.Get("1.2.3.4")
	require.True(t, ok)
	assert.Equal(t, "CA", cc)
}

func TestDNSCacheRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.GetDNS("example.com")
	assert.False(t, ok)

	s.SetDNS("example.com", "93.184.216.34")
	ip, ok := s.GetDNS("example.com")
	require.True(t, ok)
	assert.Equal(t, "93.184.216.34", ip)
}
