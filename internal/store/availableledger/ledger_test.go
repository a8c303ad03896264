package availableledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakha1370/openray/internal/domain/proxy"
	"github.com/sakha1370/openray/internal/uriparse"
)

func TestLedgerAppendAssignsRemark(t *testing.T) {
	dir := t.TempDir()
	l := New(filepath.Join(dir, "all_valid_proxies.txt"))

	written, err := l.Append(proxy.URI("trojan://pw@1.2.3.4:443?security=tls#old"), "US")
	require.NoError(t, err)
	_, remark := uriparse.StripFragment(written)
	assert.Equal(t, "[OpenRay] 🇺🇸 US-1", remark)

	entries, err := l.Load()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLedgerAppendDeduplicatesByCanonicalForm(t *testing.T) {
	dir := t.TempDir()
	l := New(filepath.Join(dir, "all_valid_proxies.txt"))

	first, err := l.Append(proxy.URI("trojan://pw@1.2.3.4:443?security=tls#a"), "US")
	require.NoError(t, err)

	second, err := l.Append(proxy.URI("trojan://pw@1.2.3.4:443?security=tls#b"), "US")
	require.NoError(t, err)

	assert.Equal(t, first, second)

	entries, err := l.Load()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLedgerNextCounterIsPerCountry(t *testing.T) {
	dir := t.TempDir()
	l := New(filepath.Join(dir, "all_valid_proxies.txt"))

	_, err := l.Append(proxy.URI("trojan://pw@1.2.3.4:443?security=tls#a"), "US")
	require.NoError(t, err)
	_, err = l.Append(proxy.URI("trojan://pw@5.6.7.8:443?security=tls#b"), "US")
	require.NoError(t, err)
	third, err := l.Append(proxy.URI("trojan://pw@9.9.9.9:443?security=tls#c"), "GB")
	require.NoError(t, err)

	assert.Contains(t, string(third), "GB-1")
}

func TestLedgerReplaceAllOverwrites(t *testing.T) {
	dir := t.TempDir()
	l := New(filepath.Join(dir, "all_valid_proxies.txt"))

	_, err := l.Append(proxy.URI("trojan://pw@1.2.3.4:443?security=tls#a"), "US")
	require.NoError(t, err)

	err = l.ReplaceAll([]proxy.URI{"ss://abc@1.1.1.1:1#kept"})
	require.NoError(t, err)

	entries, err := l.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, proxy.URI("ss://abc@1.1.1.1:1#kept"), entries[0])
}

func TestRegroupByCountryKeepsFirstSeenOrder(t *testing.T) {
	entries := []proxy.URI{
		"trojan://a@1.1.1.1:1#%5BOpenRay%5D%20%F0%9F%87%BA%F0%9F%87%B8%20US-1",
		"trojan://b@2.2.2.2:2#%5BOpenRay%5D%20%F0%9F%87%AC%F0%9F%87%A7%20GB-1",
		"trojan://c@3.3.3.3:3#%5BOpenRay%5D%20%F0%9F%87%BA%F0%9F%87%B8%20US-2",
	}
	got := RegroupByCountry(entries)
	require.Len(t, got, 3)
	assert.Equal(t, entries[0], got[0])
	assert.Equal(t, entries[2], got[1])
	assert.Equal(t, entries[1], got[2])
}
