package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakha1370/openray/internal/domain/proxy"
	"github.com/sakha1370/openray/internal/store/dedupledger"
)

func TestDedupNewSkipsTestedAndDuplicates(t *testing.T) {
	a := proxy.URI("vless://a@host:443")
	b := proxy.URI("vless://b@host:443")
	tested := map[dedupledger.Hash]struct{}{a.Hash(): {}}

	newURIs, newHashes := dedupNew([]proxy.URI{a, b, b}, tested)

	assert.Equal(t, []proxy.URI{b}, newURIs)
	assert.Equal(t, []dedupledger.Hash{b.Hash()}, newHashes)
}

func TestTruncateNewURIsKeepsPrefixInLockstep(t *testing.T) {
	uris := []proxy.URI{"a", "b", "c"}
	hashes := []dedupledger.Hash{{1}, {2}, {3}}

	outURIs, outHashes := truncateNewURIs(uris, hashes, 2)

	assert.Equal(t, []proxy.URI{"a", "b"}, outURIs)
	assert.Equal(t, []dedupledger.Hash{{1}, {2}}, outHashes)
}

func TestTruncateNewURIsNoopWhenUnderLimit(t *testing.T) {
	uris := []proxy.URI{"a", "b"}
	hashes := []dedupledger.Hash{{1}, {2}}

	outURIs, outHashes := truncateNewURIs(uris, hashes, 10)

	assert.Equal(t, uris, outURIs)
	assert.Equal(t, hashes, outHashes)
}

func TestUniqueHostsPreservesFirstSeenOrder(t *testing.T) {
	parsed := []proxy.Parsed{
		{Host: "a.example.com"},
		{Host: "b.example.com"},
		{Host: "a.example.com"},
	}

	assert.Equal(t, []string{"a.example.com", "b.example.com"}, uniqueHosts(parsed))
}

func TestWorkerCountClampsToAtLeastOne(t *testing.T) {
	assert.Equal(t, 1, workerCount(0))
	assert.Equal(t, 1, workerCount(-5))
	assert.Equal(t, 8, workerCount(8))
}
