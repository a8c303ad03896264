package dedupledger

import (
	"crypto/sha1" //nolint:gosec
	"encoding/binary"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashOf(s string) Hash {
	return sha1.Sum([]byte(s)) //nolint:gosec
}

func TestAppendAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	h1 := hashOf("vless://a@1.1.1.1:443")
	h2 := hashOf("trojan://b@2.2.2.2:443")

	require.NoError(t, l.Append([]Hash{h1}))
	require.NoError(t, l.Append([]Hash{h1, h2})) // h1 is a duplicate write

	set, err := l.Load()
	require.NoError(t, err)
	assert.Len(t, set, 2)
	_, ok1 := set[h1]
	_, ok2 := set[h2]
	assert.True(t, ok1)
	assert.True(t, ok2)
}

func TestAppendDuplicateDoesNotGrowFile(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	h1 := hashOf("x")

	require.NoError(t, l.Append([]Hash{h1}))
	fi1, err := os.Stat(dir + "/tested.bin")
	require.NoError(t, err)

	require.NoError(t, l.Append([]Hash{h1}))
	fi2, err := os.Stat(dir + "/tested.bin")
	require.NoError(t, err)

	assert.Equal(t, fi1.Size(), fi2.Size())
}

func TestMigrateConvertsTextToBinary(t *testing.T) {
	dir := t.TempDir()
	h1 := hashOf("legacy-entry")
	textPath := dir + "/tested.txt"
	require.NoError(t, os.WriteFile(textPath, []byte(hexOf(h1)+"\n"), 0o644))

	l := New(dir)
	l.Migrate()

	_, err := os.Stat(dir + "/tested.bin")
	assert.NoError(t, err)
	_, err = os.Stat(textPath)
	assert.True(t, os.IsNotExist(err))

	set, err := l.Load()
	require.NoError(t, err)
	_, ok := set[h1]
	assert.True(t, ok)
}

func TestRotationPreservesUnion(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	// Pre-size the active binary segment past the rotation threshold.
	f, err := os.Create(dir + "/tested.bin")
	require.NoError(t, err)
	require.NoError(t, f.Truncate(rotateThreshold+1))
	require.NoError(t, f.Close())

	before, err := l.Load()
	require.NoError(t, err)

	h1 := hashOf("new-after-rotation")
	require.NoError(t, l.Append([]Hash{h1}))

	_, err = os.Stat(dir + "/tested_1.bin")
	assert.NoError(t, err, "expected rotation to create tested_1.bin")

	after, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, len(before)+1, len(after))
	_, ok := after[h1]
	assert.True(t, ok)
}

func TestCleanupDropsOldEntries(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	h1 := hashOf("old")
	h2 := hashOf("new")

	// One record stamped ten days ago and one stamped now.
	now := time.Now().Unix()
	var buf []byte
	for _, r := range []struct {
		ts int64
		h  Hash
	}{{now - 10*24*3600, h1}, {now, h2}} {
		var rec [8 + digestSize]byte
		binary.BigEndian.PutUint64(rec[:8], uint64(r.ts))
		copy(rec[8:], r.h[:])
		buf = append(buf, rec[:]...)
	}
	require.NoError(t, os.WriteFile(dir+"/tested.bin", buf, 0o644))

	require.NoError(t, l.Cleanup(1))

	set, err := l.Load()
	require.NoError(t, err)
	assert.Len(t, set, 1)
	_, okOld := set[h1]
	_, okNew := set[h2]
	assert.False(t, okOld)
	assert.True(t, okNew)
}

func hexOf(h Hash) string {
	const hextable = "0123456789abcdef"
	buf := make([]byte, len(h)*2)
	for i, b := range h {
		buf[i*2] = hextable[b>>4]
		buf[i*2+1] = hextable[b&0x0f]
	}
	return string(buf)
}
