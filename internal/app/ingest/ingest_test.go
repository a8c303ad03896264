package ingest

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSources(t *testing.T) {
	text := "# comment\nhttps://a/sub\nhttps://b/sub,base64\n\nhttps://c/sub,base64,other\n"
	got := ParseSources(text)
	require.Len(t, got, 3)
	assert.False(t, got[0].Base64)
	assert.True(t, got[1].Base64)
	assert.True(t, got[2].Base64)
}

func TestDecodeBodyRawPassesThrough(t *testing.T) {
	raw := []byte("trojan://pw@1.2.3.4:443?security=tls#home")
	assert.Equal(t, string(raw), decodeBody(raw, false))
}

func TestDecodeBodyAutoDetectsBase64(t *testing.T) {
	plain := "trojan://pw@1.2.3.4:443?security=tls#home"
	encoded := base64.StdEncoding.EncodeToString([]byte(plain))
	assert.Equal(t, plain, decodeBody([]byte(encoded), false))
}

func TestDecodeBodyHintedBase64(t *testing.T) {
	plain := "vless://id@1.2.3.4:443?type=tcp#x"
	encoded := base64.URLEncoding.EncodeToString([]byte(plain))
	assert.Equal(t, plain, decodeBody([]byte(encoded), true))
}

func TestDecodeBodyGivesUpOnGarbage(t *testing.T) {
	raw := []byte("not a proxy list at all")
	assert.Equal(t, string(raw), decodeBody(raw, false))
}

func TestFetchAllExtractsAndIsolatesFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("trojan://pw@1.2.3.4:443?security=tls#a"))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	ing := New(Config{FetchWorkers: 4, FetchTimeout: 2 * time.Second}, nil)
	sources := []Source{{URL: good.URL}, {URL: bad.URL}}
	results := ing.FetchAll(context.Background(), sources)

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.Len(t, results[0].URIs, 1)
	assert.Error(t, results[1].Err)
	assert.Empty(t, results[1].URIs)
}
