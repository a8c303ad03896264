package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/sakha1370/openray/internal/uriparse"
)

// maxRounds is the number of lenient base64 decode attempts tried
// before giving up.
const maxRounds = 2

// decodeBody implements the Ingestor's decoding algorithm: if hinted,
// try up to maxRounds base64 rounds and return the first that passes
// hasURI, else the raw body; if not hinted, return raw immediately when
// it already passes hasURI, else fall through to the same base64
// attempt.
func decodeBody(raw []byte, base64Hinted bool) string {
	rawText := string(raw)

	if !base64Hinted && uriparse.HasURI(rawText) {
		return rawText
	}

	text := rawText
	for round := 0; round < maxRounds; round++ {
		decoded, ok := tryDecode(text)
		if !ok {
			break
		}
		if uriparse.HasURI(decoded) {
			return decoded
		}
		text = decoded
	}

	return rawText
}

// tryDecode strips whitespace and attempts one lenient base64 round,
// requiring the result to be valid UTF-8 text.
func tryDecode(s string) (string, bool) {
	trimmed := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' || r == ' ' {
			return -1
		}
		return r
	}, s)
	if trimmed == "" {
		return "", false
	}
	decoded, err := uriparse.DecodeLenientBase64(trimmed)
	if err != nil || !utf8.Valid(decoded) {
		return "", false
	}
	return string(decoded), true
}
