package uriparse

import "encoding/base64"

// decodeLenientBase64 tries the four common base64 dialects in order of
// likelihood for proxy-subscription payloads: URL-safe unpadded,
// standard unpadded, URL-safe padded, standard padded.
// DecodeLenientBase64 is the exported form of decodeLenientBase64, used
// by the Ingestor's subscription-body decoding rounds.
func DecodeLenientBase64(s string) ([]byte, error) {
	return decodeLenientBase64(s)
}

func decodeLenientBase64(s string) ([]byte, error) {
	if decoded, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.URLEncoding.DecodeString(s); err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(s)
}
