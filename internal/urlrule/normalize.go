package urlrule

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL: lowercase scheme and host, fragment
// removed, path/query/userinfo preserved as given (spec §3).
//
// Only scheme and host are lowercased in the stored form; the path
// keeps the case the source presented (Open Question ii in spec §9,
// resolved in favor of the original's behavior — it lowercases paths
// only for matching purposes).
func Normalize(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	parsed.RawFragment = ""

	return parsed.String(), nil
}

// Defrag strips the #fragment portion of a URL without touching case,
// mirroring Python's urllib.parse.urldefrag. The content pipeline
// applies it to the requested URL before its visited check.
func Defrag(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed.String()
}

// Hash computes the stable uniqueness key for a normalized URL: the
// SHA-1 hex digest (spec §3).
func Hash(normalizedURL string) string {
	sum := sha1.Sum([]byte(normalizedURL))
	return hex.EncodeToString(sum[:])
}
