// Package duplicates detects the same SSN appearing across profiles of
// different users. Detection is a best-effort fraud signal, not a uniqueness
// constraint: it never blocks the pipeline by itself.
package duplicates

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	dErrors "idproof/pkg/domain-errors"
)

// NormalizeSSN strips every non-digit so dash placement never changes the
// computed fingerprint: 123-45-6789, 123456789, and 12345-6789 all
// fingerprint identically.
func NormalizeSSN(ssn string) string {
	var b strings.Builder
	for _, r := range ssn {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// KeyRing is the ordered list of HMAC keys, current key first. Old keys stay
// on the ring so fingerprints written before a rotation still match; how long
// to retain them is an operational decision made outside this package.
type KeyRing []string

// NewKeyRing validates the configured key list.
func NewKeyRing(keys []string) (KeyRing, error) {
	if len(keys) == 0 {
		return nil, dErrors.New(dErrors.CodeConfiguration, "ssn fingerprint key ring is empty")
	}
	for _, k := range keys {
		if k == "" {
			return nil, dErrors.New(dErrors.CodeConfiguration, "ssn fingerprint key ring contains an empty key")
		}
	}
	return KeyRing(keys), nil
}

// Current fingerprints the SSN under the active signing key. New profiles are
// always written with this value.
func (r KeyRing) Current(ssn string) string {
	return fingerprint(r[0], NormalizeSSN(ssn))
}

// All fingerprints the SSN under every valid key, current first. Lookups use
// the full set so profiles written under rotated-out keys still match.
func (r KeyRing) All(ssn string) []string {
	normalized := NormalizeSSN(ssn)
	out := make([]string, 0, len(r))
	for _, key := range r {
		out = append(out, fingerprint(key, normalized))
	}
	return out
}

func fingerprint(key, normalizedSSN string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(normalizedSSN))
	return hex.EncodeToString(mac.Sum(nil))
}
