// Package cryptoutil holds small helpers shared by the pseudonym
// generator and the audit signer.
package cryptoutil

import (
	"encoding/hex"
	"fmt"
)

// IsHexString reports whether s consists entirely of hexadecimal
// characters (0-9, a-f, A-F). It returns true for an empty string —
// callers should check length separately when a minimum size is required.
func IsHexString(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// ResolveKey interprets key material as raw bytes or hex. A string of 64+
// even hex characters is decoded; anything else is used verbatim. The
// decoded or raw result must be at least minBytes long.
func ResolveKey(key string, minBytes int) ([]byte, error) {
	if len(key) >= 64 && len(key)%2 == 0 && IsHexString(key) {
		decoded, err := hex.DecodeString(key)
		if err != nil {
			return nil, fmt.Errorf("key hex decode: %w", err)
		}
		if len(decoded) < minBytes {
			return nil, fmt.Errorf("hex key must decode to at least %d bytes (got %d)", minBytes, len(decoded))
		}
		return decoded, nil
	}
	if len(key) < minBytes {
		return nil, fmt.Errorf("key must be at least %d bytes (got %d)", minBytes, len(key))
	}
	return []byte(key), nil
}

// Zero overwrites b so key material does not linger once a scope exits.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
