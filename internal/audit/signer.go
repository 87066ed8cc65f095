package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/sdrasco/freedact/internal/cryptoutil"
)

// Signer creates and verifies HMAC-SHA256 signatures over audit records.
type Signer struct {
	key []byte
}

// NewSigner accepts a key of at least 32 raw bytes, or 64+ hex
// characters decoding to at least 32 bytes.
func NewSigner(key string) (*Signer, error) {
	keyBytes, err := cryptoutil.ResolveKey(key, 32)
	if err != nil {
		return nil, err
	}
	return &Signer{key: keyBytes}, nil
}

// Sign returns the HMAC-SHA256 signature for data.
func (s *Signer) Sign(data []byte) (string, error) {
	h := hmac.New(sha256.New, s.key)
	if _, err := h.Write(data); err != nil {
		return "", err
	}
	return "hmac-sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

// Verify reports whether signature matches data.
func (s *Signer) Verify(data []byte, signature string) bool {
	expected, err := s.Sign(data)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(signature))
}
