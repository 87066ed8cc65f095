// Package pseudo generates deterministic, shape-preserving pseudonyms.
//
// All randomness flows from a per-run master key derived with
// HKDF-SHA256 from the caller's secret, salted by the document scope: a
// BLAKE2b-256 hash of the raw text for per-document scope, or a fixed
// constant when cross-document consistency is enabled. Cluster keys and
// per-mention streams are derived with HMAC-SHA256 under strict domain
// separation, so the same (secret, scope, cluster, shape) always yields
// the same pseudonym and nothing is reversible.
//
// An empty secret still produces deterministic output via unkeyed
// hashing; that mode is predictable and suitable only for non-sensitive
// runs. Callers enforce require_secret at the boundary.
package pseudo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"io"
	"math/rand"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"

	"github.com/sdrasco/freedact/internal/cryptoutil"
)

// Domain separation labels.
const (
	nsMaster = "freedact/v1/master"
	nsEntity = "freedact/v1/entity"
	nsRNG    = "freedact/v1/rng"
)

// globalScope is the document scope used when cross-document consistency
// is enabled.
const globalScope = "GLOBAL"

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Seeder derives stable identifiers and reproducible random streams.
type Seeder struct {
	master []byte
	seeded bool // true when a non-empty secret was supplied
}

// DocScope returns the scope identifier for a document: its BLAKE2b-256
// hash for per-document scope, or the global constant.
func DocScope(rawText string, crossDoc bool) []byte {
	if crossDoc {
		return []byte(globalScope)
	}
	sum := blake2b.Sum256([]byte(rawText))
	return sum[:]
}

// NewSeeder derives the master key K = HKDF(secret, salt=scope). A nil or
// empty secret falls back to an unkeyed derivation from the scope alone.
func NewSeeder(secret, scope []byte) (*Seeder, error) {
	s := &Seeder{seeded: len(secret) > 0}
	if len(secret) == 0 {
		sum := sha256.Sum256(append([]byte(nsMaster+"\x00"), scope...))
		s.master = sum[:]
		return s, nil
	}
	r := hkdf.New(sha256.New, secret, scope, []byte(nsMaster))
	s.master = make([]byte, 32)
	if _, err := io.ReadFull(r, s.master); err != nil {
		return nil, err
	}
	return s, nil
}

// Seeded reports whether a non-empty secret was supplied.
func (s *Seeder) Seeded() bool { return s.seeded }

// Close zeroes the master key. The seeder is unusable afterwards.
func (s *Seeder) Close() {
	cryptoutil.Zero(s.master)
}

// CanonicalKey normalizes an entity key for hashing: trim, collapse
// whitespace runs, lowercase.
func CanonicalKey(key string) string {
	return strings.ToLower(strings.Join(strings.Fields(key), " "))
}

func (s *Seeder) derive(ns, kind, key string) []byte {
	mac := hmac.New(sha256.New, s.master)
	mac.Write([]byte(ns))
	mac.Write([]byte{0})
	mac.Write([]byte(kind))
	mac.Write([]byte{0})
	mac.Write([]byte(CanonicalKey(key)))
	return mac.Sum(nil)
}

// StableID returns a stable, non-reversible identifier token for key:
// lowercase base32 of HMAC(K, entity-ns || kind || canonical key),
// truncated to 20 characters.
func (s *Seeder) StableID(kind, key string) string {
	digest := s.derive(nsEntity, kind, key)
	return strings.ToLower(b32.EncodeToString(digest))[:20]
}

// ClusterKey derives the base key for a cluster from its kind and
// canonical form.
func (s *Seeder) ClusterKey(kind, canonical string) []byte {
	return s.derive(nsEntity, kind, canonical)
}

// RNG returns a reproducible random stream for (kind, key). The stream
// feeds fixture picks and digit choices only — it is not used as key
// material.
func (s *Seeder) RNG(kind, key string) *rand.Rand {
	digest := s.derive(nsRNG, kind, key)
	seed := int64(binary.BigEndian.Uint64(digest[:8]))
	return rand.New(rand.NewSource(seed))
}

// StreamRNG derives a mention-level stream from a cluster key, the
// mention's shape signature, and a retry salt.
func StreamRNG(clusterKey []byte, shapeSig string, retry int) *rand.Rand {
	mac := hmac.New(sha256.New, clusterKey)
	mac.Write([]byte(nsRNG))
	mac.Write([]byte{0})
	mac.Write([]byte(shapeSig))
	mac.Write([]byte{0, byte(retry)})
	digest := mac.Sum(nil)
	seed := int64(binary.BigEndian.Uint64(digest[:8]))
	return rand.New(rand.NewSource(seed))
}
