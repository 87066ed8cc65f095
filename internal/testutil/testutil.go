// Package testutil provides shared helpers and fixed keys for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/sdrasco/freedact/internal/audit"
)

// Test key material, for tests only.
const (
	TestSecret     = "test-pseudonym-secret"
	TestSigningKey = "test-signing-key-0123456789abcdef"
)

// NewAuditStore creates an audit store in a temp dir and registers
// cleanup.
func NewAuditStore(t *testing.T) *audit.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := audit.NewStore(filepath.Join(dir, "audit.db"), TestSigningKey)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
