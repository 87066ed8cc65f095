package pseudo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSeeder(t *testing.T) *Seeder {
	t.Helper()
	s, err := NewSeeder([]byte("test-secret"), DocScope("document body", false))
	require.NoError(t, err)
	return s
}

func TestDocScope(t *testing.T) {
	perDoc := DocScope("text one", false)
	assert.Len(t, perDoc, 32)
	assert.NotEqual(t, perDoc, DocScope("text two", false))
	assert.Equal(t, perDoc, DocScope("text one", false))

	assert.Equal(t, []byte("GLOBAL"), DocScope("anything", true))
}

func TestStableIDDeterministic(t *testing.T) {
	s1 := newTestSeeder(t)
	s2 := newTestSeeder(t)
	id1 := s1.StableID("ENTITY_CLUSTER", "John Doe")
	id2 := s2.StableID("ENTITY_CLUSTER", "John Doe")
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 20)

	// Canonicalization folds case and whitespace.
	assert.Equal(t, id1, s1.StableID("ENTITY_CLUSTER", "  john   DOE "))
	assert.NotEqual(t, id1, s1.StableID("ENTITY_CLUSTER", "Jane Doe"))
	assert.NotEqual(t, id1, s1.StableID("OTHER_KIND", "John Doe"))
}

func TestSecretChangesIDs(t *testing.T) {
	scope := DocScope("doc", false)
	a, err := NewSeeder([]byte("secret-a"), scope)
	require.NoError(t, err)
	b, err := NewSeeder([]byte("secret-b"), scope)
	require.NoError(t, err)
	assert.NotEqual(t, a.StableID("K", "v"), b.StableID("K", "v"))
	assert.True(t, a.Seeded())
}

func TestUnseededFallback(t *testing.T) {
	s, err := NewSeeder(nil, DocScope("doc", false))
	require.NoError(t, err)
	assert.False(t, s.Seeded())
	assert.Equal(t, s.StableID("K", "v"), s.StableID("K", "v"))
}

func TestRNGReproducible(t *testing.T) {
	s := newTestSeeder(t)
	r1 := s.RNG("PERSON", "john doe")
	r2 := s.RNG("PERSON", "john doe")
	for i := 0; i < 10; i++ {
		assert.Equal(t, r1.Intn(1000), r2.Intn(1000))
	}
	r3 := s.RNG("PERSON", "jane doe")
	// Different key gives an independent stream (first draw almost
	// certainly differs; equality of the full prefix would be a bug).
	same := true
	a := s.RNG("PERSON", "john doe")
	for i := 0; i < 10; i++ {
		if a.Intn(1000) != r3.Intn(1000) {
			same = false
			break
		}
	}
	assert.False(t, same)
}

func TestStreamRNGRetrySalt(t *testing.T) {
	key := []byte("cluster-key-material")
	a := StreamRNG(key, "sig", 0)
	b := StreamRNG(key, "sig", 1)
	diff := false
	for i := 0; i < 10; i++ {
		if a.Intn(1000) != b.Intn(1000) {
			diff = true
			break
		}
	}
	assert.True(t, diff)
}

func TestSignature(t *testing.T) {
	assert.Equal(t, Signature("John Doe"), Signature("Mary Sue"))
	assert.NotEqual(t, Signature("John Doe"), Signature("JOHN DOE"))
	assert.NotEqual(t, Signature("J. Doe"), Signature("Jo Doe"))
	assert.Equal(t, "title:aaa-9", Signature("Apt-4"))
}
