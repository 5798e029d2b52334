package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterminism(t *testing.T) {
	v := map[string]any{
		"sql":    `SELECT * FROM "Customers" WHERE "City" = @p0`,
		"params": []Value{String("London")},
	}

	id1, err := Fingerprint(DomainCommand, v)
	require.NoError(t, err)

	id2, err := Fingerprint(DomainCommand, v)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "Fingerprint must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestFingerprintChangesWithInput(t *testing.T) {
	base := map[string]any{"sql": "SELECT 1", "params": []Value{Int(1)}}
	otherParam := map[string]any{"sql": "SELECT 1", "params": []Value{Int(2)}}
	otherKind := map[string]any{"sql": "SELECT 1", "params": []Value{String("1")}}

	id1, err := Fingerprint(DomainCommand, base)
	require.NoError(t, err)
	id2, err := Fingerprint(DomainCommand, otherParam)
	require.NoError(t, err)
	id3, err := Fingerprint(DomainCommand, otherKind)
	require.NoError(t, err)
	id4, err := Fingerprint("other/v1", base)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2, "Different parameter values should produce different fingerprints")
	assert.NotEqual(t, id1, id3, "An int and a string with the same text should differ")
	assert.NotEqual(t, id1, id4, "Different domains should produce different fingerprints")
}

func TestFingerprintKeyOrderIndependent(t *testing.T) {
	// Canonical JSON sorts keys, so construction order cannot matter.
	a := map[string]any{}
	a["x"] = Int(1)
	a["y"] = String("z")
	b := map[string]any{}
	b["y"] = String("z")
	b["x"] = Int(1)

	id1, err := Fingerprint(DomainCommand, a)
	require.NoError(t, err)
	id2, err := Fingerprint(DomainCommand, b)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestHashWithDomainSeparator(t *testing.T) {
	// Without the separator "ab"+"c" and "a"+"bc" would collide.
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestFingerprintUnsupportedValue(t *testing.T) {
	_, err := Fingerprint(DomainCommand, make(chan int))
	require.Error(t, err)
}
