package digest_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/aivcs/internal/digest"
)

func TestCanonicalJSONIntegerFloat(t *testing.T) {
	canonical, err := digest.CanonicalJSON(map[string]interface{}{"value": 1.0})
	require.NoError(t, err)
	assert.Equal(t, `{"value":1}`, canonical)
}

func TestCanonicalJSONNegativeFloat(t *testing.T) {
	canonical, err := digest.CanonicalJSON(map[string]interface{}{"value": -1.0})
	require.NoError(t, err)
	assert.Equal(t, `{"value":-1}`, canonical)
}

func TestCanonicalJSONFractionalFloatPassesThrough(t *testing.T) {
	canonical, err := digest.CanonicalJSON(map[string]interface{}{"value": 1.5})
	require.NoError(t, err)
	assert.Equal(t, `{"value":1.5}`, canonical)
}

func TestCanonicalJSONHandlesNull(t *testing.T) {
	canonical, err := digest.CanonicalJSON(map[string]interface{}{"value": nil})
	require.NoError(t, err)
	assert.Equal(t, `{"value":null}`, canonical)
}

func TestCanonicalJSONFieldOrderInvariant(t *testing.T) {
	a, err := digest.CanonicalJSON(map[string]interface{}{"a": 1.0, "b": 2.0, "c": 3.0})
	require.NoError(t, err)
	b, err := digest.CanonicalJSON(map[string]interface{}{"c": 3.0, "a": 1.0, "b": 2.0})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanonicalJSONNestedFieldOrderInvariant(t *testing.T) {
	a, err := digest.CanonicalJSON(map[string]interface{}{
		"outer": map[string]interface{}{"z": 1.0, "y": 2.0, "x": 3.0},
	})
	require.NoError(t, err)
	b, err := digest.CanonicalJSON(map[string]interface{}{
		"outer": map[string]interface{}{"x": 3.0, "y": 2.0, "z": 1.0},
	})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanonicalJSONArrayOrderPreserved(t *testing.T) {
	a, err := digest.CanonicalJSON(map[string]interface{}{"array": []interface{}{3.0, 1.0, 2.0}})
	require.NoError(t, err)
	b, err := digest.CanonicalJSON(map[string]interface{}{"array": []interface{}{1.0, 2.0, 3.0}})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCanonicalJSONRejectsNaNAndInfinity(t *testing.T) {
	_, err := digest.CanonicalJSON(map[string]interface{}{"value": math.NaN()})
	assert.Error(t, err)
	_, err = digest.CanonicalJSON(map[string]interface{}{"value": math.Inf(1)})
	assert.Error(t, err)
}

func TestComputeDigestGoldenValue(t *testing.T) {
	input := map[string]interface{}{"name": "test", "version": "1.0.0"}
	d1, err := digest.ComputeDigest(input)
	require.NoError(t, err)
	assert.Len(t, d1, 64)
	assert.Equal(t, "55996d4e16775131502bf8df7cb40d6ee00ab82aae087e45ad23c72e641ff399", d1)
	d2, err := digest.ComputeDigest(input)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestComputeDigestSingleFieldDelta(t *testing.T) {
	d1, err := digest.ComputeDigest(map[string]interface{}{"name": "test", "version": "1.0.0"})
	require.NoError(t, err)
	d2, err := digest.ComputeDigest(map[string]interface{}{"name": "test_modified", "version": "1.0.0"})
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)
}

func TestCanonicalJSONZeroIntegerValued(t *testing.T) {
	canonical, err := digest.CanonicalJSON(map[string]interface{}{"value": 0.0})
	require.NoError(t, err)
	assert.Equal(t, `{"value":0}`, canonical)
}

func TestCanonicalJSONLargeIntegerValued(t *testing.T) {
	canonical, err := digest.CanonicalJSON(map[string]interface{}{"value": 1e10})
	require.NoError(t, err)
	assert.Equal(t, `{"value":10000000000}`, canonical)
}

func TestContentDigestFromBytesMatchesComputeDigest(t *testing.T) {
	d := digest.FromBytes([]byte(`{"value":1}`))
	assert.Len(t, d.String(), 64)
	computed, err := digest.ComputeDigest(map[string]interface{}{"value": 1.0})
	require.NoError(t, err)
	assert.Equal(t, computed, d.String())
}

func TestContentDigestFromStringValidatesLength(t *testing.T) {
	_, err := digest.FromString("not-hex")
	assert.Error(t, err)

	valid := digest.FromBytes([]byte("abc")).String()
	d, err := digest.FromString(valid)
	require.NoError(t, err)
	assert.Equal(t, valid, d.String())
}

func TestContentDigestShort(t *testing.T) {
	d := digest.FromBytes([]byte("hello"))
	assert.Len(t, d.Short(), 12)
}
