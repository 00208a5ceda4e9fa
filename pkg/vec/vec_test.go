package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 4}

	assert.Equal(t, Cosine(a, b), Cosine(b, a), "cosine must be symmetric")
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-9, "self similarity must be 1")
	assert.Equal(t, 0.0, Cosine(a, []float32{0, 0, 0}), "zero vector scores 0")
	assert.Equal(t, 0.0, Cosine(nil, a))
}

func TestCosine_Orthogonal(t *testing.T) {
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}

func TestSerializeRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.75}

	blob, err := Serialize(in)
	require.NoError(t, err)
	require.Len(t, blob, 12)

	out, err := Deserialize(blob)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDeserialize_Empty(t *testing.T) {
	out, err := Deserialize(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDeserialize_BadLength(t *testing.T) {
	_, err := Deserialize([]byte{1, 2, 3})
	assert.Error(t, err)
}
