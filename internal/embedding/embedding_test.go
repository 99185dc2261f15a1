package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalIsDeterministic(t *testing.T) {
	e := NewLocal(0)
	a, err := e.Embed(context.Background(), []string{"React, Node.js, MongoDB"})
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), []string{"React, Node.js, MongoDB"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a[0], defaultDimensions)
	assert.InDelta(t, 0, CosineDistance(a[0], b[0]), 1e-6)
}

func TestLocalRanksSharedTermsCloser(t *testing.T) {
	e := NewLocal(512)
	vecs, err := e.Embed(context.Background(), []string{
		"React",
		"React Native, TypeScript",
		"Kubernetes, Terraform, AWS",
	})
	require.NoError(t, err)

	near := CosineDistance(vecs[0], vecs[1])
	far := CosineDistance(vecs[0], vecs[2])
	assert.Less(t, near, far)
}

func TestLocalEmptyText(t *testing.T) {
	vecs, err := NewLocal(16).Embed(context.Background(), []string{"", "the and of"})
	require.NoError(t, err)

	for _, v := range vecs {
		for _, x := range v {
			assert.Zero(t, x)
		}
	}
	assert.Equal(t, 1.0, CosineDistance(vecs[0], vecs[1]))
}

func TestLocalHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocal(8).Embed(ctx, []string{"Go"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"c++", "c#", "node.js", "go"}, tokenize("C++, C# and Node.js. Go!"))
}

func TestEncodeDecode(t *testing.T) {
	v := []float32{0.25, -1.5, 3}
	got, err := Decode(Encode(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCosineDistanceMismatchedLengths(t *testing.T) {
	assert.Equal(t, 1.0, CosineDistance([]float32{1}, []float32{1, 0}))
}
