package forecast

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeq(rng *rand.Rand, window, width int) [][]float64 {
	seq := make([][]float64, window)
	for i := range seq {
		seq[i] = make([]float64, width)
		for j := range seq[i] {
			seq[i][j] = rng.Float64()
		}
	}
	return seq
}

func TestNewNetworkShape(t *testing.T) {
	net := NewNetwork(4, 14, rand.New(rand.NewSource(1)))
	assert.True(t, net.ShapeValid(4))
	assert.False(t, net.ShapeValid(5))
	assert.Equal(t, 4, net.InputSize)
	assert.Equal(t, 14, net.Window)
}

func TestForwardOutputRange(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	net := NewNetwork(4, 10, rng)
	for i := 0; i < 20; i++ {
		out := net.Forward(testSeq(rng, 10, 4))
		assert.Greater(t, out, 0.0)
		assert.Less(t, out, 1.0)
	}
}

func TestForwardDeterministicForSeed(t *testing.T) {
	seq := testSeq(rand.New(rand.NewSource(3)), 8, 4)
	a := NewNetwork(4, 8, rand.New(rand.NewSource(7)))
	b := NewNetwork(4, 8, rand.New(rand.NewSource(7)))
	assert.Equal(t, a.Forward(seq), b.Forward(seq))
}

func TestCloneIsIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	net := NewNetwork(4, 8, rng)
	seq := testSeq(rng, 8, 4)

	clone := net.Clone()
	before := clone.Forward(seq)

	// Training the original must not leak into the clone.
	for i := 0; i < 50; i++ {
		net.trainSample(seq, 0.9, 0.05)
	}
	assert.Equal(t, before, clone.Forward(seq))
	assert.NotEqual(t, net.Forward(seq), clone.Forward(seq))
}

func TestTrainSampleConverges(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	net := NewNetwork(4, 8, rng)
	seq := testSeq(rng, 8, 4)
	target := 0.8

	first := net.trainSample(seq, target, 0.05)
	var last float64
	for i := 0; i < 200; i++ {
		last = net.trainSample(seq, target, 0.05)
	}
	require.Less(t, last, first, "repeated updates on one sample must reduce its loss")
	assert.InDelta(t, target, net.Forward(seq), 0.1)
}

func TestClipBoundsGradientTerms(t *testing.T) {
	assert.Equal(t, gradClip, clip(1e9))
	assert.Equal(t, -gradClip, clip(-1e9))
	assert.Equal(t, 1.5, clip(1.5))
}
