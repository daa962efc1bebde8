package forecast

import (
	"math"
	"math/rand"
)

// Layer widths of the sequence regressor.
const (
	recurrent1Size = 32
	recurrent2Size = 16
	denseSize      = 8
)

// Network is a sequence-to-scalar regressor: two stacked recurrent tanh
// layers, a tanh dense layer, and a sigmoid output bounded to (0,1). Weights
// are exported so the artifact can round-trip through JSON.
type Network struct {
	InputSize int `json:"input_size"`
	Window    int `json:"window"`

	// First recurrent layer. Wx1[i] are the input weights of unit i,
	// Wh1[i] its recurrent weights.
	Wx1 [][]float64 `json:"wx1"`
	Wh1 [][]float64 `json:"wh1"`
	B1  []float64   `json:"b1"`

	// Second recurrent layer over the first layer's hidden sequence.
	Wx2 [][]float64 `json:"wx2"`
	Wh2 [][]float64 `json:"wh2"`
	B2  []float64   `json:"b2"`

	// Dense head on the final hidden state.
	Wd [][]float64 `json:"wd"`
	Bd []float64   `json:"bd"`

	// Scalar sigmoid output.
	Wo []float64 `json:"wo"`
	Bo float64   `json:"bo"`
}

// NewNetwork initializes a network with small random weights.
func NewNetwork(inputSize, window int, rng *rand.Rand) *Network {
	return &Network{
		InputSize: inputSize,
		Window:    window,
		Wx1:       randMatrix(rng, recurrent1Size, inputSize),
		Wh1:       randMatrix(rng, recurrent1Size, recurrent1Size),
		B1:        randVector(rng, recurrent1Size),
		Wx2:       randMatrix(rng, recurrent2Size, recurrent1Size),
		Wh2:       randMatrix(rng, recurrent2Size, recurrent2Size),
		B2:        randVector(rng, recurrent2Size),
		Wd:        randMatrix(rng, denseSize, recurrent2Size),
		Bd:        randVector(rng, denseSize),
		Wo:        randVector(rng, denseSize),
	}
}

func randMatrix(rng *rand.Rand, rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = (rng.Float64() - 0.5) * 0.2
		}
	}
	return m
}

func randVector(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = (rng.Float64() - 0.5) * 0.2
	}
	return v
}

// states caches every activation of one forward pass for backpropagation.
type states struct {
	h1    [][]float64 // hidden sequence of layer 1, h1[t]
	h2    [][]float64
	dense []float64
	out   float64
}

// Forward runs the network over one scaled sequence and returns the bounded
// output in (0,1).
func (n *Network) Forward(seq [][]float64) float64 {
	st := n.forward(seq)
	return st.out
}

func (n *Network) forward(seq [][]float64) *states {
	steps := len(seq)
	st := &states{
		h1: make([][]float64, steps),
		h2: make([][]float64, steps),
	}

	prev1 := make([]float64, recurrent1Size)
	prev2 := make([]float64, recurrent2Size)
	for t := 0; t < steps; t++ {
		h1 := make([]float64, recurrent1Size)
		for i := 0; i < recurrent1Size; i++ {
			a := n.B1[i] + dot(n.Wx1[i], seq[t]) + dot(n.Wh1[i], prev1)
			h1[i] = math.Tanh(a)
		}
		h2 := make([]float64, recurrent2Size)
		for i := 0; i < recurrent2Size; i++ {
			a := n.B2[i] + dot(n.Wx2[i], h1) + dot(n.Wh2[i], prev2)
			h2[i] = math.Tanh(a)
		}
		st.h1[t] = h1
		st.h2[t] = h2
		prev1, prev2 = h1, h2
	}

	st.dense = make([]float64, denseSize)
	for i := 0; i < denseSize; i++ {
		st.dense[i] = math.Tanh(n.Bd[i] + dot(n.Wd[i], prev2))
	}
	st.out = sigmoid(n.Bo + dot(n.Wo, st.dense))
	return st
}

// trainSample runs one stochastic gradient step against squared error and
// returns the pre-update squared error. Gradients flow through both recurrent
// layers over the full window, with per-element clipping for stability.
func (n *Network) trainSample(seq [][]float64, target, lr float64) float64 {
	st := n.forward(seq)
	steps := len(seq)

	diff := st.out - target
	loss := diff * diff

	// Output head.
	dzOut := clip(2 * diff * st.out * (1 - st.out))
	dDense := make([]float64, denseSize)
	for i := 0; i < denseSize; i++ {
		dDense[i] = dzOut * n.Wo[i]
		n.Wo[i] -= lr * dzOut * st.dense[i]
	}
	n.Bo -= lr * dzOut

	// Dense head.
	last2 := st.h2[steps-1]
	dh2 := make([]float64, recurrent2Size)
	for i := 0; i < denseSize; i++ {
		dz := clip(dDense[i] * (1 - st.dense[i]*st.dense[i]))
		for j := 0; j < recurrent2Size; j++ {
			dh2[j] += dz * n.Wd[i][j]
			n.Wd[i][j] -= lr * dz * last2[j]
		}
		n.Bd[i] -= lr * dz
	}

	// Backpropagation through time over both recurrent layers.
	dh1 := make([]float64, recurrent1Size)
	for t := steps - 1; t >= 0; t-- {
		h1 := st.h1[t]
		h2 := st.h2[t]
		prev1 := zeroOr(st.h1, t-1, recurrent1Size)
		prev2 := zeroOr(st.h2, t-1, recurrent2Size)

		nextDh2 := make([]float64, recurrent2Size)
		for i := 0; i < recurrent2Size; i++ {
			dz := clip(dh2[i] * (1 - h2[i]*h2[i]))
			for j := 0; j < recurrent1Size; j++ {
				dh1[j] += dz * n.Wx2[i][j]
				n.Wx2[i][j] -= lr * dz * h1[j]
			}
			for j := 0; j < recurrent2Size; j++ {
				nextDh2[j] += dz * n.Wh2[i][j]
				n.Wh2[i][j] -= lr * dz * prev2[j]
			}
			n.B2[i] -= lr * dz
		}
		dh2 = nextDh2

		nextDh1 := make([]float64, recurrent1Size)
		for i := 0; i < recurrent1Size; i++ {
			dz := clip(dh1[i] * (1 - h1[i]*h1[i]))
			for j := 0; j < n.InputSize; j++ {
				n.Wx1[i][j] -= lr * dz * seq[t][j]
			}
			for j := 0; j < recurrent1Size; j++ {
				nextDh1[j] += dz * n.Wh1[i][j]
				n.Wh1[i][j] -= lr * dz * prev1[j]
			}
			n.B1[i] -= lr * dz
		}
		dh1 = nextDh1
	}

	return loss
}

// Clone deep-copies the network for best-weights restoration.
func (n *Network) Clone() *Network {
	c := *n
	c.Wx1 = copyMatrix(n.Wx1)
	c.Wh1 = copyMatrix(n.Wh1)
	c.B1 = append([]float64(nil), n.B1...)
	c.Wx2 = copyMatrix(n.Wx2)
	c.Wh2 = copyMatrix(n.Wh2)
	c.B2 = append([]float64(nil), n.B2...)
	c.Wd = copyMatrix(n.Wd)
	c.Bd = append([]float64(nil), n.Bd...)
	c.Wo = append([]float64(nil), n.Wo...)
	return &c
}

// ShapeValid verifies that a deserialized network has the expected
// dimensions for the given feature width.
func (n *Network) ShapeValid(inputSize int) bool {
	if n == nil || n.InputSize != inputSize || n.Window <= 0 {
		return false
	}
	if !matrixShape(n.Wx1, recurrent1Size, inputSize) ||
		!matrixShape(n.Wh1, recurrent1Size, recurrent1Size) ||
		len(n.B1) != recurrent1Size {
		return false
	}
	if !matrixShape(n.Wx2, recurrent2Size, recurrent1Size) ||
		!matrixShape(n.Wh2, recurrent2Size, recurrent2Size) ||
		len(n.B2) != recurrent2Size {
		return false
	}
	if !matrixShape(n.Wd, denseSize, recurrent2Size) || len(n.Bd) != denseSize {
		return false
	}
	return len(n.Wo) == denseSize
}

func matrixShape(m [][]float64, rows, cols int) bool {
	if len(m) != rows {
		return false
	}
	for _, r := range m {
		if len(r) != cols {
			return false
		}
	}
	return true
}

func copyMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, r := range m {
		out[i] = append([]float64(nil), r...)
	}
	return out
}

func zeroOr(rows [][]float64, t, width int) []float64 {
	if t < 0 {
		return make([]float64, width)
	}
	return rows[t]
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

const gradClip = 5.0

func clip(x float64) float64 {
	if x > gradClip {
		return gradClip
	}
	if x < -gradClip {
		return -gradClip
	}
	return x
}
